package job

import "errors"

var errZeroTasks = errors.New("array job must declare at least one task")
