// Package job defines the typed job/array-job model described by the
// pipeline core's data model: a job's stage, resources, dependencies,
// status, and (for array jobs) its per-task status list.
package job

import "github.com/google/uuid"

// Status is the canonical job/task status enumeration.
type Status string

const (
	NotSubmitted Status = "NOT_SUBMITTED"
	Submitted    Status = "SUBMITTED"
	Pending      Status = "PENDING"
	Running      Status = "RUNNING"
	Completed    Status = "COMPLETED"
	Failed       Status = "FAILED"
	Cancelled    Status = "CANCELLED"
	Error        Status = "ERROR"
	Unknown      Status = "UNKNOWN"
)

// rank gives each status a position in the worst-wins ordering used by
// CumulativeState: ERROR > FAILED > CANCELLED > RUNNING > PENDING >
// SUBMITTED > UNKNOWN > COMPLETED > NOT_SUBMITTED.
var rank = map[Status]int{
	Error:        8,
	Failed:       7,
	Cancelled:    6,
	Running:      5,
	Pending:      4,
	Submitted:    3,
	Unknown:      2,
	Completed:    1,
	NotSubmitted: 0,
}

// CumulativeState folds a set of task/job statuses into a single status
// using the worst-wins rule: ERROR beats FAILED beats CANCELLED beats
// RUNNING beats (PENDING or SUBMITTED) beats COMPLETED (when all are
// COMPLETED); anything else that doesn't fit those buckets is UNKNOWN.
func CumulativeState(states []Status) Status {
	if len(states) == 0 {
		return Unknown
	}

	var anyError, anyFailed, anyCancelled, anyRunning, anyPending, allCompleted bool
	allCompleted = true
	for _, s := range states {
		switch s {
		case Error:
			anyError = true
		case Failed:
			anyFailed = true
		case Cancelled:
			anyCancelled = true
		case Running:
			anyRunning = true
		case Pending, Submitted:
			anyPending = true
		}
		if s != Completed {
			allCompleted = false
		}
	}

	switch {
	case anyError:
		return Error
	case anyFailed:
		return Failed
	case anyCancelled:
		return Cancelled
	case anyRunning:
		return Running
	case anyPending:
		return Pending
	case allCompleted:
		return Completed
	default:
		return Unknown
	}
}

// Worse reports whether a is a worse (higher-priority) state than b under
// the cumulative-state ordering.
func Worse(a, b Status) bool {
	return rank[a] > rank[b]
}

// Stage identifies which pipeline stage a job belongs to.
type Stage string

const (
	StageCluster  Stage = "cluster"
	StageValidate Stage = "validate"
	StageAnnotate Stage = "annotate"
	StagePairing  Stage = "pairing"
	StageSummary  Stage = "summary"
)

// MailType mirrors the scheduler-agnostic mail-notification setting.
type MailType string

const (
	MailNone  MailType = "none"
	MailBegin MailType = "begin"
	MailEnd   MailType = "end"
	MailFail  MailType = "fail"
	MailAll   MailType = "all"
)

// Resources holds a job's resource requirements.
type Resources struct {
	MemoryMB   int
	WallTimeS  int
	Queue      string
	ImportEnv  bool
}

// Job describes a single (non-array) scheduler job.
type Job struct {
	Name           string
	Stage          Stage
	Script         string
	Resources      Resources
	Dependencies   []string // job names
	Status         Status
	JobIdent       string
	StatusComment  string
	MailType       MailType
	MailUser       string
	StdoutTemplate string

	// SubmitTraceID is a correlation ID assigned by NewTrace and persisted
	// in the manifest; the scheduler adapters' Submit does not assign it.
	SubmitTraceID string
}

// Task is one 1-based task of an ArrayJob.
type Task struct {
	Index         int
	Status        Status
	StatusComment string
}

// ArrayJob extends Job with a task count, optional concurrency cap, and
// the per-task status list.
type ArrayJob struct {
	Job
	Tasks            int
	ConcurrencyLimit int // 0 means unset
	TaskList         []*Task
}

// NewTrace assigns a SubmitTraceID if one is not already set, returning it.
func (j *Job) NewTrace() string {
	if j.SubmitTraceID == "" {
		j.SubmitTraceID = uuid.NewString()
	}
	return j.SubmitTraceID
}

// NewArrayJob constructs an ArrayJob with N contiguous tasks numbered
// 1..n, all initialized to NOT_SUBMITTED. Returns an error if n <= 0.
func NewArrayJob(base Job, n int, concurrency int) (*ArrayJob, error) {
	if n <= 0 {
		return nil, errZeroTasks
	}
	tasks := make([]*Task, n)
	for i := 0; i < n; i++ {
		tasks[i] = &Task{Index: i + 1, Status: NotSubmitted}
	}
	base.Status = NotSubmitted
	return &ArrayJob{
		Job:              base,
		Tasks:            n,
		ConcurrencyLimit: concurrency,
		TaskList:         tasks,
	}, nil
}

// CumulativeStatus derives the ArrayJob's overall status from its tasks
// via the worst-wins rule, per the enclosing-job cumulative-state rule.
func (a *ArrayJob) CumulativeStatus() Status {
	if len(a.TaskList) == 0 {
		return a.Status
	}
	states := make([]Status, len(a.TaskList))
	for i, t := range a.TaskList {
		states[i] = t.Status
	}
	return CumulativeState(states)
}

// Task returns the 1-based task with the given index, or nil.
func (a *ArrayJob) Task(index int) *Task {
	if index < 1 || index > len(a.TaskList) {
		return nil
	}
	return a.TaskList[index-1]
}
