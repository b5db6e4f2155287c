package checker

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LogStatus classifies a single stage/task log file.
type LogStatus string

const (
	LogEmpty      LogStatus = "EMPTY"
	LogCrash      LogStatus = "CRASH"
	LogIncomplete LogStatus = "INCOMPLETE"
	LogComplete   LogStatus = "COMPLETE"
)

var runTimeLineRe = regexp.MustCompile(`(?i)^\s*run time \(s\):\s*(\d+)\s*$`)

// LogDetails is the result of inspecting one worker log file.
type LogDetails struct {
	Status  LogStatus
	Message string
	RunTime *int
	ModTime time.Time
}

// ParseLog classifies the log file at path following the same three-way
// split a worker's own log convention uses: empty, last line mentions
// "error", or the trailing lines carry a "run time (s): N" stamp.
func ParseLog(path string) (*LogDetails, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(data) == 0 || (len(lines) == 1 && lines[0] == "") {
		return &LogDetails{Status: LogEmpty, ModTime: info.ModTime()}, nil
	}

	lastLine := lines[len(lines)-1]
	if strings.Contains(strings.ToLower(lastLine), "error") {
		return &LogDetails{Status: LogCrash, Message: strings.TrimSpace(lastLine), ModTime: info.ModTime()}, nil
	}

	tailStart := 0
	if len(lines) > 10 {
		tailStart = len(lines) - 10
	}
	for i := len(lines) - 1; i >= tailStart; i-- {
		m := runTimeLineRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		secs, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &LogDetails{Status: LogComplete, RunTime: &secs, ModTime: info.ModTime()}, nil
	}

	return &LogDetails{Status: LogIncomplete, Message: strings.TrimSpace(lastLine), ModTime: info.ModTime()}, nil
}
