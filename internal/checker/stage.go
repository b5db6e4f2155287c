package checker

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// CompletionStamp is the empty marker file a worker writes on success.
const CompletionStamp = "MAVIS.COMPLETE"

// StageKind names one of the five pipeline stages a checker can inspect.
type StageKind string

const (
	StageCluster  StageKind = "cluster"
	StageValidate StageKind = "validate"
	StageAnnotate StageKind = "annotate"
	StagePairing  StageKind = "pairing"
	StageSummary  StageKind = "summary"
)

// perTask reports whether a stage is array-indexed (one stamp/log per
// task subdirectory) rather than a single stage-root stamp/log.
func (k StageKind) perTask() bool {
	return k == StageValidate || k == StageAnnotate
}

// TaskStatus is the per-task classification from the completion table.
type TaskStatus string

const (
	TaskComplete     TaskStatus = "COMPLETE"
	TaskCrash        TaskStatus = "CRASH"
	TaskIncomplete   TaskStatus = "INCOMPLETE"
	TaskMissingStamp TaskStatus = "MISSING_STAMP"
	TaskMissingLog   TaskStatus = "MISSING_LOG"
	TaskNotStarted   TaskStatus = "NOT_STARTED"
)

// TaskReport is the classification and supporting evidence for one task
// index within a stage (index 1 for non-array stages).
type TaskReport struct {
	Index      int
	Status     TaskStatus
	Message    string
	RunTime    *int
	StampTime  *int64 // unix seconds, nil if no stamp found
	LogModTime *int64
}

// StageReport is the classification of every task within one stage of
// one library.
type StageReport struct {
	Stage StageKind
	Dir   string
	Tasks map[int]TaskReport
}

var taskSubdirRe = regexp.MustCompile(`^.+-(\d+)$`)

// discoverTaskIDs finds the task indices a stage's output directory has
// subdirectories for, by matching `<anything>-<k>` entries. Returns an
// empty set (not an error) when the stage is not array-indexed or has no
// subdirectories yet.
func discoverTaskIDs(dir string) (map[int]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[int]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	ids := map[int]struct{}{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m := taskSubdirRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		var k int
		if _, err := fmt.Sscanf(m[1], "%d", &k); err == nil {
			ids[k] = struct{}{}
		}
	}
	return ids, nil
}

// collectStamp returns the stamp's mtime (unix seconds) if present.
func collectStamp(stageDir string, stage StageKind, taskID int) *int64 {
	var path string
	if stage.perTask() {
		path = filepath.Join(taskSubdirFor(stageDir, taskID), CompletionStamp)
	} else {
		path = filepath.Join(stageDir, CompletionStamp)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	t := info.ModTime().Unix()
	return &t
}

// taskSubdirFor finds the `<prefix>-<taskID>` subdirectory of stageDir,
// or returns a directory name that will simply not exist if none match.
func taskSubdirFor(stageDir string, taskID int) string {
	entries, err := os.ReadDir(stageDir)
	if err != nil {
		return filepath.Join(stageDir, fmt.Sprintf("unknown-%d", taskID))
	}
	suffix := fmt.Sprintf("-%d", taskID)
	for _, e := range entries {
		if e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			return filepath.Join(stageDir, e.Name())
		}
	}
	return filepath.Join(stageDir, fmt.Sprintf("unknown-%d", taskID))
}

// collectLog locates and parses the newest matching log for a task,
// preferring the scheduler-output pattern, then the task subdirectory,
// then a manual-run fallback at the stage root.
func collectLog(stageDir string, stage StageKind, taskID int) (*LogDetails, string, error) {
	var candidates []string

	if stage.perTask() {
		pattern := filepath.Join(stageDir, fmt.Sprintf("*.o*.%d", taskID))
		matches, _ := filepath.Glob(pattern)
		candidates = append(candidates, matches...)

		sub := taskSubdirFor(stageDir, taskID)
		matches, _ = filepath.Glob(filepath.Join(sub, "*.log"))
		candidates = append(candidates, matches...)

		matches, _ = filepath.Glob(filepath.Join(stageDir, "*.log"))
		candidates = append(candidates, matches...)
	} else {
		matches, _ := filepath.Glob(filepath.Join(stageDir, "*.o*"))
		candidates = append(candidates, matches...)
		matches, _ = filepath.Glob(filepath.Join(stageDir, "*.log"))
		candidates = append(candidates, matches...)
	}

	newest := newestFile(candidates)
	if newest == "" {
		return nil, "", nil
	}
	details, err := ParseLog(newest)
	if err != nil {
		return nil, newest, err
	}
	return details, newest, nil
}

func newestFile(paths []string) string {
	var best string
	var bestMod int64 = -1
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if m := info.ModTime().Unix(); m > bestMod {
			bestMod = m
			best = p
		}
	}
	return best
}

// classifyTask applies the completion table from the checker spec:
// log+stamp inspects the log; log-only resolves to CRASH, INCOMPLETE, or
// MISSING_STAMP; stamp-only is MISSING_LOG; neither is NOT_STARTED.
func classifyTask(index int, stampTime *int64, log *LogDetails, logModTime int64) TaskReport {
	r := TaskReport{Index: index, StampTime: stampTime}
	switch {
	case log != nil && stampTime != nil:
		r.LogModTime = &logModTime
		switch log.Status {
		case LogComplete:
			r.Status = TaskComplete
			r.RunTime = log.RunTime
		case LogCrash:
			r.Status = TaskCrash
			r.Message = log.Message
		default:
			r.Status = TaskIncomplete
			r.Message = log.Message
		}
	case log != nil && stampTime == nil:
		r.LogModTime = &logModTime
		switch log.Status {
		case LogCrash:
			r.Status = TaskCrash
			r.Message = log.Message
		case LogComplete:
			r.Status = TaskMissingStamp
			r.RunTime = log.RunTime
		default:
			r.Status = TaskIncomplete
			r.Message = log.Message
		}
	case log == nil && stampTime != nil:
		r.Status = TaskMissingLog
	default:
		r.Status = TaskNotStarted
	}
	return r
}

// ReportStage classifies every task index in taskIDs (or just index 1
// for non-array stages) for one stage directory.
func ReportStage(stageDir string, stage StageKind, taskIDs map[int]struct{}) (*StageReport, error) {
	if _, err := os.Stat(stageDir); err != nil {
		return nil, fmt.Errorf("stage directory %s: %w", stageDir, err)
	}

	indices := taskIDs
	if !stage.perTask() {
		indices = setOf(1)
	}
	if len(indices) == 0 {
		indices = setOf(1)
	}

	sorted := make([]int, 0, len(indices))
	for k := range indices {
		sorted = append(sorted, k)
	}
	sort.Ints(sorted)

	tasks := make(map[int]TaskReport, len(sorted))
	for _, k := range sorted {
		stampTime := collectStamp(stageDir, stage, k)
		log, logPath, err := collectLog(stageDir, stage, k)
		if err != nil {
			return nil, err
		}
		var logMod int64
		if logPath != "" {
			if info, err := os.Stat(logPath); err == nil {
				logMod = info.ModTime().Unix()
			}
		}
		tasks[k] = classifyTask(k, stampTime, log, logMod)
	}

	return &StageReport{Stage: stage, Dir: stageDir, Tasks: tasks}, nil
}
