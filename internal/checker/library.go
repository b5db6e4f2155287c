package checker

import (
	"os"
	"path/filepath"
)

// LibraryReport aggregates the cluster/validate/annotate stages for one
// library directory.
type LibraryReport struct {
	Name          string
	Dir           string
	Cluster       *StageReport
	Validate      *StageReport
	Annotate      *StageReport
	Success       bool
	MaxRunTime    *int
	TotalRunTime  *int
	LogParseError bool
}

// stageOK mirrors the completion table's notion of a clean stage: every
// task COMPLETE, nothing missing, nothing crashed.
func stageOK(s *StageReport) bool {
	if s == nil {
		return true
	}
	for _, t := range s.Tasks {
		if t.Status != TaskComplete {
			return false
		}
	}
	return true
}

// ReportLibrary inspects one library directory, unioning task indices
// across its three per-library stages so that a task present in one
// stage's subdirectories but absent from another is still classified
// (rather than silently treated as out of range).
func ReportLibrary(name, libDir string, skipValidation bool) (*LibraryReport, error) {
	clusterDir := filepath.Join(libDir, "cluster")
	validateDir := filepath.Join(libDir, "validate")
	annotateDir := filepath.Join(libDir, "annotate")

	clusterIDs, err := discoverTaskIDs(clusterDir)
	if err != nil {
		return nil, err
	}
	validateIDs, err := discoverTaskIDs(validateDir)
	if err != nil {
		return nil, err
	}
	annotateIDs, err := discoverTaskIDs(annotateDir)
	if err != nil {
		return nil, err
	}

	union := map[int]struct{}{}
	for k := range clusterIDs {
		union[k] = struct{}{}
	}
	for k := range validateIDs {
		union[k] = struct{}{}
	}
	for k := range annotateIDs {
		union[k] = struct{}{}
	}
	if len(union) == 0 {
		union = setOf(1)
	}

	r := &LibraryReport{Name: name, Dir: libDir}

	if _, err := os.Stat(clusterDir); err == nil {
		r.Cluster, err = ReportStage(clusterDir, StageCluster, union)
		if err != nil {
			return nil, err
		}
	}
	if !skipValidation {
		if _, err := os.Stat(validateDir); err == nil {
			r.Validate, err = ReportStage(validateDir, StageValidate, union)
			if err != nil {
				return nil, err
			}
		}
	}
	if _, err := os.Stat(annotateDir); err == nil {
		r.Annotate, err = ReportStage(annotateDir, StageAnnotate, union)
		if err != nil {
			return nil, err
		}
	}

	r.Success = stageOK(r.Cluster) && stageOK(r.Validate) && stageOK(r.Annotate)

	maxRT, totalRT, parseErr := aggregateRunTimes(r.Validate, r.Annotate)
	r.MaxRunTime = maxRT
	r.TotalRunTime = totalRT
	r.LogParseError = parseErr

	return r, nil
}

// aggregateRunTimes sums validate+annotate runtime per task index (the
// two stages that dominate wall-clock per array task), tracking the max
// across tasks and the grand total. Any task missing a parseable
// runtime sets the parse-error flag so the caller can render the
// "min " qualifier on its aggregate.
func aggregateRunTimes(validate, annotate *StageReport) (maxRT, totalRT *int, parseErr bool) {
	indices := map[int]struct{}{}
	if validate != nil {
		for k := range validate.Tasks {
			indices[k] = struct{}{}
		}
	}
	if annotate != nil {
		for k := range annotate.Tasks {
			indices[k] = struct{}{}
		}
	}
	if len(indices) == 0 {
		return nil, nil, false
	}

	max := 0
	total := 0
	any := false
	for k := range indices {
		sum := 0
		have := false
		if validate != nil {
			if t, ok := validate.Tasks[k]; ok {
				if t.RunTime != nil {
					sum += *t.RunTime
					have = true
				} else {
					parseErr = true
				}
			}
		}
		if annotate != nil {
			if t, ok := annotate.Tasks[k]; ok {
				if t.RunTime != nil {
					sum += *t.RunTime
					have = true
				} else {
					parseErr = true
				}
			}
		}
		if have {
			any = true
			total += sum
			if sum > max {
				max = sum
			}
		}
	}
	if !any {
		return nil, nil, parseErr
	}
	return &max, &total, parseErr
}
