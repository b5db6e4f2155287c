package checker

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/mattsolo1/svpipe/internal/errs"
)

// libraryDirRe recognizes a library's output directory name, mirroring
// builder.LibraryDirName's "<lib>_<disease>_<protocol>" convention.
var libraryDirRe = regexp.MustCompile(`^([\w-]+)_([\w-]+)_(genome|transcriptome)$`)

// OrderingViolation records a cross-stage timestamp inconsistency.
type OrderingViolation struct {
	Library string
	Task    int
	Detail  string
}

// PipelineReport is the complete result of checking one output root.
type PipelineReport struct {
	OutputRoot  string
	Libraries   []*LibraryReport
	Pairing     *StageReport
	Summary     *StageReport
	Ignored     []string
	Violations  []OrderingViolation
	Success     bool
	LogParseErr bool
}

// CheckOptions configures a Check invocation.
type CheckOptions struct {
	OutputRoot     string
	SkipValidation bool
	SkipPairing    bool
}

// Check walks outputRoot and classifies every library, plus the shared
// pairing/summary stages.
func Check(opts CheckOptions) (*PipelineReport, error) {
	entries, err := os.ReadDir(opts.OutputRoot)
	if err != nil {
		return nil, errs.Wrap(errs.UserInput, err, "reading output root %s", opts.OutputRoot)
	}

	report := &PipelineReport{OutputRoot: opts.OutputRoot, Success: true}

	var libNames []string
	libDirs := map[string]string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		switch e.Name() {
		case "pairing", "summary", "converted_inputs":
			continue
		}
		if libraryDirRe.MatchString(e.Name()) {
			libNames = append(libNames, e.Name())
			libDirs[e.Name()] = filepath.Join(opts.OutputRoot, e.Name())
			continue
		}
		report.Ignored = append(report.Ignored, e.Name())
	}
	sort.Strings(libNames)

	for _, name := range libNames {
		lr, err := ReportLibrary(name, libDirs[name], opts.SkipValidation)
		if err != nil {
			return nil, err
		}
		report.Libraries = append(report.Libraries, lr)
		report.Success = report.Success && lr.Success
		report.LogParseErr = report.LogParseErr || lr.LogParseError
	}

	if !opts.SkipPairing {
		pairingDir := filepath.Join(opts.OutputRoot, "pairing")
		if _, err := os.Stat(pairingDir); err == nil {
			pr, err := ReportStage(pairingDir, StagePairing, nil)
			if err != nil {
				return nil, err
			}
			report.Pairing = pr
			report.Success = report.Success && stageOK(pr)
		}

		summaryDir := filepath.Join(opts.OutputRoot, "summary")
		if _, err := os.Stat(summaryDir); err == nil {
			sr, err := ReportStage(summaryDir, StageSummary, nil)
			if err != nil {
				return nil, err
			}
			report.Summary = sr
			report.Success = report.Success && stageOK(sr)
		}
	}

	report.Violations = checkOrdering(report)
	if len(report.Violations) > 0 {
		report.Success = false
	}

	return report, nil
}

// checkOrdering enforces the cross-stage completion-stamp invariant:
// cluster_stamp <= every validate_stamp <= same-task annotate_stamp <=
// pairing_stamp <= summary_stamp. Violations are collected, not fatal.
func checkOrdering(report *PipelineReport) []OrderingViolation {
	var violations []OrderingViolation

	var pairingStamp, summaryStamp *int64
	if report.Pairing != nil {
		if t, ok := report.Pairing.Tasks[1]; ok {
			pairingStamp = t.StampTime
		}
	}
	if report.Summary != nil {
		if t, ok := report.Summary.Tasks[1]; ok {
			summaryStamp = t.StampTime
		}
	}

	for _, lib := range report.Libraries {
		var clusterStamp *int64
		if lib.Cluster != nil {
			if t, ok := lib.Cluster.Tasks[1]; ok {
				clusterStamp = t.StampTime
			}
		}

		for k, vt := range taskMapOf(lib.Validate) {
			if clusterStamp != nil && vt.StampTime != nil && *vt.StampTime < *clusterStamp {
				violations = append(violations, OrderingViolation{
					Library: lib.Name, Task: k,
					Detail: "validate stamp precedes cluster stamp",
				})
			}
			at, ok := taskMapOf(lib.Annotate)[k]
			if ok && vt.StampTime != nil && at.StampTime != nil && *at.StampTime < *vt.StampTime {
				violations = append(violations, OrderingViolation{
					Library: lib.Name, Task: k,
					Detail: "annotate stamp precedes validate stamp",
				})
			}
			if ok && at.StampTime != nil && pairingStamp != nil && *pairingStamp < *at.StampTime {
				violations = append(violations, OrderingViolation{
					Library: lib.Name, Task: k,
					Detail: "pairing stamp precedes annotate stamp",
				})
			}
		}
	}

	if pairingStamp != nil && summaryStamp != nil && *summaryStamp < *pairingStamp {
		violations = append(violations, OrderingViolation{Detail: "summary stamp precedes pairing stamp"})
	}

	return violations
}

func taskMapOf(s *StageReport) map[int]TaskReport {
	if s == nil {
		return nil
	}
	return s.Tasks
}
