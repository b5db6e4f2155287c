// Package report renders checker.PipelineReport results to a terminal,
// colorizing per-task/per-stage status the way the checker itself never
// does — the checker package returns data, this package prints it.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mattsolo1/svpipe/internal/checker"
)

// Write renders report to stdout, disabling color automatically when
// stdout isn't a terminal (piped output, CI logs).
func Write(r *checker.PipelineReport) error {
	useColor := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return render(os.Stdout, r, useColor)
}

// Render writes report to w without any TTY auto-detection, for callers
// (and tests) that want deterministic plain-text output.
func Render(w io.Writer, r *checker.PipelineReport) error {
	return render(w, r, false)
}

func render(w io.Writer, r *checker.PipelineReport, useColor bool) error {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	if !useColor {
		ok = fmt.Sprint
		bad = fmt.Sprint
		warn = fmt.Sprint
	}

	fmt.Fprintf(w, "Output root: %s\n", r.OutputRoot)

	for _, lib := range r.Libraries {
		status := ok("OK")
		if !lib.Success {
			status = bad("FAIL")
		}
		fmt.Fprintf(w, "\nLibrary %s [%s]\n", lib.Name, status)
		renderStage(w, "cluster", lib.Cluster, ok, bad, warn)
		renderStage(w, "validate", lib.Validate, ok, bad, warn)
		renderStage(w, "annotate", lib.Annotate, ok, bad, warn)
		if lib.MaxRunTime != nil {
			prefix := ""
			if lib.LogParseError {
				prefix = "min "
			}
			fmt.Fprintf(w, "  %sparallel run time (s): %d\n", prefix, *lib.MaxRunTime)
			fmt.Fprintf(w, "  %stotal run time (s): %d\n", prefix, *lib.TotalRunTime)
		}
	}

	if r.Pairing != nil {
		fmt.Fprintln(w, "\nPairing")
		renderStage(w, "pairing", r.Pairing, ok, bad, warn)
	}
	if r.Summary != nil {
		fmt.Fprintln(w, "\nSummary")
		renderStage(w, "summary", r.Summary, ok, bad, warn)
	}

	if len(r.Ignored) > 0 {
		fmt.Fprintf(w, "\nIgnored entries (not library/pairing/summary dirs): %v\n", r.Ignored)
	}

	if len(r.Violations) > 0 {
		fmt.Fprintln(w, "\nOrdering violations:")
		for _, v := range r.Violations {
			if v.Library != "" {
				fmt.Fprintf(w, "  %s %s task %d: %s\n", warn("!"), v.Library, v.Task, v.Detail)
			} else {
				fmt.Fprintf(w, "  %s %s\n", warn("!"), v.Detail)
			}
		}
	}

	fmt.Fprintln(w)
	if r.Success {
		fmt.Fprintf(w, "%s pipeline complete\n", ok("✓"))
	} else {
		fmt.Fprintf(w, "%s pipeline incomplete\n", bad("✗"))
	}

	return nil
}

func renderStage(w io.Writer, name string, s *checker.StageReport, ok, bad, warn func(a ...interface{}) string) {
	if s == nil {
		fmt.Fprintf(w, "  %s: %s\n", name, warn("not started"))
		return
	}

	indices := map[int]struct{}{}
	byStatus := map[checker.TaskStatus]map[int]struct{}{}
	for idx, t := range s.Tasks {
		indices[idx] = struct{}{}
		if byStatus[t.Status] == nil {
			byStatus[t.Status] = map[int]struct{}{}
		}
		byStatus[t.Status][idx] = struct{}{}
	}

	if len(indices) == 1 {
		for idx := range indices {
			task := s.Tasks[idx]
			fmt.Fprintf(w, "  %s: %s\n", name, colorStatus(task.Status, ok, bad, warn))
			if task.Message != "" {
				fmt.Fprintf(w, "    %s\n", task.Message)
			}
		}
		return
	}

	fmt.Fprintf(w, "  %s:\n", name)
	for _, status := range []checker.TaskStatus{
		checker.TaskComplete, checker.TaskCrash, checker.TaskIncomplete,
		checker.TaskMissingStamp, checker.TaskMissingLog, checker.TaskNotStarted,
	} {
		idxSet, found := byStatus[status]
		if !found {
			continue
		}
		fmt.Fprintf(w, "    %s: %s\n", colorStatus(status, ok, bad, warn), checker.ConvertSetToRanges(idxSet))
	}
}

func colorStatus(status checker.TaskStatus, ok, bad, warn func(a ...interface{}) string) string {
	switch status {
	case checker.TaskComplete:
		return ok(string(status))
	case checker.TaskCrash, checker.TaskMissingStamp, checker.TaskMissingLog:
		return bad(string(status))
	case checker.TaskIncomplete, checker.TaskNotStarted:
		return warn(string(status))
	default:
		return string(status)
	}
}
