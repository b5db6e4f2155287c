package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/scheduler"
)

// WorkerCommand is the opaque analytic worker invocation the Builder
// assembles flags for, but never itself runs; the scheduler executes it.
type WorkerCommand struct {
	Program string
	Flags   []string
}

// String renders the command as a single shell-invokable line.
func (w WorkerCommand) String() string {
	if len(w.Flags) == 0 {
		return w.Program
	}
	return w.Program + " " + strings.Join(w.Flags, " ")
}

// EmitScript writes a shell script at path that declares the back-end's
// header directives as comments, names its task-index environment
// variable in a comment, and invokes cmd. The script does not itself
// read or export the task index — the worker command line is expected
// to already reference the env var where it needs per-task behavior.
func EmitScript(path string, adapter scheduler.Adapter, cmd WorkerCommand) error {
	var b strings.Builder
	fmt.Fprintf(&b, "#!/bin/bash\n")
	fmt.Fprintf(&b, "%s -S /bin/bash\n", adapter.HeaderPrefix())
	fmt.Fprintf(&b, "set -euo pipefail\n\n")
	fmt.Fprintf(&b, "# task index, if any, is available as $%s\n", adapter.EnvTaskIdent())
	fmt.Fprintf(&b, "%s\n", cmd.String())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.UserInput, err, "creating directory for script %s", path)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o755); err != nil {
		return errs.Wrap(errs.UserInput, err, "writing script %s", path)
	}
	return nil
}

// ValidationCommand assembles the validation worker's flags from a
// library and the pipeline config.
func ValidationCommand(cfg *PipelineConfig, lib LibraryConfig, inputs []string, clusterFile, outputDir string) WorkerCommand {
	flags := []string{
		"--output", outputDir,
		"--bam_file", lib.BamFile,
		"--protocol", string(lib.Protocol),
		"--library", lib.Name,
		"--input", clusterFile,
	}
	if lib.Stranded {
		flags = append(flags, "--stranded_bam", "True")
	}
	if lib.ReadLength > 0 {
		flags = append(flags, "--read_length", itoaFlag(lib.ReadLength))
	}
	if lib.MedianFragmentSize > 0 {
		flags = append(flags, "--median_fragment_size", itoaFlag(lib.MedianFragmentSize))
	}
	if lib.StdevFragmentSize > 0 {
		flags = append(flags, "--stdev_fragment_size", itoaFlag(lib.StdevFragmentSize))
	}
	return WorkerCommand{Program: "svpipe-validate", Flags: flags}
}

// AnnotateCommand assembles the annotation worker's flags.
func AnnotateCommand(lib LibraryConfig, validatedFile, outputDir string) WorkerCommand {
	return WorkerCommand{
		Program: "svpipe-annotate",
		Flags: []string{
			"--output", outputDir,
			"--library", lib.Name,
			"--protocol", string(lib.Protocol),
			"--input", validatedFile,
		},
	}
}

// PairingCommand assembles the pairing worker's flags across every
// library's annotated output.
func PairingCommand(outputDir string, annotatedInputs []string) WorkerCommand {
	return WorkerCommand{
		Program: "svpipe-pair",
		Flags: []string{
			"--output", outputDir,
			"--inputs", strings.Join(annotatedInputs, " "),
		},
	}
}

// SummaryCommand assembles the summary worker's flags, forwarding the
// pipeline config's filter thresholds verbatim.
func SummaryCommand(outputDir, pairingOutput string, f Filters) WorkerCommand {
	return WorkerCommand{
		Program: "svpipe-summary",
		Flags: []string{
			"--output", outputDir,
			"--input", pairingOutput,
			"--filter_min_remapped_reads", itoaFlag(f.MinRemappedReads),
			"--filter_min_spanning_reads", itoaFlag(f.MinSpanningReads),
			"--filter_min_flanking_reads", itoaFlag(f.MinFlankingReads),
			"--filter_min_flanking_only_reads", itoaFlag(f.MinFlankingOnlyReads),
			"--filter_min_split_reads", itoaFlag(f.MinSplitReads),
			"--filter_min_linking_split_reads", itoaFlag(f.MinLinkingSplitReads),
			"--flanking_call_distance", itoaFlag(f.FlankingCallDistance),
			"--split_call_distance", itoaFlag(f.SplitCallDistance),
			"--contig_call_distance", itoaFlag(f.ContigCallDistance),
			"--spanning_call_distance", itoaFlag(f.SpanningCallDistance),
		},
	}
}

func itoaFlag(n int) string {
	return fmt.Sprintf("%d", n)
}
