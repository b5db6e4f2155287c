// Package builder implements the Pipeline Builder (C3): from a parsed
// PipelineConfig and its per-library LibraryConfigs, materializes the
// output directory layout, runs input conversions, emits per-stage
// worker scripts, builds the job DAG, and writes the build manifest.
package builder

import (
	"fmt"

	"github.com/mattsolo1/svpipe/internal/errs"
)

// Protocol is a library's sequencing protocol.
type Protocol string

const (
	ProtocolGenome        Protocol = "genome"
	ProtocolTranscriptome Protocol = "transcriptome"
)

// Filters carries the summary-stage filter thresholds forwarded
// verbatim from the pipeline config.
type Filters struct {
	MinRemappedReads     int
	MinSpanningReads      int
	MinFlankingReads      int
	MinFlankingOnlyReads  int
	MinSplitReads         int
	MinLinkingSplitReads  int
	FlankingCallDistance  int
	SplitCallDistance     int
	ContigCallDistance    int
	SpanningCallDistance  int
}

// LibraryConfig describes one sequencing library's inputs and per-stage
// overrides, parsed from a [library:<name>] section.
type LibraryConfig struct {
	Name               string
	Protocol           Protocol
	DiseaseStatus      string // e.g. "diseased" or "normal"
	BamFile            string
	Stranded           bool
	ReadLength         int
	MedianFragmentSize int
	StdevFragmentSize  int
	Inputs             []string // raw paths, conversion aliases, or globs

	// Per-stage memory/queue overrides; zero/empty means "use the
	// PipelineConfig default".
	MemoryMB map[string]int
	Queue    map[string]string
}

// PipelineConfig is the parsed user configuration: the [general]
// section plus every [library:*] section.
type PipelineConfig struct {
	Output         string
	Scheduler      string
	Queue          string
	DefaultMemoryMB int
	SkipValidation bool
	SkipPairing    bool
	Filters        Filters

	// Conversions maps an input alias to either a built-in converter
	// invocation (tool name + params) or an external command line.
	Conversions map[string]ConversionSpec

	Libraries []LibraryConfig
}

// ConversionSpec names how an aliased input is turned into a tab file:
// either a built-in tool converter (Tool non-empty) or a raw shell
// command line (Command non-empty) that the Builder appends
// `-o <output>` to.
type ConversionSpec struct {
	Tool    string   // built-in converter name, e.g. "delly", "manta"
	Params  []string // positional parameters to the built-in converter
	Command string   // external command line, run through the shell
}

// Validate checks the structural requirements of a PipelineConfig that
// the rest of the Builder assumes hold.
func (c *PipelineConfig) Validate() error {
	if c.Output == "" {
		return errs.New(errs.UserInput, "pipeline config: missing required key \"output\"")
	}
	if c.Scheduler == "" {
		return errs.New(errs.UserInput, "pipeline config: missing required key \"scheduler\"")
	}
	if len(c.Libraries) == 0 {
		return errs.New(errs.UserInput, "pipeline config: at least one [library:*] section is required")
	}
	seen := make(map[string]bool, len(c.Libraries))
	for _, lib := range c.Libraries {
		if lib.Name == "" {
			return errs.New(errs.UserInput, "pipeline config: a library section is missing its name")
		}
		if seen[lib.Name] {
			return errs.New(errs.UserInput, "pipeline config: duplicate library name %q", lib.Name)
		}
		seen[lib.Name] = true
		if lib.Protocol != ProtocolGenome && lib.Protocol != ProtocolTranscriptome {
			return errs.New(errs.UserInput, "pipeline config: library %q has invalid protocol %q", lib.Name, lib.Protocol)
		}
		if lib.BamFile == "" {
			return errs.New(errs.UserInput, "pipeline config: library %q is missing required key \"bam\"", lib.Name)
		}
		if len(lib.Inputs) == 0 {
			return errs.New(errs.UserInput, "pipeline config: library %q has no input files", lib.Name)
		}
	}
	return nil
}

// LibraryDirName returns the <lib>_<disease>_<protocol> directory name
// for a library.
func LibraryDirName(lib LibraryConfig) string {
	return fmt.Sprintf("%s_%s_%s", lib.Name, lib.DiseaseStatus, lib.Protocol)
}
