package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattsolo1/svpipe/internal/errs"
)

// LibraryHint names a library discovered (or supplied) for a starter
// config: its BAM path and inferred name/protocol.
type LibraryHint struct {
	Name     string
	Protocol Protocol
	BamFile  string
}

// DiscoverLibraries walks dirs looking for *.bam files and proposes one
// LibraryHint per file, using the filename (minus extension) as the
// library name and defaulting to the genome protocol — a human is
// expected to edit protocol/disease_status/inputs afterward.
func DiscoverLibraries(dirs []string) ([]LibraryHint, error) {
	var hints []LibraryHint
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, errs.Wrap(errs.UserInput, err, "reading library directory %s", dir)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bam") {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".bam")
			hints = append(hints, LibraryHint{
				Name:     name,
				Protocol: ProtocolGenome,
				BamFile:  filepath.Join(dir, entry.Name()),
			})
		}
	}
	sort.Slice(hints, func(i, j int) bool { return hints[i].Name < hints[j].Name })
	return hints, nil
}

// WriteStarterConfig renders a starter PipelineConfig to the sectioned
// text format ParseConfig reads, with sensible memory/queue defaults and
// one [library:*] section per hint, then writes it to path (a direct
// write, not a temp-file-then-rename).
func WriteStarterConfig(path, output, scheduler, queue string, defaultMemoryMB int, hints []LibraryHint) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[general]\n")
	fmt.Fprintf(&b, "output = %s\n", output)
	fmt.Fprintf(&b, "scheduler = %s\n", scheduler)
	fmt.Fprintf(&b, "queue = %s\n", queue)
	fmt.Fprintf(&b, "default_memory_mb = %d\n", defaultMemoryMB)
	fmt.Fprintf(&b, "skip_validation = false\n")
	fmt.Fprintf(&b, "skip_pairing = false\n")
	fmt.Fprintf(&b, "filter_min_remapped_reads = 5\n")
	fmt.Fprintf(&b, "filter_min_spanning_reads = 5\n")
	fmt.Fprintf(&b, "filter_min_flanking_reads = 10\n")
	fmt.Fprintf(&b, "filter_min_flanking_only_reads = 10\n")
	fmt.Fprintf(&b, "filter_min_split_reads = 5\n")
	fmt.Fprintf(&b, "filter_min_linking_split_reads = 1\n")
	fmt.Fprintf(&b, "flanking_call_distance = 0\n")
	fmt.Fprintf(&b, "split_call_distance = 10\n")
	fmt.Fprintf(&b, "contig_call_distance = 0\n")
	fmt.Fprintf(&b, "spanning_call_distance = 20\n")

	for _, h := range hints {
		fmt.Fprintf(&b, "\n[library:%s]\n", h.Name)
		fmt.Fprintf(&b, "protocol = %s\n", h.Protocol)
		fmt.Fprintf(&b, "disease_status = diseased\n")
		fmt.Fprintf(&b, "bam = %s\n", h.BamFile)
		fmt.Fprintf(&b, "stranded = false\n")
		fmt.Fprintf(&b, "read_length = 150\n")
		fmt.Fprintf(&b, "median_fragment_size = 220\n")
		fmt.Fprintf(&b, "stdev_fragment_size = 50\n")
		fmt.Fprintf(&b, "inputs = %s.bam\n", h.Name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.UserInput, err, "creating directory for config %s", path)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errs.Wrap(errs.UserInput, err, "writing starter config %s", path)
	}
	return nil
}
