package builder

import (
	"strconv"
	"strings"

	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/ini"
)

const libraryPrefix = "library:"

// ParseConfig parses the sectioned pipeline config: [general] holds
// scheduler/queue/memory defaults, filter thresholds, skip flags, and
// the conversion table; one [library:<name>] section per library.
func ParseConfig(content string) (*PipelineConfig, error) {
	f, err := ini.Parse(content)
	if err != nil {
		return nil, errs.Wrap(errs.UserInput, err, "parsing pipeline config")
	}

	cfg := &PipelineConfig{Conversions: make(map[string]ConversionSpec)}

	if f.HasSection("general") {
		g := f.Section("general")
		cfg.Output = getStr(g, "output")
		cfg.Scheduler = strings.ToUpper(getStr(g, "scheduler"))
		cfg.Queue = getStr(g, "queue")
		cfg.DefaultMemoryMB, err = getIntErr(g, "default_memory_mb")
		if err != nil {
			return nil, errs.Wrap(errs.UserInput, err, "general.default_memory_mb")
		}
		cfg.SkipValidation = getBool(g, "skip_validation")
		cfg.SkipPairing = getBool(g, "skip_pairing")

		filters := &cfg.Filters
		filters.MinRemappedReads, _ = getIntErr(g, "filter_min_remapped_reads")
		filters.MinSpanningReads, _ = getIntErr(g, "filter_min_spanning_reads")
		filters.MinFlankingReads, _ = getIntErr(g, "filter_min_flanking_reads")
		filters.MinFlankingOnlyReads, _ = getIntErr(g, "filter_min_flanking_only_reads")
		filters.MinSplitReads, _ = getIntErr(g, "filter_min_split_reads")
		filters.MinLinkingSplitReads, _ = getIntErr(g, "filter_min_linking_split_reads")
		filters.FlankingCallDistance, _ = getIntErr(g, "flanking_call_distance")
		filters.SplitCallDistance, _ = getIntErr(g, "split_call_distance")
		filters.ContigCallDistance, _ = getIntErr(g, "contig_call_distance")
		filters.SpanningCallDistance, _ = getIntErr(g, "spanning_call_distance")

		for _, key := range g.Keys {
			const prefix = "conversion."
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			alias := strings.TrimPrefix(key, prefix)
			v, _ := g.Get(key)
			cfg.Conversions[alias] = parseConversionSpec(v)
		}
	}

	for _, name := range f.Sections() {
		if !strings.HasPrefix(name, libraryPrefix) {
			continue
		}
		s := f.Section(name)
		lib := LibraryConfig{
			Name:               strings.TrimPrefix(name, libraryPrefix),
			Protocol:           Protocol(getStr(s, "protocol")),
			DiseaseStatus:      getStr(s, "disease_status"),
			BamFile:            getStr(s, "bam"),
			Stranded:           getBool(s, "stranded"),
			ReadLength:         getIntOr(s, "read_length"),
			MedianFragmentSize: getIntOr(s, "median_fragment_size"),
			StdevFragmentSize:  getIntOr(s, "stdev_fragment_size"),
		}
		if raw := getStr(s, "inputs"); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				part = strings.TrimSpace(part)
				if part != "" {
					lib.Inputs = append(lib.Inputs, part)
				}
			}
		}
		cfg.Libraries = append(cfg.Libraries, lib)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseConversionSpec interprets a conversion.<alias> value: either
// "tool:<name>:<param1>:<param2>..." naming a built-in converter, or any
// other string treated as an external command line.
func parseConversionSpec(raw string) ConversionSpec {
	if strings.HasPrefix(raw, "tool:") {
		parts := strings.Split(strings.TrimPrefix(raw, "tool:"), ":")
		if len(parts) == 0 {
			return ConversionSpec{}
		}
		return ConversionSpec{Tool: parts[0], Params: parts[1:]}
	}
	return ConversionSpec{Command: raw}
}

func getStr(s *ini.Section, key string) string {
	v, _ := s.Get(key)
	return v
}

func getBool(s *ini.Section, key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func getIntOr(s *ini.Section, key string) int {
	n, _ := getIntErr(s, key)
	return n
}

func getIntErr(s *ini.Section, key string) (int, error) {
	v, ok := s.Get(key)
	if !ok || v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
