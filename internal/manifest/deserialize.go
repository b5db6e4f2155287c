package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattsolo1/svpipe/internal/ini"
	"github.com/mattsolo1/svpipe/internal/job"
)

// Deserialize rebuilds a Manifest from a parsed *ini.File, in the same
// section order it was written in.
func Deserialize(f *ini.File) (*Manifest, error) {
	if !f.HasSection(generalSection) {
		return nil, fmt.Errorf("manifest: missing [%s] section", generalSection)
	}
	g := f.Section(generalSection)
	general := General{
		Output:    mustGet(g, "output"),
		Scheduler: mustGet(g, "scheduler"),
		Queue:     mustGet(g, "queue"),
	}
	if v, ok := g.Get("memory_mb"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("manifest: [%s].memory_mb: %w", generalSection, err)
		}
		general.MemoryMB = n
	}
	general.SkipValidation = boolOf(g, "skip_validation")
	general.SkipPairing = boolOf(g, "skip_pairing")

	m := New(general)
	for _, name := range f.Sections() {
		if name == generalSection {
			continue
		}
		j, err := readJobSection(f.Section(name))
		if err != nil {
			return nil, fmt.Errorf("manifest: job %q: %w", name, err)
		}
		if err := m.AddJob(j); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func mustGet(s *ini.Section, key string) string {
	v, _ := s.Get(key)
	return v
}

func boolOf(s *ini.Section, key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func intOf(s *ini.Section, key string) (int, error) {
	v, ok := s.Get(key)
	if !ok || v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func readJobSection(s *ini.Section) (job.JobLike, error) {
	base := job.Job{
		Name:          mustGet(s, "name"),
		Stage:         job.Stage(mustGet(s, "stage")),
		Script:        mustGet(s, "script"),
		JobIdent:      mustGet(s, "job_ident"),
		Status:        job.Status(mustGet(s, "status")),
		StatusComment: mustGet(s, "status_comment"),
		MailType:      job.MailType(mustGet(s, "mail_type")),
		MailUser:      mustGet(s, "mail_user"),
		StdoutTemplate: mustGet(s, "stdout_template"),
		SubmitTraceID:  mustGet(s, "submit_trace_id"),
	}
	if deps := mustGet(s, "dependencies"); deps != "" {
		base.Dependencies = strings.Split(deps, ",")
	}

	memMB, err := intOf(s, "memory_mb")
	if err != nil {
		return nil, fmt.Errorf("memory_mb: %w", err)
	}
	wallS, err := intOf(s, "walltime_s")
	if err != nil {
		return nil, fmt.Errorf("walltime_s: %w", err)
	}
	base.Resources = job.Resources{
		Queue:     mustGet(s, "queue"),
		MemoryMB:  memMB,
		WallTimeS: wallS,
		ImportEnv: boolOf(s, "import_env"),
	}

	tasksRaw, hasTasks := s.Get("tasks")
	if !hasTasks || tasksRaw == "" {
		return &base, nil
	}

	n, err := strconv.Atoi(tasksRaw)
	if err != nil {
		return nil, fmt.Errorf("tasks: %w", err)
	}
	concurrency, err := intOf(s, "concurrency_limit")
	if err != nil {
		return nil, fmt.Errorf("concurrency_limit: %w", err)
	}

	arr, err := job.NewArrayJob(base, n, concurrency)
	if err != nil {
		return nil, err
	}
	arr.Status = base.Status // NewArrayJob resets it to NOT_SUBMITTED

	statusByIdx := make(map[int]job.Status)
	if raw := mustGet(s, "task_status"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			idx, status, err := splitIndexed(pair)
			if err != nil {
				return nil, fmt.Errorf("task_status: %w", err)
			}
			statusByIdx[idx] = job.Status(status)
		}
	}
	commentByIdx := make(map[int]string)
	if raw := mustGet(s, "task_comment"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			idx, comment, err := splitIndexed(pair)
			if err != nil {
				return nil, fmt.Errorf("task_comment: %w", err)
			}
			commentByIdx[idx] = comment
		}
	}
	for _, t := range arr.TaskList {
		if st, ok := statusByIdx[t.Index]; ok {
			t.Status = st
		}
		if c, ok := commentByIdx[t.Index]; ok {
			t.StatusComment = c
		}
	}
	return arr, nil
}

func splitIndexed(pair string) (int, string, error) {
	parts := strings.SplitN(pair, ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("malformed entry %q", pair)
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("malformed index in %q: %w", pair, err)
	}
	return idx, parts[1], nil
}
