package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattsolo1/svpipe/internal/ini"
	"github.com/mattsolo1/svpipe/internal/job"
)

const generalSection = "general"

// Serialize renders m into an *ini.File, one section per job plus
// [general], in the job order the manifest was built in.
func Serialize(m *Manifest) *ini.File {
	f := ini.New()

	g := f.Section(generalSection)
	g.Set("output", m.General.Output)
	g.Set("scheduler", m.General.Scheduler)
	g.Set("queue", m.General.Queue)
	g.Set("memory_mb", strconv.Itoa(m.General.MemoryMB))
	g.Set("skip_validation", strconv.FormatBool(m.General.SkipValidation))
	g.Set("skip_pairing", strconv.FormatBool(m.General.SkipPairing))

	for _, name := range m.Names() {
		writeJobSection(f.Section(name), m.jobs[name])
	}
	return f
}

func writeJobSection(s *ini.Section, j job.JobLike) {
	base := j.Base()
	s.Set("stage", string(base.Stage))
	s.Set("script", base.Script)
	s.Set("name", base.Name)
	s.Set("job_ident", base.JobIdent)
	s.Set("status", string(base.Status))
	s.Set("status_comment", base.StatusComment)
	s.Set("dependencies", strings.Join(base.Dependencies, ","))
	s.Set("queue", base.Resources.Queue)
	s.Set("memory_mb", strconv.Itoa(base.Resources.MemoryMB))
	s.Set("walltime_s", strconv.Itoa(base.Resources.WallTimeS))
	s.Set("import_env", strconv.FormatBool(base.Resources.ImportEnv))
	s.Set("mail_type", string(base.MailType))
	s.Set("mail_user", base.MailUser)
	s.Set("stdout_template", base.StdoutTemplate)
	s.Set("submit_trace_id", base.SubmitTraceID)

	if arr, ok := j.(*job.ArrayJob); ok {
		s.Set("tasks", strconv.Itoa(arr.Tasks))
		s.Set("concurrency_limit", strconv.Itoa(arr.ConcurrencyLimit))

		statusPairs := make([]string, len(arr.TaskList))
		var commentPairs []string
		for i, t := range arr.TaskList {
			statusPairs[i] = fmt.Sprintf("%d:%s", t.Index, t.Status)
			if t.StatusComment != "" {
				commentPairs = append(commentPairs, fmt.Sprintf("%d:%s", t.Index, escapeComment(t.StatusComment)))
			}
		}
		s.Set("task_status", strings.Join(statusPairs, ","))
		s.Set("task_comment", strings.Join(commentPairs, ","))
	}
}

// escapeComment replaces characters that would break the flat "idx:text"
// comma-joined encoding (commas and newlines) with a safe placeholder,
// since the manifest format has no quoting.
func escapeComment(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, ",", ";")
	return s
}
