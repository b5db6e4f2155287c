package scheduler

import "github.com/mattsolo1/svpipe/internal/job"

// setTaskStatus records a status/comment on the given 1-based task of j,
// a no-op if j is not an ArrayJob or the index is out of range.
func setTaskStatus(j job.JobLike, idx int, status job.Status, comment string) {
	arr, ok := j.(*job.ArrayJob)
	if !ok {
		return
	}
	if t := arr.Task(idx); t != nil {
		t.Status = status
		t.StatusComment = comment
	}
}

// taskStatuses returns the per-task statuses of j, or nil if j is not an
// ArrayJob.
func taskStatuses(j job.JobLike) []job.Status {
	arr, ok := j.(*job.ArrayJob)
	if !ok {
		return nil
	}
	out := make([]job.Status, len(arr.TaskList))
	for i, t := range arr.TaskList {
		out[i] = t.Status
	}
	return out
}

// stdoutTemplate substitutes the back-end-specific placeholders into a
// job's stdout path template. name/jobIdent/taskIdent are the back-end's
// literal substitution tokens (e.g. SLURM's "%x"/"%A"/"%a").
func stdoutTemplate(template, name, jobIdent, taskIdent string) string {
	if template == "" {
		return ""
	}
	out := make([]byte, 0, len(template)+8)
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			out = append(out, template[i])
			continue
		}
		switch {
		case hasPrefixAt(template, i, "{name}"):
			out = append(out, name...)
			i += len("{name}") - 1
		case hasPrefixAt(template, i, "{job_ident}"):
			out = append(out, jobIdent...)
			i += len("{job_ident}") - 1
		case hasPrefixAt(template, i, "{task_ident}"):
			out = append(out, taskIdent...)
			i += len("{task_ident}") - 1
		default:
			out = append(out, template[i])
		}
	}
	return string(out)
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return i+len(prefix) <= len(s) && s[i:i+len(prefix)] == prefix
}
