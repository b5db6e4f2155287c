package scheduler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/job"
)

// sgeAdapter implements Adapter for Sun/Son of Grid Engine.
type sgeAdapter struct {
	exec Executor
}

func (s *sgeAdapter) Name() Backend        { return SGE }
func (s *sgeAdapter) HeaderPrefix() string { return "#$" }
func (s *sgeAdapter) EnvTaskIdent() string { return "SGE_TASK_ID" }

func (s *sgeAdapter) arrayDependencyFlag(ident string) string {
	return "-hold_jid_ad " + ident
}

func (s *sgeAdapter) jobDependencyFlag(idents []string) string {
	return "-hold_jid " + strings.Join(idents, ",")
}

var sgeMailTypeMap = map[job.MailType]string{
	job.MailBegin: "b",
	job.MailEnd:   "e",
	job.MailFail:  "a",
	job.MailAll:   "bea",
}

// sgeStateMap maps each single-character qstat/qacct state code to a
// Status. An unmapped character is a hard error (errs.ParserDrift) rather
// than being silently ignored, per the completion-reporting invariant
// that an unrecognized scheduler state must never masquerade as success.
var sgeStateMap = map[byte]job.Status{
	'q': job.Pending,
	'w': job.Pending,
	'h': job.Pending,
	't': job.Running,
	'r': job.Running,
	'R': job.Running,
	'd': job.Cancelled,
	'E': job.Error,
	's': job.Error,
	'T': job.Error,
}

// convertState folds a multi-character SGE state string (e.g. "Eqw") into
// a single cumulative Status, erroring on the first unrecognized
// character instead of tolerating it.
func convertState(raw string) (job.Status, error) {
	if raw == "" {
		return job.Unknown, nil
	}
	states := make([]job.Status, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		st, ok := sgeStateMap[raw[i]]
		if !ok {
			return "", errs.New(errs.ParserDrift, "unrecognized SGE state character %q in state %q", string(raw[i]), raw)
		}
		states = append(states, st)
	}
	return job.CumulativeState(states), nil
}

func (s *sgeAdapter) Submit(resolver job.Resolver, j job.JobLike, taskIdent *int, cascade bool) error {
	base := j.Base()
	if alreadySubmitted(j) {
		return errs.New(errs.UserInput, "job %q has already been submitted (job_ident=%s)", base.Name, base.JobIdent)
	}

	var flags []string
	flags = append(flags, "-cwd")
	if base.Resources.Queue != "" {
		flags = append(flags, "-q", base.Resources.Queue)
	}
	if base.Resources.MemoryMB > 0 {
		flags = append(flags, "-l", fmt.Sprintf("mem_free=%dM", base.Resources.MemoryMB))
	}
	if base.Resources.WallTimeS > 0 {
		flags = append(flags, "-l", "h_rt="+formatWallTime(base.Resources.WallTimeS))
	}
	if base.Resources.ImportEnv {
		flags = append(flags, "-V")
	}
	if len(base.Dependencies) > 0 {
		dep, err := formatDependencies(s, resolver, j, taskIdent, cascade, s)
		if err != nil {
			return err
		}
		if dep != "" {
			flags = append(flags, strings.Fields(dep)...)
		}
	}
	if base.Name != "" {
		flags = append(flags, "-N", base.Name)
	}
	if base.StdoutTemplate != "" {
		flags = append(flags, "-o", stdoutTemplate(base.StdoutTemplate, "$JOB_NAME", "$JOB_ID", "$TASK_ID"))
	}
	if base.MailType != "" && base.MailType != job.MailNone && base.MailUser != "" {
		if flag, ok := sgeMailTypeMap[base.MailType]; ok {
			flags = append(flags, "-m", flag, "-M", base.MailUser)
		}
	}
	if arr, ok := j.(*job.ArrayJob); ok {
		cap := ""
		if arr.ConcurrencyLimit > 0 {
			cap = fmt.Sprintf(" -tc %d", arr.ConcurrencyLimit)
		}
		if taskIdent == nil {
			flags = append(flags, strings.Fields(fmt.Sprintf("-t 1-%d%s", arr.Tasks, cap))...)
		} else {
			flags = append(flags, strings.Fields(fmt.Sprintf("-t %d%s", *taskIdent, cap))...)
		}
	}

	commandLine := "qsub " + strings.Join(flags, " ") + " " + base.Script
	out, err := s.exec.Shell(commandLine)
	if err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "qsub submit failed for job %q", base.Name)
	}

	ident, err := parseQsubOutput(out)
	if err != nil {
		return err
	}
	base.JobIdent = ident
	base.Status = job.Submitted
	return nil
}

// parseQsubOutput extracts the job ident from qsub's
// "Your job 12345 (...) has been submitted" (or "...job-array...") output.
func parseQsubOutput(out string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	for i, f := range fields {
		if (f == "job" || f == "job-array") && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}
	return "", errs.New(errs.ParserDrift, "qsub returned unparseable output: %q", out)
}

// qstatTask is one parsed per-task row from `qstat`.
type qstatTask struct {
	jobIdent  string
	taskIdent string // empty for a plain job
	state     string
}

// parseQstatSGE parses `qstat -u <user>` tabular output into per-job or
// per-task rows, grounded on SgeScheduler.parse_qstat.
func parseQstatSGE(content string) ([]qstatTask, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	var rows []qstatTask
	for i, line := range lines {
		if i < 2 || strings.TrimSpace(line) == "" {
			continue // header + dashed separator
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		row := qstatTask{jobIdent: fields[0], state: fields[4]}
		if len(fields) >= 10 {
			row.taskIdent = fields[9]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *sgeAdapter) Update(j job.JobLike) error {
	base := j.Base()
	if base.JobIdent == "" {
		return nil
	}
	out, err := s.exec.Output("qstat", "-u", "*")
	if err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "qstat failed for job %q", base.Name)
	}
	rows, err := parseQstatSGE(out)
	if err != nil {
		return err
	}

	found := false
	for _, row := range rows {
		if row.jobIdent != base.JobIdent {
			continue
		}
		found = true
		status, convErr := convertState(row.state)
		if convErr != nil {
			return convErr
		}
		if row.taskIdent != "" {
			idx, convErr := strconv.Atoi(strings.TrimRight(row.taskIdent, ":"))
			if convErr != nil {
				return errs.New(errs.ParserDrift, "qstat returned unparseable task ident %q", row.taskIdent)
			}
			setTaskStatus(j, idx, status, "")
		} else {
			base.Status = status
		}
	}
	if !found {
		// Not in qstat's live queue any more: either finished or never
		// existed. Fall back to qacct for the terminal state.
		out, err := s.exec.Output("qacct", "-j", base.JobIdent)
		if err != nil {
			// qacct lags the scheduler; absence of accounting data yet is
			// not itself an error, treat as still-pending completion info.
			return nil
		}
		status := parseQacct(out)
		if arr, ok := j.(*job.ArrayJob); ok {
			for _, t := range arr.TaskList {
				if t.Status == job.NotSubmitted || t.Status == job.Submitted || t.Status == job.Pending || t.Status == job.Running {
					t.Status = status
				}
			}
			base.Status = arr.CumulativeStatus()
		} else {
			base.Status = status
		}
	}
	return nil
}

// parseQacct extracts the terminal status from `qacct -j` output by
// inspecting the "exit_status" and "failed" fields.
func parseQacct(content string) job.Status {
	failed := false
	exitNonzero := false
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "failed":
			if fields[1] != "0" {
				failed = true
			}
		case "exit_status":
			if fields[1] != "0" {
				exitNonzero = true
			}
		}
	}
	switch {
	case failed:
		return job.Failed
	case exitNonzero:
		return job.Error
	default:
		return job.Completed
	}
}

func (s *sgeAdapter) Cancel(j job.JobLike) error {
	base := j.Base()
	if base.JobIdent == "" {
		return nil
	}
	if _, err := s.exec.Output("qdel", base.JobIdent); err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "qdel failed for job %q", base.Name)
	}
	base.JobIdent = ""
	base.Status = job.Cancelled
	return nil
}
