package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/job"
)

// torqueAdapter implements Adapter for Torque/PBS. It shares SGE's "-t"
// array flag and mail-type letters but uses its own dependency flags,
// state mapping, submission flags, and qstat's verbose key=value output
// format.
type torqueAdapter struct {
	exec Executor
}

func (t *torqueAdapter) Name() Backend        { return Torque }
func (t *torqueAdapter) HeaderPrefix() string { return "#PBS" }
func (t *torqueAdapter) EnvTaskIdent() string { return "PBS_ARRAYID" }

func (t *torqueAdapter) arrayDependencyFlag(ident string) string {
	return "-W depend=afterokarray:" + ident
}

func (t *torqueAdapter) jobDependencyFlag(idents []string) string {
	return "-W depend=afterok:" + strings.Join(idents, ":")
}

// torqueStateMap maps Torque's single-character job_state codes, which
// diverge from SGE's (T and S in particular mean something different on
// each system).
var torqueStateMap = map[byte]job.Status{
	'Q': job.Pending,
	'H': job.Pending,
	'W': job.Pending,
	'T': job.Running,
	'R': job.Running,
	'E': job.Running,
	'C': job.Completed,
	'S': job.Error,
}

// convertTorqueState maps a single job_state character to a Status,
// erroring loudly on any character Torque doesn't itself define rather
// than tolerating it.
func convertTorqueState(raw string) (job.Status, error) {
	if raw == "" {
		return job.Unknown, nil
	}
	if len(raw) != 1 {
		return "", errs.New(errs.ParserDrift, "unrecognized Torque job_state %q", raw)
	}
	st, ok := torqueStateMap[raw[0]]
	if !ok {
		return "", errs.New(errs.ParserDrift, "unrecognized Torque job_state character %q", raw)
	}
	return st, nil
}

func (t *torqueAdapter) Submit(resolver job.Resolver, j job.JobLike, taskIdent *int, cascade bool) error {
	base := j.Base()
	if alreadySubmitted(j) {
		return errs.New(errs.UserInput, "job %q has already been submitted (job_ident=%s)", base.Name, base.JobIdent)
	}

	var flags []string
	if base.Resources.Queue != "" {
		flags = append(flags, "-q", base.Resources.Queue)
	}
	resourceList := []string{}
	if base.Resources.MemoryMB > 0 {
		resourceList = append(resourceList, fmt.Sprintf("mem=%dmb", base.Resources.MemoryMB))
	}
	if base.Resources.WallTimeS > 0 {
		resourceList = append(resourceList, "walltime="+formatWallTime(base.Resources.WallTimeS))
	}
	if len(resourceList) > 0 {
		flags = append(flags, "-l", strings.Join(resourceList, ","))
	}
	if base.Resources.ImportEnv {
		flags = append(flags, "-V")
	}
	if len(base.Dependencies) > 0 {
		dep, err := formatDependencies(t, resolver, j, taskIdent, cascade, t)
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
		flags = append(flags, "-o", stdoutTemplate(base.StdoutTemplate, "${PBS_JOBNAME}", "${PBS_JOBID}", "${PBS_ARRAYID}"))
	}
	if base.MailType != "" && base.MailType != job.MailNone && base.MailUser != "" {
		if flag, ok := sgeMailTypeMap[base.MailType]; ok {
			flags = append(flags, "-m", flag, "-M", base.MailUser)
		}
	}
	if arr, ok := j.(*job.ArrayJob); ok {
		cap := ""
		if arr.ConcurrencyLimit > 0 {
			cap = fmt.Sprintf("%%%d", arr.ConcurrencyLimit)
		}
		if taskIdent == nil {
			flags = append(flags, "-t", fmt.Sprintf("1-%d%s", arr.Tasks, cap))
		} else {
			flags = append(flags, "-t", strconv.Itoa(*taskIdent)+cap)
		}
	}

	args := append(flags, base.Script)
	out, err := t.exec.Output("qsub", args...)
	if err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "qsub submit failed for job %q", base.Name)
	}

	ident := strings.TrimSpace(out)
	if ident == "" {
		return errs.New(errs.ParserDrift, "qsub returned empty output for job %q", base.Name)
	}
	base.JobIdent = ident
	base.Status = job.Submitted
	return nil
}

// torqueJobIDRe splits an array task's compound id ("123[4].server") into
// the plain job id and the task index.
var torqueJobIDRe = regexp.MustCompile(`^(\d+\[)(\d+)(\].*)$`)

// torqueBlockSepRe splits qstat -f's output into one block per job.
var torqueBlockSepRe = regexp.MustCompile(`\s*\n\n\s*`)

// torqueTask is one parsed job block from `qstat -f` output.
type torqueTask struct {
	jobIdent  string
	taskIdent string
	status    job.Status
}

// parseQstatTorque parses qstat -f's verbose multi-line "key = value"
// block format (one blank-line-separated block per job, continuation
// lines indented deeper than the block's key column). A completed job
// is reclassified as failed when its exit_status is nonzero, or as
// cancelled when no exit_status was ever recorded (deleted before it
// ran), matching the behavior the Job Id/job_state/exit_status fields
// together encode.
func parseQstatTorque(content string) ([]torqueTask, error) {
	content = strings.ReplaceAll(content, "\t", strings.Repeat(" ", 8))
	blocks := torqueBlockSepRe.Split(strings.TrimSpace(content), -1)

	var rows []torqueTask
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "request_version") {
			continue
		}
		lines := strings.Split(block, "\n")
		idx := strings.Index(lines[0], ":")
		if idx == -1 {
			continue
		}
		jobID := strings.TrimSpace(lines[0][idx+1:])
		taskIdent := ""
		if m := torqueJobIDRe.FindStringSubmatch(jobID); m != nil {
			jobID = m[1] + m[3]
			taskIdent = m[2]
		}

		fields := map[string]string{}
		tabSize := -1
		var cols, vals []string
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) == "" {
				continue
			}
			trimmed := strings.TrimLeft(line, " ")
			curTab := len(line) - len(trimmed)
			if tabSize == -1 {
				tabSize = curTab
			}
			switch {
			case curTab > tabSize || !strings.Contains(trimmed, "="):
				if len(vals) == 0 {
					return nil, errs.New(errs.ParserDrift, "qstat -f output has unexpected indentation: %q", line)
				}
				vals[len(vals)-1] += trimmed
			case curTab == tabSize:
				parts := strings.SplitN(trimmed, "=", 2)
				if len(parts) != 2 {
					continue
				}
				cols = append(cols, strings.TrimSpace(parts[0]))
				vals = append(vals, strings.TrimSpace(parts[1]))
			default:
				return nil, errs.New(errs.ParserDrift, "qstat -f output has unexpected indentation: %q", line)
			}
		}
		for i, c := range cols {
			fields[c] = vals[i]
		}

		stateCode, ok := fields["job_state"]
		if !ok {
			return nil, errs.New(errs.ParserDrift, "qstat -f output missing job_state for job %q", jobID)
		}
		status, err := convertTorqueState(stateCode)
		if err != nil {
			return nil, err
		}
		if status == job.Completed {
			if exitStatus, ok := fields["exit_status"]; ok {
				if exitStatus != "0" {
					status = job.Failed
				}
			} else {
				status = job.Cancelled
			}
		}

		rows = append(rows, torqueTask{jobIdent: jobID, taskIdent: taskIdent, status: status})
	}
	return rows, nil
}

func (t *torqueAdapter) Update(j job.JobLike) error {
	base := j.Base()
	if base.JobIdent == "" {
		return nil
	}
	args := []string{"-f", base.JobIdent}
	if _, ok := j.(*job.ArrayJob); ok {
		args = append(args, "-t")
	}
	out, err := t.exec.Output("qstat", args...)
	if err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "qstat failed for job %q", base.Name)
	}
	rows, err := parseQstatTorque(out)
	if err != nil {
		return err
	}

	tasksUpdated := false
	for _, row := range rows {
		if row.jobIdent != base.JobIdent {
			continue
		}
		if row.taskIdent != "" {
			idx, convErr := strconv.Atoi(row.taskIdent)
			if convErr != nil {
				return errs.New(errs.ParserDrift, "qstat returned unparseable task ident %q", row.taskIdent)
			}
			setTaskStatus(j, idx, row.status, "")
			tasksUpdated = true
		} else {
			base.Status = row.status
		}
	}
	if tasksUpdated {
		if states := taskStatuses(j); states != nil {
			base.Status = job.CumulativeState(states)
		}
	}
	return nil
}

func (t *torqueAdapter) Cancel(j job.JobLike) error {
	base := j.Base()
	if base.JobIdent == "" {
		return nil
	}
	if _, err := t.exec.Output("qdel", base.JobIdent); err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "qdel failed for job %q", base.Name)
	}
	base.JobIdent = ""
	base.Status = job.Cancelled
	return nil
}
