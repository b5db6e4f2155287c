package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/job"
)

// slurmAdapter implements Adapter for SLURM.
type slurmAdapter struct {
	exec Executor
}

func (s *slurmAdapter) Name() Backend        { return SLURM }
func (s *slurmAdapter) HeaderPrefix() string { return "#SBATCH" }
func (s *slurmAdapter) EnvTaskIdent() string { return "SLURM_ARRAY_TASK_ID" }

func (s *slurmAdapter) arrayDependencyFlag(ident string) string {
	return "--dependency=aftercorr:" + ident
}

func (s *slurmAdapter) jobDependencyFlag(idents []string) string {
	return "--dependency=afterok:" + strings.Join(idents, ":")
}

var submittedBatchJobRe = regexp.MustCompile(`(?i)^submitted batch job (\d+)$`)

func (s *slurmAdapter) Submit(resolver job.Resolver, j job.JobLike, taskIdent *int, cascade bool) error {
	base := j.Base()
	if alreadySubmitted(j) {
		return errs.New(errs.UserInput, "job %q has already been submitted (job_ident=%s)", base.Name, base.JobIdent)
	}

	command := []string{"sbatch"}
	if base.Resources.Queue != "" {
		command = append(command, "--partition="+base.Resources.Queue)
	}
	if base.Resources.MemoryMB > 0 {
		command = append(command, "--mem", strconv.Itoa(base.Resources.MemoryMB))
	}
	if base.Resources.WallTimeS > 0 {
		command = append(command, "-t", formatWallTime(base.Resources.WallTimeS))
	}
	if base.Resources.ImportEnv {
		command = append(command, "--export=ALL")
	}
	if len(base.Dependencies) > 0 {
		dep, err := formatDependencies(s, resolver, j, taskIdent, cascade, s)
		if err != nil {
			return err
		}
		if dep != "" {
			command = append(command, dep)
		}
	}
	if base.Name != "" {
		command = append(command, "-J", base.Name)
	}
	if base.StdoutTemplate != "" {
		jobIdentToken := "%j"
		if j.IsArray() {
			jobIdentToken = "%A"
		}
		command = append(command, "-o", stdoutTemplate(base.StdoutTemplate, "%x", jobIdentToken, "%a"))
	}
	if base.MailType != "" && base.MailType != job.MailNone && base.MailUser != "" {
		command = append(command, "--mail-type="+strings.ToUpper(string(base.MailType)), "--mail-user="+base.MailUser)
	}
	if arr, ok := j.(*job.ArrayJob); ok {
		cap := ""
		if arr.ConcurrencyLimit > 0 {
			cap = fmt.Sprintf("%%%d", arr.ConcurrencyLimit)
		}
		if taskIdent == nil {
			command = append(command, fmt.Sprintf("--array=1-%d%s", arr.Tasks, cap))
		} else {
			command = append(command, fmt.Sprintf("--array=%d%s", *taskIdent, cap))
		}
	}
	command = append(command, base.Script)

	out, err := s.exec.Output(command[0], command[1:]...)
	if err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "sbatch submit failed for job %q", base.Name)
	}

	match := submittedBatchJobRe.FindStringSubmatch(strings.TrimSpace(out))
	if match == nil {
		return errs.New(errs.ParserDrift, "sbatch returned unparseable output for job %q: %q", base.Name, out)
	}
	base.JobIdent = match[1]
	base.Status = job.Submitted
	return nil
}

// sacctRow is one parsed row of `sacct --parsable2` output.
type sacctRow struct {
	jobIdent      string
	taskIdent     string // empty if not an array task
	name          string
	status        job.Status
	statusComment string
}

var slurmStateMap = map[string]job.Status{
	"PENDING":      job.Pending,
	"CONFIGURING":  job.Pending,
	"RUNNING":      job.Running,
	"SUSPENDED":    job.Running,
	"COMPLETING":   job.Running,
	"COMPLETED":    job.Completed,
	"CANCELLED":    job.Cancelled,
	"FAILED":       job.Failed,
	"TIMEOUT":      job.Failed,
	"NODE_FAIL":    job.Failed,
	"OUT_OF_MEMORY": job.Failed,
	"PREEMPTED":    job.Cancelled,
	"BOOT_FAIL":    job.Error,
	"DEADLINE":     job.Failed,
}

// parseSacct parses `sacct --long --parsable2` pipe-delimited output,
// merging each job's ".batch" sub-step into the parent row rather than
// reporting it as a separate job.
func parseSacct(content string) ([]sacctRow, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 1 {
		return nil, errs.New(errs.ParserDrift, "empty sacct output")
	}
	header := strings.Split(lines[0], "|")
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[col] = i
	}
	required := []string{"JobID", "JobName", "State"}
	for _, col := range required {
		if _, ok := colIndex[col]; !ok {
			return nil, errs.New(errs.ParserDrift, "sacct output missing expected column %q", col)
		}
	}

	type raw struct {
		jobID, jobName, state string
	}
	var rows []raw
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		get := func(col string) string {
			idx, ok := colIndex[col]
			if !ok || idx >= len(fields) {
				return ""
			}
			return fields[idx]
		}
		rows = append(rows, raw{jobID: get("JobID"), jobName: get("JobName"), state: get("State")})
	}

	results := make(map[string]*raw)
	order := []string{}
	for i := range rows {
		r := &rows[i]
		id := strings.TrimSuffix(r.jobID, ".batch")
		if r.jobName != "batch" {
			results[id] = r
			order = append(order, id)
		}
	}
	for i := range rows {
		r := &rows[i]
		id := strings.TrimSuffix(r.jobID, ".batch")
		if r.jobName == "batch" {
			if curr, ok := results[id]; ok && curr.state == "" {
				curr.state = r.state
			}
		}
	}

	out := make([]sacctRow, 0, len(order))
	for _, id := range order {
		r := results[id]
		state := strings.Fields(r.state)
		stateCode := ""
		if len(state) > 0 {
			stateCode = state[0]
		}
		status, ok := slurmStateMap[stateCode]
		if !ok {
			return nil, errs.New(errs.ParserDrift, "sacct returned unmapped SLURM state %q for job %q", stateCode, id)
		}
		jobIdent := id
		taskIdent := ""
		if strings.Contains(id, "_") {
			parts := strings.SplitN(id, "_", 2)
			jobIdent, taskIdent = parts[0], parts[1]
		}
		out = append(out, sacctRow{
			jobIdent:  jobIdent,
			taskIdent: taskIdent,
			name:      r.jobName,
			status:    status,
		})
	}
	return out, nil
}

func (s *slurmAdapter) Update(j job.JobLike) error {
	base := j.Base()
	if base.JobIdent == "" {
		return nil
	}
	out, err := s.exec.Output("sacct", "-j", base.JobIdent, "--long", "--parsable2")
	if err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "sacct failed for job %q", base.Name)
	}
	rows, err := parseSacct(out)
	if err != nil {
		return err
	}

	updated := false
	for _, row := range rows {
		if row.jobIdent != base.JobIdent {
			continue
		}
		if row.taskIdent != "" {
			idx, convErr := strconv.Atoi(row.taskIdent)
			if convErr != nil {
				return errs.New(errs.ParserDrift, "sacct returned unparseable task ident %q", row.taskIdent)
			}
			setTaskStatus(j, idx, row.status, row.statusComment)
		} else {
			base.Status = row.status
			base.StatusComment = row.statusComment
			updated = true
		}
	}
	if !updated {
		if states := taskStatuses(j); states != nil {
			base.Status = job.CumulativeState(states)
		}
	}
	return nil
}

func (s *slurmAdapter) Cancel(j job.JobLike) error {
	base := j.Base()
	if base.JobIdent == "" {
		return nil
	}
	if _, err := s.exec.Output("scancel", base.JobIdent); err != nil {
		return errs.Wrap(errs.SchedulerInteraction, err, "scancel failed for job %q", base.Name)
	}
	base.JobIdent = ""
	base.Status = job.Cancelled
	return nil
}
