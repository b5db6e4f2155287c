// Package scheduler implements the batch-scheduler adapter: command
// construction, dependency encoding, response parsing, and state mapping
// for SLURM, SGE, and Torque, behind a single Adapter interface.
package scheduler

import (
	"fmt"

	"github.com/mattsolo1/svpipe/internal/errs"
	"github.com/mattsolo1/svpipe/internal/job"
)

// Backend names the three supported scheduler back-ends.
type Backend string

const (
	SLURM  Backend = "SLURM"
	SGE    Backend = "SGE"
	Torque Backend = "TORQUE"
)

// Adapter is the scheduler-facing contract: submit, update, cancel, plus
// the constants an emitted script needs (header comment prefix, the
// back-end's task-index environment variable).
type Adapter interface {
	Name() Backend
	HeaderPrefix() string
	EnvTaskIdent() string

	// Submit submits j (or, if taskIdent is non-nil, a single task of an
	// array job) and sets its JobIdent. If cascade is true, unsubmitted
	// dependencies are recursively submitted first.
	Submit(resolver job.Resolver, j job.JobLike, taskIdent *int, cascade bool) error

	// Update refreshes j's (and, for array jobs, its tasks') status and
	// status comment from the scheduler.
	Update(j job.JobLike) error

	// Cancel cancels j, clears its JobIdent, and sets its status to
	// Cancelled.
	Cancel(j job.JobLike) error
}

// New constructs the Adapter for the named backend.
func New(name Backend, exec Executor) (Adapter, error) {
	switch name {
	case SLURM:
		return &slurmAdapter{exec: exec}, nil
	case SGE:
		return &sgeAdapter{exec: exec}, nil
	case Torque:
		return &torqueAdapter{exec: exec}, nil
	default:
		return nil, errs.New(errs.UserInput, "unknown scheduler backend %q", name)
	}
}

// Executor is the subset of internal/exec.CommandExecutor the adapters
// need, named locally to avoid this package importing the concrete
// executor package's test doubles directly.
type Executor interface {
	Output(name string, arg ...string) (string, error)
	Shell(commandLine string) (string, error)
}

// depFormatter supplies a backend's dependency-flag vocabulary so the
// shared formatDependencies logic can stay backend-agnostic.
type depFormatter interface {
	arrayDependencyFlag(ident string) string
	jobDependencyFlag(idents []string) string
}

// formatDependencies implements the dependency-encoding rule of spec
// §4.1: if a job's sole dependency is a matched-size array job, emit the
// per-task correlated form (cascade-submitting it first if needed);
// otherwise emit the generic after-ok list, cascade-submitting any
// unsubmitted dependency first when cascade is true.
func formatDependencies(adapter Adapter, resolver job.Resolver, j job.JobLike, taskIdent *int, cascade bool, fmtr depFormatter) (string, error) {
	deps := j.Base().Dependencies
	if len(deps) == 0 {
		return "", nil
	}

	if len(deps) == 1 && j.IsArray() {
		depJob, ok := resolver.Resolve(deps[0])
		if !ok {
			return "", errs.New(errs.Structural, "job %q depends on unknown job %q", j.JobName(), deps[0])
		}
		if depJob.IsArray() {
			jArr := j.ArrayTasks()
			depArr := depJob.ArrayTasks()
			if depArr != jArr {
				return "", errs.New(errs.Structural,
					"array job %q (tasks=%d) depends on array job %q of a different size (tasks=%d)",
					j.JobName(), jArr, deps[0], depArr)
			}
			if depJob.Base().JobIdent == "" {
				if !cascade {
					return "", errs.New(errs.UserInput,
						"dependency %q of job %q must be submitted before the dependent job (use cascade)", deps[0], j.JobName())
				}
				if err := adapter.Submit(resolver, depJob, nil, cascade); err != nil {
					return "", err
				}
			}
			if taskIdent != nil {
				return fmtr.arrayDependencyFlag(fmt.Sprintf("%s_%d", depJob.Base().JobIdent, *taskIdent)), nil
			}
			return fmtr.arrayDependencyFlag(depJob.Base().JobIdent), nil
		}
	}

	idents := make([]string, 0, len(deps))
	for _, depName := range deps {
		depJob, ok := resolver.Resolve(depName)
		if !ok {
			return "", errs.New(errs.Structural, "job %q depends on unknown job %q", j.JobName(), depName)
		}
		if depJob.Base().JobIdent == "" {
			if !cascade {
				return "", errs.New(errs.UserInput,
					"dependency %q of job %q must be submitted before the dependent job (use cascade)", depName, j.JobName())
			}
			if err := adapter.Submit(resolver, depJob, nil, cascade); err != nil {
				return "", err
			}
		}
		idents = append(idents, depJob.Base().JobIdent)
	}
	return fmtr.jobDependencyFlag(idents), nil
}

// alreadySubmitted reports whether j has a non-empty scheduler identifier.
func alreadySubmitted(j job.JobLike) bool {
	return j.Base().JobIdent != ""
}
