package builder

import (
	"path/filepath"

	"github.com/mattsolo1/svpipe/internal/exec"
	"github.com/mattsolo1/svpipe/internal/job"
	"github.com/mattsolo1/svpipe/internal/manifest"
	"github.com/mattsolo1/svpipe/internal/scheduler"
)

// ManifestFile is the build manifest's fixed filename within the output
// root.
const ManifestFile = "build.cfg"

// SubmitOptions configures a single submit run.
type SubmitOptions struct {
	OutputRoot string
	Exec       exec.CommandExecutor
}

// Submit reads the manifest at OutputRoot/build.cfg, submits every
// not-yet-submitted job in topological order, and rewrites the manifest
// atomically after each submission so it stays the single source of
// truth between invocations. Before submitting a validate or annotate
// array job still holding its setup-time placeholder task count, it
// re-discovers the real count from the cluster stage's output once that
// stage has completed.
func Submit(opts SubmitOptions) (*manifest.Manifest, error) {
	manifestPath := filepath.Join(opts.OutputRoot, ManifestFile)
	m, err := manifest.Read(manifestPath)
	if err != nil {
		return nil, err
	}

	adapter, err := scheduler.New(scheduler.Backend(m.General.Scheduler), opts.Exec)
	if err != nil {
		return nil, err
	}

	order, err := m.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		j, ok := m.Resolve(name)
		if !ok {
			continue
		}
		if j.Base().Status != job.NotSubmitted {
			continue
		}

		if j.Base().Stage == job.StageValidate {
			if resized := rediscoverValidateTasks(m, j); resized != nil {
				if err := m.ReplaceJob(resized); err != nil {
					return nil, err
				}
				j = resized
			}
		}
		if j.Base().Stage == job.StageAnnotate {
			if resized := matchAnnotateTasksToValidate(m, j); resized != nil {
				if err := m.ReplaceJob(resized); err != nil {
					return nil, err
				}
				j = resized
			}
		}

		if err := adapter.Submit(m, j, nil, false); err != nil {
			return nil, err
		}
		if err := manifest.Write(manifestPath, m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// rediscoverValidateTasks returns a resized ArrayJob if j is a validate
// job still carrying a single placeholder task, its cluster dependency
// has completed, and the cluster directory now holds a real task count
// different from j's current one.
func rediscoverValidateTasks(m *manifest.Manifest, j job.JobLike) job.JobLike {
	arr, ok := j.(*job.ArrayJob)
	if !ok || arr.Tasks != 1 {
		return nil
	}
	if len(arr.Dependencies) != 1 {
		return nil
	}
	clusterJob, ok := m.Resolve(arr.Dependencies[0])
	if !ok || clusterJob.Base().Status != job.Completed {
		return nil
	}

	clusterDir := filepath.Dir(clusterJob.Base().Script)
	_, n, err := DiscoverClusterOutputs(clusterDir)
	if err != nil || n == arr.Tasks {
		return nil
	}

	resized, err := job.NewArrayJob(arr.Job, n, arr.ConcurrencyLimit)
	if err != nil {
		return nil
	}
	return resized
}

// matchAnnotateTasksToValidate mirrors the annotate job's task count to
// its validate dependency's, since the two must stay the same size for
// the per-task dependency encoding to remain valid.
func matchAnnotateTasksToValidate(m *manifest.Manifest, j job.JobLike) job.JobLike {
	arr, ok := j.(*job.ArrayJob)
	if !ok || arr.Tasks != 1 {
		return nil
	}
	if len(arr.Dependencies) != 1 {
		return nil
	}
	validateJob, ok := m.Resolve(arr.Dependencies[0])
	if !ok {
		return nil
	}
	validateArr, ok := validateJob.(*job.ArrayJob)
	if !ok || validateArr.Tasks == arr.Tasks {
		return nil
	}

	resized, err := job.NewArrayJob(arr.Job, validateArr.Tasks, arr.ConcurrencyLimit)
	if err != nil {
		return nil
	}
	return resized
}
