// Package manifest implements the build manifest (build.cfg): the
// sectioned text file that is the single source of truth for a
// pipeline's job DAG and per-job state between setup/submit/check
// invocations. internal/ini supplies the generic section reader/writer;
// this package layers the job-shape-specific (de)serialization and the
// atomic write-to-temp-then-rename durability guarantee on top.
package manifest

import (
	"fmt"
	"sort"

	"github.com/mattsolo1/svpipe/internal/job"
)

// General holds the pipeline-wide scalars stored in the manifest's
// [general] section.
type General struct {
	Output         string
	Scheduler      string
	Queue          string
	MemoryMB       int
	SkipValidation bool
	SkipPairing    bool
}

// Manifest is the in-memory form of build.cfg: general scalars plus an
// ordered set of jobs, keyed by their unique name.
type Manifest struct {
	General General

	jobs  map[string]job.JobLike
	order []string
}

// New returns an empty Manifest with the given general section.
func New(general General) *Manifest {
	return &Manifest{General: general, jobs: make(map[string]job.JobLike)}
}

// AddJob registers j under its name, rejecting a duplicate name per the
// data model's uniqueness invariant.
func (m *Manifest) AddJob(j job.JobLike) error {
	name := j.JobName()
	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("manifest: duplicate job name %q", name)
	}
	m.jobs[name] = j
	m.order = append(m.order, name)
	return nil
}

// ReplaceJob swaps the job stored under j's name for j itself. Used by
// the submit loop when a validate/annotate array job was built at setup
// time with a dry N=1 placeholder and the real task count is only
// discoverable once the cluster job has produced its output files.
func (m *Manifest) ReplaceJob(j job.JobLike) error {
	name := j.JobName()
	if _, exists := m.jobs[name]; !exists {
		return fmt.Errorf("manifest: cannot replace unknown job %q", name)
	}
	m.jobs[name] = j
	return nil
}

// Resolve implements job.Resolver over the manifest's job set.
func (m *Manifest) Resolve(name string) (job.JobLike, bool) {
	j, ok := m.jobs[name]
	return j, ok
}

// Jobs returns every job in the order they were added.
func (m *Manifest) Jobs() []job.JobLike {
	out := make([]job.JobLike, len(m.order))
	for i, name := range m.order {
		out[i] = m.jobs[name]
	}
	return out
}

// Names returns job names in insertion order.
func (m *Manifest) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Validate rebuilds the dependency graph over the manifest's jobs,
// surfacing its structural invariants (unique names already enforced by
// AddJob; this additionally checks dependency existence, the
// array-dependency same-size rule, and acyclicity).
func (m *Manifest) Validate() error {
	nodes := make([]job.Node, 0, len(m.jobs))
	for _, name := range m.sortedNames() {
		nodes = append(nodes, m.jobs[name])
	}
	_, err := job.BuildGraph(nodes)
	return err
}

func (m *Manifest) sortedNames() []string {
	out := m.Names()
	sort.Strings(out)
	return out
}

// TopologicalOrder returns job names such that every job appears after
// all of its dependencies, for callers (the submit loop) that must
// submit jobs in an order the scheduler's own dependency flags can rely
// on being already known.
func (m *Manifest) TopologicalOrder() ([]string, error) {
	nodes := make([]job.Node, 0, len(m.jobs))
	for _, name := range m.sortedNames() {
		nodes = append(nodes, m.jobs[name])
	}
	g, err := job.BuildGraph(nodes)
	if err != nil {
		return nil, err
	}
	return g.TopologicalOrder(), nil
}
