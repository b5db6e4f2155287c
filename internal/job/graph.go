package job

import (
	"fmt"
	"sort"
)

// Node is the minimal shape the dependency graph needs from a job or
// array job: a unique name, its dependency names, and whether (and how
// large) it is an array.
type Node interface {
	JobName() string
	DependsOn() []string
	ArrayTasks() int // 0 for a plain Job
}

func (j *Job) JobName() string     { return j.Name }
func (j *Job) DependsOn() []string { return j.Dependencies }
func (j *Job) ArrayTasks() int     { return 0 }

func (a *ArrayJob) ArrayTasks() int { return a.Tasks }

// JobLike unifies Job and ArrayJob for code (the scheduler adapter, the
// manifest) that must operate on either without knowing which.
type JobLike interface {
	Node
	Base() *Job
	IsArray() bool
}

// Base returns j itself; it is the identity case of JobLike.Base.
func (j *Job) Base() *Job { return j }

// IsArray reports false for a plain Job.
func (j *Job) IsArray() bool { return false }

// Base returns the embedded Job for an ArrayJob.
func (a *ArrayJob) Base() *Job { return &a.Job }

// IsArray reports true for an ArrayJob.
func (a *ArrayJob) IsArray() bool { return true }

// Resolver looks up a job by name within a manifest/pipeline.
type Resolver interface {
	Resolve(name string) (JobLike, bool)
}

// Graph is a validated dependency DAG over a set of jobs, keyed by name.
type Graph struct {
	nodes map[string]Node
	order []string // insertion order, for deterministic iteration
}

// BuildGraph constructs and validates a Graph from the given nodes. It
// enforces: unique names, every dependency resolves within the set, no
// cycles, and an array job may declare at most one array-dependency
// which must be a same-size array.
func BuildGraph(nodes []Node) (*Graph, error) {
	g := &Graph{nodes: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		if _, exists := g.nodes[n.JobName()]; exists {
			return nil, fmt.Errorf("duplicate job name %q", n.JobName())
		}
		g.nodes[n.JobName()] = n
		g.order = append(g.order, n.JobName())
	}

	for _, n := range nodes {
		arrayDeps := 0
		for _, dep := range n.DependsOn() {
			depNode, ok := g.nodes[dep]
			if !ok {
				return nil, fmt.Errorf("job %q depends on unknown job %q", n.JobName(), dep)
			}
			if n.ArrayTasks() > 0 && depNode.ArrayTasks() > 0 {
				arrayDeps++
				if arrayDeps > 1 {
					return nil, fmt.Errorf("array job %q declares more than one array-dependency", n.JobName())
				}
				if depNode.ArrayTasks() != n.ArrayTasks() {
					return nil, fmt.Errorf(
						"array job %q (tasks=%d) declares an array-dependency on %q (tasks=%d) of a different size",
						n.JobName(), n.ArrayTasks(), dep, depNode.ArrayTasks())
				}
			}
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, fmt.Errorf("circular dependency detected: %v", cycle)
	}

	return g, nil
}

// Node returns the node with the given name, or nil.
func (g *Graph) Node(name string) Node {
	return g.nodes[name]
}

// Names returns job names in insertion order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		path = append(path, name)
		for _, dep := range g.nodes[name].DependsOn() {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle = append(append([]string{}, path[start:]...), dep)
				return true
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return false
	}

	names := g.Names()
	sort.Strings(names)
	for _, n := range names {
		if color[n] == white {
			if visit(n) {
				return cycle
			}
		}
	}
	return nil
}

// TopologicalOrder returns job names in dependency order: every job
// appears after all of its dependencies. Assumes the graph is acyclic
// (BuildGraph already verified this).
func (g *Graph) TopologicalOrder() []string {
	visited := make(map[string]bool, len(g.nodes))
	var result []string

	names := g.Names()
	sort.Strings(names)

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		for _, dep := range g.nodes[name].DependsOn() {
			visit(dep)
		}
		result = append(result, name)
	}

	for _, n := range names {
		visit(n)
	}
	return result
}
