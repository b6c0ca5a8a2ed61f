package task

import "fmt"

// Pipeline is a Composite task: it produces more tasks via Build
// instead of executing directly (spec.md §4.1).
//
// Build is invoked exactly once by the engine, after all of the
// Pipeline's own declared predecessors complete. The tasks it returns
// are inserted as children of the composite, so they run after the
// composite's own predecessors, and the composite's declared successors
// are rewired to depend on the returned sub-DAG's sink tasks. There is
// no separate "root" node that built tasks can declare a dependency on.
type Pipeline struct {
	base
	buildFn func(p *Pipeline) ([]Task, error)
	built   []Task
}

// NewPipeline builds a composite task. buildFn is called exactly once,
// by the engine, when the composite is ready to expand; it may close
// over predecessor task references to inspect their outcomes.
func NewPipeline(name string, buildFn func(p *Pipeline) ([]Task, error)) *Pipeline {
	return &Pipeline{base: base{name: name}, buildFn: buildFn}
}

func (p *Pipeline) Category() Category { return Composite }

// GetTasks returns the tasks declared by the most recent Build call (or
// nil before expansion). Per spec.md §4.1 this is an idempotent
// observation method distinct from Build itself.
func (p *Pipeline) GetTasks() []Task {
	return append([]Task(nil), p.built...)
}

// Build invokes buildFn exactly once and caches the result for GetTasks.
// A second call returns the cached result without re-invoking buildFn,
// since spec.md requires build() to run "exactly once."
func (p *Pipeline) Build() ([]Task, error) {
	if p.built != nil {
		return p.GetTasks(), nil
	}
	if p.buildFn == nil {
		return nil, fmt.Errorf("pipeline %q: no build function", p.name)
	}
	tasks, err := p.buildFn(p)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []Task{}
	}
	p.built = tasks
	return p.GetTasks(), nil
}

// WithRetry registers the optional retry hook for the composite itself.
// The manager does not consult it: a composite whose Build fails is
// marked FAILED_GET_TASKS/COMPLETED without calling its retry hook.
func (p *Pipeline) WithRetry(fn func(info RetryInfo, failedOnComplete bool) Task) *Pipeline {
	p.hooks.Retry = fn
	return p
}

var _ CompositeTask = (*Pipeline)(nil)
