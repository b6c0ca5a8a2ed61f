package task

import "wfengine/internal/resource"

// Process is a Leaf-Process task: it runs an external command.
//
// Grounded on spec.md §4.3 ("Process task: spawn a subprocess with the
// task's argument vector") and §6 (args() "may be recomputed each
// attempt and may differ across attempts").
type Process struct {
	base
	resources resource.Set
	policy    ResourcePolicy
	argsFn    func() []string
	applyFn   func(resource.Set)
}

// NewProcess builds a fixed-resource process task. argsFn is called
// fresh on every attempt so retries can mutate the argument vector
// (spec.md §6).
func NewProcess(name string, rs resource.Set, argsFn func() []string) *Process {
	return &Process{
		base:   base{name: name},
		policy: FixedPolicy(rs),
		argsFn: argsFn,
	}
}

// NewFlexibleProcess builds a flexible-resource process task whose size
// is chosen by pick at admission time (spec.md §4.4).
func NewFlexibleProcess(name string, pick func(available resource.Set) (resource.Set, bool), argsFn func() []string) *Process {
	return &Process{
		base:   base{name: name},
		policy: FlexiblePolicy(pick),
		argsFn: argsFn,
	}
}

func (p *Process) Category() Category        { return LeafProcess }
func (p *Process) Resources() ResourcePolicy { return p.policy }
func (p *Process) Args() []string            { return p.argsFn() }

func (p *Process) ApplyResources(rs resource.Set) {
	p.resources = rs
	if p.applyFn != nil {
		p.applyFn(rs)
	}
}

// OnApplyResources registers the optional "adjust behavior to admitted
// size" callback named in spec.md §4.3.
func (p *Process) OnApplyResources(fn func(resource.Set)) *Process {
	p.applyFn = fn
	return p
}

// WithOnComplete registers the optional onComplete hook (spec.md §3).
func (p *Process) WithOnComplete(fn func(exitCode int) bool) *Process {
	p.hooks.OnComplete = fn
	return p
}

// WithRetry registers the optional retry hook (spec.md §3/§4.3).
func (p *Process) WithRetry(fn func(info RetryInfo, failedOnComplete bool) Task) *Process {
	p.hooks.Retry = fn
	return p
}

var _ ProcessTask = (*Process)(nil)
