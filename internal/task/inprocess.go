package task

import (
	"context"

	"wfengine/internal/resource"
)

// InProcess is a Leaf-InProcess task: it runs a callback on a worker
// goroutine instead of a subprocess (spec.md §4.3).
type InProcess struct {
	base
	policy ResourcePolicy
	runFn  func(ctx context.Context) int
}

// NewInProcess builds a fixed-resource in-process task.
func NewInProcess(name string, rs resource.Set, runFn func(ctx context.Context) int) *InProcess {
	return &InProcess{
		base:   base{name: name},
		policy: FixedPolicy(rs),
		runFn:  runFn,
	}
}

// NewFlexibleInProcess builds a flexible-resource in-process task.
func NewFlexibleInProcess(name string, pick func(available resource.Set) (resource.Set, bool), runFn func(ctx context.Context) int) *InProcess {
	return &InProcess{
		base:   base{name: name},
		policy: FlexiblePolicy(pick),
		runFn:  runFn,
	}
}

func (p *InProcess) Category() Category        { return LeafInProcess }
func (p *InProcess) Resources() ResourcePolicy { return p.policy }
func (p *InProcess) Run(ctx context.Context) int {
	return p.runFn(ctx)
}

// WithOnComplete registers the optional onComplete hook.
func (p *InProcess) WithOnComplete(fn func(exitCode int) bool) *InProcess {
	p.hooks.OnComplete = fn
	return p
}

// WithRetry registers the optional retry hook.
func (p *InProcess) WithRetry(fn func(info RetryInfo, failedOnComplete bool) Task) *InProcess {
	p.hooks.Retry = fn
	return p
}

var _ InProcessTask = (*InProcess)(nil)
