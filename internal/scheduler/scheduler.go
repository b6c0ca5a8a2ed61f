// Package scheduler implements the resource-constrained admission
// algorithm from spec.md §4.4, generalized from the teacher's
// GetReadyTasks (dag/scheduler.go) — a pure function over ready tasks
// and available resources instead of a pure function over graph state
// and readiness.
package scheduler

import (
	"wfengine/internal/resource"
	"wfengine/internal/task"
)

// Ready pairs a leaf task with the node id scheduling it.
type Ready struct {
	ID   int
	Task task.LeafTask
}

// Admission is one (task, chosen resources) decision.
type Admission struct {
	ID        int
	Task      task.LeafTask
	Resources resource.Set
}

// Admit runs the greedy, insertion-order admission pass described in
// spec.md §4.4: ready must already be in insertion order. It never
// mutates its inputs.
func Admit(ready []Ready, available resource.Set) []Admission {
	admitted := make([]Admission, 0, len(ready))

	for _, r := range ready {
		policy := r.Task.Resources()
		if policy.IsFlexible() {
			rs, ok := policy.Flexible(available)
			if !ok {
				continue
			}
			next, ok := available.Subset(rs)
			if !ok {
				continue
			}
			available = next
			admitted = append(admitted, Admission{ID: r.ID, Task: r.Task, Resources: rs})
			continue
		}

		next, ok := available.Subset(policy.Fixed)
		if !ok {
			continue
		}
		available = next
		admitted = append(admitted, Admission{ID: r.ID, Task: r.Task, Resources: policy.Fixed})
	}

	return admitted
}

// ExceedsEnvelope reports whether a fixed-resource task can never be
// admitted against the total envelope, regardless of what else is
// running (spec.md §4.4 point 2: "a permanent failure to schedule").
func ExceedsEnvelope(t task.LeafTask, envelope resource.Set) bool {
	policy := t.Resources()
	if policy.IsFlexible() {
		_, ok := policy.Flexible(envelope)
		return !ok
	}
	_, ok := envelope.Subset(policy.Fixed)
	return !ok
}
