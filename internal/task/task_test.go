package task

import (
	"context"
	"testing"

	"wfengine/internal/resource"
)

func leaf(name string) *InProcess {
	return NewInProcess(name, resource.Set{Cores: 1}, func(ctx context.Context) int { return 0 })
}

func TestThen_SingleEdge_RecordsBothDirections(t *testing.T) {
	a, b := leaf("a"), leaf("b")
	G(a).Then(b)

	if len(a.Successors()) != 1 || a.Successors()[0] != Task(b) {
		t.Fatalf("a.Successors() = %v; want [b]", a.Successors())
	}
	if len(b.Predecessors()) != 1 || b.Predecessors()[0] != Task(a) {
		t.Fatalf("b.Predecessors() = %v; want [a]", b.Predecessors())
	}
}

func TestThen_FanIn_GroupBeforeThenEdgesToSingleSuccessor(t *testing.T) {
	a, b, c := leaf("a"), leaf("b"), leaf("c")
	G(a, b).Then(c)

	if len(c.Predecessors()) != 2 {
		t.Fatalf("c.Predecessors() = %v; want 2 entries", c.Predecessors())
	}
	if len(a.Successors()) != 1 || len(b.Successors()) != 1 {
		t.Fatalf("a/b should each have exactly one successor (c)")
	}
}

func TestThen_FanOut_SingleGroupBeforeThenMultipleSuccessors(t *testing.T) {
	a, b, c := leaf("a"), leaf("b"), leaf("c")
	G(a).Then(b, c)

	if len(a.Successors()) != 2 {
		t.Fatalf("a.Successors() = %v; want 2 entries", a.Successors())
	}
	if len(b.Predecessors()) != 1 || len(c.Predecessors()) != 1 {
		t.Fatalf("b/c should each have exactly one predecessor (a)")
	}
}

func TestThen_Chaining_ReturnsSuccessorsAsTheNextGroup(t *testing.T) {
	a, b, c := leaf("a"), leaf("b"), leaf("c")
	G(a).Then(b).Then(c)

	if len(b.Predecessors()) != 1 || b.Predecessors()[0] != Task(a) {
		t.Fatalf("b.Predecessors() = %v; want [a]", b.Predecessors())
	}
	if len(c.Predecessors()) != 1 || c.Predecessors()[0] != Task(b) {
		t.Fatalf("c.Predecessors() = %v; want [b]", c.Predecessors())
	}
}

func TestFreeze_StopsFurtherEdgeMutation(t *testing.T) {
	a, b, c := leaf("a"), leaf("b"), leaf("c")
	G(a).Then(b)

	Freeze(a)
	Freeze(b)
	Freeze(c)

	G(a).Then(c) // declared after both sides are frozen; must be a no-op
	if len(a.Successors()) != 1 {
		t.Fatalf("a.Successors() = %v; want still just [b] after freeze", a.Successors())
	}
	if len(c.Predecessors()) != 0 {
		t.Fatalf("c.Predecessors() = %v; want empty, both sides are frozen", c.Predecessors())
	}
}

func TestPredecessorsSuccessors_ReturnDefensiveCopies(t *testing.T) {
	a, b := leaf("a"), leaf("b")
	G(a).Then(b)

	succs := a.Successors()
	succs[0] = nil
	if a.Successors()[0] == nil {
		t.Fatalf("mutating a returned slice should not affect the task's internal state")
	}
}

func TestResourcePolicy_IsFlexibleDistinguishesFixedFromPick(t *testing.T) {
	fixed := FixedPolicy(resource.Set{Cores: 2})
	if fixed.IsFlexible() {
		t.Fatalf("FixedPolicy should not report IsFlexible")
	}
	flexible := FlexiblePolicy(func(available resource.Set) (resource.Set, bool) {
		return available, true
	})
	if !flexible.IsFlexible() {
		t.Fatalf("FlexiblePolicy should report IsFlexible")
	}
}

func TestStatus_IsDone_RespectsFailedIsDoneFlag(t *testing.T) {
	if !Succeeded.IsDone(false) {
		t.Fatalf("Succeeded should always be done")
	}
	if !ManuallySucceeded.IsDone(false) {
		t.Fatalf("ManuallySucceeded should always be done")
	}
	if FailedCommand.IsDone(false) {
		t.Fatalf("FailedCommand should not be done when failedIsDone is false")
	}
	if !FailedCommand.IsDone(true) {
		t.Fatalf("FailedCommand should be done when failedIsDone is true")
	}
	if Unknown.IsDone(true) {
		t.Fatalf("Unknown should never be done")
	}
}

func TestStatus_IsFailure_OnlyMatchesFailedVariants(t *testing.T) {
	for _, s := range []Status{FailedCommand, FailedOnComplete, FailedGetTasks, FailedUnknown} {
		if !s.IsFailure() {
			t.Fatalf("%v.IsFailure() = false; want true", s)
		}
	}
	for _, s := range []Status{Unknown, Started, Succeeded, ManuallySucceeded} {
		if s.IsFailure() {
			t.Fatalf("%v.IsFailure() = true; want false", s)
		}
	}
}

func TestStatusFromOutcome_MapsExitCodeAndOnComplete(t *testing.T) {
	if got := StatusFromOutcome(1, true); got != FailedCommand {
		t.Fatalf("StatusFromOutcome(1, true) = %v; want FailedCommand", got)
	}
	if got := StatusFromOutcome(0, false); got != FailedOnComplete {
		t.Fatalf("StatusFromOutcome(0, false) = %v; want FailedOnComplete", got)
	}
	if got := StatusFromOutcome(0, true); got != Succeeded {
		t.Fatalf("StatusFromOutcome(0, true) = %v; want Succeeded", got)
	}
}

func TestPipeline_Build_IsMemoizedAndIdempotent(t *testing.T) {
	calls := 0
	p := NewPipeline("outer", func(p *Pipeline) ([]Task, error) {
		calls++
		return []Task{leaf("inner")}, nil
	})

	first, err := p.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := p.Build()
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if calls != 1 {
		t.Fatalf("buildFn invoked %d times; want exactly once", calls)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("Build()/GetTasks() should both report the one built task")
	}
}

func TestPipeline_GetTasks_EmptyBeforeBuild(t *testing.T) {
	p := NewPipeline("outer", func(p *Pipeline) ([]Task, error) { return nil, nil })
	if len(p.GetTasks()) != 0 {
		t.Fatalf("GetTasks() before Build = %v; want empty", p.GetTasks())
	}
}
