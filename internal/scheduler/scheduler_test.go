package scheduler

import (
	"context"
	"testing"

	"wfengine/internal/resource"
	"wfengine/internal/task"
)

func fixedLeaf(name string, cores resource.Cores) task.LeafTask {
	return task.NewInProcess(name, resource.Set{Cores: cores}, func(ctx context.Context) int { return 0 })
}

func TestAdmit_GreedyInsertionOrder_SkipsOverBudgetMiddleTask(t *testing.T) {
	ready := []Ready{
		{ID: 1, Task: fixedLeaf("a", 1)},
		{ID: 2, Task: fixedLeaf("b", 3)}, // doesn't fit after a; must be skipped, not block c
		{ID: 3, Task: fixedLeaf("c", 1)},
	}
	available := resource.Set{Cores: 2}

	admitted := Admit(ready, available)

	if len(admitted) != 2 {
		t.Fatalf("len(admitted) = %d; want 2", len(admitted))
	}
	if admitted[0].ID != 1 || admitted[1].ID != 3 {
		t.Fatalf("admitted ids = %v; want [1 3]", ids(admitted))
	}
}

func TestAdmit_ExactEnvelopeFitAdmits(t *testing.T) {
	ready := []Ready{{ID: 1, Task: fixedLeaf("a", 2)}}
	admitted := Admit(ready, resource.Set{Cores: 2})
	if len(admitted) != 1 {
		t.Fatalf("len(admitted) = %d; want 1", len(admitted))
	}
}

func TestAdmit_FlexibleTaskGetsWhatItPicks(t *testing.T) {
	flex := task.NewFlexibleInProcess("hungry", func(available resource.Set) (resource.Set, bool) {
		if available.Cores <= 0 {
			return resource.Set{}, false
		}
		return resource.Set{Cores: available.Cores}, true
	}, func(_ context.Context) int { return 0 })

	ready := []Ready{{ID: 1, Task: flex}}
	admitted := Admit(ready, resource.Set{Cores: 3})

	if len(admitted) != 1 {
		t.Fatalf("len(admitted) = %d; want 1", len(admitted))
	}
	if admitted[0].Resources.Cores != 3 {
		t.Fatalf("admitted resources = %+v; want all 3 cores", admitted[0].Resources)
	}
}

func TestAdmit_FlexibleTaskDecliningLeavesRoomForNext(t *testing.T) {
	declineThenFit := task.NewFlexibleInProcess("picky", func(available resource.Set) (resource.Set, bool) {
		return resource.Set{}, false
	}, func(_ context.Context) int { return 0 })
	after := fixedLeaf("after", 1)

	ready := []Ready{{ID: 1, Task: declineThenFit}, {ID: 2, Task: after}}
	admitted := Admit(ready, resource.Set{Cores: 1})

	if len(admitted) != 1 || admitted[0].ID != 2 {
		t.Fatalf("admitted = %v; want only id 2", ids(admitted))
	}
}

func TestExceedsEnvelope_FixedRequestLargerThanTotal(t *testing.T) {
	big := fixedLeaf("big", 4)
	if !ExceedsEnvelope(big, resource.Set{Cores: 2}) {
		t.Fatalf("a 4-core fixed request should exceed a 2-core envelope")
	}
	small := fixedLeaf("small", 1)
	if ExceedsEnvelope(small, resource.Set{Cores: 2}) {
		t.Fatalf("a 1-core fixed request should not exceed a 2-core envelope")
	}
}

func ids(admissions []Admission) []int {
	out := make([]int, len(admissions))
	for i, a := range admissions {
		out[i] = a.ID
	}
	return out
}
