package graph

import (
	"context"
	"testing"

	"wfengine/internal/resource"
	"wfengine/internal/task"
)

func leaf(name string) *task.InProcess {
	return task.NewInProcess(name, resource.Set{Cores: 1}, func(ctx context.Context) int { return 0 })
}

func TestInsert_SimpleChain_TracksAllTransitiveSuccessors(t *testing.T) {
	a, b, c := leaf("a"), leaf("b"), leaf("c")
	task.G(a).Then(b)
	task.G(b).Then(c)

	g := New()
	id, newIDs, err := g.Insert(a, -1, false)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != 0 || len(newIDs) != 3 {
		t.Fatalf("Insert(a) = id %d newIDs %v; want id 0 and 3 new nodes", id, newIDs)
	}

	cn, ok := g.NodeForTask(c)
	if !ok {
		t.Fatalf("c was not tracked by a's transitive insert")
	}
	if cn.State != PredecessorsAndUnexpanded {
		t.Fatalf("c.State = %v; want PredecessorsAndUnexpanded (has a live predecessor)", cn.State)
	}
}

func TestInsert_DuplicateWithoutIgnoreExists_Errors(t *testing.T) {
	a := leaf("a")
	g := New()
	if _, _, err := g.Insert(a, -1, false); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if _, _, err := g.Insert(a, -1, false); err == nil {
		t.Fatalf("expected an error re-inserting a tracked task without ignoreExists")
	}
}

func TestInsert_DuplicateWithIgnoreExists_ReturnsExistingID(t *testing.T) {
	a := leaf("a")
	g := New()
	id1, _, err := g.Insert(a, -1, false)
	if err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	id2, newIDs, err := g.Insert(a, -1, true)
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if id2 != id1 || len(newIDs) != 0 {
		t.Fatalf("Insert(a, ignoreExists) = %d, %v; want %d, empty", id2, newIDs, id1)
	}
}

func TestInsert_UntrackedPredecessor_LeavesNodeOrphan(t *testing.T) {
	pred, succ := leaf("pred"), leaf("succ")
	task.G(pred).Then(succ)

	g := New()
	// Only succ is inserted; pred is declared but not yet tracked.
	succID, _, err := g.Insert(succ, -1, false)
	if err != nil {
		t.Fatalf("Insert(succ): %v", err)
	}
	n, _ := g.Node(succID)
	if n.State != Orphan {
		t.Fatalf("succ.State = %v; want Orphan (pred not yet tracked)", n.State)
	}
}

func TestReclassifyOrphans_LinksOnceThePredecessorIsTracked(t *testing.T) {
	pred, succ := leaf("pred"), leaf("succ")
	task.G(pred).Then(succ)

	g := New()
	succID, _, _ := g.Insert(succ, -1, false)
	g.Insert(pred, -1, false)

	changed := g.ReclassifyOrphans()
	if len(changed) != 1 || changed[0] != succID {
		t.Fatalf("ReclassifyOrphans() = %v; want [%d]", changed, succID)
	}

	n, _ := g.Node(succID)
	if n.State != PredecessorsAndUnexpanded {
		t.Fatalf("succ.State after reclassify = %v; want PredecessorsAndUnexpanded", n.State)
	}
}

func TestInsert_CycleIsRejectedAndGraphUnchanged(t *testing.T) {
	a, b := leaf("a"), leaf("b")
	task.G(a).Then(b)
	task.G(b).Then(a)

	g := New()
	if _, _, err := g.Insert(a, -1, false); err == nil {
		t.Fatalf("expected a cycle error")
	}
	if len(g.Nodes()) != 0 {
		t.Fatalf("graph should be left unchanged after a rejected cycle, got %d nodes", len(g.Nodes()))
	}
}

func TestNode_OriginalPredecessors_NeverShrinksOnRemoval(t *testing.T) {
	pred, succ := leaf("pred"), leaf("succ")
	task.G(pred).Then(succ)

	g := New()
	_, _, err := g.Insert(pred, -1, false)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	n, _ := g.NodeForTask(succ)

	if len(n.OriginalPredecessors()) != 1 {
		t.Fatalf("OriginalPredecessors() = %v; want exactly one entry", n.OriginalPredecessors())
	}
	n.RemovePredecessor(n.OriginalPredecessors()[0])
	if n.LivePredecessorCount() != 0 {
		t.Fatalf("LivePredecessorCount() = %d; want 0 after removal", n.LivePredecessorCount())
	}
	if len(n.OriginalPredecessors()) != 1 {
		t.Fatalf("OriginalPredecessors() shrank after removal: %v", n.OriginalPredecessors())
	}
}

func TestNode_DuplicateEdges_AreCountedAsMultisetEntries(t *testing.T) {
	pred, succ := leaf("pred"), leaf("succ")
	task.G(pred).Then(succ)
	task.G(pred).Then(succ) // declare the same edge twice

	g := New()
	_, _, err := g.Insert(pred, -1, false)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	n, _ := g.NodeForTask(succ)
	if n.LivePredecessorCount() != 2 {
		t.Fatalf("LivePredecessorCount() = %d; want 2 (duplicate declared edge)", n.LivePredecessorCount())
	}
}

func TestRecompute_CompositeRemainsUnexpandedUntilMarked(t *testing.T) {
	composite := task.NewPipeline("outer", func(p *task.Pipeline) ([]task.Task, error) { return nil, nil })

	g := New()
	id, _, err := g.Insert(composite, -1, false)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	n, _ := g.Node(id)
	if n.State != PredecessorsAndUnexpanded {
		t.Fatalf("fresh composite.State = %v; want PredecessorsAndUnexpanded", n.State)
	}

	g.MarkExpanded(id)
	if n.State != OnlyPredecessors {
		t.Fatalf("composite.State after MarkExpanded = %v; want OnlyPredecessors", n.State)
	}
}

func TestLinkAndUnlink_RewireSuccessorEdge(t *testing.T) {
	a, b, c := leaf("a"), leaf("b"), leaf("c")
	g := New()
	aID, _, _ := g.Insert(a, -1, false)
	bID, _, _ := g.Insert(b, -1, false)
	cID, _, _ := g.Insert(c, -1, false)

	g.Link(aID, cID)
	cn, _ := g.Node(cID)
	if !cn.HasPredecessor(aID) {
		t.Fatalf("Link should have made a a predecessor of c")
	}

	if !g.Unlink(aID, cID) {
		t.Fatalf("Unlink should report true for a real edge")
	}
	if cn.HasPredecessor(aID) {
		t.Fatalf("Unlink should have removed a as c's predecessor")
	}

	g.Link(bID, cID)
	if !cn.HasPredecessor(bID) {
		t.Fatalf("Link should have made b a predecessor of c")
	}
}
