// Package graph implements the mutable arena-of-nodes DAG described in
// spec.md §4.1/§4.2/§9: nodes are indexed by dense integer id, edges are
// stored as id multisets on the nodes, and the task object itself holds
// no reference back into the graph.
package graph

import (
	"strings"

	"wfengine/internal/task"
)

// TaskGraph owns every inserted node and the task->id lookup. It is not
// safe for concurrent use; spec.md §5 reserves all graph mutation to the
// single control thread.
type TaskGraph struct {
	nodes  []*Node
	byTask map[task.Task]int
}

// New returns an empty graph.
func New() *TaskGraph {
	return &TaskGraph{byTask: make(map[task.Task]int)}
}

// Node returns the node with the given id.
func (g *TaskGraph) Node(id int) (*Node, bool) {
	if id < 0 || id >= len(g.nodes) {
		return nil, false
	}
	return g.nodes[id], true
}

// NodeForTask returns the node tracking t, if any.
func (g *TaskGraph) NodeForTask(t task.Task) (*Node, bool) {
	id, ok := g.byTask[t]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// IDForTask returns the id tracking t, if any.
func (g *TaskGraph) IDForTask(t task.Task) (int, bool) {
	id, ok := g.byTask[t]
	return id, ok
}

// Nodes returns every tracked node, in id order.
func (g *TaskGraph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Insert tracks t and every task transitively reachable from t by
// following declared successor edges that is not yet tracked (spec.md
// §4.5: "inserts a task and all its transitively reachable dependency
// tasks"). Declared predecessors that are not yet tracked do not force
// insertion; they leave the node ORPHAN, to be resolved later by
// ReclassifyOrphans, matching the orphan-resolution scenario in spec.md
// §8. Returns t's own id, plus the full list of ids created by this
// call (including t's, if t was new).
//
// On a cycle or a duplicate insert with ignoreExists=false, the graph is
// left completely unchanged and an error wrapping ErrInvalidGraph or
// ErrCycleFound is returned (spec.md §7).
func (g *TaskGraph) Insert(t task.Task, parentID int, ignoreExists bool) (id int, newIDs []int, err error) {
	if existing, ok := g.byTask[t]; ok {
		if ignoreExists {
			return existing, nil, nil
		}
		return 0, nil, invalidf("task %q already inserted", t.Name())
	}

	if err := detectCycle(t); err != nil {
		return 0, nil, err
	}

	order := make([]task.Task, 0, 8)
	seen := make(map[task.Task]bool)
	var walk func(task.Task)
	walk = func(cur task.Task) {
		if seen[cur] {
			return
		}
		if _, tracked := g.byTask[cur]; tracked {
			return
		}
		seen[cur] = true
		order = append(order, cur)
		for _, s := range cur.Successors() {
			walk(s)
		}
	}
	walk(t)

	newIDs = make([]int, 0, len(order))
	for _, nt := range order {
		nid := len(g.nodes)
		g.nodes = append(g.nodes, newNode(nid, nt, parentID))
		g.byTask[nt] = nid
		newIDs = append(newIDs, nid)
	}
	for _, nt := range order {
		task.Freeze(nt)
	}

	for _, nid := range newIDs {
		n := g.nodes[nid]
		for _, p := range n.Task.Predecessors() {
			if pid, tracked := g.byTask[p]; tracked {
				g.link(pid, nid)
			} else {
				n.pending = append(n.pending, p)
			}
		}
		g.Recompute(nid)
	}

	return g.byTask[t], newIDs, nil
}

func (g *TaskGraph) link(predID, succID int) {
	g.nodes[succID].AddPredecessor(predID)
	g.nodes[predID].successors = append(g.nodes[predID].successors, succID)
}

// Link declares predID -> succID outside of Insert's own discovery pass;
// used for composite-expansion rewiring (spec.md §4.5 step 3) and for
// resolving a previously-pending orphan predecessor.
func (g *TaskGraph) Link(predID, succID int) {
	g.link(predID, succID)
	g.Recompute(succID)
}

// Unlink removes one copy of predID -> succID (mirroring how it was
// declared), used when rewiring a composite's successors onto its
// produced leaves instead of the composite itself.
func (g *TaskGraph) Unlink(predID, succID int) bool {
	if !g.nodes[succID].RemovePredecessor(predID) {
		return false
	}
	succs := g.nodes[predID].successors
	for i, id := range succs {
		if id == succID {
			succs[i] = -1
			break
		}
	}
	return true
}

// ReclassifyOrphans re-examines every ORPHAN node's pending predecessor
// tasks; any now tracked are linked (spec.md §4.5 step 4). Returns the
// ids whose pending list emptied out this call.
func (g *TaskGraph) ReclassifyOrphans() []int {
	var changed []int
	for _, n := range g.nodes {
		if n.State != Orphan {
			continue
		}
		remaining := n.pending[:0]
		for _, p := range n.pending {
			pid, tracked := g.byTask[p]
			if !tracked {
				remaining = append(remaining, p)
				continue
			}
			if g.nodes[pid].State != Completed {
				g.link(pid, n.ID)
			}
		}
		n.pending = remaining
		if len(n.pending) == 0 {
			g.Recompute(n.ID)
			changed = append(changed, n.ID)
		}
	}
	return changed
}

// SetState forcibly sets a node's state (used by the manager for the
// ORPHAN/NoPredecessors -> RUNNING -> COMPLETED transitions that are not
// driven purely by predecessor-count bookkeeping).
func (g *TaskGraph) SetState(id int, s State) {
	g.nodes[id].State = s
}

// MarkExpanded records that a composite's build() has run, so Recompute
// moves it from PREDECESSORS_AND_UNEXPANDED to ONLY_PREDECESSORS.
func (g *TaskGraph) MarkExpanded(id int) {
	g.nodes[id].Expanded = true
	g.Recompute(id)
}

// Recompute derives a node's state from its pending/live predecessors
// and category, per the lifecycle in spec.md §3. It is a no-op for
// RUNNING/COMPLETED nodes, whose state only the manager changes directly.
func (g *TaskGraph) Recompute(id int) {
	n := g.nodes[id]
	if n.State == Running || n.State == Completed {
		return
	}
	if len(n.pending) > 0 {
		n.State = Orphan
		return
	}
	if n.Task.Category() == task.Composite {
		if n.Expanded {
			n.State = OnlyPredecessors
		} else {
			n.State = PredecessorsAndUnexpanded
		}
		return
	}
	if n.LivePredecessorCount() == 0 {
		n.State = NoPredecessors
	} else {
		n.State = PredecessorsAndUnexpanded
	}
}

// detectCycle walks forward from start over declared successor edges,
// failing if it revisits a node still on the recursion stack. Any cycle
// a new insertion could introduce must pass through start (the rest of
// the graph was already validated acyclic by earlier inserts), so a
// single forward DFS from start is sufficient.
func detectCycle(start task.Task) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[task.Task]int)
	var path []string

	var visit func(t task.Task) error
	visit = func(t task.Task) error {
		switch color[t] {
		case gray:
			return cycleErrorf("%s -> %s", strings.Join(path, " -> "), t.Name())
		case black:
			return nil
		}
		color[t] = gray
		path = append(path, t.Name())
		for _, s := range t.Successors() {
			if err := visit(s); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[t] = black
		return nil
	}
	return visit(start)
}
