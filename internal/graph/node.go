package graph

import (
	"sort"

	"wfengine/internal/task"
)

// Node is the scheduling record for one inserted task (spec.md §3/§4.2):
// identity, state, and the live/original predecessor multisets.
type Node struct {
	ID       int
	Task     task.Task
	ParentID int // -1 if this task has no composite parent

	State    State
	Expanded bool // set once a composite's build() has run

	// live is the mutable predecessor multiset, keyed by predecessor node
	// id; a value of 0 is never stored (the key is deleted instead).
	live map[int]int
	// original is the frozen-original predecessor multiset: it only ever
	// grows, even when entries are removed from live (spec.md §4.2).
	original map[int]int

	// successors mirrors each declared a->b edge as one entry per
	// declaration (so duplicate edges decrement exactly as many times as
	// they were added); -1 entries are tombstones left by Unlink.
	successors []int

	// pending holds predecessor tasks declared on Task but not yet
	// tracked by any TaskGraph; non-empty pending means State == Orphan.
	pending []task.Task
}

func newNode(id int, t task.Task, parentID int) *Node {
	return &Node{
		ID:       id,
		Task:     t,
		ParentID: parentID,
		State:    Orphan,
		live:     make(map[int]int),
		original: make(map[int]int),
	}
}

// AddPredecessor records predID as a live (and original) predecessor of n.
// Returns true if predID was already present in the live multiset before
// this call (spec.md §4.2: "duplicates are allowed and counted").
func (n *Node) AddPredecessor(predID int) bool {
	_, existed := n.live[predID]
	n.live[predID]++
	n.original[predID]++
	return existed
}

// RemovePredecessor removes one copy of predID from the live multiset.
// Returns true iff predID was present and one copy was removed.
func (n *Node) RemovePredecessor(predID int) bool {
	c, ok := n.live[predID]
	if !ok || c == 0 {
		return false
	}
	if c == 1 {
		delete(n.live, predID)
	} else {
		n.live[predID] = c - 1
	}
	return true
}

// HasPredecessor reflects the live multiset.
func (n *Node) HasPredecessor(predID int) bool { return n.live[predID] > 0 }

// LivePredecessorCount sums the live multiset's multiplicities.
func (n *Node) LivePredecessorCount() int {
	total := 0
	for _, c := range n.live {
		total += c
	}
	return total
}

// OriginalPredecessors returns the sorted ids of every node ever added as a
// predecessor, including ones since removed (spec.md §4.2/§9).
func (n *Node) OriginalPredecessors() []int {
	ids := make([]int, 0, len(n.original))
	for id := range n.original {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Successors returns the declared successor node ids, one entry per
// declared edge (so a duplicate edge appears twice).
func (n *Node) Successors() []int {
	out := make([]int, 0, len(n.successors))
	for _, id := range n.successors {
		if id >= 0 {
			out = append(out, id)
		}
	}
	return out
}

// PendingPredecessors returns the predecessor tasks declared on this
// node's Task that have not yet been matched to a tracked node (i.e. the
// reason this node is Orphan).
func (n *Node) PendingPredecessors() []task.Task {
	return append([]task.Task(nil), n.pending...)
}
