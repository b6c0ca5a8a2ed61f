package task

// Group is a set of tasks being declared together, modeling the `::`
// grouping operator from spec.md §4.1/§6: "(a :: b) ==> c creates a->c
// and b->c".
//
// Go has no custom infix operators, so the idiom here is:
//
//	task.G(a, b).Then(c)   // (a :: b) ==> c  — fan-in
//	task.G(a).Then(b, c)   // a ==> (b :: c)  — fan-out
//	task.G(a).Then(b)      // a ==> b         — single edge
type Group []Task

// G constructs a Group from individual tasks.
func G(tasks ...Task) Group { return Group(tasks) }

// Then declares that every task in g is a predecessor of every task in
// succs, and returns succs as a Group so chains can continue
// (`task.G(a).Then(b).Then(c)` declares a->b->c).
//
// Edges declared here are recorded on the task objects themselves
// (spec.md §9: "the task object itself holds no references to the
// graph" — only to its own declared predecessors/successors); they
// take effect once the tasks are inserted into a graph.TaskGraph.
func (g Group) Then(succs ...Task) Group {
	for _, p := range g {
		pm, ok := p.(mutableEdges)
		if !ok {
			continue
		}
		for _, s := range succs {
			sm, ok := s.(mutableEdges)
			if !ok {
				continue
			}
			pm.addSuccessor(s)
			sm.addPredecessor(p)
		}
	}
	return Group(succs)
}

// mutableEdges is implemented by every concrete task type in this
// package; it is unexported so only package-local edge-declaration code
// (Then, and the concrete constructors) can mutate a task's dependency
// declaration.
type mutableEdges interface {
	addPredecessor(t Task)
	addSuccessor(t Task)
	freeze()
}
