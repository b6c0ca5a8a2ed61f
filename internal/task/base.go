package task

// base is the shared metadata prefix every concrete task embeds, per
// spec.md §9: "a tagged variant ... with a shared metadata prefix."
type base struct {
	name   string
	preds  []Task
	succs  []Task
	frozen bool
	hooks  Hooks
}

func (b *base) Name() string         { return b.name }
func (b *base) Predecessors() []Task { return append([]Task(nil), b.preds...) }
func (b *base) Successors() []Task   { return append([]Task(nil), b.succs...) }
func (b *base) Hooks() Hooks         { return b.hooks }

func (b *base) addPredecessor(t Task) {
	if b.frozen {
		return
	}
	b.preds = append(b.preds, t)
}

func (b *base) addSuccessor(t Task) {
	if b.frozen {
		return
	}
	b.succs = append(b.succs, t)
}

// freeze is invoked by graph.TaskGraph on insertion; once frozen, the
// dependency declaration on this task object is immutable (spec.md
// §4.1: "mutable prior to insertion, frozen after").
func (b *base) freeze() { b.frozen = true }

// Freeze exposes base's freeze to callers outside this package (the
// graph package) without exporting the full mutableEdges surface.
func Freeze(t Task) {
	if m, ok := t.(mutableEdges); ok {
		m.freeze()
	}
}
