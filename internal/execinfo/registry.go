package execinfo

import (
	"time"

	"wfengine/internal/bimap"
	"wfengine/internal/task"
)

// Registry owns one Info per tracked task, indexed by id and by task
// object identity via a BiMap (spec.md §2: "BiMap utility ... used for
// task<->info and related lookups").
type Registry struct {
	byTaskID *bimap.BiMap[task.Task, int]
	infos    map[int]*Info
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byTaskID: bimap.New[task.Task, int](),
		infos:    make(map[int]*Info),
	}
}

// Track registers a freshly inserted task under id, creating its initial
// Info.
func (r *Registry) Track(id int, t task.Task, submitted time.Time) *Info {
	r.byTaskID.Put(t, id)
	info := New(id, t, submitted)
	r.infos[id] = info
	return info
}

// Retrack re-associates id with a replacement task object, used by
// replaceTask (the id/Info identity is preserved; only the task payload
// and the BiMap's task-side key change).
func (r *Registry) Retrack(id int, original, replacement task.Task) {
	r.byTaskID.DeleteKey(original)
	r.byTaskID.Put(replacement, id)
}

// ByID returns the Info for id.
func (r *Registry) ByID(id int) (*Info, bool) {
	i, ok := r.infos[id]
	return i, ok
}

// ByTask returns the Info for t.
func (r *Registry) ByTask(t task.Task) (*Info, bool) {
	id, ok := r.byTaskID.Get(t)
	if !ok {
		return nil, false
	}
	return r.ByID(id)
}

// IDForTask returns the id associated with t.
func (r *Registry) IDForTask(t task.Task) (int, bool) {
	return r.byTaskID.Get(t)
}

// TaskForID returns the task object associated with id.
func (r *Registry) TaskForID(id int) (task.Task, bool) {
	return r.byTaskID.GetKey(id)
}
