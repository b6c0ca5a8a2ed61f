// Package execinfo holds the per-task attempt-oriented record named in
// spec.md §3 (TaskExecutionInfo), plus the BiMap-backed registry the
// manager uses to look it up by id or by task.
package execinfo

import (
	"time"

	"wfengine/internal/resource"
	"wfengine/internal/task"
)

// Info is one task's current attempt record (spec.md §3). It implements
// task.RetryInfo so a retry hook can inspect AttemptIndex/Status without
// this package importing task's consumers or vice versa.
type Info struct {
	ID           int
	Task         task.Task
	status       task.Status
	attemptIndex int

	SubmissionDate time.Time
	StartDate      time.Time
	EndDate        time.Time

	ScriptPath string
	LogPath    string

	Resources resource.Set
	hasRes    bool
}

// New creates the initial (UNKNOWN, attempt 1) record for a freshly
// inserted task.
func New(id int, t task.Task, submitted time.Time) *Info {
	return &Info{
		ID:             id,
		Task:           t,
		status:         task.Unknown,
		attemptIndex:   1,
		SubmissionDate: submitted,
	}
}

func (i *Info) AttemptIndex() int  { return i.attemptIndex }
func (i *Info) Status() task.Status { return i.status }

// SetStatus records a new terminal or intermediate status.
func (i *Info) SetStatus(s task.Status) { i.status = s }

// SetResources records the ResourceSet a task was admitted with.
func (i *Info) SetResources(rs resource.Set) {
	i.Resources = rs
	i.hasRes = true
}

// HasResources reports whether SetResources has ever been called.
func (i *Info) HasResources() bool { return i.hasRes }

// NextAttempt bumps the attempt counter and resets the per-attempt
// timestamps/status, used when a retry hook resubmits or replaces a
// failed task.
func (i *Info) NextAttempt() {
	i.attemptIndex++
	i.status = task.Unknown
	i.StartDate = time.Time{}
	i.EndDate = time.Time{}
}

// ResetForReplace resets attempt tracking to 1, as replaceTask requires
// (spec.md §4.5: "reset status to UNKNOWN ... and attempt index to 1").
func (i *Info) ResetForReplace(t task.Task) {
	i.Task = t
	i.status = task.Unknown
	i.attemptIndex = 1
	i.StartDate = time.Time{}
	i.EndDate = time.Time{}
	i.Resources = resource.Set{}
	i.hasRes = false
}
