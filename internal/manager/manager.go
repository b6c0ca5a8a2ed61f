// Package manager implements the TaskManager described in spec.md §4.5:
// the single-threaded tick loop that harvests completions, expands
// composites, reclassifies orphans, and admits ready leaves against the
// resource envelope, grounded on the teacher's Executor.RunSerial
// control-flow skeleton (internal/dag/executor.go) — the same
// poll/mutate shape (without a lock: all state is touched from one
// control goroutine), with the per-tick decision content replaced by
// the expand/admit/retry/replace branches named in spec.md.
package manager

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"wfengine/internal/execinfo"
	"wfengine/internal/graph"
	"wfengine/internal/resource"
	"wfengine/internal/runner"
	"wfengine/internal/scheduler"
	"wfengine/internal/task"
	"wfengine/internal/trace"
)

// NoParent is passed as parentID for tasks with no composite owner.
const NoParent = -1

// TaskManager owns the graph, the execution-info registry, the runner,
// the resource envelope, and the trace recorder for one run. Every
// exported method is intended to be called from a single control
// goroutine (spec.md §5); the only cross-goroutine boundary is the
// runner's completion mailbox.
type TaskManager struct {
	RunID string

	graph    *graph.TaskGraph
	registry *execinfo.Registry
	runner   *runner.Runner
	recorder *trace.Recorder

	envelope resource.Set
	running  map[int]resource.Set
}

// New builds a TaskManager with the given total resource envelope,
// persisting attempt logs/argv records under workDir.
func New(envelope resource.Set, workDir string) *TaskManager {
	return &TaskManager{
		RunID:    uuid.NewString(),
		graph:    graph.New(),
		registry: execinfo.NewRegistry(),
		runner:   runner.New(workDir),
		recorder: trace.NewRecorder(),
		envelope: envelope,
		running:  make(map[int]resource.Set),
	}
}

// Trace returns the canonical trace of every event recorded so far.
func (m *TaskManager) Trace() trace.ExecutionTrace { return m.recorder.Trace(m.RunID) }

// AddTask inserts t and every task transitively reachable from it via
// declared successor edges (spec.md §4.5's addTask).
func (m *TaskManager) AddTask(t task.Task, parentID int, ignoreExists bool) (int, error) {
	id, newIDs, err := m.graph.Insert(t, parentID, ignoreExists)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	for _, nid := range newIDs {
		n, _ := m.graph.Node(nid)
		m.registry.Track(nid, n.Task, now)
	}
	return id, nil
}

// AddTasks inserts each task in order (spec.md §4.5's addTasks).
func (m *TaskManager) AddTasks(ts []task.Task, parentID int, ignoreExists bool) ([]int, error) {
	ids := make([]int, 0, len(ts))
	for _, t := range ts {
		id, err := m.AddTask(t, parentID, ignoreExists)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ReplaceTask transplants replacement into original's existing node and
// info, preserving id and edges (spec.md §4.5's replaceTask). Returns
// false if original is untracked or RUNNING.
func (m *TaskManager) ReplaceTask(original, replacement task.Task) bool {
	id, ok := m.registry.IDForTask(original)
	if !ok {
		return false
	}
	n, _ := m.graph.Node(id)
	if n.State == graph.Running {
		return false
	}
	n.Task = replacement
	m.registry.Retrack(id, original, replacement)
	info, _ := m.registry.ByID(id)
	info.ResetForReplace(replacement)
	m.graph.SetState(id, graph.NoPredecessors)
	trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskReplaced, TaskID: itoa(id), AttemptIndex: 1})
	return true
}

// ResubmitTask resets attempt tracking on the same task object (status
// UNKNOWN, attempt index 1, node NO_PREDECESSORS), like ReplaceTask but
// keeping the task (spec.md §4.5's resubmitTask). Returns false if t is
// untracked or RUNNING.
func (m *TaskManager) ResubmitTask(t task.Task) bool {
	id, ok := m.registry.IDForTask(t)
	if !ok {
		return false
	}
	n, _ := m.graph.Node(id)
	if n.State == graph.Running {
		return false
	}
	info, _ := m.registry.ByID(id)
	info.ResetForReplace(t)
	m.graph.SetState(id, graph.NoPredecessors)
	trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskRetried, TaskID: itoa(id), AttemptIndex: info.AttemptIndex()})
	return true
}

// GetTaskId returns the id tracking t.
func (m *TaskManager) GetTaskId(t task.Task) (int, bool) { return m.registry.IDForTask(t) }

// GetTaskStatus returns the current status of the task tracked under id.
func (m *TaskManager) GetTaskStatus(id int) (task.Status, bool) {
	info, ok := m.registry.ByID(id)
	if !ok {
		return task.Unknown, false
	}
	return info.Status(), true
}

// GetGraphNodeState returns the current lifecycle state of the node
// tracked under id.
func (m *TaskManager) GetGraphNodeState(id int) (graph.State, bool) {
	n, ok := m.graph.Node(id)
	if !ok {
		return graph.Orphan, false
	}
	return n.State, true
}

// GetTaskExecutionInfo returns the attempt record tracked under id.
func (m *TaskManager) GetTaskExecutionInfo(id int) (*execinfo.Info, bool) {
	return m.registry.ByID(id)
}

// GetGraphNode returns the node tracking t.
func (m *TaskManager) GetGraphNode(t task.Task) (*graph.Node, bool) {
	return m.graph.NodeForTask(t)
}

// RunSchedulerOnce runs exactly one tick and reports what happened, for
// callers that drive the loop manually (spec.md §4.5, "Used by callers
// that drive the loop manually (testing)").
func (m *TaskManager) RunSchedulerOnce() (readyTasks, tasksToSchedule, runningTasks, completedTasks []int) {
	completedLeaves := m.harvest()
	completedComposites := m.updateComposites()
	m.expand()
	m.reclassifyOrphans()

	ready := m.computeReady()
	admitted := m.admit(ready)

	completed := append(append([]int{}, completedLeaves...), completedComposites...)
	sort.Ints(completed)

	readyIDs := make([]int, len(ready))
	for i, r := range ready {
		readyIDs[i] = r.ID
	}

	return readyIDs, admitted, m.runningIDs(), completed
}

// RunAllTasks drives ticks until every task reaches a terminal state or
// timeout expires (0 means no deadline); on return no leaf is still
// running (spec.md §4.5/§5).
func (m *TaskManager) RunAllTasks(sleepMs int, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if m.allTerminal() {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return m.terminateAndDrain(sleepMs)
		}
		m.RunSchedulerOnce()
		time.Sleep(time.Duration(sleepMs) * time.Millisecond)
	}
}

func (m *TaskManager) terminateAndDrain(sleepMs int) error {
	m.runner.TerminateAll()
	for _, n := range m.graph.Nodes() {
		if n.State == graph.Running {
			trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskTerminated, TaskID: itoa(n.ID)})
		}
	}
	for m.hasRunning() {
		m.harvestTerminating()
		time.Sleep(time.Duration(sleepMs) * time.Millisecond)
	}
	return context.DeadlineExceeded
}

// allTerminal reports whether every tracked node is COMPLETED. A
// permanently ORPHAN node (its predecessor was never inserted) never
// satisfies this — such a graph only returns from RunAllTasks via its
// timeout, exactly as spec.md §4.5 describes.
func (m *TaskManager) allTerminal() bool {
	for _, n := range m.graph.Nodes() {
		if !n.State.IsTerminal() {
			return false
		}
	}
	return true
}

func (m *TaskManager) hasRunning() bool {
	for _, n := range m.graph.Nodes() {
		if n.State == graph.Running {
			return true
		}
	}
	return false
}

func (m *TaskManager) runningIDs() []int {
	var out []int
	for _, n := range m.graph.Nodes() {
		if n.State == graph.Running {
			out = append(out, n.ID)
		}
	}
	return out
}

// harvest is tick step 1: poll the runner's mailbox for every currently
// available completion (non-blocking) and process each.
func (m *TaskManager) harvest() []int {
	return m.drainCompletions(false)
}

// harvestTerminating drains completions produced by a TerminateAll kill
// sweep. spec.md §4.3: a killed task is recorded as FAILED_COMMAND and
// COMPLETED unconditionally — its retry hook is never consulted, since
// RunAllTasks has already returned and nothing will observe a
// resubmitted/replaced task ever again.
func (m *TaskManager) harvestTerminating() []int {
	return m.drainCompletions(true)
}

func (m *TaskManager) drainCompletions(forceTerminal bool) []int {
	var completed []int
	for {
		select {
		case c := <-m.runner.Completions():
			if id, ok := m.harvestOne(c, forceTerminal); ok {
				completed = append(completed, id)
			}
		default:
			sort.Ints(completed)
			return completed
		}
	}
}

func (m *TaskManager) harvestOne(c runner.Completion, forceTerminal bool) (int, bool) {
	id := c.ID
	delete(m.running, id)

	info, ok := m.registry.ByID(id)
	if !ok {
		return 0, false
	}
	n, _ := m.graph.Node(id)
	t := n.Task

	var status task.Status
	if c.Err != nil {
		status = task.FailedUnknown
	} else {
		status = task.StatusFromOutcome(c.ExitCode, c.OnCompleteOK)
	}
	info.EndDate = c.EndTime
	info.SetStatus(status)

	if !status.IsFailure() {
		m.acceptTerminal(n, info, status)
		return id, true
	}

	if forceTerminal {
		info.SetStatus(task.FailedCommand)
		m.acceptTerminal(n, info, task.FailedCommand)
		return id, true
	}

	hooks := t.Hooks()
	var replacement task.Task
	if hooks.Retry != nil {
		replacement = hooks.Retry(info, status == task.FailedOnComplete)
	}

	switch {
	case replacement == nil:
		m.acceptTerminal(n, info, status)
		return id, true
	case replacement == t:
		info.NextAttempt()
		m.graph.SetState(id, graph.NoPredecessors)
		trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskRetried, TaskID: itoa(id), AttemptIndex: info.AttemptIndex()})
		return 0, false
	default:
		// A retry hook substituting a different task object still counts
		// as the same ongoing attempt sequence (spec.md §8 Scenario 2
		// expects attemptIndex 3 after two self-retries and a final
		// different-task success) — unlike the public ReplaceTask API,
		// this does not reset the attempt index to 1.
		n.Task = replacement
		m.registry.Retrack(id, t, replacement)
		info.Task = replacement
		info.NextAttempt()
		m.graph.SetState(id, graph.NoPredecessors)
		trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskReplaced, TaskID: itoa(id), AttemptIndex: info.AttemptIndex()})
		return 0, false
	}
}

// acceptTerminal marks n COMPLETED and, only on a successful status,
// decrements its successors' live-predecessor multisets — a terminal
// failure leaves successors stalled forever (spec.md §7/§9 Open
// Question: "terminal-failure successors stall forever").
func (m *TaskManager) acceptTerminal(n *graph.Node, info *execinfo.Info, status task.Status) {
	m.graph.SetState(n.ID, graph.Completed)
	if status.IsDone(false) {
		m.notifySuccessors(n)
	}
	trace.SafeRecord(m.recorder, statusEvent(n.ID, status))
}

func (m *TaskManager) notifySuccessors(n *graph.Node) {
	for _, succID := range n.Successors() {
		succ, ok := m.graph.Node(succID)
		if !ok {
			continue
		}
		succ.RemovePredecessor(n.ID)
		m.graph.Recompute(succID)
	}
}

func statusEvent(id int, status task.Status) trace.TraceEvent {
	tid := itoa(id)
	switch status {
	case task.FailedOnComplete:
		return trace.TraceEvent{Kind: trace.EventTaskFailedOnComplete, TaskID: tid}
	case task.FailedCommand:
		return trace.TraceEvent{Kind: trace.EventTaskFailedCommand, TaskID: tid, Reason: "NonZeroExit"}
	case task.FailedUnknown:
		return trace.TraceEvent{Kind: trace.EventTaskFailedCommand, TaskID: tid, Reason: "InfrastructureFailure"}
	default:
		return trace.TraceEvent{Kind: trace.EventTaskSucceeded, TaskID: tid}
	}
}

// updateComposites is tick step 2: any ONLY_PREDECESSORS composite whose
// children are all COMPLETED completes too, with endDate = max child
// endDate.
func (m *TaskManager) updateComposites() []int {
	var completed []int
	for _, n := range m.graph.Nodes() {
		if n.State != graph.OnlyPredecessors || n.Task.Category() != task.Composite {
			continue
		}
		children := m.childrenOf(n.ID)
		if !m.allCompleted(children) {
			continue
		}
		info, _ := m.registry.ByID(n.ID)
		info.EndDate = maxEndDate(children, m.registry, info.StartDate)
		info.SetStatus(task.Succeeded)
		m.graph.SetState(n.ID, graph.Completed)
		m.notifySuccessors(n)
		trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskSucceeded, TaskID: itoa(n.ID)})
		completed = append(completed, n.ID)
	}
	sort.Ints(completed)
	return completed
}

func (m *TaskManager) childrenOf(parentID int) []*graph.Node {
	var out []*graph.Node
	for _, n := range m.graph.Nodes() {
		if n.ParentID == parentID {
			out = append(out, n)
		}
	}
	return out
}

func (m *TaskManager) allCompleted(nodes []*graph.Node) bool {
	for _, n := range nodes {
		if n.State != graph.Completed {
			return false
		}
	}
	return true
}

func maxEndDate(nodes []*graph.Node, reg *execinfo.Registry, fallback time.Time) time.Time {
	var max time.Time
	for _, n := range nodes {
		info, ok := reg.ByID(n.ID)
		if !ok {
			continue
		}
		if info.EndDate.After(max) {
			max = info.EndDate
		}
	}
	if max.IsZero() {
		if !fallback.IsZero() {
			return fallback
		}
		return time.Now()
	}
	return max
}

// expand is tick step 3: every PREDECESSORS_AND_UNEXPANDED composite with
// zero live predecessors has build() invoked; produced tasks are
// inserted under it, and its declared successors are rewired onto the
// produced subgraph's sink tasks.
func (m *TaskManager) expand() {
	for _, n := range m.graph.Nodes() {
		if n.Task.Category() != task.Composite {
			continue
		}
		if n.State != graph.PredecessorsAndUnexpanded || n.LivePredecessorCount() != 0 {
			continue
		}
		m.expandOne(n)
	}
}

// failExpansion marks a composite FAILED_GET_TASKS/COMPLETED (spec.md
// §7: "no exception surfaced" — the error is recorded as the trace
// event's reason instead of being returned to any caller).
func (m *TaskManager) failExpansion(n *graph.Node, err error) {
	info, _ := m.registry.ByID(n.ID)
	info.SetStatus(task.FailedGetTasks)
	info.EndDate = time.Now()
	m.graph.SetState(n.ID, graph.Completed)
	trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskFailedGetTasks, TaskID: itoa(n.ID), Reason: err.Error()})
}

func (m *TaskManager) expandOne(n *graph.Node) {
	if info, ok := m.registry.ByID(n.ID); ok {
		info.SetStatus(task.Started)
	}

	ct, ok := n.Task.(task.CompositeTask)
	if !ok {
		m.graph.MarkExpanded(n.ID)
		return
	}

	produced, err := ct.Build()
	if err != nil {
		m.failExpansion(n, expansionErrorf("composite %q: %v", n.Task.Name(), err))
		return
	}

	now := time.Now()
	var allNew []int
	for _, pt := range produced {
		_, newIDs, err := m.graph.Insert(pt, n.ID, true)
		if err != nil {
			m.failExpansion(n, expansionErrorf("composite %q: inserting produced task %q: %v", n.Task.Name(), pt.Name(), err))
			return
		}
		for _, nid := range newIDs {
			cn, _ := m.graph.Node(nid)
			m.registry.Track(nid, cn.Task, now)
		}
		allNew = append(allNew, newIDs...)
	}

	if sinks := sinksOf(m.graph, allNew); len(sinks) > 0 {
		successors := n.Successors()
		for _, succID := range successors {
			m.graph.Unlink(n.ID, succID)
			for _, sinkID := range sinks {
				m.graph.Link(sinkID, succID)
			}
		}
	}

	m.graph.MarkExpanded(n.ID)
	trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskExpanded, TaskID: itoa(n.ID)})
}

// sinksOf returns the subset of newIDs with no successor also in newIDs
// (the produced sub-DAG's terminal tasks, per spec.md §4.5 step 3).
func sinksOf(g *graph.TaskGraph, newIDs []int) []int {
	set := make(map[int]bool, len(newIDs))
	for _, id := range newIDs {
		set[id] = true
	}
	var sinks []int
	for _, id := range newIDs {
		n, _ := g.Node(id)
		isSink := true
		for _, s := range n.Successors() {
			if set[s] {
				isSink = false
				break
			}
		}
		if isSink {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// reclassifyOrphans is tick step 4.
func (m *TaskManager) reclassifyOrphans() {
	for _, id := range m.graph.ReclassifyOrphans() {
		trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskOrphanResolved, TaskID: itoa(id)})
	}
}

// computeReady is tick step 5: leaves in NO_PREDECESSORS, in insertion
// (ascending id) order.
func (m *TaskManager) computeReady() []scheduler.Ready {
	var ready []scheduler.Ready
	for _, n := range m.graph.Nodes() {
		if n.State != graph.NoPredecessors {
			continue
		}
		leaf, ok := n.Task.(task.LeafTask)
		if !ok {
			continue
		}
		ready = append(ready, scheduler.Ready{ID: n.ID, Task: leaf})
	}
	return ready
}

// admit is tick step 6.
func (m *TaskManager) admit(ready []scheduler.Ready) []int {
	available := m.available()
	admissions := scheduler.Admit(ready, available)

	now := time.Now()
	ids := make([]int, 0, len(admissions))
	for _, a := range admissions {
		info, _ := m.registry.ByID(a.ID)
		firstStart := info.StartDate.IsZero()
		if firstStart {
			info.StartDate = now
			m.propagateStartDate(a.ID, now)
		}
		info.SetResources(a.Resources)
		info.SetStatus(task.Started)
		m.running[a.ID] = a.Resources

		m.graph.SetState(a.ID, graph.Running)
		scriptPath, logPath := m.runner.Launch(a.Task, a.ID, info.AttemptIndex(), a.Resources)
		info.ScriptPath = scriptPath
		info.LogPath = logPath

		tid := itoa(a.ID)
		trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskAdmitted, TaskID: tid})
		trace.SafeRecord(m.recorder, trace.TraceEvent{Kind: trace.EventTaskRunning, TaskID: tid})
		ids = append(ids, a.ID)
	}
	return ids
}

// propagateStartDate sets every composite ancestor's startDate to the
// first moment any of its descendants started running, satisfying
// spec.md §4.5 step 3's "set composite.startDate to earliest child
// startDate upon first child start" and the ordering guarantee in §5.
func (m *TaskManager) propagateStartDate(id int, when time.Time) {
	n, ok := m.graph.Node(id)
	if !ok {
		return
	}
	for n.ParentID != NoParent {
		parent, ok := m.graph.Node(n.ParentID)
		if !ok {
			return
		}
		info, ok := m.registry.ByID(parent.ID)
		if ok && info.StartDate.IsZero() {
			info.StartDate = when
		}
		n = parent
	}
}

func (m *TaskManager) available() resource.Set {
	used := resource.Zero
	for _, rs := range m.running {
		used = used.Add(rs)
	}
	avail, ok := m.envelope.Subset(used)
	if !ok {
		return resource.Zero
	}
	return avail
}

// itoa stringifies a node id to match trace.TraceEvent.TaskID's
// stringified-node-id convention (internal/trace/trace.go's taskIDLess
// numeric fast path).
func itoa(id int) string { return strconv.Itoa(id) }
