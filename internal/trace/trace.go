package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ExecutionTrace is the canonical, deterministic record of a manager run.
//
// Invariants:
//   - Must capture a run identity and an ordered list of events.
//   - Must contain logical scheduling decisions, not runtime-dependent
//     details (no timestamps, no pointers, no map-iteration-dependent
//     values).
//
// Canonical representation: events are sorted via Canonicalize() using a
// fully-specified ordering, then serialized with a custom marshaler that
// fixes field order and omits absent optional fields.
type ExecutionTrace struct {
	RunID  string
	Events []TraceEvent
}

// TraceEventKind is the stable, canonical discriminator for TraceEvent,
// covering the scheduling decisions named in SPEC_FULL.md §4.6. The
// string values are part of the trace's canonical bytes; do not rename.
type TraceEventKind string

const (
	EventTaskExpanded         TraceEventKind = "TaskExpanded"
	EventTaskAdmitted         TraceEventKind = "TaskAdmitted"
	EventTaskRunning          TraceEventKind = "TaskRunning"
	EventTaskSucceeded        TraceEventKind = "TaskSucceeded"
	EventTaskFailedCommand    TraceEventKind = "TaskFailedCommand"
	EventTaskFailedOnComplete TraceEventKind = "TaskFailedOnComplete"
	EventTaskFailedGetTasks   TraceEventKind = "TaskFailedGetTasks"
	EventTaskRetried          TraceEventKind = "TaskRetried"
	EventTaskReplaced         TraceEventKind = "TaskReplaced"
	EventTaskOrphanResolved   TraceEventKind = "TaskOrphanResolved"
	EventTaskTerminated       TraceEventKind = "TaskTerminated"
)

// TraceEvent is a single logical scheduling decision.
//
// Determinism constraints: no timestamps, nothing derived from pointer
// identity or map iteration. Reason is a fixed code, except on
// TaskFailedGetTasks events, where it carries the build error's message.
type TraceEvent struct {
	Kind TraceEventKind

	// TaskID identifies the node this event refers to (the node's
	// integer id, stringified for a stable, comparable sort key).
	TaskID string

	// Reason is a stable, logical reason code (e.g. "EnvelopeExceeded").
	Reason string

	// AttemptIndex is set for TaskRetried/TaskReplaced events: the
	// attempt index the task is about to run under next.
	AttemptIndex int
}

// Validate checks basic invariants.
func (t *ExecutionTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	for i, e := range t.Events {
		if e.Kind == "" {
			return fmt.Errorf("events[%d].kind is required", i)
		}
		if e.TaskID == "" {
			return fmt.Errorf("events[%d].taskId is required", i)
		}
	}
	return nil
}

// Canonicalize produces a total order over events, independent of
// execution timing or goroutine interleaving: primarily by TaskID, then
// by kind, then by reason, then by attempt index.
func (t *ExecutionTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a, b := t.Events[i], t.Events[j]
		if a.TaskID != b.TaskID {
			return taskIDLess(a.TaskID, b.TaskID)
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		if a.Reason != b.Reason {
			return a.Reason < b.Reason
		}
		return a.AttemptIndex < b.AttemptIndex
	})
}

// taskIDLess orders by numeric value when both ids parse as integers
// (the normal case, since TaskID is a stringified node id), falling back
// to lexical order otherwise.
func taskIDLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

func kindOrder(k TraceEventKind) int {
	switch k {
	case EventTaskExpanded:
		return 10
	case EventTaskOrphanResolved:
		return 20
	case EventTaskAdmitted:
		return 30
	case EventTaskRunning:
		return 40
	case EventTaskSucceeded:
		return 50
	case EventTaskFailedCommand:
		return 60
	case EventTaskFailedOnComplete:
		return 70
	case EventTaskFailedGetTasks:
		return 80
	case EventTaskRetried:
		return 90
	case EventTaskReplaced:
		return 100
	case EventTaskTerminated:
		return 110
	default:
		return 1000
	}
}

// CanonicalJSON returns the canonical JSON encoding of a copy of the
// trace, leaving the receiver's slice untouched.
func (t ExecutionTrace) CanonicalJSON() ([]byte, error) {
	cp := ExecutionTrace{RunID: t.RunID}
	cp.Events = make([]TraceEvent, len(t.Events))
	copy(cp.Events, t.Events)
	cp.Canonicalize()
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&cp)
}

// Hash returns the deterministic sha256 hex digest of the canonical
// JSON bytes.
func (t ExecutionTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON fixes field order: runId first, then events.
func (t ExecutionTrace) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"runId\":")
	rb, _ := json.Marshal(t.RunID)
	buf.Write(rb)
	buf.WriteByte(',')

	buf.WriteString("\"events\":[")
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte(']')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits zero-valued optional fields.
func (e TraceEvent) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"kind\":")
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)

	buf.WriteString(",\"taskId\":")
	tb, _ := json.Marshal(e.TaskID)
	buf.Write(tb)

	if e.Reason != "" {
		buf.WriteString(",\"reason\":")
		rb, _ := json.Marshal(e.Reason)
		buf.Write(rb)
	}

	if e.AttemptIndex != 0 {
		buf.WriteString(",\"attemptIndex\":")
		ab, _ := json.Marshal(e.AttemptIndex)
		buf.Write(ab)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
