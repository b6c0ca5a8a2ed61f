package graph

import (
	"fmt"

	stderrors "errors"

	"github.com/pkg/errors"
)

// Sentinel error kinds, matched with errors.Is against the wrapped
// *GraphError returned by TaskGraph operations (spec.md §7).
var (
	ErrInvalidGraph = stderrors.New("invalid task graph")
	ErrCycleFound   = stderrors.New("cycle detected")
)

// GraphError wraps a deterministic graph-validation failure with a
// pkg/errors stack trace, so callers can both errors.Is against the
// sentinel and print a trace in logs.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func invalidf(format string, args ...any) error {
	return errors.WithStack(&GraphError{Kind: ErrInvalidGraph, Msg: fmt.Sprintf(format, args...)})
}

func cycleErrorf(format string, args ...any) error {
	return errors.WithStack(&GraphError{Kind: ErrCycleFound, Msg: fmt.Sprintf(format, args...)})
}
