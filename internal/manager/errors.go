package manager

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel error kinds for the manager's own public operations (spec.md
// §7); graph-internal invalid-argument/cycle errors from
// internal/graph are passed through unwrapped so callers can still
// errors.Is against graph.ErrInvalidGraph/ErrCycleFound.
var ErrCompositeExpansion = stderrors.New("composite expansion failed")

// expansionErrorf wraps a build() failure with a stack trace, for the
// FAILED_GET_TASKS path (spec.md §7).
func expansionErrorf(format string, args ...any) error {
	return errors.WithStack(fmt.Errorf("%w: %s", ErrCompositeExpansion, fmt.Sprintf(format, args...)))
}
