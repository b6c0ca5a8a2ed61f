package trace

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeTraceHash returns the deterministic hash of a canonical trace
// encoding (spec.md §4.6: two runs with the same scheduling decisions
// must produce the same trace hash). It assumes canonicalEncoding is
// already in sorted-event canonical form, e.g. from
// ExecutionTrace.CanonicalJSON — hashing insertion order instead would
// make the hash depend on goroutine scheduling, not task outcomes.
func ComputeTraceHash(canonicalEncoding []byte) string {
	if len(canonicalEncoding) == 0 {
		return ""
	}
	sum := sha256.Sum256(canonicalEncoding)
	return hex.EncodeToString(sum[:])
}
