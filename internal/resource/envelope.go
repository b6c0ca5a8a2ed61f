package resource

import "github.com/dustin/go-humanize"

// Envelope is the global resource budget the engine may allocate
// concurrently (spec.md §3: TaskManagerResources).
//
// It acts as the maximum: admitted tasks consume from it and release on
// completion. Envelope itself never mutates; callers track consumption
// separately (see internal/scheduler), matching spec.md's description of
// the envelope as the ceiling rather than a live counter.
type Envelope struct {
	SystemCores     Cores
	SystemMemory    Bytes
	InProcessMemory Bytes
}

// Total collapses the envelope into a single Set for subset arithmetic.
// InProcessMemory is folded into Memory: it is a ceiling on the same
// physical memory the process heap draws from, not a distinct pool.
func (e Envelope) Total() Set {
	return Set{Cores: e.SystemCores, Memory: e.SystemMemory, DiskMemory: 0}
}

// Summary renders a human-friendly one-line description of the
// envelope, used by the CLI and by structured log lines. This is purely
// cosmetic output, not the canonical Parse/String round-trip format
// (see resource.go), so the humanize package's formatting (IBytes
// binary units such as "2.0 GiB", whole-number core count) is
// acceptable here.
func (e Envelope) Summary() string {
	return humanize.Comma(int64(e.SystemCores)) + " cores / " + humanize.IBytes(uint64(e.SystemMemory)) + " memory"
}
