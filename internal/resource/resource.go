// Package resource defines the typed resource quantities the scheduler
// reasons about.
//
// From spec.md §3 (Data Model):
//
//	ResourceSet: a tuple (cores, memory, diskMemory) closed under
//	componentwise add/subtract and supporting the subset(r) = this - r
//	partial operation (defined only when all components >= 0).
package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// Cores is a rational core count. Fractional cores (e.g. 0.5) are allowed.
type Cores float64

// Bytes is a non-negative byte quantity.
type Bytes int64

// ParseError is returned by ParseBytes for unparseable memory strings;
// the spec also defines a -1 sentinel return for callers that prefer a
// value over an error (see ParseBytesOrSentinel).
var ParseError = fmt.Errorf("resource: unparseable memory string")

// Set is a tuple of (cores, memory, diskMemory).
//
// All three components are part of every arithmetic and comparison
// operation; a Set with DiskMemory unused by a particular deployment
// simply carries zero there.
type Set struct {
	Cores      Cores
	Memory     Bytes
	DiskMemory Bytes
}

// Zero is the additive identity.
var Zero = Set{}

// Add returns the componentwise sum.
func (s Set) Add(o Set) Set {
	return Set{
		Cores:      s.Cores + o.Cores,
		Memory:     s.Memory + o.Memory,
		DiskMemory: s.DiskMemory + o.DiskMemory,
	}
}

// Sub returns the componentwise difference, without checking for
// negative results. Use Subset when the "only if every component stays
// non-negative" rule from the spec is required.
func (s Set) Sub(o Set) Set {
	return Set{
		Cores:      s.Cores - o.Cores,
		Memory:     s.Memory - o.Memory,
		DiskMemory: s.DiskMemory - o.DiskMemory,
	}
}

// Subset computes this - r, returning ok=false when any resulting
// component would be negative (i.e. r does not fit within this Set).
//
// From spec.md §3: "subset(r) = this - r, defined only when all
// components >= 0".
func (s Set) Subset(r Set) (Set, bool) {
	out := s.Sub(r)
	if out.Cores < 0 || out.Memory < 0 || out.DiskMemory < 0 {
		return Set{}, false
	}
	return out, true
}

// Fits reports whether r can be subtracted from this Set without going
// negative, without returning the resulting Set.
func (s Set) Fits(r Set) bool {
	_, ok := s.Subset(r)
	return ok
}

// String renders the set as "<cores> cores, <memory>, <diskMemory> disk".
func (s Set) String() string {
	return fmt.Sprintf("%s cores, %s, %s disk", formatCores(s.Cores), FormatBytes(s.Memory), FormatBytes(s.DiskMemory))
}

func formatCores(c Cores) string {
	if c == Cores(int64(c)) {
		return strconv.FormatInt(int64(c), 10)
	}
	return strconv.FormatFloat(float64(c), 'g', -1, 64)
}

// unitMultipliers maps every accepted suffix (case-insensitive) to its
// base-1024 multiplier. Per spec.md §6: "memory strings parsed
// case-insensitively with suffix k/kb/m/mb/g/gb/t/tb/p/pb, base 1024;
// unsuffixed parses as bytes; unparseable yields sentinel -1." Note
// that "k" and "kb" are deliberately the SAME multiplier (1024), unlike
// decimal-vs-binary libraries such as dustin/go-humanize, which treat
// "kb" as 1000 and "kib" as 1024 — that mismatch is why this parser is
// hand-rolled rather than delegated (see DESIGN.md).
var unitMultipliers = map[string]int64{
	"":   1,
	"b":  1,
	"k":  1024,
	"kb": 1024,
	"m":  1024 * 1024,
	"mb": 1024 * 1024,
	"g":  1024 * 1024 * 1024,
	"gb": 1024 * 1024 * 1024,
	"t":  1024 * 1024 * 1024 * 1024,
	"tb": 1024 * 1024 * 1024 * 1024,
	"p":  1024 * 1024 * 1024 * 1024 * 1024,
	"pb": 1024 * 1024 * 1024 * 1024 * 1024,
}

// canonicalSuffix is the suffix FormatBytes emits per unit, chosen so
// that FormatBytes(ParseBytes(s)) round-trips for the canonical forms named in
// spec.md §8 ("2g" -> "2g", "2m" -> "2m", "2k" -> "2k").
var canonicalSuffix = []struct {
	mult   int64
	suffix string
}{
	{1024 * 1024 * 1024 * 1024 * 1024, "p"},
	{1024 * 1024 * 1024 * 1024, "t"},
	{1024 * 1024 * 1024, "g"},
	{1024 * 1024, "m"},
	{1024, "k"},
}

// ParseBytes parses a memory string per spec.md §6, returning an error
// on unparseable input.
func ParseBytes(s string) (Bytes, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, ParseError
	}

	i := len(trimmed)
	for i > 0 && !isDigitOrDot(trimmed[i-1]) {
		i--
	}
	numPart := trimmed[:i]
	suffix := strings.ToLower(strings.TrimSpace(trimmed[i:]))

	mult, ok := unitMultipliers[suffix]
	if !ok {
		return 0, ParseError
	}

	if strings.Contains(numPart, ".") {
		f, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return 0, ParseError
		}
		return Bytes(int64(f * float64(mult))), nil
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, ParseError
	}
	return Bytes(n * mult), nil
}

func isDigitOrDot(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.'
}

// ParseBytesOrSentinel parses a memory string, returning the -1
// sentinel (per spec.md §6) instead of an error on unparseable input.
func ParseBytesOrSentinel(s string) Bytes {
	b, err := ParseBytes(s)
	if err != nil {
		return -1
	}
	return b
}

// FormatBytes renders b using the largest canonical suffix that divides
// it evenly, falling back to plain bytes. This is the inverse of
// ParseBytes for the canonical forms spec.md §8 requires to round-trip.
func FormatBytes(b Bytes) string {
	if b < 0 {
		return strconv.FormatInt(int64(b), 10)
	}
	n := int64(b)
	if n == 0 {
		return "0"
	}
	for _, u := range canonicalSuffix {
		if n%u.mult == 0 {
			return strconv.FormatInt(n/u.mult, 10) + u.suffix
		}
	}
	return strconv.FormatInt(n, 10)
}
