package cli

import (
	"time"

	"wfengine/internal/resource"
)

// Exit codes the CLI maps run outcomes onto, grounded on the teacher's
// InvocationError/ExitCode scheme (internal/cli/input.go) and kept
// small and stable since no other package depends on these values.
const (
	ExitSuccess           = 0
	ExitGraphFailure      = 1
	ExitInvalidInvocation = 2
	ExitTimeout           = 3
	ExitInternalError     = 4
)

// Config is the canonicalized description of one `wfengine run`
// invocation, after flags/env/file precedence has been resolved by
// Viper (spec.md §4.7).
type Config struct {
	GraphPath    string
	Cores        float64
	Memory       string
	DiskMemory   string
	PollInterval time.Duration
	Timeout      time.Duration
	LogLevel     string
}

// Envelope parses Memory/DiskMemory into the ResourceSet the manager is
// constructed with.
func (c Config) Envelope() (resource.Set, error) {
	mem, err := resource.ParseBytes(c.Memory)
	if err != nil {
		return resource.Set{}, invalidf("--memory %q: %v", c.Memory, err)
	}
	disk, err := resource.ParseBytes(c.DiskMemory)
	if err != nil {
		return resource.Set{}, invalidf("--disk-memory %q: %v", c.DiskMemory, err)
	}
	return resource.Set{
		Cores:      resource.Cores(c.Cores),
		Memory:     mem,
		DiskMemory: disk,
	}, nil
}

// Validate checks the fields Viper/Cobra can't enforce on their own.
func (c Config) Validate() error {
	if c.GraphPath == "" {
		return invalidf("--graph is required")
	}
	if c.Cores <= 0 {
		return invalidf("--cores must be positive (got %v)", c.Cores)
	}
	return nil
}
