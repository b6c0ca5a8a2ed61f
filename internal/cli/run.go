package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"wfengine/internal/manager"
	"wfengine/internal/resource"
)

// RunResult is what the run command reports back to main, independent
// of however main chooses to render it (spec.md §4.7's "CLI is a thin
// collaborator," not an invariant-bearing package).
type RunResult struct {
	RunID    string
	Statuses map[string]string
}

// RunGraph loads the graph at cfg.GraphPath, drives it to completion (or
// timeout) against cfg's resource envelope, and reports the final status
// of every named task. It never returns a bare error: failures are
// always an *ExitError so main can map them to a process exit code.
func RunGraph(ctx context.Context, cfg Config) (RunResult, error) {
	logger := NewLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return RunResult{}, err
	}
	envelope, err := cfg.Envelope()
	if err != nil {
		return RunResult{}, err
	}

	tasks, byName, err := LoadGraph(cfg.GraphPath)
	if err != nil {
		return RunResult{}, err
	}

	workDir, err := os.MkdirTemp("", "wfengine-run-*")
	if err != nil {
		return RunResult{}, &ExitError{Code: ExitInternalError, Err: fmt.Errorf("creating work dir: %w", err)}
	}

	m := manager.New(envelope, workDir)
	if _, err := m.AddTasks(tasks, manager.NoParent, true); err != nil {
		return RunResult{}, graphFailuref("inserting graph: %v", err)
	}

	env := resource.Envelope{SystemCores: envelope.Cores, SystemMemory: envelope.Memory}
	logger.Info("run starting", "runId", m.RunID, "tasks", len(tasks), "workDir", workDir, "envelope", env.Summary())

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	runErr := m.RunAllTasks(int(pollInterval/time.Millisecond), cfg.Timeout)

	statuses := make(map[string]string, len(byName))
	for name, t := range byName {
		id, ok := m.GetTaskId(t)
		if !ok {
			continue
		}
		status, _ := m.GetTaskStatus(id)
		statuses[name] = status.String()
	}

	result := RunResult{RunID: m.RunID, Statuses: statuses}

	if runErr != nil {
		logger.Warn("run did not reach completion before its deadline", "error", runErr)
		return result, &ExitError{Code: ExitTimeout, Err: runErr}
	}

	logger.Info("run complete", "runId", m.RunID)
	return result, nil
}
