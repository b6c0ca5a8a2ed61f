package runner

import (
	"context"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"wfengine/internal/task"
)

// terminationGrace is how long we wait after SIGTERM before escalating
// to SIGKILL on the whole process group (spec.md §5: "best-effort; send
// signal; join with small grace period").
const terminationGrace = 3 * time.Second

// runProcess spawns t's argument vector as a subprocess in its own
// process group, redirects stdout/stderr to logPath, and records the
// argv to scriptPath for operator inspection. On context cancellation
// the whole process group is sent SIGTERM, escalated to SIGKILL if it
// has not exited after terminationGrace (spec.md §4.3/§6), grounded on
// the teacher's Executor.Execute.
func runProcess(ctx context.Context, t task.ProcessTask, scriptPath, logPath string) (int, error) {
	args := t.Args()
	if len(args) == 0 {
		return 0, errors.Errorf("process task %q: empty argument vector", t.Name())
	}
	writeArgvRecord(scriptPath, args)

	logFile, err := os.Create(logPath)
	if err != nil {
		return 0, errors.Wrapf(err, "creating log file for %q", t.Name())
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return 0, errors.Wrapf(err, "starting process for %q", t.Name())
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
		}
		select {
		case <-done:
		case <-time.After(terminationGrace):
			if cmd.Process != nil {
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
			<-done
		}
		return 1, nil
	case werr := <-done:
		if werr == nil {
			return 0, nil
		}
		if exitErr, ok := werr.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 0, errors.Wrapf(werr, "running process for %q", t.Name())
	}
}
