// Package runner launches admitted leaf tasks and reports their outcome
// back to the manager, per spec.md §4.3/§5. Process tasks are spawned as
// subprocesses in their own process group so cancellation can kill the
// whole tree (grounded on the teacher's internal/core.Executor); in-
// process tasks run on a worker goroutine.
package runner

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"wfengine/internal/resource"
	"wfengine/internal/task"
)

// Completion is the message a worker posts to the manager's mailbox when
// a task finishes (spec.md §9: "A single channel carrying
// Completion{taskId, exitCode, onCompleteResult, endTime}").
type Completion struct {
	ID           int
	ExitCode     int
	OnCompleteOK bool
	EndTime      time.Time
	// Err is set only for an infrastructure failure (empty argument
	// vector, log file or process could not be created/started, or an
	// in-process callback panicked); it is distinct from a non-zero exit
	// code.
	Err error
}

// Runner owns the completion mailbox: a multi-producer (one goroutine
// per in-flight task), single-consumer (the manager) FIFO (spec.md §5).
type Runner struct {
	workDir string
	mailbox chan Completion

	mu      sync.Mutex
	cancels map[int]context.CancelFunc
}

// New returns a Runner that writes attempt logs under workDir.
func New(workDir string) *Runner {
	return &Runner{
		workDir: workDir,
		mailbox: make(chan Completion, 256),
		cancels: make(map[int]context.CancelFunc),
	}
}

// Completions returns the channel the manager drains each tick.
func (r *Runner) Completions() <-chan Completion { return r.mailbox }

// Launch starts t, already admitted with rs, under node id for the given
// attempt index. It returns the deterministic scriptPath/logPath the
// manager should record on the task's TaskExecutionInfo.
func (r *Runner) Launch(t task.Task, id, attempt int, rs resource.Set) (scriptPath, logPath string) {
	scriptPath, logPath = Paths(r.workDir, id, attempt)

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()

	go func() {
		var exitCode int
		var err error

		switch leaf := t.(type) {
		case task.ProcessTask:
			leaf.ApplyResources(rs)
			exitCode, err = runProcess(ctx, leaf, scriptPath, logPath)
		case task.InProcessTask:
			exitCode, err = runInProcess(ctx, leaf)
		default:
			err = errors.Errorf("task %q: leaf category %s has no runner", t.Name(), t.Category())
		}

		r.mu.Lock()
		delete(r.cancels, id)
		r.mu.Unlock()

		onOK := true
		if err == nil {
			if hooks := t.Hooks(); hooks.OnComplete != nil {
				onOK = hooks.OnComplete(exitCode)
			}
		}

		r.mailbox <- Completion{
			ID:           id,
			ExitCode:     exitCode,
			OnCompleteOK: onOK,
			EndTime:      time.Now(),
			Err:          err,
		}
	}()

	return scriptPath, logPath
}

// Terminate kills the running task identified by id, if any (spec.md
// §4.3: "On engine termination ... every RUNNING leaf is terminated:
// subprocess killed, in-process task's thread interrupted").
func (r *Runner) Terminate(id int) {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// TerminateAll kills every currently running task.
func (r *Runner) TerminateAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.cancels))
	for _, c := range r.cancels {
		cancels = append(cancels, c)
	}
	r.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

func runInProcess(ctx context.Context, t task.InProcessTask) (exitCode int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			exitCode = -1
			err = errors.Errorf("in-process task panicked: %v", rec)
		}
	}()
	return t.Run(ctx), nil
}

func writeArgvRecord(scriptPath string, args []string) {
	_ = os.WriteFile(scriptPath, []byte(strings.Join(args, "\n")+"\n"), 0o644)
}
