package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
)

// Process is a running ffmpeg invocation. Callers must observe Wait or
// Done before dropping the handle.
type Process struct {
	cmd    *exec.Cmd
	pid    int
	done   chan struct{}
	err    error
	stderr bytes.Buffer
}

// PID returns the operating system process id.
func (p *Process) PID() int { return p.pid }

// Wait blocks until the process exits and returns its error, if any.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Done returns a channel that closes when the process exits.
func (p *Process) Done() <-chan struct{} { return p.done }

// Kill sends SIGKILL.
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Terminate sends SIGTERM so ffmpeg can finalize the output container.
// Callers that need a guarantee should Kill after a grace period.
func (p *Process) Terminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(syscall.SIGTERM)
}

// Stderr returns the captured stderr output. It is complete only after
// the process has exited.
func (p *Process) Stderr() string { return p.stderr.String() }

// Start launches ffmpeg with the given arguments. When progress is
// non-nil, status blocks are delivered on it until the process exits,
// then the channel is closed. The caller must Wait on or Kill the
// returned handle.
func Start(ctx context.Context, args []string, progress chan<- Progress) (*Process, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	p := &Process{cmd: cmd, done: make(chan struct{})}
	cmd.Stderr = &p.stderr

	var stdout io.ReadCloser
	if progress != nil {
		var err error
		if stdout, err = cmd.StdoutPipe(); err != nil {
			return nil, fmt.Errorf("ffmpeg: stdout pipe: %w", err)
		}
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg: start: %w", err)
	}
	p.pid = cmd.Process.Pid

	go func() {
		defer close(p.done)
		if progress != nil {
			readProgress(stdout, progress)
		}
		if err := cmd.Wait(); err != nil {
			p.err = &Error{Args: args, Stderr: p.stderr.String(), Err: err}
		}
		if progress != nil {
			close(progress)
		}
	}()
	return p, nil
}

// run executes ffmpeg and waits for completion.
func run(ctx context.Context, args []string, progress chan<- Progress) error {
	proc, err := Start(ctx, args, progress)
	if err != nil {
		return err
	}
	return proc.Wait()
}

// RunResult is the outcome of an ffmpeg invocation whose stderr the
// caller wants to inspect, like the loudnorm analysis pass.
type RunResult struct {
	// Logs is the full stderr output, present on success and failure.
	Logs string
	// Err is non-nil when ffmpeg exited with a non-zero status.
	Err error
}

// runCapture executes ffmpeg, waits for completion, and returns the
// captured stderr.
func runCapture(ctx context.Context, args []string) RunResult {
	proc, err := Start(ctx, args, nil)
	if err != nil {
		return RunResult{Err: err}
	}
	waitErr := proc.Wait()
	return RunResult{Logs: proc.Stderr(), Err: waitErr}
}

// Error is a failed ffmpeg invocation. The message carries the tail of
// stderr, which is where ffmpeg states its reason.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	if tail := stderrTail(e.Stderr, 3); tail != "" {
		return fmt.Sprintf("ffmpeg: %v: %s", e.Err, tail)
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

// Unwrap returns the underlying exec error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Command returns the full command line that failed.
func (e *Error) Command() string {
	return "ffmpeg " + strings.Join(e.Args, " ")
}

func stderrTail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
