package machine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// DefaultExecTimeout bounds one remote command execution.
const DefaultExecTimeout = 30 * time.Second

// Result is the ephemeral outcome of one remote command.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
}

// Success reports the authoritative outcome. Styling follows the exit code
// even when stdout and stderr are both empty.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs one command on a machine.
type Executor interface {
	Execute(ctx context.Context, m Machine, command string) Result
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, m Machine, command string) Result

func (f ExecutorFunc) Execute(ctx context.Context, m Machine, command string) Result {
	return f(ctx, m, command)
}

// SSHExecutor runs commands through the ssh binary. Execution is bounded by
// Timeout; a timed-out or unspawnable command resolves to a failure Result
// with the error in Stderr rather than hanging or erroring out.
type SSHExecutor struct {
	Timeout time.Duration
}

func (e *SSHExecutor) Execute(ctx context.Context, m Machine, command string) Result {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"-o", "BatchMode=yes"}
	if m.Port != 0 {
		args = append(args, "-p", fmt.Sprintf("%d", m.Port))
	}
	args = append(args, m.Dest(), "--", command)

	cmd := exec.CommandContext(ctx, "ssh", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
		result.Stderr = fmt.Sprintf("command timed out after %s", timeout)
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			if result.Stderr == "" {
				result.Stderr = err.Error()
			}
		}
	}
	return result
}

// Coordinator owns the UI-session selection state and serializes command
// execution: at most one command is in flight at a time. Selection is
// independent of poll results; an unselected machine keeps being polled.
type Coordinator struct {
	mu       sync.Mutex
	roster   []Machine
	selected string
	inflight bool

	executor Executor
}

func NewCoordinator(roster []Machine, executor Executor) *Coordinator {
	return &Coordinator{roster: roster, executor: executor}
}

// Select toggles selection: selecting the already-selected machine clears
// it, selecting a different roster machine switches to it. Names outside the
// roster are ignored. Reports whether a machine is selected afterwards.
func (c *Coordinator) Select(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == name {
		c.selected = ""
		return false
	}
	for _, m := range c.roster {
		if m.Name == name {
			c.selected = name
			return true
		}
	}
	return c.selected != ""
}

// Selected returns the currently selected machine.
func (c *Coordinator) Selected() (Machine, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.roster {
		if m.Name == c.selected {
			return m, true
		}
	}
	return Machine{}, false
}

// InFlight reports whether an execution is outstanding.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}

// Execute runs the command on the selected machine. It is a no-op (not an
// error) when nothing is selected, the trimmed command is empty, or another
// execution is already in flight. The in-flight flag always clears when the
// executor returns, including on timeout, so the trigger control never
// stays disabled.
func (c *Coordinator) Execute(ctx context.Context, command string) (Result, bool) {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{}, false
	}

	c.mu.Lock()
	if c.inflight {
		c.mu.Unlock()
		return Result{}, false
	}
	var target Machine
	found := false
	for _, m := range c.roster {
		if m.Name == c.selected {
			target = m
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return Result{}, false
	}
	c.inflight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inflight = false
		c.mu.Unlock()
	}()

	return c.executor.Execute(ctx, target, command), true
}
