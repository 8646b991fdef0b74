package machine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okExecutor() Executor {
	return ExecutorFunc(func(_ context.Context, _ Machine, command string) Result {
		return Result{Stdout: "ran: " + command}
	})
}

func TestSelectToggle(t *testing.T) {
	c := NewCoordinator(testRoster(), okExecutor())

	assert.True(t, c.Select("SIGMA"))
	m, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "SIGMA", m.Name)

	// Selecting the selected machine clears the selection.
	assert.False(t, c.Select("SIGMA"))
	_, ok = c.Selected()
	assert.False(t, ok)
}

func TestSelectSwitch(t *testing.T) {
	c := NewCoordinator(testRoster(), okExecutor())

	c.Select("SIGMA")
	assert.True(t, c.Select("Precision"))

	m, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "Precision", m.Name)
}

func TestSelectUnknownIgnored(t *testing.T) {
	c := NewCoordinator(testRoster(), okExecutor())

	c.Select("SIGMA")
	assert.True(t, c.Select("no-such-machine"))

	m, ok := c.Selected()
	require.True(t, ok)
	assert.Equal(t, "SIGMA", m.Name)
}

func TestExecuteRequiresSelection(t *testing.T) {
	c := NewCoordinator(testRoster(), okExecutor())

	_, ok := c.Execute(context.Background(), "uptime")
	assert.False(t, ok, "no selection is a no-op, not an error")
}

func TestExecuteEmptyCommandNoOp(t *testing.T) {
	c := NewCoordinator(testRoster(), okExecutor())
	c.Select("SIGMA")

	_, ok := c.Execute(context.Background(), "   ")
	assert.False(t, ok)
	_, ok = c.Execute(context.Background(), "")
	assert.False(t, ok)
}

func TestExecuteRunsOnSelected(t *testing.T) {
	var got Machine
	exec := ExecutorFunc(func(_ context.Context, m Machine, _ string) Result {
		got = m
		return Result{Stdout: "ok"}
	})
	c := NewCoordinator(testRoster(), exec)
	c.Select("Precision")

	result, ok := c.Execute(context.Background(), "uptime")
	require.True(t, ok)
	assert.Equal(t, "Precision", got.Name)
	assert.Equal(t, "ok", result.Stdout)
	assert.True(t, result.Success())
}

func TestExecuteAtMostOneInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startOnce sync.Once
	exec := ExecutorFunc(func(context.Context, Machine, string) Result {
		startOnce.Do(func() { close(started) })
		<-release
		return Result{}
	})
	c := NewCoordinator(testRoster(), exec)
	c.Select("SIGMA")

	done := make(chan struct{})
	go func() {
		c.Execute(context.Background(), "sleep 5")
		close(done)
	}()
	<-started
	assert.True(t, c.InFlight())

	// A second invocation while one is outstanding is rejected.
	_, ok := c.Execute(context.Background(), "uptime")
	assert.False(t, ok)

	close(release)
	<-done
	assert.False(t, c.InFlight(), "in-flight flag always clears")

	_, ok = c.Execute(context.Background(), "uptime")
	assert.True(t, ok, "accepts new work after completion")
}

func TestResultSuccessFollowsExitCode(t *testing.T) {
	assert.True(t, Result{ExitCode: 0}.Success())
	assert.False(t, Result{ExitCode: 1}.Success())
	// Exit code stays authoritative with empty output.
	assert.False(t, Result{ExitCode: 3, Stdout: "", Stderr: ""}.Success())
}

func TestSSHExecutorTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns ssh")
	}

	e := &SSHExecutor{Timeout: 50 * time.Millisecond}
	// Unroutable TEST-NET-1 address: connect blocks until the deadline.
	m := Machine{Name: "SIGMA", Role: RoleRemote, Host: "192.0.2.1", User: "ops"}

	start := time.Now()
	result := e.Execute(context.Background(), m, "uptime")

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, result.Success())
	assert.NotEmpty(t, result.Stderr, "timeout surfaces as stderr text")
}
