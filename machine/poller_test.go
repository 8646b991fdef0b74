package machine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoster() []Machine {
	return []Machine{
		{Name: "OMEN", Role: RoleCommander, Host: "127.0.0.1"},
		{Name: "SIGMA", Role: RoleRemote, Host: "sigma.lan", User: "ops"},
		{Name: "Precision", Role: RoleRemote, Host: "precision.lan", User: "ops"},
	}
}

func TestValidateRoster(t *testing.T) {
	require.NoError(t, ValidateRoster(testRoster()))

	assert.Error(t, ValidateRoster([]Machine{
		{Name: "a", Role: RoleRemote},
	}), "no commander")

	assert.Error(t, ValidateRoster([]Machine{
		{Name: "a", Role: RoleCommander},
		{Name: "b", Role: RoleCommander},
	}), "two commanders")

	assert.Error(t, ValidateRoster([]Machine{
		{Name: "a", Role: RoleCommander},
		{Name: "a", Role: RoleRemote},
	}), "duplicate name")

	assert.Error(t, ValidateRoster([]Machine{
		{Name: "a", Role: Role("Drone")},
	}), "unknown role")
}

func TestPollCommanderNeverProbed(t *testing.T) {
	p := NewPoller()
	probed := make(map[string]bool)
	prober := ProberFunc(func(_ context.Context, m Machine) bool {
		probed[m.Name] = true
		return true
	})

	snapshot := p.Poll(context.Background(), testRoster(), prober)

	require.NotNil(t, snapshot)
	assert.False(t, probed["OMEN"])
	assert.True(t, probed["SIGMA"])
	assert.True(t, probed["Precision"])
	assert.True(t, snapshot[0].Online, "commander is online by definition")
}

func TestPollOneHungProbeDoesNotBlockOthers(t *testing.T) {
	p := NewPoller()
	p.SetProbeTimeout(50 * time.Millisecond)

	prober := ProberFunc(func(ctx context.Context, m Machine) bool {
		if m.Name == "SIGMA" {
			<-ctx.Done() // never resolves on its own
			return false
		}
		return true
	})

	start := time.Now()
	snapshot := p.Poll(context.Background(), testRoster(), prober)

	require.NotNil(t, snapshot)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, snapshot[1].Online, "hung probe resolves offline")
	assert.True(t, snapshot[2].Online, "other machines still settle")
}

func TestPollDoesNotMutateRoster(t *testing.T) {
	p := NewPoller()
	roster := testRoster()
	prober := ProberFunc(func(context.Context, Machine) bool { return true })

	p.Poll(context.Background(), roster, prober)

	assert.False(t, roster[1].Online, "input roster is left untouched")
}

func TestPollStaleCycleDiscarded(t *testing.T) {
	p := NewPoller()
	roster := testRoster()

	slowRelease := make(chan struct{})
	slowStarted := make(chan struct{}, len(roster))
	slow := ProberFunc(func(context.Context, Machine) bool {
		slowStarted <- struct{}{}
		<-slowRelease
		return true
	})
	fast := ProberFunc(func(context.Context, Machine) bool { return false })

	slowDone := make(chan []Machine, 1)
	go func() { slowDone <- p.Poll(context.Background(), roster, slow) }()
	<-slowStarted // first cycle is in flight

	// A newer cycle starts and completes while the first is still probing.
	fresh := p.Poll(context.Background(), roster, fast)
	require.NotNil(t, fresh)

	close(slowRelease)
	assert.Nil(t, <-slowDone, "late results from the older cycle are discarded")
}

func TestPollPending(t *testing.T) {
	p := NewPoller()
	roster := testRoster()

	release := make(chan struct{})
	started := make(chan struct{}, len(roster))
	prober := ProberFunc(func(context.Context, Machine) bool {
		started <- struct{}{}
		<-release
		return true
	})

	assert.False(t, p.Pending())

	done := make(chan struct{})
	go func() {
		p.Poll(context.Background(), roster, prober)
		close(done)
	}()
	<-started
	assert.True(t, p.Pending())

	close(release)
	<-done
	assert.False(t, p.Pending())
}

func TestRunDeliversSnapshots(t *testing.T) {
	p := NewPoller()
	prober := ProberFunc(func(context.Context, Machine) bool { return true })

	snapshots := make(chan []Machine, 8)
	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx, testRoster(), prober, 20*time.Millisecond, func(s []Machine) {
		snapshots <- s
	})

	select {
	case s := <-snapshots:
		require.Len(t, s, 3)
		assert.True(t, s[1].Online)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}
	cancel()
}
