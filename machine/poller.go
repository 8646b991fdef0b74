package machine

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is the cadence between roster poll cycles.
const DefaultPollInterval = 15 * time.Second

// DefaultProbeTimeout bounds one machine's liveness probe.
const DefaultProbeTimeout = 5 * time.Second

// Prober checks whether one machine is reachable. Implementations must
// return false on error or timeout rather than failing the cycle.
type Prober interface {
	Probe(ctx context.Context, m Machine) bool
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, m Machine) bool

func (f ProberFunc) Probe(ctx context.Context, m Machine) bool { return f(ctx, m) }

// Poller runs roster-wide liveness cycles. Cycles may overlap when probes
// are slower than the cadence; each cycle carries a monotonic sequence
// number and a cycle finishing after a newer one has already completed is
// discarded so stale results never overwrite fresh ones.
type Poller struct {
	mu        sync.Mutex
	nextSeq   uint64
	completed uint64
	inflight  int

	probeTimeout time.Duration
}

func NewPoller() *Poller {
	return &Poller{probeTimeout: DefaultProbeTimeout}
}

// SetProbeTimeout overrides the per-machine probe bound.
func (p *Poller) SetProbeTimeout(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d > 0 {
		p.probeTimeout = d
	}
}

// Pending reports whether any cycle has unresolved probes, so the UI can
// show in-flight state instead of stale data.
func (p *Poller) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight > 0
}

// Poll runs one cycle: every Remote machine is probed concurrently, the
// Commander is online by definition, and the resulting roster snapshot is
// built atomically before being returned. One machine's probe failure or
// timeout marks only that machine offline. Returns nil when the cycle's
// results are stale (a newer cycle completed first).
func (p *Poller) Poll(ctx context.Context, roster []Machine, prober Prober) []Machine {
	p.mu.Lock()
	p.nextSeq++
	seq := p.nextSeq
	p.inflight++
	timeout := p.probeTimeout
	p.mu.Unlock()

	snapshot := make([]Machine, len(roster))
	copy(snapshot, roster)

	var wg sync.WaitGroup
	for i := range snapshot {
		if snapshot[i].Role == RoleCommander {
			snapshot[i].Online = true
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			snapshot[i].Online = prober.Probe(probeCtx, snapshot[i])
		}(i)
	}
	wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--
	if seq < p.completed {
		return nil // a newer cycle already settled
	}
	p.completed = seq
	return snapshot
}

// Run drives recurring cycles on a fixed ticker cadence independent of probe
// latency, invoking fn with each non-stale snapshot. An immediate first
// cycle runs before the ticker starts. Returns when ctx is done.
func (p *Poller) Run(ctx context.Context, roster []Machine, prober Prober, interval time.Duration, fn func([]Machine)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	cycle := func() {
		if snapshot := p.Poll(ctx, roster, prober); snapshot != nil {
			fn(snapshot)
		}
	}

	go cycle()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A slow previous cycle does not delay the next one.
			go cycle()
		}
	}
}
