// Package session holds the context and cost accounting engine: the running
// token-usage snapshot, the context-window threshold evaluator, and the
// tool-execution status relay.
package session

import (
	"sync"

	"github.com/bernd/nexus/pricing"
)

// UsageReport is the cumulative token-usage snapshot produced once per
// completed exchange. Totals and RequestCount are already accumulated by the
// producer; the accumulator replaces its snapshot wholesale and never adds
// deltas itself.
type UsageReport struct {
	LastInputTokens   int64 `json:"lastInputTokens"`
	TotalInputTokens  int64 `json:"totalInputTokens"`
	TotalOutputTokens int64 `json:"totalOutputTokens"`
	RequestCount      int64 `json:"requestCount"`
}

// Accumulator holds the single current usage snapshot. It is written from
// the exchange path and the telemetry receiver, and read by the UI, so all
// access is mutex-guarded.
type Accumulator struct {
	mu      sync.Mutex
	current UsageReport
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Record replaces the held snapshot.
func (a *Accumulator) Record(report UsageReport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = report
}

// Snapshot returns the current usage snapshot.
func (a *Accumulator) Snapshot() UsageReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Cost reprices the full accumulated totals at the given model's rates.
// Tokens spent under a previously active model are deliberately re-priced at
// the current model's rates: cost is a running estimate for display, not an
// audit ledger.
func (a *Accumulator) Cost(model pricing.Model) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return model.Cost(a.current.TotalInputTokens, a.current.TotalOutputTokens)
}

// RaiseTotals folds cumulative telemetry totals into the snapshot under one
// lock. Totals only move up, so a stale export can never overwrite a newer
// exchange report; LastInputTokens and RequestCount stay owned by the
// exchange path.
func (a *Accumulator) RaiseTotals(inputTokens, outputTokens int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if inputTokens > a.current.TotalInputTokens {
		a.current.TotalInputTokens = inputTokens
	}
	if outputTokens > a.current.TotalOutputTokens {
		a.current.TotalOutputTokens = outputTokens
	}
}

// Reset zeroes the snapshot. Irreversible for the session; the UI asks for
// confirmation before calling this.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = UsageReport{}
}

// ClearContext zeroes only the per-exchange input count so the context
// indicator resets after the conversation history is cleared. Accumulated
// totals, and therefore cost, are untouched.
func (a *Accumulator) ClearContext() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current.LastInputTokens = 0
}
