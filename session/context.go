package session

import (
	"math"

	"github.com/bernd/nexus/pricing"
)

// Tier is the qualitative context-usage bucket driving banner display.
type Tier int

const (
	TierNormal Tier = iota
	TierWarn
	TierCritical
)

// Threshold percentages. Both bounds are inclusive: 75 is already warn and
// 90 is already critical.
const (
	WarnPercent     = 75
	CriticalPercent = 90
)

// ContextStatus is the derived context-window usage for the last exchange.
type ContextStatus struct {
	Percent int
	Tier    Tier
}

// Evaluate maps the last exchange's input tokens against the model's context
// window. It is recomputed from scratch on every call; there is no
// hysteresis, so a value oscillating across a boundary flips the tier each
// time.
func Evaluate(report UsageReport, model pricing.Model) ContextStatus {
	if report.LastInputTokens <= 0 || model.ContextWindow <= 0 {
		return ContextStatus{}
	}

	percent := int(math.Round(float64(report.LastInputTokens) / float64(model.ContextWindow) * 100))
	if percent > 100 {
		percent = 100
	}

	status := ContextStatus{Percent: percent}
	switch {
	case percent >= CriticalPercent:
		status.Tier = TierCritical
	case percent >= WarnPercent:
		status.Tier = TierWarn
	}
	return status
}
