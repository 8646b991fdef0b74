package telemetry

import (
	"fmt"
	"strings"
)

// Format renders usage samples as aligned display lines, one block per
// exporting service.
func Format(samples []UsageSample) []string {
	var lines []string
	for _, s := range samples {
		if s.Model != "" {
			lines = append(lines, fmt.Sprintf("  Model:   %s", s.Model))
		}
		if s.Cost > 0 {
			lines = append(lines, fmt.Sprintf("  Cost:    $%.4g", s.Cost))
		}
		if s.InputTokens > 0 || s.OutputTokens > 0 {
			var parts []string
			if s.InputTokens > 0 {
				parts = append(parts, fmt.Sprintf("%d input", s.InputTokens))
			}
			if s.OutputTokens > 0 {
				parts = append(parts, fmt.Sprintf("%d output", s.OutputTokens))
			}
			lines = append(lines, fmt.Sprintf("  Tokens:  %s", strings.Join(parts, "  ")))
		}
	}
	return lines
}
