package tui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestWriteStatus(t *testing.T) {
	// Use an unstyled style to get plain text without ANSI escapes.
	plain := lipgloss.NewStyle()

	tests := []struct {
		name   string
		verb   string
		format string
		args   []any
		want   string
	}{
		{
			name:   "short verb is right-padded to 12 chars",
			verb:   "Polling",
			format: "fleet status",
			want:   "     Polling fleet status\n",
		},
		{
			name:   "format args are interpolated",
			verb:   "Running",
			format: "on %s",
			args:   []any{"SIGMA"},
			want:   "     Running on SIGMA\n",
		},
		{
			name:   "longest current verb aligns correctly",
			verb:   "Resolving",
			format: "sigma.lan",
			want:   "   Resolving sigma.lan\n",
		},
		{
			name:   "error verb aligns correctly",
			verb:   "error",
			format: "bridge unreachable",
			want:   "       error bridge unreachable\n",
		},
		{
			name:   "verb longer than 12 chars is not truncated",
			verb:   "VeryLongVerbHere",
			format: "message",
			want:   "VeryLongVerbHere message\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeStatus(&buf, tt.verb, plain, tt.format, tt.args...)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDebugGatedByFlag(t *testing.T) {
	t.Cleanup(func() { SetDebug(false) })

	var buf bytes.Buffer
	debugTo(&buf, "probe timeout %s", "5s")
	assert.Empty(t, buf.String(), "debug output is off by default")

	SetDebug(true)
	debugTo(&buf, "probe timeout %s", "5s")
	assert.Contains(t, buf.String(), "debug")
	assert.Contains(t, buf.String(), "probe timeout 5s")
}

func TestWriteStatus_WritesToProvidedWriter(t *testing.T) {
	plain := lipgloss.NewStyle()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	writeStatus(&stdout, "Sending", plain, "%s", "exchange")
	writeStatus(&stderr, "error", plain, "%s", "connection refused")

	assert.Equal(t, "     Sending exchange\n", stdout.String())
	assert.Equal(t, "       error connection refused\n", stderr.String())
	assert.NotContains(t, stdout.String(), "connection refused")
}
