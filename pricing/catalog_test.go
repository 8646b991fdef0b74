package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	c := NewCatalog()
	require.NotEmpty(t, c.All())

	for _, m := range c.All() {
		assert.NotEmpty(t, m.ID)
		assert.Greater(t, m.InputPerMTok, 0.0, "model %s", m.ID)
		assert.Greater(t, m.OutputPerMTok, 0.0, "model %s", m.ID)
		assert.Greater(t, m.ContextWindow, 0, "model %s", m.ID)
	}
}

func TestResolveExactMatch(t *testing.T) {
	c := NewCatalog()

	m := c.Resolve("claude-sonnet-4-5-20250929")
	assert.Equal(t, "claude-sonnet-4-5-20250929", m.ID)
	assert.Equal(t, 3.0, m.InputPerMTok)
	assert.Equal(t, 15.0, m.OutputPerMTok)
	assert.Equal(t, 200000, m.ContextWindow)
}

func TestResolveSubstringMatch(t *testing.T) {
	c := NewCatalog()

	// Short alias without the date suffix.
	m := c.Resolve("claude-opus-4-5")
	assert.Equal(t, "claude-opus-4-5-20251101", m.ID)

	// Longer ID than the catalog entry.
	m = c.Resolve("claude-sonnet-4-5-20250929-preview")
	assert.Equal(t, "claude-sonnet-4-5-20250929", m.ID)
}

func TestResolveFallback(t *testing.T) {
	c := NewCatalog()

	fb := c.Fallback()
	assert.Equal(t, fb.ID, c.Resolve("some-unknown-model").ID)
	assert.Equal(t, fb.ID, c.Resolve("").ID)
	assert.Equal(t, fb.ID, c.Resolve("   ").ID)
}

func TestCost(t *testing.T) {
	c := NewCatalog()
	m := c.Resolve("claude-sonnet-4-5-20250929")

	// 150k input at $3/M + 5k output at $15/M.
	assert.InDelta(t, 0.525, m.Cost(150000, 5000), 1e-9)
	assert.Equal(t, 0.0, m.Cost(0, 0))
}
