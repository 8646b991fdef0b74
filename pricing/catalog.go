package pricing

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Model holds the pricing and context-window data for one model. Prices are
// USD per million tokens.
type Model struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	InputPerMTok  float64 `yaml:"input-per-mtok"`
	OutputPerMTok float64 `yaml:"output-per-mtok"`
	ContextWindow int     `yaml:"context-window"`
	Fallback      bool    `yaml:"fallback"` // used when the active model is unrecognized
}

// Cost returns the USD cost of the given cumulative token counts at this
// model's rates.
func (m Model) Cost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1_000_000*m.InputPerMTok +
		float64(outputTokens)/1_000_000*m.OutputPerMTok
}

// Catalog holds all built-in models in definition order.
type Catalog struct {
	models   []Model
	index    map[string]int
	fallback int
}

// NewCatalog returns the built-in model catalog.
func NewCatalog() *Catalog {
	var models []Model
	if err := yaml.Unmarshal(catalogYAML, &models); err != nil {
		panic("catalog.yaml: " + err.Error())
	}

	index := make(map[string]int, len(models))
	fallback := -1
	for i, m := range models {
		index[m.ID] = i
		if m.Fallback && fallback == -1 {
			fallback = i
		}
	}
	if fallback == -1 {
		panic("catalog.yaml: no fallback entry")
	}

	return &Catalog{models: models, index: index, fallback: fallback}
}

// Get returns a model by exact ID.
func (c *Catalog) Get(id string) (Model, bool) {
	i, ok := c.index[id]
	if !ok {
		return Model{}, false
	}
	return c.models[i], true
}

// All returns all models in definition order.
func (c *Catalog) All() []Model {
	return c.models
}

// Fallback returns the catalog's fallback entry.
func (c *Catalog) Fallback() Model {
	return c.models[c.fallback]
}

// Resolve finds the best entry for a model ID: exact match first, then a
// case-insensitive substring match in either direction, and finally the
// fallback entry so cost display keeps working for unrecognized models.
func (c *Catalog) Resolve(id string) Model {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return c.models[c.fallback]
	}

	if m, ok := c.Get(trimmed); ok {
		return m
	}

	lower := strings.ToLower(trimmed)
	for _, m := range c.models {
		lm := strings.ToLower(m.ID)
		if strings.Contains(lm, lower) || strings.Contains(lower, lm) {
			return m
		}
	}

	return c.models[c.fallback]
}
