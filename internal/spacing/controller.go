package spacing

import (
	"fmt"
	"log"
	"sync"

	"GridSentinel/internal/config"
	"GridSentinel/internal/regime"
)

// Controller recomputes grid spacing as volatility shifts. The held value
// only moves when the candidate differs by more than epsilon, so noise in
// the volatility reading cannot thrash the grid.
type Controller struct {
	enabled    bool
	minSpacing float64
	maxSpacing float64
	epsilon    float64
	classifier *regime.Classifier

	mu      sync.RWMutex
	current float64
}

// NewController validates the spacing bounds and returns a controller seeded
// with the configured base spacing.
func NewController(cfg *config.Config, classifier *regime.Classifier) (*Controller, error) {
	if cfg.Grid.MinSpacingPct >= cfg.Grid.MaxSpacingPct {
		return nil, fmt.Errorf("min_spacing_pct (%.4f) must be < max_spacing_pct (%.4f)",
			cfg.Grid.MinSpacingPct, cfg.Grid.MaxSpacingPct)
	}
	if cfg.Grid.MinSpacingPct <= 0 {
		return nil, fmt.Errorf("min_spacing_pct must be positive")
	}
	return &Controller{
		enabled:    cfg.Grid.EnableDynamicSpacing,
		minSpacing: cfg.Grid.MinSpacingPct,
		maxSpacing: cfg.Grid.MaxSpacingPct,
		epsilon:    cfg.Grid.SpacingEpsilon,
		classifier: classifier,
		current:    clamp(cfg.Grid.BaseSpacingPct, cfg.Grid.MinSpacingPct, cfg.Grid.MaxSpacingPct),
	}, nil
}

// Update recomputes the spacing for the given volatility and returns the
// (possibly unchanged) current value.
func (c *Controller) Update(vol float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return c.current
	}

	reg := c.classifier.Classify(vol)
	candidate := clamp(c.classifier.RecommendedSpacing(reg), c.minSpacing, c.maxSpacing)

	diff := candidate - c.current
	if diff < 0 {
		diff = -diff
	}
	if diff > c.epsilon {
		log.Printf("[INFO] grid spacing adjusted: %.3f%% -> %.3f%% (regime %s)",
			c.current, candidate, reg.Label())
		c.current = candidate
	}
	return c.current
}

// Current returns the held spacing value in percent.
func (c *Controller) Current() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
