package regime

import (
	"GridSentinel/internal/config"
	"GridSentinel/internal/model"
)

// Classifier maps a volatility reading to one of five ordered regime
// buckets and recommends grid geometry for each. Classification is a pure
// function of its input; the thresholds are fixed at construction.
type Classifier struct {
	veryLowMax float64
	lowMax     float64
	mediumMax  float64
	highMax    float64
}

// NewClassifier builds a classifier from the configured thresholds.
// Threshold ordering is enforced by config.Validate.
func NewClassifier(cfg *config.Config) *Classifier {
	return &Classifier{
		veryLowMax: cfg.Regime.VeryLowMax,
		lowMax:     cfg.Regime.LowMax,
		mediumMax:  cfg.Regime.MediumMax,
		highMax:    cfg.Regime.HighMax,
	}
}

// Classify partitions a volatility value (percent units) into a regime.
func (c *Classifier) Classify(vol float64) model.Regime {
	switch {
	case vol < c.veryLowMax:
		return model.RegimeVeryLow
	case vol < c.lowMax:
		return model.RegimeLow
	case vol < c.mediumMax:
		return model.RegimeMedium
	case vol < c.highMax:
		return model.RegimeHigh
	default:
		return model.RegimeVeryHigh
	}
}

// RecommendedSpacing returns the grid spacing (percent) suited to a regime.
// Higher volatility always widens the spacing.
func (c *Classifier) RecommendedSpacing(r model.Regime) float64 {
	switch r {
	case model.RegimeVeryLow:
		return 0.10
	case model.RegimeLow:
		return 0.15
	case model.RegimeMedium:
		return 0.20
	case model.RegimeHigh:
		return 0.30
	default:
		return 0.50
	}
}

// RecommendedLevels returns the order count suited to a regime.
// Higher volatility always means fewer levels.
func (c *Classifier) RecommendedLevels(r model.Regime) int {
	switch r {
	case model.RegimeVeryLow:
		return 12
	case model.RegimeLow:
		return 10
	case model.RegimeMedium:
		return 8
	case model.RegimeHigh:
		return 6
	default:
		return 4
	}
}
