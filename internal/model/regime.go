package model

// Regime is a discretized volatility bucket used to scale trading thresholds.
type Regime int

const (
	RegimeVeryLow Regime = iota
	RegimeLow
	RegimeMedium
	RegimeHigh
	RegimeVeryHigh
)

// Label returns the canonical regime name used in logs, stats, and storage.
func (r Regime) Label() string {
	switch r {
	case RegimeVeryLow:
		return "VERY_LOW_VOL"
	case RegimeLow:
		return "LOW_VOL"
	case RegimeMedium:
		return "MEDIUM_VOL"
	case RegimeHigh:
		return "HIGH_VOL"
	case RegimeVeryHigh:
		return "VERY_HIGH_VOL"
	default:
		return "UNKNOWN"
	}
}

// Severity maps the regime to a 0 (calmest) .. 4 (wildest) scale.
func (r Regime) Severity() int { return int(r) }

// IsHighVol reports whether the regime is High or VeryHigh.
func (r Regime) IsHighVol() bool { return r == RegimeHigh || r == RegimeVeryHigh }

func (r Regime) String() string { return r.Label() }
