package model

import "testing"

func TestRegime_OrderAndLabels(t *testing.T) {
	tests := []struct {
		r        Regime
		label    string
		severity int
	}{
		{RegimeVeryLow, "VERY_LOW_VOL", 0},
		{RegimeLow, "LOW_VOL", 1},
		{RegimeMedium, "MEDIUM_VOL", 2},
		{RegimeHigh, "HIGH_VOL", 3},
		{RegimeVeryHigh, "VERY_HIGH_VOL", 4},
	}
	for _, tt := range tests {
		if got := tt.r.Label(); got != tt.label {
			t.Errorf("%d.Label() = %q, want %q", tt.r, got, tt.label)
		}
		if got := tt.r.Severity(); got != tt.severity {
			t.Errorf("%s.Severity() = %d, want %d", tt.label, got, tt.severity)
		}
	}
	if RegimeMedium.IsHighVol() {
		t.Error("medium regime is not high vol")
	}
	if !RegimeHigh.IsHighVol() || !RegimeVeryHigh.IsHighVol() {
		t.Error("high regimes must report high vol")
	}
}

func TestSignalType_Direction(t *testing.T) {
	for _, s := range []SignalType{SignalBuy, SignalStrongBuy} {
		if !s.IsBullish() || s.IsBearish() {
			t.Errorf("%s should be bullish only", s)
		}
	}
	for _, s := range []SignalType{SignalSell, SignalStrongSell} {
		if !s.IsBearish() || s.IsBullish() {
			t.Errorf("%s should be bearish only", s)
		}
	}
	if SignalHold.IsBullish() || SignalHold.IsBearish() {
		t.Error("HOLD has no direction")
	}
}
