package strategy

import (
	"testing"

	"GridSentinel/internal/model"
)

func TestMomentum_DirectionalVotes(t *testing.T) {
	m := NewMomentum(0.1)

	// First observation has nothing to compare against.
	if sig := m.Evaluate(100.0, 1.0); sig.Type != model.SignalHold {
		t.Fatalf("expected HOLD on first evaluation, got %s", sig.Type)
	}

	if sig := m.Evaluate(101.0, 1.0); sig.Type != model.SignalBuy {
		t.Errorf("expected BUY on +1%% move, got %s (%s)", sig.Type, sig.Reason)
	}
	if sig := m.Evaluate(100.0, 1.0); sig.Type != model.SignalSell {
		t.Errorf("expected SELL on -1%% move, got %s (%s)", sig.Type, sig.Reason)
	}
	// A move inside the threshold is noise.
	if sig := m.Evaluate(100.05, 1.0); sig.Type != model.SignalHold {
		t.Errorf("expected HOLD on 0.05%% move, got %s", sig.Type)
	}
}

func TestMomentum_ConfidenceSaturates(t *testing.T) {
	m := NewMomentum(0.1)
	m.Evaluate(100.0, 1.0)
	sig := m.Evaluate(150.0, 1.0) // huge move
	if sig.Confidence != 0.95 {
		t.Errorf("expected confidence capped at 0.95, got %f", sig.Confidence)
	}
}

func TestReversion_FadesStretchedMoves(t *testing.T) {
	r := NewReversion(0.5)

	// Establish the anchor.
	for i := 0; i < 50; i++ {
		r.Evaluate(100.0, 1.0)
	}

	if sig := r.Evaluate(103.0, 1.0); sig.Type != model.SignalSell {
		t.Errorf("expected SELL when stretched above anchor, got %s (%s)", sig.Type, sig.Reason)
	}

	r2 := NewReversion(0.5)
	for i := 0; i < 50; i++ {
		r2.Evaluate(100.0, 1.0)
	}
	if sig := r2.Evaluate(97.0, 1.0); sig.Type != model.SignalBuy {
		t.Errorf("expected BUY when stretched below anchor, got %s (%s)", sig.Type, sig.Reason)
	}
}

func TestReversion_HoldsNearAnchor(t *testing.T) {
	r := NewReversion(0.5)
	r.Evaluate(100.0, 1.0)
	if sig := r.Evaluate(100.1, 1.0); sig.Type != model.SignalHold {
		t.Errorf("expected HOLD near anchor, got %s", sig.Type)
	}
}
