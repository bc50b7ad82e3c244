// Package strategy holds the built-in signal evaluators that vote through
// the consensus engine. Real deployments plug in their own evaluators; these
// two exist so the voting path is exercised out of the box.
package strategy

import (
	"fmt"
	"math"
	"sync"

	"GridSentinel/internal/model"
)

// Evaluator produces one directional vote per cycle.
type Evaluator interface {
	Name() string
	Evaluate(price, vol float64) model.StrategySignal
}

// Momentum votes with the short-term price direction: a move beyond the
// threshold since the last observation reads as continuation.
type Momentum struct {
	thresholdPct float64

	mu        sync.Mutex
	lastPrice float64
}

// NewMomentum creates a momentum evaluator. thresholdPct is the minimum
// percent move treated as a directional signal.
func NewMomentum(thresholdPct float64) *Momentum {
	if thresholdPct <= 0 {
		thresholdPct = 0.1
	}
	return &Momentum{thresholdPct: thresholdPct}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) Evaluate(price, vol float64) model.StrategySignal {
	m.mu.Lock()
	prev := m.lastPrice
	m.lastPrice = price
	m.mu.Unlock()

	sig := model.StrategySignal{Strategy: m.Name(), Type: model.SignalHold, Price: price, Confidence: 0.5}
	if prev <= 0 {
		sig.Reason = "no prior observation"
		return sig
	}

	movePct := (price - prev) / prev * 100.0
	strength := math.Abs(movePct) / m.thresholdPct
	if strength < 1.0 {
		sig.Reason = fmt.Sprintf("move %.3f%% below threshold %.3f%%", movePct, m.thresholdPct)
		return sig
	}

	// Confidence grows with the move, saturating at 0.95.
	sig.Confidence = math.Min(0.6+0.1*strength, 0.95)
	if movePct > 0 {
		sig.Type = model.SignalBuy
	} else {
		sig.Type = model.SignalSell
	}
	sig.Reason = fmt.Sprintf("momentum %.3f%% over threshold %.3f%%", movePct, m.thresholdPct)
	return sig
}

// Reversion votes against stretched moves: when the price sits far from its
// anchor (an EMA of observed prices) it bets on a pull back toward it.
type Reversion struct {
	stretchPct float64
	alpha      float64

	mu     sync.Mutex
	anchor float64
}

// NewReversion creates a mean-reversion evaluator. stretchPct is the
// deviation from the anchor treated as overextended.
func NewReversion(stretchPct float64) *Reversion {
	if stretchPct <= 0 {
		stretchPct = 0.5
	}
	return &Reversion{stretchPct: stretchPct, alpha: 0.05}
}

func (r *Reversion) Name() string { return "reversion" }

func (r *Reversion) Evaluate(price, vol float64) model.StrategySignal {
	r.mu.Lock()
	if r.anchor <= 0 {
		r.anchor = price
	} else {
		r.anchor = r.anchor*(1.0-r.alpha) + price*r.alpha
	}
	anchor := r.anchor
	r.mu.Unlock()

	sig := model.StrategySignal{Strategy: r.Name(), Type: model.SignalHold, Price: price, Confidence: 0.5}
	devPct := (price - anchor) / anchor * 100.0
	stretch := math.Abs(devPct) / r.stretchPct
	if stretch < 1.0 {
		sig.Reason = fmt.Sprintf("deviation %.3f%% within stretch %.3f%%", devPct, r.stretchPct)
		return sig
	}

	sig.Confidence = math.Min(0.6+0.1*stretch, 0.95)
	if devPct > 0 {
		sig.Type = model.SignalSell
	} else {
		sig.Type = model.SignalBuy
	}
	sig.Reason = fmt.Sprintf("deviation %.3f%% beyond stretch %.3f%%", devPct, r.stretchPct)
	return sig
}
