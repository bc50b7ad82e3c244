package regime

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"GridSentinel/internal/config"
	"GridSentinel/internal/model"
)

// Gate is the pause/resume state machine that blocks new order placement
// when the market is too quiet to trade profitably. It never touches open
// positions; those stay with the trailing-stop manager.
type Gate struct {
	enabled           bool
	minVolToTrade     float64
	pauseInVeryLowVol bool
	classifier        *Classifier

	mu          sync.RWMutex
	paused      bool
	pauseReason string

	pauses  atomic.Uint64
	resumes atomic.Uint64
}

// NewGate creates a gate wired to the given classifier.
func NewGate(cfg *config.Config, classifier *Classifier) *Gate {
	g := &Gate{
		enabled:           cfg.Regime.EnableGate,
		minVolToTrade:     cfg.Regime.MinVolatilityToTrade,
		pauseInVeryLowVol: cfg.Regime.PauseInVeryLowVol,
		classifier:        classifier,
	}
	if !g.enabled {
		log.Println("[WARN] regime gate disabled - will trade in any market condition")
	}
	return g
}

// Evaluate re-checks the pause conditions against a fresh volatility reading
// and returns whether new orders may be placed. Resumption is purely
// condition-based; there is no time component.
func (g *Gate) Evaluate(vol float64) bool {
	// Explicit bypass when the feature is disabled by configuration.
	if !g.enabled {
		return true
	}

	reg := g.classifier.Classify(vol)

	var reason string
	if g.pauseInVeryLowVol && reg == model.RegimeVeryLow {
		reason = fmt.Sprintf("regime gate: %s (volatility %.3f%%)", reg.Label(), vol)
	} else if vol < g.minVolToTrade {
		reason = fmt.Sprintf("regime gate: volatility %.3f%% < min %.3f%%", vol, g.minVolToTrade)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if reason != "" {
		if !g.paused {
			log.Printf("[WARN] trading paused: %s", reason)
			g.pauses.Add(1)
		}
		g.paused = true
		g.pauseReason = reason
		return false
	}

	if g.paused {
		log.Printf("[INFO] trading resumed: regime %s, volatility %.3f%%", reg.Label(), vol)
		g.resumes.Add(1)
	}
	g.paused = false
	g.pauseReason = ""
	return true
}

// State returns the current pause flag and reason.
func (g *Gate) State() (paused bool, reason string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused, g.pauseReason
}

// PauseCount returns how many Active -> Paused transitions have occurred.
func (g *Gate) PauseCount() uint64 { return g.pauses.Load() }

// ResumeCount returns how many Paused -> Active transitions have occurred.
func (g *Gate) ResumeCount() uint64 { return g.resumes.Load() }
