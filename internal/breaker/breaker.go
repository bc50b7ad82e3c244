package breaker

import (
	"log"
	"sync"
	"time"

	"GridSentinel/internal/config"
)

// TripReason identifies which threshold halted trading.
type TripReason string

const (
	TripNone              TripReason = ""
	TripDailyLossLimit    TripReason = "DAILY_LOSS_LIMIT"
	TripMaxDrawdown       TripReason = "MAX_DRAWDOWN"
	TripConsecutiveLosses TripReason = "CONSECUTIVE_LOSSES"
	TripManual            TripReason = "MANUAL"
)

// Status is a point-in-time snapshot of the breaker.
type Status struct {
	IsTripped          bool
	TripReason         TripReason
	ConsecutiveLosses  int
	DailyPnLPct        float64
	PeakBalance        float64
	CurrentDrawdownPct float64
	CooldownRemaining  time.Duration
}

// CircuitBreaker halts all trading when accumulated losses breach a limit.
// It consumes trade outcomes directly and has no dependency on the regime
// components. A trip is a deliberate, user-visible halt, not an error.
type CircuitBreaker struct {
	maxDailyLossPct      float64
	maxDrawdownPct       float64
	maxConsecutiveLosses int
	cooldown             time.Duration

	mu                 sync.Mutex
	consecutiveLosses  int
	dailyPnLPct        float64
	peakBalance        float64
	currentDrawdownPct float64
	tripped            bool
	tripReason         TripReason
	tripTime           time.Time

	now func() time.Time // stubbed in tests
}

// New creates an armed breaker with peak balance seeded from the configured
// initial balance.
func New(cfg *config.Config) *CircuitBreaker {
	b := &CircuitBreaker{
		maxDailyLossPct:      cfg.Risk.MaxDailyLossPct,
		maxDrawdownPct:       cfg.Risk.MaxDrawdownPct,
		maxConsecutiveLosses: cfg.Risk.MaxConsecutiveLosses,
		cooldown:             time.Duration(cfg.Risk.CooldownSeconds) * time.Second,
		peakBalance:          cfg.Risk.InitialBalance,
		now:                  time.Now,
	}
	log.Printf("[INFO] circuit breaker armed: daily loss %.1f%%, drawdown %.1f%%, %d consecutive losses, cooldown %s",
		b.maxDailyLossPct, b.maxDrawdownPct, b.maxConsecutiveLosses, b.cooldown)
	return b
}

// RecordTrade folds a realized trade into the breaker state and checks the
// trip conditions in fixed priority order.
func (b *CircuitBreaker) RecordTrade(pnlPct, newBalance float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dailyPnLPct += pnlPct

	// Drawdown resets fully when a new peak is set, never partially.
	if newBalance > b.peakBalance {
		b.peakBalance = newBalance
		b.currentDrawdownPct = 0.0
	} else if b.peakBalance > 0 {
		b.currentDrawdownPct = (b.peakBalance - newBalance) / b.peakBalance * 100.0
	}

	switch {
	case pnlPct < 0:
		b.consecutiveLosses++
		log.Printf("[WARN] loss recorded - consecutive: %d/%d", b.consecutiveLosses, b.maxConsecutiveLosses)
	case pnlPct > 0:
		if b.consecutiveLosses > 0 {
			log.Println("[INFO] profit recorded - consecutive loss streak broken")
		}
		b.consecutiveLosses = 0
	}
	// pnlPct == 0 leaves the streak unchanged.

	b.checkTripConditionsLocked()
}

func (b *CircuitBreaker) checkTripConditionsLocked() {
	if b.tripped {
		return
	}

	if abs(b.dailyPnLPct) >= b.maxDailyLossPct {
		log.Printf("[ERROR] circuit breaker tripped: daily P&L %.2f%% exceeds limit %.1f%%",
			b.dailyPnLPct, b.maxDailyLossPct)
		b.tripLocked(TripDailyLossLimit)
		return
	}
	if b.currentDrawdownPct >= b.maxDrawdownPct {
		log.Printf("[ERROR] circuit breaker tripped: drawdown %.2f%% exceeds limit %.1f%% (peak %.2f)",
			b.currentDrawdownPct, b.maxDrawdownPct, b.peakBalance)
		b.tripLocked(TripMaxDrawdown)
		return
	}
	if b.consecutiveLosses >= b.maxConsecutiveLosses {
		log.Printf("[ERROR] circuit breaker tripped: %d consecutive losses (max %d)",
			b.consecutiveLosses, b.maxConsecutiveLosses)
		b.tripLocked(TripConsecutiveLosses)
	}
}

func (b *CircuitBreaker) tripLocked(reason TripReason) {
	b.tripped = true
	b.tripReason = reason
	b.tripTime = b.now()
	log.Printf("[ERROR] ALL TRADING HALTED for %s (reason: %s)", b.cooldown, reason)
}

// IsTradingAllowed reports whether orders may be placed. Once the cooldown
// has elapsed the tripped flag, reason, and loss streak are cleared lazily on
// the first allowed check; cumulative daily P&L and the peak balance persist
// until the explicit daily reset.
func (b *CircuitBreaker) IsTradingAllowed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.tripped {
		return true
	}

	elapsed := b.now().Sub(b.tripTime)
	if elapsed >= b.cooldown {
		log.Println("[INFO] circuit breaker cooldown complete - resuming trading")
		b.tripped = false
		b.tripReason = TripNone
		b.tripTime = time.Time{}
		b.consecutiveLosses = 0
		return true
	}
	return false
}

// ResetDaily zeroes the daily P&L accumulator. Drawdown state and the
// consecutive-loss streak carry over: they track continuous risk, not
// calendar risk.
func (b *CircuitBreaker) ResetDaily() {
	b.mu.Lock()
	defer b.mu.Unlock()
	log.Printf("[INFO] daily reset: final daily P&L %.2f%%, drawdown %.2f%%, streak %d",
		b.dailyPnLPct, b.currentDrawdownPct, b.consecutiveLosses)
	b.dailyPnLPct = 0.0
}

// ForceTrip halts trading immediately, bypassing condition evaluation.
// Intended for emergency or administrative use.
func (b *CircuitBreaker) ForceTrip(reason TripReason) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if reason == TripNone {
		reason = TripManual
	}
	log.Printf("[WARN] manual circuit breaker trip: %s", reason)
	b.tripLocked(reason)
}

// Snapshot returns the current breaker status.
func (b *CircuitBreaker) Snapshot() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Status{
		IsTripped:          b.tripped,
		TripReason:         b.tripReason,
		ConsecutiveLosses:  b.consecutiveLosses,
		DailyPnLPct:        b.dailyPnLPct,
		PeakBalance:        b.peakBalance,
		CurrentDrawdownPct: b.currentDrawdownPct,
	}
	if b.tripped {
		if remaining := b.cooldown - b.now().Sub(b.tripTime); remaining > 0 {
			s.CooldownRemaining = remaining
		}
	}
	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
