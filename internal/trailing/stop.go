package trailing

import (
	"log"
	"sync"

	"GridSentinel/internal/config"
)

// StopManager tracks the high-water mark of one open position and decides
// when its stop-loss or take-profit should fire. Reset must be called each
// time a new position opens; the check logic also re-anchors defensively so
// an unset mark can never silently disable the stop.
type StopManager struct {
	enabled       bool
	trailing      bool
	stopLossPct   float64
	takeProfitPct float64

	mu           sync.Mutex
	highestPrice float64
}

// NewStopManager builds the manager from configuration.
func NewStopManager(cfg *config.Config) *StopManager {
	if cfg.Stops.Enabled {
		log.Printf("[INFO] stop manager: stop-loss -%.1f%%, take-profit +%.1f%%, trailing=%v",
			cfg.Stops.StopLossPct, cfg.Stops.TakeProfitPct, cfg.Stops.Trailing)
	}
	return &StopManager{
		enabled:       cfg.Stops.Enabled,
		trailing:      cfg.Stops.Trailing,
		stopLossPct:   cfg.Stops.StopLossPct,
		takeProfitPct: cfg.Stops.TakeProfitPct,
	}
}

// Reset anchors the high-water mark at the entry price of a newly opened
// position. Call it on every position open.
func (m *StopManager) Reset(entryPrice float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.highestPrice = entryPrice
}

// ShouldStopLoss reports whether the position's loss from its reference
// price breaches the stop threshold. In trailing mode the reference is the
// ratcheting high-water mark; otherwise it is the fixed entry price.
func (m *StopManager) ShouldStopLoss(entryPrice, currentPrice float64) bool {
	if !m.enabled || entryPrice <= 0 || currentPrice <= 0 {
		return false
	}

	m.mu.Lock()
	// The mark must never sit at a zero sentinel while trailing: the first
	// observed price would become its own reference and the stop would
	// never fire. Anchor from the entry if Reset was missed.
	if m.trailing && m.highestPrice == 0 {
		m.highestPrice = entryPrice
	}
	if m.trailing && currentPrice > m.highestPrice {
		m.highestPrice = currentPrice
	}
	reference := entryPrice
	if m.trailing {
		reference = m.highestPrice
	}
	m.mu.Unlock()

	lossPct := (currentPrice - reference) / reference * 100.0
	if lossPct <= -m.stopLossPct {
		log.Printf("[WARN] stop-loss triggered: entry %.4f, current %.4f, loss %.2f%% (reference %.4f)",
			entryPrice, currentPrice, lossPct, reference)
		return true
	}
	return false
}

// ShouldTakeProfit reports whether profit measured against the fixed entry
// price has reached the take-profit threshold. Take-profit never trails.
func (m *StopManager) ShouldTakeProfit(entryPrice, currentPrice float64) bool {
	if !m.enabled || entryPrice <= 0 {
		return false
	}
	profitPct := (currentPrice - entryPrice) / entryPrice * 100.0
	if profitPct >= m.takeProfitPct {
		log.Printf("[INFO] take-profit triggered: entry %.4f, current %.4f, profit %.2f%%",
			entryPrice, currentPrice, profitPct)
		return true
	}
	return false
}

// HighWaterMark returns the current trailing reference price.
func (m *StopManager) HighWaterMark() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.highestPrice
}
