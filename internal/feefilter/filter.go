package feefilter

import (
	"fmt"
	"log"
	"sync/atomic"

	"GridSentinel/internal/config"
	"GridSentinel/internal/model"
)

// Decision is the outcome of one filter check. A rejection is a normal,
// expected result, not an error.
type Decision struct {
	Accept         bool
	NetProfit      float64
	RequiredProfit float64
	Costs          model.TradeCosts
	Reason         string
}

// Filter estimates the full round-trip cost of a prospective trade and
// rejects it when the expected net profit cannot clear a regime- and
// volatility-adjusted threshold.
type Filter struct {
	enabled             bool
	takerRate           float64 // fraction, e.g. 0.0004
	makerRate           float64
	slippageRate        float64
	minProfitMultiplier float64
	neutralVolatility   float64
	impactEnabled       bool
	impactCoefficient   float64
	graceTrades         int

	accepted atomic.Uint64
	filtered atomic.Uint64
	executed atomic.Uint64
}

// New builds a filter from configuration. Rates arrive in percent units and
// are stored as fractions.
func New(cfg *config.Config) *Filter {
	return &Filter{
		enabled:             cfg.Fees.Enabled,
		takerRate:           cfg.Fees.TakerRatePct / 100.0,
		makerRate:           cfg.Fees.MakerRatePct / 100.0,
		slippageRate:        cfg.Fees.SlippagePct / 100.0,
		minProfitMultiplier: cfg.Fees.MinProfitMultiplier,
		neutralVolatility:   cfg.Fees.NeutralVolatility,
		impactEnabled:       cfg.Fees.EnableMarketImpact,
		impactCoefficient:   cfg.Fees.ImpactCoefficient,
		graceTrades:         cfg.Fees.GraceTrades,
	}
}

// EstimateCosts computes the per-leg cost breakdown for a candidate trade.
// Entry is assumed to cross the spread (taker), exit to rest on the book
// (maker); slippage applies symmetrically to both legs.
func (f *Filter) EstimateCosts(entry, exit, size float64) model.TradeCosts {
	entryValue := entry * size
	exitValue := exit * size

	c := model.TradeCosts{
		EntryFee:      entryValue * f.takerRate,
		ExitFee:       exitValue * f.makerRate,
		EntrySlippage: entryValue * f.slippageRate,
		ExitSlippage:  exitValue * f.slippageRate,
	}
	if f.impactEnabled {
		c.MarketImpact = size * f.impactCoefficient * entryValue
	}
	c.Total = c.EntryFee + c.ExitFee + c.EntrySlippage + c.ExitSlippage + c.MarketImpact
	return c
}

// regimeFactor scales the minimum-profit bar by regime: quiet markets raise
// it, volatile markets lower it. Monotonic across the five buckets.
func regimeFactor(r model.Regime) float64 {
	switch r {
	case model.RegimeVeryLow:
		return 1.5
	case model.RegimeLow:
		return 1.25
	case model.RegimeMedium:
		return 1.0
	case model.RegimeHigh:
		return 0.9
	default:
		return 0.8
	}
}

// volatilityFactor adjusts the threshold around the neutral point. Above it
// the bar drops (capped at a 30% reduction); below it the bar rises (capped
// at a 2x increase).
func (f *Filter) volatilityFactor(vol float64) float64 {
	if vol > f.neutralVolatility {
		reduction := (vol - f.neutralVolatility) / f.neutralVolatility * 0.3
		if reduction > 0.3 {
			reduction = 0.3
		}
		return 1.0 - reduction
	}
	increase := (f.neutralVolatility - vol) / f.neutralVolatility
	if increase > 1.0 {
		increase = 1.0
	}
	return 1.0 + increase
}

// ShouldExecute decides whether a prospective entry/exit at the given size is
// worth its costs. The pass/fail counters feed the grid efficiency statistic;
// trade state itself is never mutated here.
func (f *Filter) ShouldExecute(entry, exit, size, vol float64, reg model.Regime) Decision {
	if !f.enabled {
		f.accepted.Add(1)
		return Decision{Accept: true, Reason: "fee filter disabled"}
	}
	if entry <= 0 || exit <= 0 || size <= 0 {
		f.filtered.Add(1)
		return Decision{Accept: false, Reason: fmt.Sprintf("invalid trade parameters: entry=%.4f exit=%.4f size=%.4f", entry, exit, size)}
	}

	costs := f.EstimateCosts(entry, exit, size)
	gross := abs(exit-entry) * size
	net := gross - costs.Total

	// Bootstrap window: the first graceTrades executed trades skip the
	// profitability bar entirely so a fresh grid can establish activity.
	if f.executed.Load() < uint64(f.graceTrades) {
		f.accepted.Add(1)
		return Decision{
			Accept:    true,
			NetProfit: net,
			Costs:     costs,
			Reason:    fmt.Sprintf("grace period (%d/%d executed trades)", f.executed.Load(), f.graceTrades),
		}
	}

	required := costs.Total * f.minProfitMultiplier * regimeFactor(reg) * f.volatilityFactor(vol)

	if net >= required {
		f.accepted.Add(1)
		return Decision{
			Accept:         true,
			NetProfit:      net,
			RequiredProfit: required,
			Costs:          costs,
			Reason:         fmt.Sprintf("net %.4f >= required %.4f", net, required),
		}
	}

	f.filtered.Add(1)
	log.Printf("[INFO] trade filtered: net %.4f < required %.4f (regime %s, vol %.3f%%)",
		net, required, reg.Label(), vol)
	return Decision{
		Accept:         false,
		NetProfit:      net,
		RequiredProfit: required,
		Costs:          costs,
		Reason:         fmt.Sprintf("net %.4f < required %.4f", net, required),
	}
}

// RecordExecution increments the executed-trade counter that drives the
// grace period. Call it only when a trade actually executes, never on a
// filter check.
func (f *Filter) RecordExecution() { f.executed.Add(1) }

// AcceptedCount returns how many checks passed the filter.
func (f *Filter) AcceptedCount() uint64 { return f.accepted.Load() }

// FilteredCount returns how many checks were rejected.
func (f *Filter) FilteredCount() uint64 { return f.filtered.Load() }

// ExecutedCount returns how many trades have been reported executed.
func (f *Filter) ExecutedCount() uint64 { return f.executed.Load() }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
