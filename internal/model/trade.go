package model

import "time"

// TradeCosts breaks down the estimated round-trip cost of a candidate trade.
type TradeCosts struct {
	EntryFee      float64
	ExitFee       float64
	EntrySlippage float64
	ExitSlippage  float64
	MarketImpact  float64
	Total         float64
}

// TradeOutcome is a realized trade reported back by the execution layer.
type TradeOutcome struct {
	Strategy   string
	PnLPct     float64 // realized profit/loss, percentage units
	NewBalance float64
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	Time       time.Time
}
