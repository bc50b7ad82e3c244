package recorder

import (
	"GridSentinel/internal/model"
)

// TradeRecord is a realized trade with its cost breakdown.
type TradeRecord struct {
	Outcome model.TradeOutcome
	Costs   model.TradeCosts
}

// BreakerEvent records a circuit-breaker trip or reset.
type BreakerEvent struct {
	Event             string // "TRIP", "RESET", "DAILY_RESET", "FORCE_TRIP"
	Reason            string
	DailyPnLPct       float64
	DrawdownPct       float64
	ConsecutiveLosses int
}

// GateEvent records a regime-gate pause or resume.
type GateEvent struct {
	Event      string // "PAUSE", "RESUME"
	Reason     string
	Volatility float64
	Regime     string
}

// ConsensusRecord stores one resolved consensus decision.
type ConsensusRecord struct {
	Decision model.ConsensusDecision
}

// Recorder persists risk-control history for later analysis.
type Recorder interface {
	RecordTrade(rec *TradeRecord) error
	RecordBreakerEvent(evt *BreakerEvent) error
	RecordGateEvent(evt *GateEvent) error
	RecordConsensus(rec *ConsensusRecord) error
	Close() error
}
