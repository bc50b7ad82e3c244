package model

// GridStats is a point-in-time snapshot of the risk-control loop, produced
// fresh on each query. Read by the regime gate and by external monitoring.
type GridStats struct {
	TotalRebalances       uint64
	RebalancesFiltered    uint64
	EfficiencyPercent     float64
	CurrentSpacingPercent float64
	Volatility            float64
	MarketRegime          string
	TradingPaused         bool
	PauseReason           string
}
