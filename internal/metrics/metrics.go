// Package metrics exposes Prometheus metrics the bot updates during
// operation:
//
//	bot_cycles_total{result}        - decision cycles (ok|skipped)
//	bot_orders_filtered_total       - orders rejected by the fee filter
//	bot_orders_accepted_total       - orders passing the fee filter
//	bot_gate_pauses_total           - regime-gate Active -> Paused transitions
//	bot_breaker_trips_total{reason} - circuit-breaker trips by reason
//	bot_trades_total{result}        - recorded trades (win|loss|flat)
//	bot_volatility_pct              - current window volatility (gauge)
//	bot_grid_spacing_pct            - current grid spacing (gauge)
//	bot_daily_pnl_pct               - cumulative daily P&L (gauge)
//	bot_drawdown_pct                - current drawdown from peak (gauge)
//	bot_consensus_confidence        - last consensus confidence (gauge)
//
// All collectors are registered in init() and served at /metrics by the
// HTTP handler started in cmd/bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Decision cycles processed",
		},
		[]string{"result"}, // ok|skipped
	)

	OrdersFiltered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_orders_filtered_total",
			Help: "Candidate orders rejected by the fee filter",
		},
	)

	OrdersAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_orders_accepted_total",
			Help: "Candidate orders accepted by the fee filter",
		},
	)

	GatePauses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_gate_pauses_total",
			Help: "Regime gate pause transitions",
		},
	)

	BreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_breaker_trips_total",
			Help: "Circuit breaker trips by reason",
		},
		[]string{"reason"},
	)

	Trades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_trades_total",
			Help: "Recorded trade outcomes",
		},
		[]string{"result"}, // win|loss|flat
	)

	Volatility = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_volatility_pct",
			Help: "Current window volatility in percent",
		},
	)

	GridSpacing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_grid_spacing_pct",
			Help: "Current grid spacing in percent",
		},
	)

	DailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_daily_pnl_pct",
			Help: "Cumulative daily P&L in percent",
		},
	)

	Drawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_drawdown_pct",
			Help: "Current drawdown from peak balance in percent",
		},
	)

	ConsensusConfidence = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_consensus_confidence",
			Help: "Confidence of the last resolved consensus decision",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Cycles,
		OrdersFiltered,
		OrdersAccepted,
		GatePauses,
		BreakerTrips,
		Trades,
		Volatility,
		GridSpacing,
		DailyPnL,
		Drawdown,
		ConsensusConfidence,
	)
}

// Handler returns the Prometheus exposition handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
