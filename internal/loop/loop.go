// Package loop runs the adaptive risk-control cycle that sits between the
// price feed and order placement: it tracks volatility, classifies the
// market regime, gates and filters candidate orders, and folds realized
// trades back into the circuit breaker and consensus weights.
package loop

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"GridSentinel/internal/breaker"
	"GridSentinel/internal/config"
	"GridSentinel/internal/consensus"
	"GridSentinel/internal/feed"
	"GridSentinel/internal/feefilter"
	"GridSentinel/internal/metrics"
	"GridSentinel/internal/model"
	"GridSentinel/internal/notifier"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/regime"
	"GridSentinel/internal/spacing"
	"GridSentinel/internal/trailing"
	"GridSentinel/internal/volatility"
)

// RiskLoop owns the per-cycle risk pipeline. All methods are safe for
// concurrent use; the scheduler and the Telegram command handler call into
// it while Run is ticking.
type RiskLoop struct {
	cfg *config.Config

	fetcher  feed.Fetcher
	tracker  *volatility.Tracker
	class    *regime.Classifier
	gate     *regime.Gate
	spacing  *spacing.Controller
	filter   *feefilter.Filter
	breaker  *breaker.CircuitBreaker
	stops    *trailing.StopManager
	engine   *consensus.Engine
	recorder recorder.Recorder
	notifier *notifier.TelegramNotifier

	fetchFailures atomic.Uint64
	lastDecision  atomic.Pointer[model.ConsensusDecision]
}

// New wires the full pipeline from configuration and the injected
// external dependencies.
func New(cfg *config.Config, fetcher feed.Fetcher, rec recorder.Recorder, tn *notifier.TelegramNotifier) (*RiskLoop, error) {
	class := regime.NewClassifier(cfg)
	ctrl, err := spacing.NewController(cfg, class)
	if err != nil {
		return nil, err
	}
	return &RiskLoop{
		cfg:      cfg,
		fetcher:  fetcher,
		tracker:  volatility.NewTracker(cfg.Loop.VolatilityWindow),
		class:    class,
		gate:     regime.NewGate(cfg, class),
		spacing:  ctrl,
		filter:   feefilter.New(cfg),
		breaker:  breaker.New(cfg),
		stops:    trailing.NewStopManager(cfg),
		engine:   consensus.NewEngine(cfg),
		recorder: rec,
		notifier: tn,
	}, nil
}

// Run drives the cycle on a fixed interval until the context is cancelled.
// A failed or invalid price fetch skips the cycle; risk state is never
// advanced on bad data.
func (l *RiskLoop) Run(ctx context.Context) {
	interval := time.Duration(l.cfg.Loop.CycleIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[INFO] risk loop started: cycle %v, window %d samples", interval, l.cfg.Loop.VolatilityWindow)

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] risk loop stopped")
			return
		case <-ticker.C:
			price, err := l.fetcher.LatestPrice(ctx)
			if err != nil {
				n := l.fetchFailures.Add(1)
				log.Printf("[WARN] price fetch failed (%d total): %v", n, err)
				metrics.Cycles.WithLabelValues("skipped").Inc()
				continue
			}
			l.Cycle(price)
		}
	}
}

// Cycle advances the pipeline for one observed price: records the sample,
// refreshes volatility and regime, re-evaluates the pause gate, and adjusts
// grid spacing. Pure risk bookkeeping; no orders are placed here.
func (l *RiskLoop) Cycle(price float64) {
	if price <= 0 {
		l.fetchFailures.Add(1)
		log.Printf("[WARN] skipping cycle: invalid price %.6f", price)
		metrics.Cycles.WithLabelValues("skipped").Inc()
		return
	}

	l.tracker.Record(price)
	vol := l.tracker.Volatility()
	reg := l.class.Classify(vol)

	pausedBefore, _ := l.gate.State()
	l.gate.Evaluate(vol)
	pausedAfter, reason := l.gate.State()

	if pausedBefore != pausedAfter {
		l.onGateTransition(pausedAfter, reason, vol, reg)
	}

	sp := l.spacing.Update(vol)

	metrics.Cycles.WithLabelValues("ok").Inc()
	metrics.Volatility.Set(vol)
	metrics.GridSpacing.Set(sp)
}

func (l *RiskLoop) onGateTransition(paused bool, reason string, vol float64, reg model.Regime) {
	event := "RESUME"
	if paused {
		event = "PAUSE"
		metrics.GatePauses.Inc()
	}
	if err := l.recorder.RecordGateEvent(&recorder.GateEvent{
		Event:      event,
		Reason:     reason,
		Volatility: vol,
		Regime:     reg.Label(),
	}); err != nil {
		log.Printf("[ERROR] record gate event: %v", err)
	}
	if l.notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := l.notifier.SendWithRetry(ctx, notifier.FormatGateTransition(paused, reason, vol, reg.Label()), 2); err != nil {
				log.Printf("[ERROR] send gate alert: %v", err)
			}
		}()
	}
}

// EvaluateOrder runs a candidate grid order through the full admission
// chain: circuit breaker first, then the regime gate, then the fee filter.
// Earlier stages short-circuit so a halted bot never reaches cost math.
func (l *RiskLoop) EvaluateOrder(entry, exit, size float64) feefilter.Decision {
	if !l.breaker.IsTradingAllowed() {
		st := l.breaker.Snapshot()
		return feefilter.Decision{
			Accept: false,
			Reason: "circuit breaker tripped: " + string(st.TripReason),
		}
	}
	if paused, reason := l.gate.State(); paused {
		return feefilter.Decision{Accept: false, Reason: reason}
	}

	vol := l.tracker.Volatility()
	reg := l.class.Classify(vol)
	d := l.filter.ShouldExecute(entry, exit, size, vol, reg)
	if d.Accept {
		metrics.OrdersAccepted.Inc()
	} else {
		metrics.OrdersFiltered.Inc()
	}
	return d
}

// RecordOutcome folds one realized trade into every stateful component:
// execution counter, circuit breaker, consensus performance, persistence,
// and metrics. A fresh trip raises an alert.
func (l *RiskLoop) RecordOutcome(out model.TradeOutcome) {
	l.filter.RecordExecution()

	trippedBefore := l.breaker.Snapshot().IsTripped
	l.breaker.RecordTrade(out.PnLPct, out.NewBalance)
	st := l.breaker.Snapshot()

	if out.Strategy != "" {
		// Consensus tracks fractional per-trade return.
		l.engine.RecordTrade(out.Strategy, out.PnLPct/100.0)
	}

	costs := l.filter.EstimateCosts(out.EntryPrice, out.ExitPrice, out.Size)
	if err := l.recorder.RecordTrade(&recorder.TradeRecord{Outcome: out, Costs: costs}); err != nil {
		log.Printf("[ERROR] record trade: %v", err)
	}

	switch {
	case out.PnLPct > 0:
		metrics.Trades.WithLabelValues("win").Inc()
	case out.PnLPct < 0:
		metrics.Trades.WithLabelValues("loss").Inc()
	default:
		metrics.Trades.WithLabelValues("flat").Inc()
	}
	metrics.DailyPnL.Set(st.DailyPnLPct)
	metrics.Drawdown.Set(st.CurrentDrawdownPct)

	if !trippedBefore && st.IsTripped {
		l.onBreakerTrip(st)
	}
}

func (l *RiskLoop) onBreakerTrip(st breaker.Status) {
	metrics.BreakerTrips.WithLabelValues(string(st.TripReason)).Inc()
	if err := l.recorder.RecordBreakerEvent(&recorder.BreakerEvent{
		Event:             "TRIP",
		Reason:            string(st.TripReason),
		DailyPnLPct:       st.DailyPnLPct,
		DrawdownPct:       st.CurrentDrawdownPct,
		ConsecutiveLosses: st.ConsecutiveLosses,
	}); err != nil {
		log.Printf("[ERROR] record breaker event: %v", err)
	}
	if l.notifier != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := l.notifier.SendWithRetry(ctx, notifier.FormatBreakerTrip(st), 2); err != nil {
				log.Printf("[ERROR] send breaker alert: %v", err)
			}
		}()
	}
}

// OpenPosition anchors the trailing stop for a newly opened position.
func (l *RiskLoop) OpenPosition(entryPrice float64) {
	l.stops.Reset(entryPrice)
}

// CheckPosition polls the stop conditions for an open position. Stop-loss
// wins when both would fire on the same tick.
func (l *RiskLoop) CheckPosition(entryPrice, currentPrice float64) (stopLoss, takeProfit bool) {
	stopLoss = l.stops.ShouldStopLoss(entryPrice, currentPrice)
	if stopLoss {
		return true, false
	}
	takeProfit = l.stops.ShouldTakeProfit(entryPrice, currentPrice)
	return stopLoss, takeProfit
}

// RegisterStrategy adds a voting strategy to the consensus table.
func (l *RiskLoop) RegisterStrategy(name string) {
	l.engine.Register(name)
}

// ResolveSignals folds one cycle's strategy signals into a consensus
// decision, persists it, and exposes its confidence as a gauge.
func (l *RiskLoop) ResolveSignals(signals []model.StrategySignal, currentPrice float64) model.ConsensusDecision {
	d := l.engine.Resolve(signals, currentPrice)
	l.lastDecision.Store(&d)

	metrics.ConsensusConfidence.Set(d.Confidence)
	if err := l.recorder.RecordConsensus(&recorder.ConsensusRecord{Decision: d}); err != nil {
		log.Printf("[ERROR] record consensus: %v", err)
	}
	return d
}

// ResetDaily clears the breaker's daily P&L accumulator. Called by the
// scheduler at the configured boundary.
func (l *RiskLoop) ResetDaily() {
	l.breaker.ResetDaily()
	st := l.breaker.Snapshot()
	if err := l.recorder.RecordBreakerEvent(&recorder.BreakerEvent{
		Event:       "DAILY_RESET",
		DailyPnLPct: st.DailyPnLPct,
		DrawdownPct: st.CurrentDrawdownPct,
	}); err != nil {
		log.Printf("[ERROR] record breaker event: %v", err)
	}
	metrics.DailyPnL.Set(st.DailyPnLPct)
}

// ForceTrip halts trading manually.
func (l *RiskLoop) ForceTrip() {
	l.breaker.ForceTrip(breaker.TripManual)
	st := l.breaker.Snapshot()
	metrics.BreakerTrips.WithLabelValues(string(breaker.TripManual)).Inc()
	if err := l.recorder.RecordBreakerEvent(&recorder.BreakerEvent{
		Event:             "FORCE_TRIP",
		Reason:            string(st.TripReason),
		DailyPnLPct:       st.DailyPnLPct,
		DrawdownPct:       st.CurrentDrawdownPct,
		ConsecutiveLosses: st.ConsecutiveLosses,
	}); err != nil {
		log.Printf("[ERROR] record breaker event: %v", err)
	}
}

// Stats assembles the operator-facing grid statistics snapshot.
func (l *RiskLoop) Stats() model.GridStats {
	vol := l.tracker.Volatility()
	paused, reason := l.gate.State()

	executed := l.filter.ExecutedCount()
	filtered := l.filter.FilteredCount()

	eff := 100.0
	if executed+filtered > 0 {
		eff = float64(executed) / float64(executed+filtered) * 100.0
	}

	return model.GridStats{
		TotalRebalances:       executed,
		RebalancesFiltered:    filtered,
		EfficiencyPercent:     eff,
		CurrentSpacingPercent: l.spacing.Current(),
		Volatility:            vol,
		MarketRegime:          l.class.Classify(vol).Label(),
		TradingPaused:         paused,
		PauseReason:           reason,
	}
}

// BreakerStatus returns the circuit breaker snapshot.
func (l *RiskLoop) BreakerStatus() breaker.Status {
	return l.breaker.Snapshot()
}

// ConsensusSummary returns the strategy weight table for reports.
func (l *RiskLoop) ConsensusSummary() string {
	return l.engine.Summary()
}

// LastDecision returns the most recent consensus decision, if any.
func (l *RiskLoop) LastDecision() (model.ConsensusDecision, bool) {
	p := l.lastDecision.Load()
	if p == nil {
		return model.ConsensusDecision{}, false
	}
	return *p, true
}

// FetchFailures returns how many cycles were skipped on bad price data.
func (l *RiskLoop) FetchFailures() uint64 { return l.fetchFailures.Load() }
