package loop

import (
	"strings"
	"testing"

	"GridSentinel/internal/config"
	"GridSentinel/internal/feed"
	"GridSentinel/internal/model"
	"GridSentinel/internal/recorder"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Loop.CycleIntervalMs = 100
	cfg.Loop.VolatilityWindow = 60

	cfg.Grid.BaseSpacingPct = 0.2
	cfg.Grid.MinSpacingPct = 0.1
	cfg.Grid.MaxSpacingPct = 0.75
	cfg.Grid.SpacingEpsilon = 0.01
	cfg.Grid.EnableDynamicSpacing = true

	cfg.Regime.VeryLowMax = 0.5
	cfg.Regime.LowMax = 1.0
	cfg.Regime.MediumMax = 1.5
	cfg.Regime.HighMax = 2.0
	cfg.Regime.EnableGate = true
	cfg.Regime.MinVolatilityToTrade = 0.3
	cfg.Regime.PauseInVeryLowVol = true

	cfg.Fees.Enabled = true
	cfg.Fees.TakerRatePct = 0.04
	cfg.Fees.MakerRatePct = 0.02
	cfg.Fees.SlippagePct = 0.05
	cfg.Fees.MinProfitMultiplier = 2.0
	cfg.Fees.NeutralVolatility = 1.0

	cfg.Risk.InitialBalance = 10000.0
	cfg.Risk.MaxDailyLossPct = 5.0
	cfg.Risk.MaxDrawdownPct = 10.0
	cfg.Risk.MaxConsecutiveLosses = 5
	cfg.Risk.CooldownSeconds = 300

	cfg.Stops.Enabled = true
	cfg.Stops.Trailing = true
	cfg.Stops.StopLossPct = 5.0
	cfg.Stops.TakeProfitPct = 10.0

	cfg.Consensus.MinConfidence = 0.65
	cfg.Consensus.WeightUpdateCycles = 10
	return cfg
}

func newLoop(t *testing.T, cfg *config.Config) *RiskLoop {
	t.Helper()
	l, err := New(cfg, feed.NewMockFetcher(100.0), recorder.NewNoopRecorder(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

// feedVolatility drives alternating price cycles until the tracker reads
// roughly the requested volatility level.
func feedVolatility(l *RiskLoop, base, stepPct float64, cycles int) {
	price := base
	for i := 0; i < cycles; i++ {
		l.Cycle(price)
		if i%2 == 0 {
			price *= 1.0 + stepPct/100.0
		} else {
			price /= 1.0 + stepPct/100.0
		}
	}
}

func TestCycle_InvalidPriceSkipped(t *testing.T) {
	l := newLoop(t, testConfig())
	l.Cycle(100.0)
	l.Cycle(-1.0)
	l.Cycle(0.0)

	if got := l.FetchFailures(); got != 2 {
		t.Errorf("expected 2 skipped cycles, got %d", got)
	}
	// Risk state must not advance on bad data.
	if st := l.Stats(); st.Volatility != 0.0 {
		t.Errorf("expected untouched volatility, got %f", st.Volatility)
	}
}

func TestCycle_QuietMarketPausesTrading(t *testing.T) {
	l := newLoop(t, testConfig())
	for i := 0; i < 20; i++ {
		l.Cycle(100.0) // zero volatility
	}

	st := l.Stats()
	if !st.TradingPaused {
		t.Fatal("expected pause in a flat market")
	}
	if !strings.Contains(st.PauseReason, "VERY_LOW_VOL") {
		t.Errorf("expected very-low-vol reason, got %q", st.PauseReason)
	}

	d := l.EvaluateOrder(100.0, 105.0, 1.0)
	if d.Accept {
		t.Error("paused loop must reject orders")
	}
}

func TestCycle_VolatileMarketResumesAndWidensGrid(t *testing.T) {
	l := newLoop(t, testConfig())
	for i := 0; i < 10; i++ {
		l.Cycle(100.0) // pause first
	}
	feedVolatility(l, 100.0, 3.0, 40)

	st := l.Stats()
	if st.TradingPaused {
		t.Fatalf("expected resume at volatility %.3f", st.Volatility)
	}
	if st.CurrentSpacingPercent <= 0.2 {
		t.Errorf("expected spacing widened beyond base, got %f", st.CurrentSpacingPercent)
	}
	if st.MarketRegime != "VERY_HIGH_VOL" && st.MarketRegime != "HIGH_VOL" {
		t.Errorf("expected high-vol regime, got %s", st.MarketRegime)
	}
}

func TestEvaluateOrder_BreakerShortCircuits(t *testing.T) {
	l := newLoop(t, testConfig())
	feedVolatility(l, 100.0, 1.2, 40) // active market

	l.ForceTrip()
	d := l.EvaluateOrder(100.0, 105.0, 1.0)
	if d.Accept {
		t.Fatal("tripped breaker must block orders")
	}
	if !strings.Contains(d.Reason, "circuit breaker") {
		t.Errorf("expected breaker reason, got %q", d.Reason)
	}
}

func TestEvaluateOrder_FeeFilterDecides(t *testing.T) {
	l := newLoop(t, testConfig())
	feedVolatility(l, 100.0, 1.2, 40)

	if d := l.EvaluateOrder(100.0, 105.0, 1.0); !d.Accept {
		t.Errorf("expected profitable order accepted: %s", d.Reason)
	}
	if d := l.EvaluateOrder(100.0, 100.01, 1.0); d.Accept {
		t.Error("expected dust order filtered")
	}
}

func TestRecordOutcome_FeedsBreakerAndStats(t *testing.T) {
	l := newLoop(t, testConfig())

	l.RecordOutcome(model.TradeOutcome{
		Strategy: "grid", PnLPct: -2.0, NewBalance: 9800.0,
		EntryPrice: 100.0, ExitPrice: 98.0, Size: 1.0,
	})
	l.RecordOutcome(model.TradeOutcome{
		Strategy: "grid", PnLPct: -3.5, NewBalance: 9450.0,
		EntryPrice: 98.0, ExitPrice: 94.6, Size: 1.0,
	})

	st := l.BreakerStatus()
	if !st.IsTripped {
		t.Fatal("expected breaker trip at -5.5% daily P&L")
	}
	if stats := l.Stats(); stats.TotalRebalances != 2 {
		t.Errorf("expected 2 rebalances recorded, got %d", stats.TotalRebalances)
	}
}

func TestStats_EfficiencyInvariant(t *testing.T) {
	l := newLoop(t, testConfig())

	// No activity at all reads as fully efficient.
	if st := l.Stats(); st.EfficiencyPercent != 100.0 {
		t.Fatalf("expected 100%% efficiency with no activity, got %f", st.EfficiencyPercent)
	}

	feedVolatility(l, 100.0, 1.2, 40)
	l.EvaluateOrder(100.0, 100.01, 1.0) // filtered
	l.RecordOutcome(model.TradeOutcome{PnLPct: 1.0, NewBalance: 10100.0, EntryPrice: 100, ExitPrice: 101, Size: 1})

	st := l.Stats()
	if st.TotalRebalances != 1 || st.RebalancesFiltered != 1 {
		t.Fatalf("unexpected counters: %+v", st)
	}
	if st.EfficiencyPercent != 50.0 {
		t.Errorf("expected 50%% efficiency, got %f", st.EfficiencyPercent)
	}
}

func TestResolveSignals_StoresLastDecision(t *testing.T) {
	l := newLoop(t, testConfig())
	l.RegisterStrategy("grid")

	if _, ok := l.LastDecision(); ok {
		t.Fatal("expected no decision before the first resolve")
	}

	d := l.ResolveSignals([]model.StrategySignal{
		{Strategy: "grid", Type: model.SignalBuy, Confidence: 0.9},
	}, 100.0)
	if d.Type != model.SignalBuy {
		t.Fatalf("expected BUY, got %s", d.Type)
	}

	last, ok := l.LastDecision()
	if !ok || last.Type != model.SignalBuy {
		t.Errorf("expected stored BUY decision, got %+v ok=%v", last, ok)
	}
}

func TestCheckPosition_StopLossWins(t *testing.T) {
	l := newLoop(t, testConfig())
	l.OpenPosition(100.0)

	stop, take := l.CheckPosition(100.0, 100.0)
	if stop || take {
		t.Error("no stop at entry price")
	}

	stop, take = l.CheckPosition(100.0, 94.0)
	if !stop || take {
		t.Errorf("expected stop-loss only, got stop=%v take=%v", stop, take)
	}

	l.OpenPosition(100.0)
	stop, take = l.CheckPosition(100.0, 111.0)
	if stop || !take {
		t.Errorf("expected take-profit, got stop=%v take=%v", stop, take)
	}
}
