package feefilter

import (
	"math"
	"testing"

	"GridSentinel/internal/config"
	"GridSentinel/internal/model"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Fees.Enabled = true
	cfg.Fees.TakerRatePct = 0.04
	cfg.Fees.MakerRatePct = 0.02
	cfg.Fees.SlippagePct = 0.05
	cfg.Fees.MinProfitMultiplier = 2.0
	cfg.Fees.NeutralVolatility = 1.0
	cfg.Fees.GraceTrades = 0
	return cfg
}

func TestEstimateCosts_Breakdown(t *testing.T) {
	f := New(testConfig())
	c := f.EstimateCosts(100.0, 105.0, 1.0)

	approx := func(got, want float64, name string) {
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s: expected %f, got %f", name, want, got)
		}
	}
	approx(c.EntryFee, 0.04, "entry fee")         // 100 * 0.0004
	approx(c.ExitFee, 0.021, "exit fee")          // 105 * 0.0002
	approx(c.EntrySlippage, 0.05, "entry slip")   // 100 * 0.0005
	approx(c.ExitSlippage, 0.0525, "exit slip")   // 105 * 0.0005
	approx(c.MarketImpact, 0.0, "impact")         // disabled
	approx(c.Total, 0.1635, "total")
}

func TestEstimateCosts_MarketImpact(t *testing.T) {
	cfg := testConfig()
	cfg.Fees.EnableMarketImpact = true
	cfg.Fees.ImpactCoefficient = 0.0001
	f := New(cfg)

	c := f.EstimateCosts(100.0, 105.0, 2.0)
	want := 2.0 * 0.0001 * 200.0 // size * coeff * entry value
	if math.Abs(c.MarketImpact-want) > 1e-9 {
		t.Errorf("expected impact %f, got %f", want, c.MarketImpact)
	}
}

func TestShouldExecute_ProfitableMoveAccepted(t *testing.T) {
	f := New(testConfig())
	d := f.ShouldExecute(100.0, 105.0, 1.0, 1.0, model.RegimeMedium)
	if !d.Accept {
		t.Fatalf("expected 5%% move accepted, rejected: %s", d.Reason)
	}
	if d.NetProfit <= 0 {
		t.Errorf("expected positive net profit, got %f", d.NetProfit)
	}
}

func TestShouldExecute_TinyMoveRejected(t *testing.T) {
	f := New(testConfig())
	d := f.ShouldExecute(100.0, 100.1, 1.0, 1.0, model.RegimeMedium)
	if d.Accept {
		t.Fatalf("expected 0.1%% move rejected, accepted: %s", d.Reason)
	}
	if f.FilteredCount() != 1 {
		t.Errorf("expected 1 filtered, got %d", f.FilteredCount())
	}
}

func TestShouldExecute_RegimeRaisesBarInQuietMarkets(t *testing.T) {
	f := New(testConfig())

	// A move that clears the bar at medium regime but not at very low,
	// where the factor is 1.5x and the volatility factor adds more.
	entry, exit := 100.0, 100.6
	if d := f.ShouldExecute(entry, exit, 1.0, 1.0, model.RegimeMedium); !d.Accept {
		t.Fatalf("expected accept at medium regime: %s", d.Reason)
	}
	if d := f.ShouldExecute(entry, exit, 1.0, 0.2, model.RegimeVeryLow); d.Accept {
		t.Fatalf("expected reject at very low regime: %s", d.Reason)
	}
}

func TestVolatilityFactor_Caps(t *testing.T) {
	f := New(testConfig())
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 1.0},  // neutral
		{2.0, 0.7},  // 100% above neutral, reduction capped at 0.3
		{10.0, 0.7}, // cap holds
		{0.5, 1.5},  // 50% below neutral
		{0.0, 2.0},  // increase capped at 1.0
	}
	for _, tt := range tests {
		if got := f.volatilityFactor(tt.vol); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("volatilityFactor(%.1f) = %f, want %f", tt.vol, got, tt.want)
		}
	}
}

func TestRegimeFactor_Monotonic(t *testing.T) {
	prev := math.Inf(1)
	for r := model.RegimeVeryLow; r <= model.RegimeVeryHigh; r++ {
		got := regimeFactor(r)
		if got >= prev {
			t.Errorf("regimeFactor(%s) = %f, expected strictly decreasing", r.Label(), got)
		}
		prev = got
	}
}

func TestShouldExecute_GracePeriod(t *testing.T) {
	cfg := testConfig()
	cfg.Fees.GraceTrades = 2
	f := New(cfg)

	// Unprofitable trade passes while inside the grace window.
	if d := f.ShouldExecute(100.0, 100.1, 1.0, 1.0, model.RegimeMedium); !d.Accept {
		t.Fatalf("expected grace acceptance: %s", d.Reason)
	}

	// Filter checks alone must not consume the grace budget.
	if d := f.ShouldExecute(100.0, 100.1, 1.0, 1.0, model.RegimeMedium); !d.Accept {
		t.Fatalf("expected grace still active: %s", d.Reason)
	}

	f.RecordExecution()
	f.RecordExecution()
	if d := f.ShouldExecute(100.0, 100.1, 1.0, 1.0, model.RegimeMedium); d.Accept {
		t.Fatal("expected rejection after grace budget consumed")
	}
}

func TestShouldExecute_InvalidParameters(t *testing.T) {
	f := New(testConfig())
	for _, args := range [][3]float64{
		{0, 105, 1},
		{100, 0, 1},
		{100, 105, 0},
		{-100, 105, 1},
	} {
		if d := f.ShouldExecute(args[0], args[1], args[2], 1.0, model.RegimeMedium); d.Accept {
			t.Errorf("expected rejection for entry=%.1f exit=%.1f size=%.1f", args[0], args[1], args[2])
		}
	}
}

func TestShouldExecute_DisabledAcceptsEverything(t *testing.T) {
	cfg := testConfig()
	cfg.Fees.Enabled = false
	f := New(cfg)
	if d := f.ShouldExecute(100.0, 100.0001, 1.0, 1.0, model.RegimeVeryLow); !d.Accept {
		t.Errorf("disabled filter must accept: %s", d.Reason)
	}
}
