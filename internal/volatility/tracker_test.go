package volatility

import (
	"math"
	"testing"
)

func TestVolatility_InsufficientSamples(t *testing.T) {
	tr := NewTracker(10)
	if v := tr.Volatility(); v != 0.0 {
		t.Errorf("empty tracker: expected 0.0, got %f", v)
	}
	tr.Record(100.0)
	if v := tr.Volatility(); v != 0.0 {
		t.Errorf("single sample: expected 0.0, got %f", v)
	}
}

func TestVolatility_ConstantPrices(t *testing.T) {
	tr := NewTracker(10)
	for i := 0; i < 10; i++ {
		tr.Record(100.0)
	}
	if v := tr.Volatility(); v != 0.0 {
		t.Errorf("constant prices: expected 0.0, got %f", v)
	}
}

func TestVolatility_AlternatingReturns(t *testing.T) {
	// 100 -> 101 -> 99.99.. alternation gives returns of +1% and ~-1%,
	// so the stddev must land close to 1.
	tr := NewTracker(20)
	price := 100.0
	for i := 0; i < 20; i++ {
		tr.Record(price)
		if i%2 == 0 {
			price *= 1.01
		} else {
			price /= 1.01
		}
	}
	v := tr.Volatility()
	if v < 0.9 || v > 1.1 {
		t.Errorf("expected volatility near 1.0, got %f", v)
	}
}

func TestRecord_EvictsOldest(t *testing.T) {
	tr := NewTracker(3)
	tr.Record(1.0)
	tr.Record(2.0)
	tr.Record(3.0)
	tr.Record(4.0) // evicts 1.0
	if n := tr.SampleCount(); n != 3 {
		t.Fatalf("expected 3 samples, got %d", n)
	}
	s := tr.Snapshot()
	if s.Low != 2.0 || s.High != 4.0 {
		t.Errorf("expected window [2,4], got [%.1f,%.1f]", s.Low, s.High)
	}
}

func TestRecord_RejectsInvalidPrices(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(math.NaN())
	tr.Record(math.Inf(1))
	tr.Record(-5.0)
	tr.Record(0.0)
	if n := tr.SampleCount(); n != 0 {
		t.Errorf("expected 0 samples after invalid inputs, got %d", n)
	}
	if s := tr.Snapshot(); s.InvalidRejected != 4 {
		t.Errorf("expected 4 rejections, got %d", s.InvalidRejected)
	}
}

func TestRangeVolatility(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(100.0)
	tr.Record(110.0)
	tr.Record(105.0)
	rv := tr.RangeVolatility()
	if math.Abs(rv-10.0) > 1e-9 {
		t.Errorf("expected range volatility 10.0, got %f", rv)
	}
}

func TestCombinedIndex_BlendsBothMeasures(t *testing.T) {
	tr := NewTracker(10)
	tr.Record(100.0)
	tr.Record(110.0)
	sd := tr.Volatility()
	rv := tr.RangeVolatility()
	want := sd*0.6 + rv*0.4
	if got := tr.CombinedIndex(); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected combined index %f, got %f", want, got)
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker(5)
	tr.Record(100.0)
	tr.Record(101.0)
	tr.Reset()
	if n := tr.SampleCount(); n != 0 {
		t.Errorf("expected empty tracker after reset, got %d samples", n)
	}
	if v := tr.Volatility(); v != 0.0 {
		t.Errorf("expected 0.0 volatility after reset, got %f", v)
	}
}

func TestNewTracker_MinimumCapacity(t *testing.T) {
	tr := NewTracker(0)
	tr.Record(100.0)
	tr.Record(101.0)
	if n := tr.SampleCount(); n != 2 {
		t.Errorf("expected capacity raised to 2, got %d samples", n)
	}
}
