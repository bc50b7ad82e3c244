package volatility

import (
	"log"
	"math"
	"sync"
	"time"
)

// Sample is one observed price point. Samples are owned exclusively by the
// tracker's window and evicted FIFO once capacity is exceeded.
type Sample struct {
	Time  time.Time
	Price float64
}

// Stats is a snapshot of the tracked window.
type Stats struct {
	High            float64
	Low             float64
	Mean            float64
	Range           float64
	StdDevVol       float64
	RangeVol        float64
	Samples         int
	InvalidRejected uint64
}

// Tracker keeps a bounded window of recent prices and computes dispersion
// statistics on demand. A fixed-capacity ring buffer with index bookkeeping
// avoids reallocation on the hot path.
type Tracker struct {
	mu       sync.RWMutex
	buf      []Sample
	head     int // index of oldest sample
	count    int
	rejected uint64
}

// NewTracker creates a tracker holding at most capacity samples.
// Capacities below 2 are raised to 2 so a return series always exists.
func NewTracker(capacity int) *Tracker {
	if capacity < 2 {
		capacity = 2
	}
	return &Tracker{buf: make([]Sample, capacity)}
}

// Record appends a price sample, evicting the oldest once the window is full.
// Non-finite or non-positive prices are rejected and counted.
func (t *Tracker) Record(price float64) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		t.mu.Lock()
		t.rejected++
		t.mu.Unlock()
		log.Printf("[WARN] invalid price %.6f ignored", price)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	tail := (t.head + t.count) % len(t.buf)
	t.buf[tail] = Sample{Time: time.Now(), Price: price}
	if t.count < len(t.buf) {
		t.count++
	} else {
		t.head = (t.head + 1) % len(t.buf)
	}
}

// Volatility returns the standard deviation of period-over-period percentage
// returns across the window. Returns 0.0 with fewer than 2 samples.
func (t *Tracker) Volatility() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stddevLocked()
}

func (t *Tracker) stddevLocked() float64 {
	if t.count < 2 {
		return 0.0
	}

	returns := make([]float64, 0, t.count-1)
	prev := t.buf[t.head].Price
	for i := 1; i < t.count; i++ {
		cur := t.buf[(t.head+i)%len(t.buf)].Price
		if prev > 0 {
			returns = append(returns, (cur-prev)/prev*100.0)
		}
		prev = cur
	}
	if len(returns) == 0 {
		return 0.0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

// RangeVolatility returns (high-low)/low across the window, in percent.
func (t *Tracker) RangeVolatility() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.count < 2 {
		return 0.0
	}
	high, low := t.rangeLocked()
	if low <= 0 {
		return 0.0
	}
	return (high - low) / low * 100.0
}

// CombinedIndex blends stddev and range volatility into one hybrid reading.
func (t *Tracker) CombinedIndex() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.count < 2 {
		return 0.0
	}
	sd := t.stddevLocked()
	high, low := t.rangeLocked()
	rv := 0.0
	if low > 0 {
		rv = (high - low) / low * 100.0
	}
	return sd*0.6 + rv*0.4
}

func (t *Tracker) rangeLocked() (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := 0; i < t.count; i++ {
		p := t.buf[(t.head+i)%len(t.buf)].Price
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	return high, low
}

// SampleCount returns the number of samples currently held.
func (t *Tracker) SampleCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Reset drops all samples.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.head = 0
	t.count = 0
}

// Snapshot returns window statistics, or a zero Stats when empty.
func (t *Tracker) Snapshot() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{Samples: t.count, InvalidRejected: t.rejected}
	if t.count == 0 {
		return s
	}

	high, low := t.rangeLocked()
	sum := 0.0
	for i := 0; i < t.count; i++ {
		sum += t.buf[(t.head+i)%len(t.buf)].Price
	}
	s.High = high
	s.Low = low
	s.Mean = sum / float64(t.count)
	s.Range = high - low
	s.StdDevVol = t.stddevLocked()
	if t.count >= 2 && low > 0 {
		s.RangeVol = (high - low) / low * 100.0
	}
	return s
}
