package feed

import (
	"context"
	"math"
	"sync"
)

// MockFetcher returns controllable synthetic prices for development and
// testing. With no explicit price set it emits a slow sine walk around Base.
type MockFetcher struct {
	Base float64

	mu    sync.Mutex
	fixed float64
	step  int
}

// NewMockFetcher creates a mock feed centered on base.
func NewMockFetcher(base float64) *MockFetcher {
	if base <= 0 {
		base = 100.0
	}
	return &MockFetcher{Base: base}
}

func (m *MockFetcher) Name() string { return "mock" }

// SetPrice pins the feed to a fixed value; 0 restores the synthetic walk.
func (m *MockFetcher) SetPrice(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed = p
}

func (m *MockFetcher) LatestPrice(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fixed > 0 {
		return m.fixed, nil
	}
	m.step++
	return m.Base * (1.0 + 0.01*math.Sin(float64(m.step)/20.0)), nil
}
