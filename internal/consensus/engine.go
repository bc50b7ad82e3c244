package consensus

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"GridSentinel/internal/config"
	"GridSentinel/internal/model"
)

// performanceWindow bounds the per-strategy signal history kept for
// correlation estimation.
const performanceWindow = 20

// baseConfidence is the confidence prior blended into each weight update.
const baseConfidence = 0.7

// Performance tracks one strategy's contribution quality. Weight stays
// within [0.2, 2.0] and moves by exponential smoothing so a single update
// can never flip a strategy from dominant to ignored.
type Performance struct {
	Name        string
	Weight      float64
	WinRate     float64
	ROI         float64 // mean per-trade return
	TotalTrades int
	Wins        int
	Losses      int
	TotalPnL    float64

	recentSignals []model.SignalType
}

func newPerformance(name string) *Performance {
	return &Performance{
		Name:          name,
		Weight:        1.0,
		WinRate:       0.5,
		recentSignals: make([]model.SignalType, 0, performanceWindow),
	}
}

func (p *Performance) recordTrade(profit float64) {
	p.TotalTrades++
	p.TotalPnL += profit
	if profit > 0 {
		p.Wins++
	} else if profit < 0 {
		p.Losses++
	}
	p.WinRate = float64(p.Wins) / float64(p.TotalTrades)
	p.ROI = p.TotalPnL / float64(p.TotalTrades)
}

func (p *Performance) recordSignal(t model.SignalType) {
	p.recentSignals = append(p.recentSignals, t)
	if len(p.recentSignals) > performanceWindow {
		p.recentSignals = p.recentSignals[len(p.recentSignals)-performanceWindow:]
	}
}

// updateWeight recalculates the weight from a confidence/ROI blend.
// Normalized ROI treats a 20% per-trade return as perfect.
func (p *Performance) updateWeight() {
	roiNorm := p.ROI / 0.2
	if roiNorm < 0 {
		roiNorm = 0
	}
	if roiNorm > 1 {
		roiNorm = 1
	}
	target := 0.6*baseConfidence + 0.4*roiNorm
	p.Weight = 0.7*p.Weight + 0.3*target
	if p.Weight < 0.2 {
		p.Weight = 0.2
	}
	if p.Weight > 2.0 {
		p.Weight = 2.0
	}
}

// Engine resolves per-cycle strategy signals into one directional decision
// using confidence filtering and performance-derived dynamic weights.
type Engine struct {
	mu            sync.Mutex
	performances  map[string]*Performance
	cycles        int
	minConfidence float64
	updateEvery   int
}

// NewEngine builds the engine from configuration.
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		performances:  make(map[string]*Performance),
		minConfidence: cfg.Consensus.MinConfidence,
		updateEvery:   cfg.Consensus.WeightUpdateCycles,
	}
}

// Register adds a strategy to the performance table. Registering an existing
// name is a no-op so callers can register idempotently at startup.
func (e *Engine) Register(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.performances[name]; !ok {
		e.performances[name] = newPerformance(name)
	}
}

// RecordTrade attributes a realized profit to a strategy.
func (e *Engine) RecordTrade(name string, profit float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.performances[name]; ok {
		p.recordTrade(profit)
	}
}

// Performance returns a copy of one strategy's record.
func (e *Engine) Performance(name string) (Performance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.performances[name]
	if !ok {
		return Performance{}, false
	}
	cp := *p
	cp.recentSignals = nil
	return cp, true
}

// Resolve folds one cycle's signals into a single decision. Signals below
// the confidence threshold do not vote for either side.
func (e *Engine) Resolve(signals []model.StrategySignal, currentPrice float64) model.ConsensusDecision {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cycles++
	if e.cycles%e.updateEvery == 0 {
		e.updateWeightsLocked()
	}

	var buyWeight, sellWeight float64
	voters := 0

	for _, sig := range signals {
		if p, ok := e.performances[sig.Strategy]; ok {
			p.recordSignal(sig.Type)
		}

		if sig.Confidence < e.minConfidence {
			continue
		}

		weight := 1.0
		if p, ok := e.performances[sig.Strategy]; ok {
			weight = p.Weight
		}
		vote := weight * sig.Confidence

		if sig.Type.IsBullish() {
			buyWeight += vote
			voters++
		} else if sig.Type.IsBearish() {
			sellWeight += vote
			voters++
		}
	}

	if voters == 0 {
		return model.ConsensusDecision{
			Type:       model.SignalHold,
			Price:      currentPrice,
			Confidence: 0.5,
			Reason:     fmt.Sprintf("all signals below confidence threshold %.2f", e.minConfidence),
		}
	}

	total := buyWeight + sellWeight
	confidence := 0.5
	if total > 0 {
		confidence = max(buyWeight, sellWeight) / total
	}

	d := model.ConsensusDecision{
		Price:      currentPrice,
		Confidence: confidence,
		BuyWeight:  buyWeight,
		SellWeight: sellWeight,
		Voters:     voters,
	}
	switch {
	case buyWeight > sellWeight && buyWeight > 0:
		d.Type = model.SignalBuy
		d.Reason = fmt.Sprintf("consensus buy: weight %.3f > %.3f from %d voters", buyWeight, sellWeight, voters)
	case sellWeight > buyWeight && sellWeight > 0:
		d.Type = model.SignalSell
		d.Reason = fmt.Sprintf("consensus sell: weight %.3f > %.3f from %d voters", sellWeight, buyWeight, voters)
	default:
		d.Type = model.SignalHold
		d.Reason = "no clear consensus"
	}
	return d
}

func (e *Engine) updateWeightsLocked() {
	for name, p := range e.performances {
		old := p.Weight
		p.updateWeight()
		log.Printf("[INFO] consensus weight %s: %.3f -> %.3f (win rate %.1f%%, roi %.2f%%)",
			name, old, p.Weight, p.WinRate*100.0, p.ROI*100.0)
	}
}

// Correlation estimates how often two strategies agree directionally over
// their recent shared history. Diagnostic only; returns 0 until both have at
// least 10 samples.
func (e *Engine) Correlation(a, b string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	pa, oka := e.performances[a]
	pb, okb := e.performances[b]
	if !oka || !okb {
		return 0.0
	}
	if len(pa.recentSignals) < 10 || len(pb.recentSignals) < 10 {
		return 0.0
	}

	n := len(pa.recentSignals)
	if len(pb.recentSignals) < n {
		n = len(pb.recentSignals)
	}
	agreements := 0
	for i := 0; i < n; i++ {
		if direction(pa.recentSignals[i]) == direction(pb.recentSignals[i]) {
			agreements++
		}
	}
	return float64(agreements) / float64(n)
}

func direction(t model.SignalType) model.SignalType {
	if t.IsBullish() {
		return model.SignalBuy
	}
	if t.IsBearish() {
		return model.SignalSell
	}
	return model.SignalHold
}

// Summary formats the performance table for the status report.
func (e *Engine) Summary() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.performances))
	for name := range e.performances {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		p := e.performances[name]
		fmt.Fprintf(&b, "%s: weight=%.2f win_rate=%.1f%% trades=%d pnl=%.2f\n",
			p.Name, p.Weight, p.WinRate*100.0, p.TotalTrades, p.TotalPnL)
	}
	fmt.Fprintf(&b, "cycles: %d", e.cycles)
	return b.String()
}
