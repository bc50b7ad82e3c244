package model

// SignalType is the closed set of directional signals strategies may emit.
type SignalType string

const (
	SignalStrongBuy  SignalType = "STRONG_BUY"
	SignalBuy        SignalType = "BUY"
	SignalHold       SignalType = "HOLD"
	SignalSell       SignalType = "SELL"
	SignalStrongSell SignalType = "STRONG_SELL"
)

// IsBullish reports whether the signal argues for buying.
func (s SignalType) IsBullish() bool {
	return s == SignalBuy || s == SignalStrongBuy
}

// IsBearish reports whether the signal argues for selling.
func (s SignalType) IsBearish() bool {
	return s == SignalSell || s == SignalStrongSell
}

// StrategySignal is one strategy's vote for the current cycle.
type StrategySignal struct {
	Strategy   string
	Type       SignalType
	Price      float64
	Size       float64
	Confidence float64 // 0.0 ~ 1.0
	Reason     string
}

// ConsensusDecision is the resolved output of the weighted-majority vote.
type ConsensusDecision struct {
	Type       SignalType
	Price      float64
	Size       float64
	Confidence float64
	Reason     string
	BuyWeight  float64
	SellWeight float64
	Voters     int
}
