package notifier

import (
	"fmt"
	"strings"
	"time"

	"GridSentinel/internal/breaker"
	"GridSentinel/internal/model"
)

// FormatBreakerTrip formats a circuit-breaker trip alert.
func FormatBreakerTrip(st breaker.Status) string {
	var b strings.Builder
	b.WriteString("🛑 <b>Circuit breaker tripped</b>\n\n")
	b.WriteString(fmt.Sprintf("Reason: %s\n", st.TripReason))
	b.WriteString(fmt.Sprintf("Daily P&L: %+.2f%%\n", st.DailyPnLPct))
	b.WriteString(fmt.Sprintf("Drawdown: %.2f%% (peak %.2f)\n", st.CurrentDrawdownPct, st.PeakBalance))
	b.WriteString(fmt.Sprintf("Consecutive losses: %d\n", st.ConsecutiveLosses))
	b.WriteString(fmt.Sprintf("Cooldown: %s\n", st.CooldownRemaining.Round(time.Second)))
	return b.String()
}

// FormatGateTransition formats a regime-gate pause or resume.
func FormatGateTransition(paused bool, reason string, volatility float64, regime string) string {
	if paused {
		return fmt.Sprintf("⏸ <b>Trading paused</b>\n\n%s\nRegime: %s | Volatility: %.3f%%", reason, regime, volatility)
	}
	return fmt.Sprintf("▶️ <b>Trading resumed</b>\n\nRegime: %s | Volatility: %.3f%%", regime, volatility)
}

// FormatStatusReport formats the periodic status report.
func FormatStatusReport(stats model.GridStats, st breaker.Status, consensusSummary string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>GridSentinel status</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))

	b.WriteString(fmt.Sprintf("Regime: %s | Volatility: %.3f%%\n", stats.MarketRegime, stats.Volatility))
	b.WriteString(fmt.Sprintf("Spacing: %.3f%%\n", stats.CurrentSpacingPercent))
	b.WriteString(fmt.Sprintf("Rebalances: %d | Filtered: %d | Efficiency: %.1f%%\n",
		stats.TotalRebalances, stats.RebalancesFiltered, stats.EfficiencyPercent))

	if stats.TradingPaused {
		b.WriteString(fmt.Sprintf("⏸ Paused: %s\n", stats.PauseReason))
	}

	b.WriteString("\n💰 <b>Risk</b>\n")
	b.WriteString(fmt.Sprintf("Peak balance: %.2f\n", st.PeakBalance))
	b.WriteString(fmt.Sprintf("Daily P&L: %+.2f%% | Drawdown: %.2f%%\n", st.DailyPnLPct, st.CurrentDrawdownPct))
	if st.IsTripped {
		b.WriteString(fmt.Sprintf("🛑 Breaker tripped (%s), cooldown %s\n",
			st.TripReason, st.CooldownRemaining.Round(time.Second)))
	}

	if consensusSummary != "" {
		b.WriteString("\n🗳 <b>Strategy weights</b>\n")
		b.WriteString(consensusSummary)
	}
	return b.String()
}

// FormatDailyReset formats the daily P&L reset notice.
func FormatDailyReset(st breaker.Status) string {
	return fmt.Sprintf("🌅 <b>Daily reset</b>\n\nP&L counter cleared.\nPeak balance: %.2f | Drawdown: %.2f%%",
		st.PeakBalance, st.CurrentDrawdownPct)
}
