package scheduler

import (
	"context"
	"fmt"
	"log"

	"GridSentinel/internal/loop"
	"GridSentinel/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the cron tasks around the risk loop: the daily P&L
// reset and the periodic status report.
type Scheduler struct {
	Cron     *cron.Cron
	Loop     *loop.RiskLoop
	Notifier *notifier.TelegramNotifier
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, rl *loop.RiskLoop, tn *notifier.TelegramNotifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Loop:     rl,
		Notifier: tn,
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily reset and status report tasks.
func (s *Scheduler) RegisterAll(dailyResetCron, statusReportCron string) error {
	if _, err := s.Cron.AddFunc(dailyResetCron, s.dailyReset); err != nil {
		return fmt.Errorf("register daily reset: %w", err)
	}
	if _, err := s.Cron.AddFunc(statusReportCron, s.statusReport); err != nil {
		return fmt.Errorf("register status report: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) dailyReset() {
	log.Println("[INFO] running daily reset")
	s.Loop.ResetDaily()
	s.trySend(notifier.FormatDailyReset(s.Loop.BreakerStatus()))
}

func (s *Scheduler) statusReport() {
	log.Println("[INFO] running status report")
	s.trySend(notifier.FormatStatusReport(s.Loop.Stats(), s.Loop.BreakerStatus(), s.Loop.ConsensusSummary()))
}

// RunStatusNow sends a status report immediately (manual trigger / RUN_ON_START).
func (s *Scheduler) RunStatusNow() {
	s.statusReport()
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/status":
		return notifier.FormatStatusReport(s.Loop.Stats(), s.Loop.BreakerStatus(), s.Loop.ConsensusSummary())
	case "/risk":
		return notifier.FormatBreakerTrip(s.Loop.BreakerStatus())
	case "/halt":
		s.Loop.ForceTrip()
		return "🛑 Trading halted manually."
	case "/reset":
		s.Loop.ResetDaily()
		return notifier.FormatDailyReset(s.Loop.BreakerStatus())
	default:
		return "Commands:\n• /status\n• /risk\n• /halt\n• /reset"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
