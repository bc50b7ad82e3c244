package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GridSentinel/internal/config"
	"GridSentinel/internal/feed"
	"GridSentinel/internal/loop"
	"GridSentinel/internal/metrics"
	"GridSentinel/internal/model"
	"GridSentinel/internal/notifier"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/scheduler"
	"GridSentinel/internal/strategy"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] GridSentinel starting...")

	// .env is optional; real deployments use environment variables.
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded .env file")
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init price feed
	var fetcher feed.Fetcher
	switch cfg.Feed.Source {
	case "http":
		fetcher = feed.NewHTTPFetcher(cfg.Feed.BaseURL, cfg.Feed.APIKey, cfg.Feed.Symbol, cfg.Proxy)
	case "ws":
		ws := feed.NewWSFetcher(cfg.Feed.WSURL, cfg.Feed.Symbol)
		ws.Start(ctx)
		fetcher = ws
	default:
		fetcher = feed.NewMockFetcher(100.0)
	}
	log.Printf("[INFO] price feed: %s (%s)", fetcher.Name(), cfg.Feed.Symbol)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init risk loop
	rl, err := loop.New(cfg, fetcher, rec, tn)
	if err != nil {
		log.Fatalf("[FATAL] init risk loop: %v", err)
	}
	go rl.Run(ctx)

	// Built-in evaluators vote through the consensus engine; external
	// evaluators would register and resolve the same way.
	evaluators := []strategy.Evaluator{
		strategy.NewMomentum(cfg.Grid.BaseSpacingPct),
		strategy.NewReversion(cfg.Grid.MaxSpacingPct),
	}
	for _, ev := range evaluators {
		rl.RegisterStrategy(ev.Name())
	}
	go runEvaluators(ctx, cfg, rl, fetcher, evaluators)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			log.Printf("[INFO] metrics listening on %s", cfg.Metrics.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("[ERROR] metrics server: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, rl, tn)
	if err := sched.RegisterAll(cfg.Schedule.DailyResetCron, cfg.Schedule.StatusReportCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)

	// Optional: send a status report immediately
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, sending status report now")
		go sched.RunStatusNow()
	}

	log.Println("[INFO] GridSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] GridSentinel stopped")
}

// runEvaluators collects one signal per evaluator at a slower cadence than
// the risk cycle and resolves them through the consensus engine.
func runEvaluators(ctx context.Context, cfg *config.Config, rl *loop.RiskLoop, fetcher feed.Fetcher, evaluators []strategy.Evaluator) {
	interval := time.Duration(cfg.Loop.CycleIntervalMs*10) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			price, err := fetcher.LatestPrice(ctx)
			if err != nil || price <= 0 {
				continue
			}
			vol := rl.Stats().Volatility
			signals := make([]model.StrategySignal, 0, len(evaluators))
			for _, ev := range evaluators {
				signals = append(signals, ev.Evaluate(price, vol))
			}
			rl.ResolveSignals(signals, price)
		}
	}
}
