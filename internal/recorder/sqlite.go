package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists risk-control history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read
	// while the bot writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			strategy       TEXT,
			pnl_pct        REAL,
			new_balance    REAL,
			entry_price    REAL,
			exit_price     REAL,
			size           REAL,
			entry_fee      REAL,
			exit_fee       REAL,
			entry_slippage REAL,
			exit_slippage  REAL,
			market_impact  REAL,
			total_cost     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,

		`CREATE TABLE IF NOT EXISTS breaker_events (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp          INTEGER NOT NULL,
			event              TEXT,
			reason             TEXT,
			daily_pnl_pct      REAL,
			drawdown_pct       REAL,
			consecutive_losses INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_breaker_ts ON breaker_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS gate_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			event      TEXT,
			reason     TEXT,
			volatility REAL,
			regime     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gate_ts ON gate_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS consensus_decisions (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			decision    TEXT,
			price       REAL,
			confidence  REAL,
			buy_weight  REAL,
			sell_weight REAL,
			voters      INTEGER,
			reason      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_consensus_ts ON consensus_decisions(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordTrade(rec *TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.Outcome.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, strategy, pnl_pct, new_balance, entry_price, exit_price, size,
		 entry_fee, exit_fee, entry_slippage, exit_slippage, market_impact, total_cost)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.Unix(), rec.Outcome.Strategy, rec.Outcome.PnLPct, rec.Outcome.NewBalance,
		rec.Outcome.EntryPrice, rec.Outcome.ExitPrice, rec.Outcome.Size,
		rec.Costs.EntryFee, rec.Costs.ExitFee,
		rec.Costs.EntrySlippage, rec.Costs.ExitSlippage,
		rec.Costs.MarketImpact, rec.Costs.Total,
	)
	return err
}

func (r *SQLiteRecorder) RecordBreakerEvent(evt *BreakerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO breaker_events
		(timestamp, event, reason, daily_pnl_pct, drawdown_pct, consecutive_losses)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Event, evt.Reason,
		evt.DailyPnLPct, evt.DrawdownPct, evt.ConsecutiveLosses,
	)
	return err
}

func (r *SQLiteRecorder) RecordGateEvent(evt *GateEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO gate_events
		(timestamp, event, reason, volatility, regime)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Event, evt.Reason, evt.Volatility, evt.Regime,
	)
	return err
}

func (r *SQLiteRecorder) RecordConsensus(rec *ConsensusRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := rec.Decision
	_, err := r.db.Exec(`INSERT INTO consensus_decisions
		(timestamp, decision, price, confidence, buy_weight, sell_weight, voters, reason)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), string(d.Type), d.Price, d.Confidence,
		d.BuyWeight, d.SellWeight, d.Voters, d.Reason,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
