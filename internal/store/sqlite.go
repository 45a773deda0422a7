package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"StockAnalyst/internal/model"
)

// SQLiteStore persists the record cache and refresh history to a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the dashboard read while a refresh writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log.With().Str("component", "store").Logger()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	s.log.Info().Str("path", dbPath).Msg("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS daily_records (
			symbol    TEXT NOT NULL,
			date      TEXT NOT NULL,
			close     REAL NOT NULL,
			ma20      REAL,
			rsi       REAL,
			sentiment REAL,
			PRIMARY KEY (symbol, date)
		)`,

		`CREATE TABLE IF NOT EXISTS refresh_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT,
			source      TEXT,
			records     INTEGER,
			first_date  TEXT,
			last_date   TEXT,
			status      TEXT,
			error       TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_ts ON refresh_runs(timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// SaveRecords replaces the cached series of a symbol.
func (s *SQLiteStore) SaveRecords(ctx context.Context, symbol string, records []model.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_records WHERE symbol = ?`, symbol); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO daily_records
		(symbol, date, close, ma20, rsi, sentiment) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, symbol, r.Day(), r.Close,
			nullable(r.MA20), nullable(r.RSI), nullable(r.Sentiment)); err != nil {
			return fmt.Errorf("insert %s: %w", r.Day(), err)
		}
	}
	return tx.Commit()
}

// LoadRecords returns the cached series of a symbol ascending by date.
func (s *SQLiteStore) LoadRecords(ctx context.Context, symbol string) ([]model.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, close, ma20, rsi, sentiment
		FROM daily_records WHERE symbol = ? ORDER BY date ASC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []model.DailyRecord
	for rows.Next() {
		var (
			day             string
			closePrice      float64
			ma20, rsi, sent sql.NullFloat64
		)
		if err := rows.Scan(&day, &closePrice, &ma20, &rsi, &sent); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		date, err := time.Parse(model.DateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", day, err)
		}
		records = append(records, model.DailyRecord{
			Date:      date,
			Close:     closePrice,
			MA20:      orNaN(ma20),
			RSI:       orNaN(rsi),
			Sentiment: orNaN(sent),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoRecords, symbol)
	}
	return records, nil
}

func (s *SQLiteStore) RecordRefresh(ctx context.Context, evt *RefreshEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO refresh_runs
		(timestamp, symbol, source, records, first_date, last_date, status, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Symbol, evt.Source, evt.Records,
		evt.FirstDate, evt.LastDate, evt.Status, evt.Error, evt.Duration.Milliseconds(),
	)
	return err
}

func (s *SQLiteStore) LastRefresh(ctx context.Context) (*RefreshEvent, error) {
	var (
		evt        RefreshEvent
		ts         int64
		durationMs int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT timestamp, symbol, source, records, first_date, last_date, status, error, duration_ms
		FROM refresh_runs ORDER BY id DESC LIMIT 1`).
		Scan(&ts, &evt.Symbol, &evt.Source, &evt.Records, &evt.FirstDate, &evt.LastDate, &evt.Status, &evt.Error, &durationMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	evt.Duration = time.Duration(durationMs) * time.Millisecond
	evt.At = time.Unix(ts, 0)
	return &evt, nil
}

func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing sqlite store")
	return s.db.Close()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
