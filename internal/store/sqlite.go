package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "ema-trader/internal/errors"
	"ema-trader/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_time DATETIME NOT NULL,
		exit_time DATETIME NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		quantity INTEGER NOT NULL,
		stop_loss REAL NOT NULL,
		target REAL NOT NULL,
		pnl REAL NOT NULL,
		pnl_percent REAL NOT NULL,
		exit_reason TEXT NOT NULL,
		mode TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_entry_time ON trades(entry_time);

	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, interval, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_candles_lookup ON candles(symbol, interval, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveTrade appends a completed trade to the log.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade models.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, symbol, direction, entry_time, exit_time, entry_price, exit_price, quantity, stop_loss, target, pnl, pnl_percent, exit_reason, mode)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.ID, trade.Symbol, string(trade.Direction), trade.EntryTime, trade.ExitTime,
		trade.EntryPrice, trade.ExitPrice, trade.Quantity, trade.StopLoss, trade.Target,
		trade.PnL, trade.PnLPercent, string(trade.ExitReason), string(trade.Mode))
	if err != nil {
		return apperrors.NewStoreError("save_trade", trade.ID, err)
	}
	return nil
}

// GetTrades retrieves trades matching the filter, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := `SELECT id, symbol, direction, entry_time, exit_time, entry_price, exit_price, quantity, stop_loss, target, pnl, pnl_percent, exit_reason, mode FROM trades WHERE 1=1`
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Mode != "" {
		query += " AND mode = ?"
		args = append(args, string(filter.Mode))
	}
	if filter.Direction != "" {
		query += " AND direction = ?"
		args = append(args, string(filter.Direction))
	}
	if !filter.StartDate.IsZero() {
		query += " AND entry_time >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND entry_time <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY entry_time DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("get_trades", "", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var direction, exitReason, mode string

		if err := rows.Scan(&t.ID, &t.Symbol, &direction, &t.EntryTime, &t.ExitTime,
			&t.EntryPrice, &t.ExitPrice, &t.Quantity, &t.StopLoss, &t.Target,
			&t.PnL, &t.PnLPercent, &exitReason, &mode); err != nil {
			return nil, apperrors.NewStoreError("get_trades", t.ID, err)
		}

		t.Direction = models.Direction(direction)
		t.ExitReason = models.ExitReason(exitReason)
		t.Mode = models.TradingMode(mode)
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// SaveCandles upserts a batch of candles in one transaction.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol, interval string, candles []models.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError("save_candles", "", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, interval, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return apperrors.NewStoreError("save_candles", "", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, interval, c.Timestamp, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return apperrors.NewStoreError("save_candles", "", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStoreError("save_candles", "", err)
	}
	return nil
}

// GetCandles retrieves candles in [from, to], oldest first.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume FROM candles
		WHERE symbol = ? AND interval = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, symbol, interval, from, to)
	if err != nil {
		return nil, apperrors.NewStoreError("get_candles", "", err)
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, apperrors.NewStoreError("get_candles", "", err)
		}
		candles = append(candles, c)
	}

	return candles, rows.Err()
}
