// Package store persists klines in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickchart/tickchart/internal/market"
	"github.com/tickchart/tickchart/internal/platform/db"
)

// Schema creates the kline table when missing.
const Schema = `CREATE TABLE IF NOT EXISTS klines (
	symbol     TEXT             NOT NULL,
	timeframe  TEXT             NOT NULL,
	open_time  BIGINT           NOT NULL,
	open       DOUBLE PRECISION NOT NULL,
	high       DOUBLE PRECISION NOT NULL,
	low        DOUBLE PRECISION NOT NULL,
	close      DOUBLE PRECISION NOT NULL,
	volume     DOUBLE PRECISION NOT NULL,
	adj_close  DOUBLE PRECISION,
	PRIMARY KEY (symbol, timeframe, open_time)
)`

const upsertKline = `INSERT INTO klines (symbol, timeframe, open_time, open, high, low, close, volume, adj_close)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (symbol, timeframe, open_time) DO UPDATE SET
	open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
	close = EXCLUDED.close, volume = EXCLUDED.volume, adj_close = EXCLUDED.adj_close`

const selectRange = `SELECT open_time, open, high, low, close, volume, adj_close FROM (
	SELECT open_time, open, high, low, close, volume, adj_close FROM klines
	WHERE symbol = $1 AND timeframe = $2 AND open_time >= $3 AND open_time <= $4
	ORDER BY open_time DESC
	LIMIT $5
) recent ORDER BY open_time ASC`

const selectSeries = `SELECT DISTINCT symbol, timeframe FROM klines ORDER BY symbol, timeframe`

// DefaultLimit caps the number of klines returned by Range.
const DefaultLimit = 1000

// Series identifies a stored symbol/timeframe pair.
type Series struct {
	Symbol    string
	Timeframe market.Timeframe
}

// RangeQuery filters klines for a series. Zero bounds are open-ended.
type RangeQuery struct {
	Symbol    string
	Timeframe market.Timeframe
	From      time.Time
	To        time.Time
	Limit     int
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store reads and writes klines.
type Store struct {
	db dbtx
	tx db.TxStarter
}

// New constructs a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool, tx: pool}
}

// Migrate applies the kline schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Upsert writes klines for a series in one transaction and returns the
// number of rows written.
func (s *Store) Upsert(ctx context.Context, symbol string, tf market.Timeframe, klines []market.Kline) (int, error) {
	if symbol == "" {
		return 0, errors.New("store: symbol required")
	}
	if len(klines) == 0 {
		return 0, nil
	}
	if s.tx == nil {
		return 0, errors.New("store: pool not configured")
	}
	err := db.WithTx(ctx, s.tx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, k := range klines {
			batch.Queue(upsertKline, symbol, tf.String(), k.Time, k.Open, k.High, k.Low, k.Close, k.Volume, k.AdjClose)
		}
		results := tx.SendBatch(ctx, batch)
		for range klines {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("store: upsert kline: %w", err)
			}
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return len(klines), nil
}

// Range returns the most recent klines of a series within the query bounds,
// in chronological order.
func (s *Store) Range(ctx context.Context, q RangeQuery) ([]market.Kline, error) {
	from := int64(0)
	if !q.From.IsZero() {
		from = q.From.Unix()
	}
	to := int64(1<<63 - 1)
	if !q.To.IsZero() {
		to = q.To.Unix()
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.Query(ctx, selectRange, q.Symbol, q.Timeframe.String(), from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query klines: %w", err)
	}
	defer rows.Close()

	klines := make([]market.Kline, 0)
	for rows.Next() {
		var k market.Kline
		if err := rows.Scan(&k.Time, &k.Open, &k.High, &k.Low, &k.Close, &k.Volume, &k.AdjClose); err != nil {
			return nil, fmt.Errorf("store: scan kline: %w", err)
		}
		klines = append(klines, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate klines: %w", err)
	}
	return klines, nil
}

// ListSeries returns every stored symbol/timeframe pair.
func (s *Store) ListSeries(ctx context.Context) ([]Series, error) {
	rows, err := s.db.Query(ctx, selectSeries)
	if err != nil {
		return nil, fmt.Errorf("store: query series: %w", err)
	}
	defer rows.Close()

	out := make([]Series, 0)
	for rows.Next() {
		var symbol, tfName string
		if err := rows.Scan(&symbol, &tfName); err != nil {
			return nil, fmt.Errorf("store: scan series: %w", err)
		}
		tf, err := market.ParseTimeframe(tfName)
		if err != nil {
			continue
		}
		out = append(out, Series{Symbol: symbol, Timeframe: tf})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate series: %w", err)
	}
	return out, nil
}
