package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/crypto_signal_trader/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			coin_pair TEXT PRIMARY KEY,
			buy_price REAL NOT NULL,
			quantity REAL NOT NULL,
			bracket_order_id INTEGER NOT NULL,
			signal_data TEXT NOT NULL,
			opened_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS signals (
			coin_pair TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			processed BOOLEAN NOT NULL DEFAULT 0,
			received_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_signals_processed ON signals(processed);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

// Position persistence

func (s *SQLiteStore) UpsertPosition(ctx context.Context, pos *domain.Position) error {
	data, err := json.Marshal(pos.SignalData)
	if err != nil {
		return fmt.Errorf("failed to marshal signal data for %s: %w", pos.CoinPair, err)
	}
	query := `INSERT INTO positions (coin_pair, buy_price, quantity, bracket_order_id, signal_data, opened_at)
			  VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT(coin_pair) DO UPDATE SET
			  buy_price=excluded.buy_price,
			  quantity=excluded.quantity,
			  bracket_order_id=excluded.bracket_order_id,
			  signal_data=excluded.signal_data,
			  opened_at=excluded.opened_at`
	_, err = s.db.ExecContext(ctx, query,
		pos.CoinPair, pos.BuyPrice, pos.Quantity, pos.BracketOrderID, string(data), pos.OpenedAt.UTC())
	return err
}

func (s *SQLiteStore) GetAllOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	query := `SELECT coin_pair, buy_price, quantity, bracket_order_id, signal_data, opened_at FROM positions`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows.Scan)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

func (s *SQLiteStore) GetPosition(ctx context.Context, coinPair string) (*domain.Position, error) {
	query := `SELECT coin_pair, buy_price, quantity, bracket_order_id, signal_data, opened_at FROM positions WHERE coin_pair = ?`
	row := s.db.QueryRowContext(ctx, query, coinPair)

	pos, err := scanPosition(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pos, nil
}

func (s *SQLiteStore) DeletePosition(ctx context.Context, coinPair string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM positions WHERE coin_pair = ?", coinPair)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanPosition(scan func(dest ...any) error) (*domain.Position, error) {
	var pos domain.Position
	var signalData string
	if err := scan(&pos.CoinPair, &pos.BuyPrice, &pos.Quantity, &pos.BracketOrderID, &signalData, &pos.OpenedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(signalData), &pos.SignalData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signal data for %s: %w", pos.CoinPair, err)
	}
	return &pos, nil
}

// Signal persistence

// UpsertSignal stores an ingested signal. Re-ingesting a pair resets its
// processed flag so the next cycle evaluates the new payload.
func (s *SQLiteStore) UpsertSignal(ctx context.Context, sig *domain.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("failed to marshal signal for %s: %w", sig.CoinPair, err)
	}
	query := `INSERT INTO signals (coin_pair, payload, processed, received_at)
			  VALUES (?, ?, 0, ?)
			  ON CONFLICT(coin_pair) DO UPDATE SET
			  payload=excluded.payload,
			  processed=0,
			  received_at=excluded.received_at`
	_, err = s.db.ExecContext(ctx, query, sig.CoinPair, string(payload), time.Now().UTC())
	return err
}

func (s *SQLiteStore) GetSignalByPair(ctx context.Context, coinPair string) (*domain.Signal, error) {
	query := `SELECT payload FROM signals WHERE coin_pair = ?`
	row := s.db.QueryRowContext(ctx, query, coinPair)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sig domain.Signal
	if err := json.Unmarshal([]byte(payload), &sig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal signal for %s: %w", coinPair, err)
	}
	return &sig, nil
}

func (s *SQLiteStore) ListPendingSignals(ctx context.Context) ([]*domain.Signal, error) {
	query := `SELECT payload FROM signals WHERE processed = 0 ORDER BY received_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []*domain.Signal
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sig domain.Signal
		if err := json.Unmarshal([]byte(payload), &sig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pending signal: %w", err)
		}
		signals = append(signals, &sig)
	}
	return signals, rows.Err()
}

func (s *SQLiteStore) MarkSignalProcessed(ctx context.Context, coinPair string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE signals SET processed = 1 WHERE coin_pair = ?", coinPair)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ domain.PositionStore = (*SQLiteStore)(nil)
