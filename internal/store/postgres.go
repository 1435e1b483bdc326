package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const maxSerializationRetries = 3

// PostgresStore keeps the buckets in a single ledger_entries table. Update transactions run
// SERIALIZABLE and lock every row they read, and are retried when Postgres aborts them
// with a serialization failure.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresConnection opens a connection pool and checks it is reachable
func NewPostgresConnection(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewPostgresStore wraps an open pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the ledger table when missing
func (s *PostgresStore) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			bucket     TEXT        NOT NULL,
			key        TEXT        NOT NULL,
			value      BYTEA       NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (bucket, key)
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to migrate ledger_entries: %w", err)
	}
	return nil
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// View runs fn in a read-only transaction
func (s *PostgresStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(&pgTx{ctx: ctx, tx: tx})
}

// Update runs fn in a serializable transaction
func (s *PostgresStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt < maxSerializationRetries; attempt++ {
		err = s.update(ctx, fn)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (s *PostgresStore) update(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&pgTx{ctx: ctx, tx: tx, forUpdate: true}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

type pgTx struct {
	ctx       context.Context
	tx        *sql.Tx
	forUpdate bool
}

func (t *pgTx) Get(bucket, key string) ([]byte, error) {
	query := `SELECT value FROM ledger_entries WHERE bucket = $1 AND key = $2`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}

	var value []byte
	err := t.tx.QueryRowContext(t.ctx, query, bucket, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", bucket, key, err)
	}
	return value, nil
}

func (t *pgTx) Put(bucket, key string, value []byte) error {
	query := `
		INSERT INTO ledger_entries (bucket, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (bucket, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := t.tx.ExecContext(t.ctx, query, bucket, key, value); err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (t *pgTx) Delete(bucket, key string) error {
	query := `DELETE FROM ledger_entries WHERE bucket = $1 AND key = $2`
	if _, err := t.tx.ExecContext(t.ctx, query, bucket, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

// ForEach buffers the rows first: lib/pq cannot run a second statement on the
// connection while a result set is still open.
func (t *pgTx) ForEach(bucket string, fn func(key string, value []byte) error) error {
	query := `SELECT key, value FROM ledger_entries WHERE bucket = $1 ORDER BY key`

	rows, err := t.tx.QueryContext(t.ctx, query, bucket)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", bucket, err)
	}

	type entry struct {
		key   string
		value []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.key, &e.value); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan %s: %w", bucket, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to scan %s: %w", bucket, err)
	}
	rows.Close()

	for _, e := range entries {
		if err := fn(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}
