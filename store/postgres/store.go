// Package postgres provides a PostgreSQL-backed Store using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on PostgreSQL. Amounts are stored as
// BIGINT, so individual entries must stay below 2^63.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying connection pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("handlepay/postgres: migration failed: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Balances ====================

const creditQuery = `
INSERT INTO handlepay_balances (key, asset, amount, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (key, asset)
DO UPDATE SET amount = handlepay_balances.amount + EXCLUDED.amount, updated_at = now()`

func (s *Store) Credit(ctx context.Context, key identity.Key, asset types.AssetID, amount uint64) error {
	if _, err := s.pool.Exec(ctx, creditQuery, key.String(), string(asset), int64(amount)); err != nil {
		return fmt.Errorf("handlepay/postgres: credit %s: %w", asset, err)
	}
	return nil
}

func (s *Store) CreditBatch(ctx context.Context, credits []store.Credit) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("handlepay/postgres: credit batch: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, c := range credits {
		if _, err := tx.Exec(ctx, creditQuery, c.Key.String(), string(c.Asset), int64(c.Amount)); err != nil {
			return fmt.Errorf("handlepay/postgres: credit batch entry %s: %w", c.Asset, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("handlepay/postgres: credit batch commit: %w", err)
	}
	return nil
}

func (s *Store) Balance(ctx context.Context, key identity.Key, asset types.AssetID) (uint64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx,
		`SELECT amount FROM handlepay_balances WHERE key = $1 AND asset = $2`,
		key.String(), string(asset),
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("handlepay/postgres: balance %s: %w", asset, err)
	}
	return uint64(amount), nil
}

// drainBalanceQuery zeroes an entry and returns its prior amount in one
// statement, so concurrent drains cannot both observe the same balance.
const drainBalanceQuery = `
UPDATE handlepay_balances b
SET amount = 0, updated_at = now()
FROM (
	SELECT key, asset, amount FROM handlepay_balances
	WHERE key = $1 AND asset = $2 FOR UPDATE
) prior
WHERE b.key = prior.key AND b.asset = prior.asset
RETURNING prior.amount`

func (s *Store) Drain(ctx context.Context, key identity.Key, asset types.AssetID) (uint64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx, drainBalanceQuery, key.String(), string(asset)).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("handlepay/postgres: drain %s: %w", asset, err)
	}
	return uint64(amount), nil
}

func (s *Store) Restore(ctx context.Context, key identity.Key, asset types.AssetID, amount uint64) error {
	if _, err := s.pool.Exec(ctx, creditQuery, key.String(), string(asset), int64(amount)); err != nil {
		return fmt.Errorf("handlepay/postgres: restore %s: %w", asset, err)
	}
	return nil
}

// ==================== Fee pools ====================

const accrueFeeQuery = `
INSERT INTO handlepay_fee_pools (pool, asset, amount, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (pool, asset)
DO UPDATE SET amount = handlepay_fee_pools.amount + EXCLUDED.amount, updated_at = now()`

func (s *Store) AccrueFee(ctx context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	if _, err := s.pool.Exec(ctx, accrueFeeQuery, string(pool), string(asset), int64(amount)); err != nil {
		return fmt.Errorf("handlepay/postgres: accrue fee %s/%s: %w", pool, asset, err)
	}
	return nil
}

// debitFeeQuery only matches when the pool covers the amount, so a debit
// can never drive a pool negative.
const debitFeeQuery = `
UPDATE handlepay_fee_pools
SET amount = amount - $3, updated_at = now()
WHERE pool = $1 AND asset = $2 AND amount >= $3`

func (s *Store) DebitFee(ctx context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	tag, err := s.pool.Exec(ctx, debitFeeQuery, string(pool), string(asset), int64(amount))
	if err != nil {
		return fmt.Errorf("handlepay/postgres: debit fee %s/%s: %w", pool, asset, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("handlepay/postgres: debit fee %s/%s: pool holds less than %d", pool, asset, amount)
	}
	return nil
}

func (s *Store) FeeBalance(ctx context.Context, pool store.FeePool, asset types.AssetID) (uint64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx,
		`SELECT amount FROM handlepay_fee_pools WHERE pool = $1 AND asset = $2`,
		string(pool), string(asset),
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("handlepay/postgres: fee balance %s/%s: %w", pool, asset, err)
	}
	return uint64(amount), nil
}

const drainFeeQuery = `
UPDATE handlepay_fee_pools f
SET amount = 0, updated_at = now()
FROM (
	SELECT pool, asset, amount FROM handlepay_fee_pools
	WHERE pool = $1 AND asset = $2 FOR UPDATE
) prior
WHERE f.pool = prior.pool AND f.asset = prior.asset
RETURNING prior.amount`

func (s *Store) DrainFee(ctx context.Context, pool store.FeePool, asset types.AssetID) (uint64, error) {
	var amount int64
	err := s.pool.QueryRow(ctx, drainFeeQuery, string(pool), string(asset)).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("handlepay/postgres: drain fee %s/%s: %w", pool, asset, err)
	}
	return uint64(amount), nil
}

func (s *Store) RestoreFee(ctx context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	if _, err := s.pool.Exec(ctx, accrueFeeQuery, string(pool), string(asset), int64(amount)); err != nil {
		return fmt.Errorf("handlepay/postgres: restore fee %s/%s: %w", pool, asset, err)
	}
	return nil
}
