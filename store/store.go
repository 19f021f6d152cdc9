// Package store defines the unified persistence interface for handlepay
// balances and fee accumulators.
package store

import (
	"context"

	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/types"
)

// FeePool distinguishes the independent fee accumulators. Direct-transfer
// fees accrue in the dispatcher pool; escrow-withdrawal fees accrue in the
// vault pool. The two have independent lifecycles.
type FeePool string

// Fee pool constants.
const (
	PoolDispatcher FeePool = "dispatcher"
	PoolVault      FeePool = "vault"
)

// Credit is a single balance credit within a batch.
type Credit struct {
	Key    identity.Key
	Asset  types.AssetID
	Amount uint64
}

// Store is the unified storage interface for handlepay state.
//
// Balance entries are keyed by (identity key, asset). Entries are created
// implicitly on first credit and zeroed — never deleted — on drain; zero
// is the canonical empty state. Drain reads and zeroes an entry in one
// atomic step so that the caller can apply the checks-effects-interactions
// discipline: state reaches its final value before any external transfer.
// Restore re-credits a drained entry when the external transfer fails.
//
// Fee pools follow the same discipline in both directions: AccrueFee adds
// a fee before the matching payout leaves custody, and DebitFee takes it
// back when that payout fails. DebitFee must reject amounts larger than
// the pool rather than drive it negative.
type Store interface {
	// Balance methods
	Credit(ctx context.Context, key identity.Key, asset types.AssetID, amount uint64) error
	CreditBatch(ctx context.Context, credits []Credit) error
	Balance(ctx context.Context, key identity.Key, asset types.AssetID) (uint64, error)
	Drain(ctx context.Context, key identity.Key, asset types.AssetID) (uint64, error)
	Restore(ctx context.Context, key identity.Key, asset types.AssetID, amount uint64) error

	// Fee pool methods
	AccrueFee(ctx context.Context, pool FeePool, asset types.AssetID, amount uint64) error
	DebitFee(ctx context.Context, pool FeePool, asset types.AssetID, amount uint64) error
	FeeBalance(ctx context.Context, pool FeePool, asset types.AssetID) (uint64, error)
	DrainFee(ctx context.Context, pool FeePool, asset types.AssetID) (uint64, error)
	RestoreFee(ctx context.Context, pool FeePool, asset types.AssetID, amount uint64) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
