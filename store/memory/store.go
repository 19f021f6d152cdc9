// Package memory provides an in-memory Store for tests and
// single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/types"
)

type balanceKey struct {
	key   identity.Key
	asset types.AssetID
}

type feeKey struct {
	pool  store.FeePool
	asset types.AssetID
}

// Store implements store.Store with mutex-guarded maps.
// Entries are zeroed, never deleted; zero is the canonical empty state.
type Store struct {
	mu sync.RWMutex

	balances map[balanceKey]uint64
	fees     map[feeKey]uint64
}

// compile-time interface check
var _ store.Store = (*Store)(nil)

// New creates an empty memory store.
func New() *Store {
	return &Store{
		balances: make(map[balanceKey]uint64),
		fees:     make(map[feeKey]uint64),
	}
}

// Balance Store implementation

func (s *Store) Credit(_ context.Context, key identity.Key, asset types.AssetID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.credit(key, asset, amount)
}

func (s *Store) CreditBatch(_ context.Context, credits []store.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate every credit before applying any, so a batch is all-or-nothing.
	for _, c := range credits {
		k := balanceKey{c.Key, c.Asset}
		if _, err := types.AddChecked(s.balances[k], c.Amount); err != nil {
			return fmt.Errorf("handlepay/memory: credit batch entry %s: %w", c.Asset, err)
		}
	}
	for _, c := range credits {
		if err := s.credit(c.Key, c.Asset, c.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Balance(_ context.Context, key identity.Key, asset types.AssetID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.balances[balanceKey{key, asset}], nil
}

func (s *Store) Drain(_ context.Context, key identity.Key, asset types.AssetID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := balanceKey{key, asset}
	amount := s.balances[k]
	s.balances[k] = 0
	return amount, nil
}

func (s *Store) Restore(_ context.Context, key identity.Key, asset types.AssetID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.credit(key, asset, amount)
}

// Fee pool Store implementation

func (s *Store) AccrueFee(_ context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := feeKey{pool, asset}
	total, err := types.AddChecked(s.fees[k], amount)
	if err != nil {
		return fmt.Errorf("handlepay/memory: accrue fee %s/%s: %w", pool, asset, err)
	}
	s.fees[k] = total
	return nil
}

func (s *Store) DebitFee(_ context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := feeKey{pool, asset}
	if s.fees[k] < amount {
		return fmt.Errorf("handlepay/memory: debit fee %s/%s: pool holds %d, need %d", pool, asset, s.fees[k], amount)
	}
	s.fees[k] -= amount
	return nil
}

func (s *Store) FeeBalance(_ context.Context, pool store.FeePool, asset types.AssetID) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.fees[feeKey{pool, asset}], nil
}

func (s *Store) DrainFee(_ context.Context, pool store.FeePool, asset types.AssetID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := feeKey{pool, asset}
	amount := s.fees[k]
	s.fees[k] = 0
	return amount, nil
}

func (s *Store) RestoreFee(_ context.Context, pool store.FeePool, asset types.AssetID, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := feeKey{pool, asset}
	total, err := types.AddChecked(s.fees[k], amount)
	if err != nil {
		return fmt.Errorf("handlepay/memory: restore fee %s/%s: %w", pool, asset, err)
	}
	s.fees[k] = total
	return nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// credit adds amount to a balance entry. Caller holds the write lock.
func (s *Store) credit(key identity.Key, asset types.AssetID, amount uint64) error {
	k := balanceKey{key, asset}
	total, err := types.AddChecked(s.balances[k], amount)
	if err != nil {
		return fmt.Errorf("handlepay/memory: credit %s: %w", asset, err)
	}
	s.balances[k] = total
	return nil
}
