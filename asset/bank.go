package asset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/handlepay/types"
)

// ErrInsufficientFunds is returned by Bank when the source account cannot
// cover the requested move.
var ErrInsufficientFunds = errors.New("asset: insufficient funds")

// Bank is an in-memory Mover for tests and single-process wiring.
// It tracks per-address, per-asset balances and supports failure
// injection for exercising transfer-failure paths.
type Bank struct {
	mu       sync.Mutex
	balances map[types.AssetID]map[types.Address]uint64
	blocked  map[types.Address]bool
}

// compile-time interface check
var _ Mover = (*Bank)(nil)

// NewBank creates an empty Bank.
func NewBank() *Bank {
	return &Bank{
		balances: make(map[types.AssetID]map[types.Address]uint64),
		blocked:  make(map[types.Address]bool),
	}
}

// Move implements Mover. It debits from and credits to atomically,
// failing without side effects when funds are short or the recipient
// is blocked.
func (b *Bank) Move(_ context.Context, asset types.AssetID, from, to types.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.blocked[to] {
		return fmt.Errorf("asset: recipient %s rejects transfers", to)
	}

	accounts := b.balances[asset]
	if accounts == nil || accounts[from] < amount {
		return fmt.Errorf("asset: move %d of %s from %s: %w", amount, asset, from, ErrInsufficientFunds)
	}

	accounts[from] -= amount
	accounts[to] += amount
	return nil
}

// Mint credits amount to an address out of thin air. Test setup helper.
func (b *Bank) Mint(asset types.AssetID, to types.Address, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	accounts := b.balances[asset]
	if accounts == nil {
		accounts = make(map[types.Address]uint64)
		b.balances[asset] = accounts
	}
	accounts[to] += amount
}

// BalanceOf returns the tracked balance for an address.
func (b *Bank) BalanceOf(asset types.AssetID, addr types.Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.balances[asset][addr]
}

// Block makes every future move to addr fail. Simulates a recipient
// that rejects value transfers.
func (b *Bank) Block(addr types.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.blocked[addr] = true
}

// Unblock re-enables moves to addr.
func (b *Bank) Unblock(addr types.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.blocked, addr)
}
