// Package asset models the asset-transfer primitive as an injected
// capability.
//
// handlepay components never touch token or coin mechanics directly; they
// ask a Mover to move N units of an asset from one address to another and
// act on the reported success or failure. Implementations are expected to
// provide safe-transfer semantics for token moves (treat a non-standard
// return value as failure).
package asset

import (
	"context"

	"github.com/xraph/handlepay/types"
)

// Mover moves units of an asset between addresses.
//
// A nil error means the full amount moved; any error means nothing moved.
// Partial moves are not part of the contract.
type Mover interface {
	Move(ctx context.Context, asset types.AssetID, from, to types.Address, amount uint64) error
}

// MoverFunc is an adapter to use a plain function as a Mover.
type MoverFunc func(ctx context.Context, asset types.AssetID, from, to types.Address, amount uint64) error

// Move implements Mover.
func (f MoverFunc) Move(ctx context.Context, asset types.AssetID, from, to types.Address, amount uint64) error {
	return f(ctx, asset, from, to, amount)
}
