// Package identity models the external identity registry as an injected
// read-only capability.
//
// The registry maps human-readable handles to owning addresses. handlepay
// never caches resolution results across calls and never writes registry
// state — registration itself lives outside this module.
package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/xraph/handlepay/types"
)

// Registry resolves a handle to its owning address.
// A zero address means the handle is not registered.
type Registry interface {
	Resolve(ctx context.Context, handle string) (types.Address, error)
}

// Key is the fixed-width ledger key derived from a handle.
// Balance entries are indexed by key rather than by the variable-length
// handle string itself.
type Key [32]byte

// KeyOf derives the ledger key for a handle.
func KeyOf(handle string) Key {
	return sha256.Sum256([]byte(handle))
}

// String returns the hex encoding of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}
