package handlepay

import "github.com/xraph/handlepay/types"

// Re-export common types for convenience so users don't have to import types package.

// AssetID is re-exported from types package.
type AssetID = types.AssetID

// Address is re-exported from types package.
type Address = types.Address

// BasisPoints is re-exported from types package.
type BasisPoints = types.BasisPoints

// Entity is re-exported from types package.
type Entity = types.Entity

// Native is the reserved native-asset identifier.
const Native = types.Native

// Re-export checked arithmetic helpers
var (
	AddChecked = types.AddChecked
	SumChecked = types.SumChecked
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
