// Package types provides common types used across handlepay.
package types

// AssetID identifies a fungible asset tracked by the engine.
//
// The native coin is modeled as the reserved zero value so that a single
// balance keyspace covers both the coin and every tracked token:
//
//   - Native       = the chain's native coin
//   - AssetID("0x6b17...") = an ERC-20 style token contract address
type AssetID string

// Native is the reserved AssetID for the native coin.
const Native AssetID = ""

// IsNative reports whether the asset is the native coin.
func (a AssetID) IsNative() bool { return a == Native }

// String returns a human-readable asset label.
func (a AssetID) String() string {
	if a == Native {
		return "native"
	}
	return string(a)
}

// Address is an account address in the external asset system.
type Address string

// ZeroAddress is the null address. It is never a valid recipient.
const ZeroAddress Address = ""

// IsZero reports whether the address is the null address.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String returns the address as a string.
func (a Address) String() string { return string(a) }
