// Package handlepay provides a username-addressed value-transfer engine for Go applications.
//
// HandlePay is designed as a library, not a service. Import it directly into
// your Go application. Senders address payments to a handle — a username on
// some external platform — instead of an account address. It provides:
//
//   - Handle-routed transfers with automatic direct/escrow routing
//   - An escrow vault that parks funds for handles with no registered owner
//   - Integer-only basis-point fee accounting with hard rate ceilings
//   - Per-asset fee pools with pull-based claiming
//   - A two-stakeholder fee distributor with fixed shares
//   - Pluggable hooks for reconciliation, metrics, and audit trails
//
// # Quick Start
//
// Create a dispatcher with your preferred store:
//
//	import (
//	    "github.com/xraph/handlepay"
//	    "github.com/xraph/handlepay/store/memory"
//	    "github.com/xraph/handlepay/vault"
//	)
//
//	registry := identity.NewStatic()
//	bank := asset.NewBank()
//
//	v := vault.New(memory.New(), registry, bank)
//	d := handlepay.New(memory.New(), registry, bank,
//	    handlepay.WithEscrow(v),
//	    handlepay.WithFeeRate(100), // 1%
//	)
//
//	if err := d.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Stop()
//
// # Core Concepts
//
// A transfer names a handle, not an address. If the identity registry
// resolves the handle to an owner, the owner is paid immediately, net of
// the dispatcher fee. If it does not, the full amount is parked in the
// vault under the handle's key, fee-free:
//
//	receipt, err := d.Transfer(ctx, sender, "alice", types.Native, 1_000_000)
//
// The owner claims escrowed funds once they register. Ownership is checked
// against the registry at withdrawal time, and the vault charges its own
// fee on the way out:
//
//	receipt, err := v.Withdraw(ctx, owner, "alice", types.Native)
//
// Accumulated fees are claimed by the configured fee receiver, typically a
// distributor that splits them between two stakeholders:
//
//	dist, err := distributor.New(bank,
//	    distributor.Stakeholder{Address: treasury, Share: 7000},
//	    distributor.Stakeholder{Address: operator, Share: 3000},
//	    distributor.WithSource(d), distributor.WithSource(v),
//	)
//
// # Arithmetic
//
// All monetary calculations use integer arithmetic. Fees are computed in
// basis points with 128-bit intermediate precision, rounding down, so the
// protocol never overcharges and never overflows silently.
//
// # TypeID
//
// All receipts use TypeID for globally unique, type-safe identifiers:
//
//	xfer_01h2xcejqtf2nbrexx3vqjhp41  // Transfer ID
//	dep_01h2xcejqtf2nbrexx3vqjhp41   // Deposit ID
//	wdr_01h455vb4pex5vsknk084sn02q   // Withdrawal ID
//
// TypeIDs are K-sortable, providing natural time-ordering of receipts.
package handlepay
