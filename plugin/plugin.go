// Package plugin provides an extensible hook system for handlepay.
// Plugins can observe lifecycle events for off-chain reconciliation,
// metrics, and audit trails.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Dispatcher hooks
// ──────────────────────────────────────────────────

// OnTransferCompleted is called when a direct transfer settles.
// The receipt carries sender, handle, gross amount, fee, and net payout.
type OnTransferCompleted interface {
	Plugin
	OnTransferCompleted(ctx context.Context, receipt interface{}) error
}

// OnEscrowed is called when a transfer is routed to the vault because
// the recipient handle is not yet registered.
type OnEscrowed interface {
	Plugin
	OnEscrowed(ctx context.Context, receipt interface{}) error
}

// OnBatchTransferred is called when a pre-split batch settles.
type OnBatchTransferred interface {
	Plugin
	OnBatchTransferred(ctx context.Context, receipt interface{}) error
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposited is called when a vault deposit is credited.
type OnDeposited interface {
	Plugin
	OnDeposited(ctx context.Context, receipt interface{}) error
}

// OnBatchDeposited is called when a batch deposit is credited.
type OnBatchDeposited interface {
	Plugin
	OnBatchDeposited(ctx context.Context, receipt interface{}) error
}

// OnWithdrawn is called when a vault withdrawal settles.
type OnWithdrawn interface {
	Plugin
	OnWithdrawn(ctx context.Context, receipt interface{}) error
}

// ──────────────────────────────────────────────────
// Fee hooks
// ──────────────────────────────────────────────────

// OnFeesClaimed is called when an accumulated fee pool is claimed.
type OnFeesClaimed interface {
	Plugin
	OnFeesClaimed(ctx context.Context, pool, asset string, amount uint64, to string) error
}

// OnShareClaimed is called when a stakeholder claims their share of
// distributed fees.
type OnShareClaimed interface {
	Plugin
	OnShareClaimed(ctx context.Context, receipt interface{}) error
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnFeeRateChanged is called when a component's fee rate is updated.
type OnFeeRateChanged interface {
	Plugin
	OnFeeRateChanged(ctx context.Context, component string, oldRate, newRate uint32) error
}

// OnFeeReceiverChanged is called when a component's fee receiver is updated.
type OnFeeReceiverChanged interface {
	Plugin
	OnFeeReceiverChanged(ctx context.Context, component, oldReceiver, newReceiver string) error
}
