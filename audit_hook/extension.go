// Package audithook bridges HandlePay lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	handlepay "github.com/xraph/handlepay"
	"github.com/xraph/handlepay/distributor"
	"github.com/xraph/handlepay/plugin"
	"github.com/xraph/handlepay/vault"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnTransferCompleted  = (*Extension)(nil)
	_ plugin.OnEscrowed           = (*Extension)(nil)
	_ plugin.OnBatchTransferred   = (*Extension)(nil)
	_ plugin.OnDeposited          = (*Extension)(nil)
	_ plugin.OnBatchDeposited     = (*Extension)(nil)
	_ plugin.OnWithdrawn          = (*Extension)(nil)
	_ plugin.OnFeesClaimed        = (*Extension)(nil)
	_ plugin.OnShareClaimed       = (*Extension)(nil)
	_ plugin.OnFeeRateChanged     = (*Extension)(nil)
	_ plugin.OnFeeReceiverChanged = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges HandlePay lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Dispatcher hooks
// ──────────────────────────────────────────────────

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (e *Extension) OnTransferCompleted(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*handlepay.Receipt)
	if !ok {
		return e.record(ctx, ActionTransferCompleted, SeverityInfo, OutcomeSuccess,
			ResourceTransfer, "", CategoryTransfer, nil,
			"event", "transfer_completed",
		)
	}
	return e.record(ctx, ActionTransferCompleted, SeverityInfo, OutcomeSuccess,
		ResourceTransfer, r.ID.String(), CategoryTransfer, nil,
		"handle", r.Handle,
		"recipient", r.Recipient.String(),
		"asset", r.Asset.String(),
		"gross", r.Gross,
		"fee", r.Fee,
		"net", r.Net,
	)
}

// OnEscrowed implements plugin.OnEscrowed.
func (e *Extension) OnEscrowed(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*handlepay.Receipt)
	if !ok {
		return e.record(ctx, ActionTransferEscrowed, SeverityInfo, OutcomeSuccess,
			ResourceEscrow, "", CategoryEscrow, nil,
			"event", "transfer_escrowed",
		)
	}
	return e.record(ctx, ActionTransferEscrowed, SeverityInfo, OutcomeSuccess,
		ResourceEscrow, r.ID.String(), CategoryEscrow, nil,
		"handle", r.Handle,
		"asset", r.Asset.String(),
		"amount", r.Gross,
	)
}

// OnBatchTransferred implements plugin.OnBatchTransferred.
func (e *Extension) OnBatchTransferred(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*handlepay.BatchReceipt)
	if !ok {
		return e.record(ctx, ActionBatchTransferred, SeverityInfo, OutcomeSuccess,
			ResourceTransfer, "", CategoryTransfer, nil,
			"event", "batch_transferred",
		)
	}
	return e.record(ctx, ActionBatchTransferred, SeverityInfo, OutcomeSuccess,
		ResourceTransfer, r.ID.String(), CategoryTransfer, nil,
		"asset", r.Asset.String(),
		"direct_total", r.DirectTotal,
		"escrowed_total", r.EscrowedTotal,
		"fee", r.Fee,
		"recipients", r.Recipients,
	)
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposited implements plugin.OnDeposited.
func (e *Extension) OnDeposited(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*vault.DepositReceipt)
	if !ok {
		return e.record(ctx, ActionDeposited, SeverityInfo, OutcomeSuccess,
			ResourceEscrow, "", CategoryEscrow, nil,
			"event", "deposited",
		)
	}
	return e.record(ctx, ActionDeposited, SeverityInfo, OutcomeSuccess,
		ResourceEscrow, r.ID.String(), CategoryEscrow, nil,
		"handle", r.Handle,
		"asset", r.Asset.String(),
		"amount", r.Amount,
	)
}

// OnBatchDeposited implements plugin.OnBatchDeposited.
func (e *Extension) OnBatchDeposited(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*vault.BatchDepositReceipt)
	if !ok {
		return e.record(ctx, ActionBatchDeposited, SeverityInfo, OutcomeSuccess,
			ResourceEscrow, "", CategoryEscrow, nil,
			"event", "batch_deposited",
		)
	}
	return e.record(ctx, ActionBatchDeposited, SeverityInfo, OutcomeSuccess,
		ResourceEscrow, r.ID.String(), CategoryEscrow, nil,
		"asset", r.Asset.String(),
		"total", r.Total,
		"handles", r.Handles,
	)
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (e *Extension) OnWithdrawn(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*vault.WithdrawalReceipt)
	if !ok {
		return e.record(ctx, ActionWithdrawn, SeverityInfo, OutcomeSuccess,
			ResourceEscrow, "", CategoryEscrow, nil,
			"event", "withdrawn",
		)
	}
	return e.record(ctx, ActionWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceEscrow, r.ID.String(), CategoryEscrow, nil,
		"handle", r.Handle,
		"owner", r.Owner.String(),
		"asset", r.Asset.String(),
		"gross", r.Gross,
		"fee", r.Fee,
		"net", r.Net,
	)
}

// ──────────────────────────────────────────────────
// Fee hooks
// ──────────────────────────────────────────────────

// OnFeesClaimed implements plugin.OnFeesClaimed.
func (e *Extension) OnFeesClaimed(ctx context.Context, pool, asset string, amount uint64, to string) error {
	return e.record(ctx, ActionFeesClaimed, SeverityInfo, OutcomeSuccess,
		ResourceFeePool, pool, CategoryFees, nil,
		"pool", pool,
		"asset", asset,
		"amount", amount,
		"to", to,
	)
}

// OnShareClaimed implements plugin.OnShareClaimed.
func (e *Extension) OnShareClaimed(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*distributor.ShareClaimReceipt)
	if !ok {
		return e.record(ctx, ActionShareClaimed, SeverityInfo, OutcomeSuccess,
			ResourceDistributor, "", CategoryFees, nil,
			"event", "share_claimed",
		)
	}
	return e.record(ctx, ActionShareClaimed, SeverityInfo, OutcomeSuccess,
		ResourceDistributor, r.ID.String(), CategoryFees, nil,
		"stakeholder", r.Stakeholder.String(),
		"asset", r.Asset.String(),
		"amount", r.Amount,
		"share", uint32(r.Share),
	)
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnFeeRateChanged implements plugin.OnFeeRateChanged.
func (e *Extension) OnFeeRateChanged(ctx context.Context, component string, oldRate, newRate uint32) error {
	return e.record(ctx, ActionFeeRateChanged, SeverityWarning, OutcomeSuccess,
		ResourceConfig, component, CategoryAdmin, nil,
		"component", component,
		"old_rate", oldRate,
		"new_rate", newRate,
	)
}

// OnFeeReceiverChanged implements plugin.OnFeeReceiverChanged.
func (e *Extension) OnFeeReceiverChanged(ctx context.Context, component, oldReceiver, newReceiver string) error {
	return e.record(ctx, ActionFeeReceiverChanged, SeverityWarning, OutcomeSuccess,
		ResourceConfig, component, CategoryAdmin, nil,
		"component", component,
		"old_receiver", oldReceiver,
		"new_receiver", newReceiver,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
