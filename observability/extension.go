// Package observability provides a metrics plugin for HandlePay that
// records lifecycle event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/handlepay/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnTransferCompleted  = (*MetricsExtension)(nil)
	_ plugin.OnEscrowed           = (*MetricsExtension)(nil)
	_ plugin.OnBatchTransferred   = (*MetricsExtension)(nil)
	_ plugin.OnDeposited          = (*MetricsExtension)(nil)
	_ plugin.OnBatchDeposited     = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawn          = (*MetricsExtension)(nil)
	_ plugin.OnFeesClaimed        = (*MetricsExtension)(nil)
	_ plugin.OnShareClaimed       = (*MetricsExtension)(nil)
	_ plugin.OnFeeRateChanged     = (*MetricsExtension)(nil)
	_ plugin.OnFeeReceiverChanged = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a HandlePay plugin to automatically track transfer metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Transfer metrics
	TransfersDirect   Counter
	TransfersEscrowed Counter
	BatchTransfers    Counter

	// Vault metrics
	Deposits      Counter
	BatchDeposits Counter
	Withdrawals   Counter

	// Fee metrics
	FeeClaims      Counter
	FeeClaimAmount Histogram
	ShareClaims    Counter

	// Admin metrics
	FeeRateChanges     Counter
	FeeReceiverChanges Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Transfer metrics
		TransfersDirect:   factory.Counter("handlepay.transfer.direct"),
		TransfersEscrowed: factory.Counter("handlepay.transfer.escrowed"),
		BatchTransfers:    factory.Counter("handlepay.transfer.batch"),

		// Vault metrics
		Deposits:      factory.Counter("handlepay.vault.deposits"),
		BatchDeposits: factory.Counter("handlepay.vault.batch_deposits"),
		Withdrawals:   factory.Counter("handlepay.vault.withdrawals"),

		// Fee metrics
		FeeClaims:      factory.Counter("handlepay.fees.claims"),
		FeeClaimAmount: factory.Histogram("handlepay.fees.claim_amount"),
		ShareClaims:    factory.Counter("handlepay.fees.share_claims"),

		// Admin metrics
		FeeRateChanges:     factory.Counter("handlepay.admin.fee_rate_changes"),
		FeeReceiverChanges: factory.Counter("handlepay.admin.fee_receiver_changes"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Dispatcher hooks
// ──────────────────────────────────────────────────

// OnTransferCompleted implements plugin.OnTransferCompleted.
func (m *MetricsExtension) OnTransferCompleted(_ context.Context, _ interface{}) error {
	m.TransfersDirect.Inc()
	return nil
}

// OnEscrowed implements plugin.OnEscrowed.
func (m *MetricsExtension) OnEscrowed(_ context.Context, _ interface{}) error {
	m.TransfersEscrowed.Inc()
	return nil
}

// OnBatchTransferred implements plugin.OnBatchTransferred.
func (m *MetricsExtension) OnBatchTransferred(_ context.Context, _ interface{}) error {
	m.BatchTransfers.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposited implements plugin.OnDeposited.
func (m *MetricsExtension) OnDeposited(_ context.Context, _ interface{}) error {
	m.Deposits.Inc()
	return nil
}

// OnBatchDeposited implements plugin.OnBatchDeposited.
func (m *MetricsExtension) OnBatchDeposited(_ context.Context, _ interface{}) error {
	m.BatchDeposits.Inc()
	return nil
}

// OnWithdrawn implements plugin.OnWithdrawn.
func (m *MetricsExtension) OnWithdrawn(_ context.Context, _ interface{}) error {
	m.Withdrawals.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Fee hooks
// ──────────────────────────────────────────────────

// OnFeesClaimed implements plugin.OnFeesClaimed.
func (m *MetricsExtension) OnFeesClaimed(_ context.Context, _, _ string, amount uint64, _ string) error {
	m.FeeClaims.Inc()
	m.FeeClaimAmount.Observe(float64(amount))
	return nil
}

// OnShareClaimed implements plugin.OnShareClaimed.
func (m *MetricsExtension) OnShareClaimed(_ context.Context, _ interface{}) error {
	m.ShareClaims.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Administrative hooks
// ──────────────────────────────────────────────────

// OnFeeRateChanged implements plugin.OnFeeRateChanged.
func (m *MetricsExtension) OnFeeRateChanged(_ context.Context, _ string, _, _ uint32) error {
	m.FeeRateChanges.Inc()
	return nil
}

// OnFeeReceiverChanged implements plugin.OnFeeReceiverChanged.
func (m *MetricsExtension) OnFeeReceiverChanged(_ context.Context, _, _, _ string) error {
	m.FeeReceiverChanges.Inc()
	return nil
}
