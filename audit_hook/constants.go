package audithook

// Action constants for audit events.
const (
	// Transfer actions
	ActionTransferCompleted = "transfer.completed"
	ActionTransferEscrowed  = "transfer.escrowed"
	ActionBatchTransferred  = "transfer.batch"

	// Vault actions
	ActionDeposited      = "vault.deposited"
	ActionBatchDeposited = "vault.batch_deposited"
	ActionWithdrawn      = "vault.withdrawn"

	// Fee actions
	ActionFeesClaimed  = "fees.claimed"
	ActionShareClaimed = "fees.share_claimed"

	// Admin actions
	ActionFeeRateChanged     = "admin.fee_rate_changed"
	ActionFeeReceiverChanged = "admin.fee_receiver_changed"
)

// Resource constants for audit events.
const (
	ResourceTransfer    = "transfer"
	ResourceEscrow      = "escrow"
	ResourceFeePool     = "fee_pool"
	ResourceDistributor = "distributor"
	ResourceConfig      = "config"
)

// Category constants for audit events.
const (
	CategoryTransfer = "transfer"
	CategoryEscrow   = "escrow"
	CategoryFees     = "fees"
	CategoryAdmin    = "admin"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
