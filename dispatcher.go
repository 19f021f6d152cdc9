package handlepay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/handlepay/asset"
	"github.com/xraph/handlepay/id"
	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/plugin"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/types"
)

// MaxFeeRate is the hard ceiling for the dispatcher fee rate (3%).
const MaxFeeRate types.BasisPoints = 300

// DefaultAddress is the custody account the dispatcher uses when none is
// configured.
const DefaultAddress types.Address = "handlepay:dispatcher"

// Escrow receives funds for handles that cannot yet be paid directly.
// *vault.Vault implements it.
type Escrow interface {
	Deposit(ctx context.Context, from types.Address, handle string, asset types.AssetID, amount uint64) error
	BatchDeposit(ctx context.Context, from types.Address, handles []string, amounts []uint64, asset types.AssetID, total uint64) error
}

// RouteKind tells how a transfer was settled.
type RouteKind string

// Route constants.
const (
	RouteDirect   RouteKind = "direct"   // paid immediately, net of fee
	RouteEscrowed RouteKind = "escrowed" // parked in the vault, fee-free
)

// Receipt records a settled single transfer.
type Receipt struct {
	types.Entity
	ID        id.ID         `json:"id"`
	Sender    types.Address `json:"sender"`
	Handle    string        `json:"handle"`
	Recipient types.Address `json:"recipient,omitempty"` // zero when escrowed
	Asset     types.AssetID `json:"asset"`
	Route     RouteKind     `json:"route"`
	Gross     uint64        `json:"gross"`
	Fee       uint64        `json:"fee"`
	Net       uint64        `json:"net"`
}

// BatchRequest is a pre-split batch transfer. The caller supplies the
// registered/unregistered split; the dispatcher trusts it for routing and
// independently computes the fee on the direct portion only.
type BatchRequest struct {
	UnregisteredHandles []string
	VaultAmounts        []uint64
	RegisteredAddresses []types.Address
	DirectAmounts       []uint64
	Asset               types.AssetID

	// Total is the declared value attached to the batch. It must equal
	// the sum of all vault and direct amounts exactly.
	Total uint64
}

// BatchReceipt records a settled batch transfer.
type BatchReceipt struct {
	types.Entity
	ID            id.ID         `json:"id"`
	Sender        types.Address `json:"sender"`
	Asset         types.AssetID `json:"asset"`
	EscrowedTotal uint64        `json:"escrowed_total"`
	DirectTotal   uint64        `json:"direct_total"`
	Fee           uint64        `json:"fee"`
	Recipients    int           `json:"recipients"`
}

// Dispatcher is the main transfer engine. It resolves recipient handles,
// routes funds to direct payment or escrow, and accumulates its own fee
// pool per asset.
type Dispatcher struct {
	store    store.Store
	registry identity.Registry
	mover    asset.Mover
	escrow   Escrow
	plugins  *plugin.Registry
	logger   *slog.Logger

	// mu is the call-in-progress guard: one state-mutating entry point
	// runs at a time per instance.
	mu sync.Mutex

	// Configuration
	addr        types.Address
	admin       types.Address
	feeRate     types.BasisPoints
	feeReceiver types.Address

	started bool
}

// New creates a new Dispatcher instance.
func New(s store.Store, registry identity.Registry, mover asset.Mover, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:    s,
		registry: registry,
		mover:    mover,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		addr:     DefaultAddress,
		feeRate:  100, // 1% unless configured otherwise
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Option configures a Dispatcher instance.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
		d.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(d *Dispatcher) {
		_ = d.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithEscrow sets the escrow target for unregistered handles.
func WithEscrow(e Escrow) Option {
	return func(d *Dispatcher) {
		d.escrow = e
	}
}

// WithFeeRate sets the fee rate charged on direct transfers.
// Panics if the rate exceeds MaxFeeRate (programming error).
func WithFeeRate(rate types.BasisPoints) Option {
	if rate > MaxFeeRate {
		panic(fmt.Sprintf("handlepay: fee rate %d above ceiling %d", rate, MaxFeeRate))
	}
	return func(d *Dispatcher) {
		d.feeRate = rate
	}
}

// WithFeeReceiver sets the address allowed to claim accumulated fees.
func WithFeeReceiver(receiver types.Address) Option {
	return func(d *Dispatcher) {
		d.feeReceiver = receiver
	}
}

// WithAdmin sets the administrative authority for rate and receiver updates.
func WithAdmin(admin types.Address) Option {
	return func(d *Dispatcher) {
		d.admin = admin
	}
}

// WithAddress sets the dispatcher's custody address.
func WithAddress(addr types.Address) Option {
	return func(d *Dispatcher) {
		d.addr = addr
	}
}

// Address returns the dispatcher's custody address.
func (d *Dispatcher) Address() types.Address { return d.addr }

// FeeRate returns the configured fee rate.
func (d *Dispatcher) FeeRate() types.BasisPoints {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.feeRate
}

// Start migrates the store and initializes plugins. Starting an
// already-started dispatcher is a no-op.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil
	}

	if err := d.store.Migrate(ctx); err != nil {
		return err
	}

	d.plugins.EmitInit(ctx, d)
	d.started = true

	d.logger.Info("dispatcher started",
		"address", d.addr,
		"fee_rate", d.feeRate.Percent(),
	)

	return nil
}

// Stop shuts down the Dispatcher and closes the store. Plugins only see
// a shutdown event if the dispatcher actually started.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		d.plugins.EmitShutdown(context.Background())
		d.started = false
	}

	return d.store.Close()
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

// Transfer moves amount of an asset from sender to the owner of handle.
//
// If the handle resolves to an address, the owner is paid immediately net
// of the dispatcher fee. If it does not, the full amount is parked in the
// escrow vault under the handle, fee-free; the fee is deferred to
// withdrawal time and charged by the vault instead.
func (d *Dispatcher) Transfer(ctx context.Context, sender types.Address, handle string, assetID types.AssetID, amount uint64) (*Receipt, error) {
	if handle == "" {
		return nil, ErrInvalidHandle
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Take custody of the full amount before routing.
	if err := d.mover.Move(ctx, assetID, sender, d.addr, amount); err != nil {
		return nil, fmt.Errorf("%w: take custody: %v", ErrTransferFailed, err)
	}

	owner, err := d.registry.Resolve(ctx, handle)
	if err != nil {
		d.refund(ctx, assetID, sender, amount)
		return nil, fmt.Errorf("handlepay: resolve %q: %w", handle, err)
	}

	rcpt := &Receipt{
		Entity: types.NewEntity(),
		ID:     id.NewTransferID(),
		Sender: sender,
		Handle: handle,
		Asset:  assetID,
		Gross:  amount,
	}

	if owner.IsZero() {
		// Unregistered: park the full amount in the vault, fee-free.
		if d.escrow == nil {
			d.refund(ctx, assetID, sender, amount)
			return nil, ErrNoEscrow
		}
		if err := d.escrow.Deposit(ctx, d.addr, handle, assetID, amount); err != nil {
			d.refund(ctx, assetID, sender, amount)
			return nil, err
		}

		rcpt.Route = RouteEscrowed
		rcpt.Net = amount

		d.logger.Debug("transfer escrowed",
			"handle", handle,
			"asset", assetID,
			"amount", amount,
		)
		d.plugins.EmitEscrowed(ctx, rcpt)
		return rcpt, nil
	}

	fee := d.feeRate.FeeOn(amount)
	net := amount - fee

	// The fee reaches the pool before the payout leaves custody, so a
	// failure on either step leaves no partial state behind.
	if fee > 0 {
		if err := d.store.AccrueFee(ctx, store.PoolDispatcher, assetID, fee); err != nil {
			d.refund(ctx, assetID, sender, amount)
			return nil, err
		}
	}

	if err := d.mover.Move(ctx, assetID, d.addr, owner, net); err != nil {
		d.debitFee(ctx, assetID, fee)
		d.refund(ctx, assetID, sender, amount)
		return nil, fmt.Errorf("%w: pay %s: %v", ErrTransferFailed, owner, err)
	}

	rcpt.Route = RouteDirect
	rcpt.Recipient = owner
	rcpt.Fee = fee
	rcpt.Net = net

	d.logger.Debug("transfer completed",
		"handle", handle,
		"recipient", owner,
		"asset", assetID,
		"net", net,
		"fee", fee,
	)
	d.plugins.EmitTransferCompleted(ctx, rcpt)
	return rcpt, nil
}

// BatchTransfer settles a pre-split batch. The whole batch is
// all-or-nothing: any shape violation or recipient transfer failure
// aborts it with no net state change.
func (d *Dispatcher) BatchTransfer(ctx context.Context, sender types.Address, req BatchRequest) (*BatchReceipt, error) {
	if len(req.UnregisteredHandles) != len(req.VaultAmounts) ||
		len(req.RegisteredAddresses) != len(req.DirectAmounts) {
		return nil, ErrLengthMismatch
	}
	if len(req.UnregisteredHandles)+len(req.RegisteredAddresses) == 0 {
		return nil, ErrEmptyBatch
	}
	for _, addr := range req.RegisteredAddresses {
		if addr.IsZero() {
			return nil, ErrInvalidAddress
		}
	}

	vaultTotal, err := types.SumChecked(req.VaultAmounts)
	if err != nil {
		return nil, fmt.Errorf("%w: vault amounts: %v", ErrInvalidAmount, err)
	}
	directTotal, err := types.SumChecked(req.DirectAmounts)
	if err != nil {
		return nil, fmt.Errorf("%w: direct amounts: %v", ErrInvalidAmount, err)
	}
	total, err := types.AddChecked(vaultTotal, directTotal)
	if err != nil {
		return nil, fmt.Errorf("%w: batch total: %v", ErrInvalidAmount, err)
	}
	if total != req.Total {
		return nil, ErrAmountMismatch
	}
	if len(req.UnregisteredHandles) > 0 && d.escrow == nil {
		return nil, ErrNoEscrow
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.mover.Move(ctx, req.Asset, sender, d.addr, total); err != nil {
		return nil, fmt.Errorf("%w: take custody: %v", ErrTransferFailed, err)
	}

	// Each direct recipient's net is floored independently; the retained
	// remainder is the sum of per-recipient fees, so custody balances
	// exactly. The fee reaches the pool before any payout leaves custody,
	// so a failure on any later step leaves no partial state behind.
	nets := make([]uint64, len(req.DirectAmounts))
	var feeRetained uint64
	for i, gross := range req.DirectAmounts {
		nets[i] = d.feeRate.NetOn(gross)
		feeRetained += gross - nets[i]
	}
	if feeRetained > 0 {
		if err := d.store.AccrueFee(ctx, store.PoolDispatcher, req.Asset, feeRetained); err != nil {
			d.refund(ctx, req.Asset, sender, total)
			return nil, err
		}
	}

	paid := make([]uint64, 0, len(req.RegisteredAddresses))
	for i, recipient := range req.RegisteredAddresses {
		if err := d.mover.Move(ctx, req.Asset, d.addr, recipient, nets[i]); err != nil {
			d.debitFee(ctx, req.Asset, feeRetained)
			d.rollbackBatch(ctx, req, sender, paid, total)
			return nil, fmt.Errorf("%w: pay %s: %v", ErrTransferFailed, recipient, err)
		}
		paid = append(paid, nets[i])
	}

	// Escrowed portion: one atomic deposit, fee-free.
	if len(req.UnregisteredHandles) > 0 {
		if err := d.escrow.BatchDeposit(ctx, d.addr, req.UnregisteredHandles, req.VaultAmounts, req.Asset, vaultTotal); err != nil {
			d.debitFee(ctx, req.Asset, feeRetained)
			d.rollbackBatch(ctx, req, sender, paid, total)
			return nil, err
		}
	}

	rcpt := &BatchReceipt{
		Entity:        types.NewEntity(),
		ID:            id.NewTransferID(),
		Sender:        sender,
		Asset:         req.Asset,
		EscrowedTotal: vaultTotal,
		DirectTotal:   directTotal,
		Fee:           feeRetained,
		Recipients:    len(req.UnregisteredHandles) + len(req.RegisteredAddresses),
	}

	d.logger.Debug("batch transfer completed",
		"asset", req.Asset,
		"direct_total", directTotal,
		"escrowed_total", vaultTotal,
		"fee", feeRetained,
		"recipients", rcpt.Recipients,
	)
	d.plugins.EmitBatchTransferred(ctx, rcpt)
	return rcpt, nil
}

// ──────────────────────────────────────────────────
// Fee pool
// ──────────────────────────────────────────────────

// AccruedFees returns the dispatcher's accumulated fee pool for an asset.
func (d *Dispatcher) AccruedFees(ctx context.Context, assetID types.AssetID) (uint64, error) {
	return d.store.FeeBalance(ctx, store.PoolDispatcher, assetID)
}

// ClaimFees drains the dispatcher's fee pool for an asset and transfers
// it to the caller. Only the configured fee receiver may claim. The pool
// is zeroed before the external transfer; a failed transfer restores it.
func (d *Dispatcher) ClaimFees(ctx context.Context, caller types.Address, assetID types.AssetID) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller.IsZero() || caller != d.feeReceiver {
		return 0, ErrUnauthorized
	}

	amount, err := d.store.DrainFee(ctx, store.PoolDispatcher, assetID)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrNothingToClaim
	}

	if err := d.mover.Move(ctx, assetID, d.addr, caller, amount); err != nil {
		if restoreErr := d.store.RestoreFee(ctx, store.PoolDispatcher, assetID, amount); restoreErr != nil {
			d.logger.Error("failed to restore fee pool after claim failure",
				"asset", assetID,
				"amount", amount,
				"error", restoreErr,
			)
		}
		return 0, fmt.Errorf("%w: claim fees: %v", ErrTransferFailed, err)
	}

	d.plugins.EmitFeesClaimed(ctx, string(store.PoolDispatcher), assetID.String(), amount, caller.String())
	return amount, nil
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// SetFeeRate updates the dispatcher fee rate. Only the admin may call;
// rates above MaxFeeRate are rejected.
func (d *Dispatcher) SetFeeRate(ctx context.Context, caller types.Address, rate types.BasisPoints) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller.IsZero() || caller != d.admin {
		return ErrUnauthorized
	}
	if rate > MaxFeeRate {
		return ErrInvalidRate
	}

	old := d.feeRate
	d.feeRate = rate

	d.logger.Info("dispatcher fee rate changed",
		"old", old.Percent(),
		"new", rate.Percent(),
	)
	d.plugins.EmitFeeRateChanged(ctx, "dispatcher", uint32(old), uint32(rate))
	return nil
}

// SetFeeReceiver updates the address allowed to claim accumulated fees.
func (d *Dispatcher) SetFeeReceiver(ctx context.Context, caller, receiver types.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if caller.IsZero() || caller != d.admin {
		return ErrUnauthorized
	}
	if receiver.IsZero() {
		return ErrInvalidAddress
	}

	old := d.feeReceiver
	d.feeReceiver = receiver

	d.plugins.EmitFeeReceiverChanged(ctx, "dispatcher", old.String(), receiver.String())
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// refund returns custody to the sender after a failed routing step.
// Best-effort: a refund failure is logged, not returned, because the
// primary error already describes the failed operation.
func (d *Dispatcher) refund(ctx context.Context, assetID types.AssetID, sender types.Address, amount uint64) {
	if err := d.mover.Move(ctx, assetID, d.addr, sender, amount); err != nil {
		d.logger.Error("failed to refund sender after aborted transfer",
			"sender", sender,
			"asset", assetID,
			"amount", amount,
			"error", err,
		)
	}
}

// debitFee takes back a fee accrued earlier in the same call after a
// later step failed. Best-effort: a debit failure is logged, not
// returned, because the primary error already describes the failed
// operation.
func (d *Dispatcher) debitFee(ctx context.Context, assetID types.AssetID, fee uint64) {
	if fee == 0 {
		return
	}
	if err := d.store.DebitFee(ctx, store.PoolDispatcher, assetID, fee); err != nil {
		d.logger.Error("failed to debit fee pool after aborted transfer",
			"asset", assetID,
			"amount", fee,
			"error", err,
		)
	}
}

// rollbackBatch reverses already-settled direct payouts and returns
// custody to the sender, restoring the pre-batch state.
func (d *Dispatcher) rollbackBatch(ctx context.Context, req BatchRequest, sender types.Address, paid []uint64, total uint64) {
	for i := len(paid) - 1; i >= 0; i-- {
		if err := d.mover.Move(ctx, req.Asset, req.RegisteredAddresses[i], d.addr, paid[i]); err != nil {
			d.logger.Error("failed to reverse batch payout",
				"recipient", req.RegisteredAddresses[i],
				"asset", req.Asset,
				"amount", paid[i],
				"error", err,
			)
		}
	}
	d.refund(ctx, req.Asset, sender, total)
}
