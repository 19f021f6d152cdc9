// Package vault holds escrowed funds for handles that have no resolvable
// owner yet. Balances are keyed by the hash of the handle, so funds can be
// parked before the recipient ever registers; the owner claims them later
// by proving control of the handle through the identity registry.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	handlepay "github.com/xraph/handlepay"
	"github.com/xraph/handlepay/asset"
	"github.com/xraph/handlepay/id"
	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/plugin"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/types"
)

// MaxWithdrawFeeRate is the hard ceiling for the withdrawal fee (10%).
const MaxWithdrawFeeRate types.BasisPoints = 1000

// DefaultAddress is the custody account the vault uses when none is
// configured.
const DefaultAddress types.Address = "handlepay:vault"

// DepositReceipt records a credited deposit.
type DepositReceipt struct {
	types.Entity
	ID     id.ID         `json:"id"`
	From   types.Address `json:"from"`
	Handle string        `json:"handle"`
	Asset  types.AssetID `json:"asset"`
	Amount uint64        `json:"amount"`
}

// BatchDepositReceipt records a credited batch deposit.
type BatchDepositReceipt struct {
	types.Entity
	ID      id.ID         `json:"id"`
	From    types.Address `json:"from"`
	Asset   types.AssetID `json:"asset"`
	Total   uint64        `json:"total"`
	Handles int           `json:"handles"`
}

// WithdrawalReceipt records a settled withdrawal for one asset.
type WithdrawalReceipt struct {
	types.Entity
	ID     id.ID         `json:"id"`
	Handle string        `json:"handle"`
	Owner  types.Address `json:"owner"`
	Asset  types.AssetID `json:"asset"`
	Gross  uint64        `json:"gross"`
	Fee    uint64        `json:"fee"`
	Net    uint64        `json:"net"`
}

// Vault is the escrow ledger. Deposits are fee-free; the withdrawal fee
// is charged when the owner finally claims.
type Vault struct {
	store    store.Store
	registry identity.Registry
	mover    asset.Mover
	plugins  *plugin.Registry
	logger   *slog.Logger

	// mu is the call-in-progress guard.
	mu sync.Mutex

	addr            types.Address
	admin           types.Address
	withdrawFeeRate types.BasisPoints
	feeReceiver     types.Address
}

// compile-time interface check
var _ handlepay.Escrow = (*Vault)(nil)

// New creates a new Vault instance.
func New(s store.Store, registry identity.Registry, mover asset.Mover, opts ...Option) *Vault {
	v := &Vault{
		store:           s,
		registry:        registry,
		mover:           mover,
		plugins:         plugin.NewRegistry(),
		logger:          slog.Default(),
		addr:            DefaultAddress,
		withdrawFeeRate: 100, // 1% unless configured otherwise
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Option configures a Vault instance.
type Option func(*Vault)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
		v.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(v *Vault) {
		_ = v.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAddress sets the vault's custody address.
func WithAddress(addr types.Address) Option {
	return func(v *Vault) {
		v.addr = addr
	}
}

// WithAdmin sets the administrative authority for rate and receiver updates.
func WithAdmin(admin types.Address) Option {
	return func(v *Vault) {
		v.admin = admin
	}
}

// WithWithdrawFeeRate sets the fee charged on withdrawals.
// Panics if the rate exceeds MaxWithdrawFeeRate (programming error).
func WithWithdrawFeeRate(rate types.BasisPoints) Option {
	if rate > MaxWithdrawFeeRate {
		panic(fmt.Sprintf("vault: withdraw fee rate %d above ceiling %d", rate, MaxWithdrawFeeRate))
	}
	return func(v *Vault) {
		v.withdrawFeeRate = rate
	}
}

// WithFeeReceiver sets the address allowed to claim accumulated fees.
func WithFeeReceiver(receiver types.Address) Option {
	return func(v *Vault) {
		v.feeReceiver = receiver
	}
}

// Address returns the vault's custody address.
func (v *Vault) Address() types.Address { return v.addr }

// WithdrawFeeRate returns the configured withdrawal fee rate.
func (v *Vault) WithdrawFeeRate() types.BasisPoints {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.withdrawFeeRate
}

// ──────────────────────────────────────────────────
// Deposits
// ──────────────────────────────────────────────────

// Deposit takes custody of amount from the depositor and credits it to
// the handle's escrow balance. No fee is charged on the way in.
func (v *Vault) Deposit(ctx context.Context, from types.Address, handle string, assetID types.AssetID, amount uint64) error {
	if handle == "" {
		return handlepay.ErrInvalidHandle
	}
	if amount == 0 {
		return handlepay.ErrInvalidAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.mover.Move(ctx, assetID, from, v.addr, amount); err != nil {
		return fmt.Errorf("%w: take custody: %v", handlepay.ErrTransferFailed, err)
	}

	if err := v.store.Credit(ctx, identity.KeyOf(handle), assetID, amount); err != nil {
		v.refund(ctx, assetID, from, amount)
		return err
	}

	v.logger.Debug("deposit credited",
		"handle", handle,
		"asset", assetID,
		"amount", amount,
	)
	v.plugins.EmitDeposited(ctx, &DepositReceipt{
		Entity: types.NewEntity(),
		ID:     id.NewDepositID(),
		From:   from,
		Handle: handle,
		Asset:  assetID,
		Amount: amount,
	})
	return nil
}

// BatchDeposit credits several handles from one custody transfer. The
// declared total must equal the sum of amounts exactly; the batch is
// all-or-nothing.
func (v *Vault) BatchDeposit(ctx context.Context, from types.Address, handles []string, amounts []uint64, assetID types.AssetID, total uint64) error {
	if len(handles) != len(amounts) {
		return handlepay.ErrLengthMismatch
	}
	if len(handles) == 0 {
		return handlepay.ErrEmptyBatch
	}
	for _, h := range handles {
		if h == "" {
			return handlepay.ErrInvalidHandle
		}
	}

	sum, err := types.SumChecked(amounts)
	if err != nil {
		return fmt.Errorf("%w: batch amounts: %v", handlepay.ErrInvalidAmount, err)
	}
	if sum != total {
		return handlepay.ErrAmountMismatch
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.mover.Move(ctx, assetID, from, v.addr, total); err != nil {
		return fmt.Errorf("%w: take custody: %v", handlepay.ErrTransferFailed, err)
	}

	credits := make([]store.Credit, len(handles))
	for i, h := range handles {
		credits[i] = store.Credit{
			Key:    identity.KeyOf(h),
			Asset:  assetID,
			Amount: amounts[i],
		}
	}
	if err := v.store.CreditBatch(ctx, credits); err != nil {
		v.refund(ctx, assetID, from, total)
		return err
	}

	v.logger.Debug("batch deposit credited",
		"asset", assetID,
		"total", total,
		"handles", len(handles),
	)
	v.plugins.EmitBatchDeposited(ctx, &BatchDepositReceipt{
		Entity:  types.NewEntity(),
		ID:      id.NewDepositID(),
		From:    from,
		Asset:   assetID,
		Total:   total,
		Handles: len(handles),
	})
	return nil
}

// ──────────────────────────────────────────────────
// Withdrawals
// ──────────────────────────────────────────────────

// Withdraw pays out a handle's full escrow balance for one asset to the
// handle's current owner, net of the withdrawal fee. Ownership is
// resolved at call time: whoever the registry says owns the handle now
// is the only address allowed to claim, regardless of who deposited.
func (v *Vault) Withdraw(ctx context.Context, caller types.Address, handle string, assetID types.AssetID) (*WithdrawalReceipt, error) {
	if handle == "" {
		return nil, handlepay.ErrInvalidHandle
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.authorize(ctx, caller, handle); err != nil {
		return nil, err
	}

	rcpt, err := v.withdraw(ctx, caller, handle, assetID)
	if err != nil {
		return nil, err
	}
	if rcpt == nil {
		return nil, handlepay.ErrNothingToWithdraw
	}
	return rcpt, nil
}

// WithdrawAll pays out a handle's escrow balances for every listed asset
// in one call, with a single ownership check. The native asset is always
// settled first; zero balances are skipped. If nothing is held at all,
// ErrNothingToWithdraw is returned.
func (v *Vault) WithdrawAll(ctx context.Context, caller types.Address, handle string, assets []types.AssetID) ([]*WithdrawalReceipt, error) {
	if handle == "" {
		return nil, handlepay.ErrInvalidHandle
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.authorize(ctx, caller, handle); err != nil {
		return nil, err
	}

	ordered := make([]types.AssetID, len(assets))
	copy(ordered, assets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsNative() && !ordered[j].IsNative()
	})

	var receipts []*WithdrawalReceipt
	for _, assetID := range ordered {
		rcpt, err := v.withdraw(ctx, caller, handle, assetID)
		if err != nil {
			return receipts, err
		}
		if rcpt != nil {
			receipts = append(receipts, rcpt)
		}
	}

	if len(receipts) == 0 {
		return nil, handlepay.ErrNothingToWithdraw
	}
	return receipts, nil
}

// Balance returns a handle's escrow balance for one asset.
func (v *Vault) Balance(ctx context.Context, handle string, assetID types.AssetID) (uint64, error) {
	return v.store.Balance(ctx, identity.KeyOf(handle), assetID)
}

// withdraw settles one asset for an already-authorized caller. Returns
// (nil, nil) when the balance is zero. Caller holds the guard.
func (v *Vault) withdraw(ctx context.Context, owner types.Address, handle string, assetID types.AssetID) (*WithdrawalReceipt, error) {
	// Zero the balance before the external transfer; restore on failure.
	gross, err := v.store.Drain(ctx, identity.KeyOf(handle), assetID)
	if err != nil {
		return nil, err
	}
	if gross == 0 {
		return nil, nil
	}

	fee := v.withdrawFeeRate.FeeOn(gross)
	net := gross - fee

	// The fee reaches the pool before the payout leaves custody, so a
	// failure on either step leaves no partial state behind.
	if fee > 0 {
		if err := v.store.AccrueFee(ctx, store.PoolVault, assetID, fee); err != nil {
			v.restore(ctx, handle, assetID, gross)
			return nil, err
		}
	}

	if err := v.mover.Move(ctx, assetID, v.addr, owner, net); err != nil {
		v.debitFee(ctx, assetID, fee)
		v.restore(ctx, handle, assetID, gross)
		return nil, fmt.Errorf("%w: pay %s: %v", handlepay.ErrTransferFailed, owner, err)
	}

	rcpt := &WithdrawalReceipt{
		Entity: types.NewEntity(),
		ID:     id.NewWithdrawalID(),
		Handle: handle,
		Owner:  owner,
		Asset:  assetID,
		Gross:  gross,
		Fee:    fee,
		Net:    net,
	}

	v.logger.Debug("withdrawal settled",
		"handle", handle,
		"owner", owner,
		"asset", assetID,
		"net", net,
		"fee", fee,
	)
	v.plugins.EmitWithdrawn(ctx, rcpt)
	return rcpt, nil
}

// authorize resolves the handle and verifies the caller owns it now.
func (v *Vault) authorize(ctx context.Context, caller types.Address, handle string) error {
	owner, err := v.registry.Resolve(ctx, handle)
	if err != nil {
		return fmt.Errorf("vault: resolve %q: %w", handle, err)
	}
	if owner.IsZero() || owner != caller {
		return handlepay.ErrUnauthorized
	}
	return nil
}

// restore re-credits a drained escrow balance after a later step failed.
// Best-effort: a restore failure is logged, not returned.
func (v *Vault) restore(ctx context.Context, handle string, assetID types.AssetID, amount uint64) {
	if err := v.store.Restore(ctx, identity.KeyOf(handle), assetID, amount); err != nil {
		v.logger.Error("failed to restore escrow balance after payout failure",
			"handle", handle,
			"asset", assetID,
			"amount", amount,
			"error", err,
		)
	}
}

// debitFee takes back a fee accrued earlier in the same call after the
// payout failed. Best-effort: a debit failure is logged, not returned.
func (v *Vault) debitFee(ctx context.Context, assetID types.AssetID, fee uint64) {
	if fee == 0 {
		return
	}
	if err := v.store.DebitFee(ctx, store.PoolVault, assetID, fee); err != nil {
		v.logger.Error("failed to debit fee pool after payout failure",
			"asset", assetID,
			"amount", fee,
			"error", err,
		)
	}
}

// refund returns custody to the depositor after a failed credit.
// Best-effort: a refund failure is logged, not returned.
func (v *Vault) refund(ctx context.Context, assetID types.AssetID, to types.Address, amount uint64) {
	if err := v.mover.Move(ctx, assetID, v.addr, to, amount); err != nil {
		v.logger.Error("failed to refund depositor after aborted deposit",
			"to", to,
			"asset", assetID,
			"amount", amount,
			"error", err,
		)
	}
}
