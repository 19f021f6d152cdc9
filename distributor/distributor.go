// Package distributor splits accumulated protocol fees between two
// stakeholders. It is designed to sit as the fee receiver of the
// dispatcher and the vault: Pull drains their fee pools into the
// distributor's custody, and each stakeholder then claims their fixed
// basis-point share of whatever the distributor holds.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	handlepay "github.com/xraph/handlepay"
	"github.com/xraph/handlepay/asset"
	"github.com/xraph/handlepay/id"
	"github.com/xraph/handlepay/plugin"
	"github.com/xraph/handlepay/types"
)

// DefaultAddress is the custody account the distributor uses when none
// is configured.
const DefaultAddress types.Address = "handlepay:distributor"

// FeeSource is a component whose accumulated fee pool the distributor
// can drain. *handlepay.Dispatcher and *vault.Vault implement it.
type FeeSource interface {
	AccruedFees(ctx context.Context, asset types.AssetID) (uint64, error)
	ClaimFees(ctx context.Context, caller types.Address, asset types.AssetID) (uint64, error)
}

// Stakeholder is one party entitled to a fixed share of pulled fees.
type Stakeholder struct {
	Address types.Address     `json:"address"`
	Share   types.BasisPoints `json:"share"`
}

// ShareClaimReceipt records a settled stakeholder claim.
type ShareClaimReceipt struct {
	types.Entity
	ID          id.ID             `json:"id"`
	Stakeholder types.Address     `json:"stakeholder"`
	Share       types.BasisPoints `json:"share"`
	Asset       types.AssetID     `json:"asset"`
	Amount      uint64            `json:"amount"`
}

// Distributor splits pulled fees between two stakeholders whose shares
// sum to exactly 100%.
type Distributor struct {
	mover   asset.Mover
	sources []FeeSource
	plugins *plugin.Registry
	logger  *slog.Logger

	// mu is the call-in-progress guard. It also protects held.
	mu sync.Mutex

	addr   types.Address
	admin  types.Address
	first  Stakeholder
	second Stakeholder

	// held is the undistributed pool per asset, fed by Pull and
	// consumed by ClaimShare.
	held map[types.AssetID]uint64
}

// New creates a Distributor splitting fees between two stakeholders.
// The shares must sum to exactly BasisPointDenominator (100%).
func New(mover asset.Mover, first, second Stakeholder, opts ...Option) (*Distributor, error) {
	if first.Address.IsZero() || second.Address.IsZero() {
		return nil, handlepay.ErrInvalidAddress
	}
	if uint64(first.Share)+uint64(second.Share) != types.BasisPointDenominator {
		return nil, handlepay.ErrBadShares
	}

	d := &Distributor{
		mover:   mover,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		addr:    DefaultAddress,
		first:   first,
		second:  second,
		held:    make(map[types.AssetID]uint64),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Option configures a Distributor instance.
type Option func(*Distributor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Distributor) {
		d.logger = logger
		d.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(d *Distributor) {
		_ = d.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAddress sets the distributor's custody address. The same address
// must be configured as the fee receiver on every source.
func WithAddress(addr types.Address) Option {
	return func(d *Distributor) {
		d.addr = addr
	}
}

// WithAdmin sets the administrative authority. The admin may trigger
// pulls but holds no share.
func WithAdmin(admin types.Address) Option {
	return func(d *Distributor) {
		d.admin = admin
	}
}

// WithSource adds a fee source to drain on Pull.
func WithSource(src FeeSource) Option {
	return func(d *Distributor) {
		d.sources = append(d.sources, src)
	}
}

// Address returns the distributor's custody address.
func (d *Distributor) Address() types.Address { return d.addr }

// Stakeholders returns both stakeholders.
func (d *Distributor) Stakeholders() (Stakeholder, Stakeholder) {
	return d.first, d.second
}

// ShareOf returns the share held by an address, or false if it is not a
// stakeholder.
func (d *Distributor) ShareOf(addr types.Address) (types.BasisPoints, bool) {
	switch addr {
	case d.first.Address:
		return d.first.Share, true
	case d.second.Address:
		return d.second.Share, true
	default:
		return 0, false
	}
}

// Held returns the undistributed pool for an asset.
func (d *Distributor) Held(assetID types.AssetID) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.held[assetID]
}

// ──────────────────────────────────────────────────
// Pulling
// ──────────────────────────────────────────────────

// Pull drains every source's fee pool for one asset into the
// distributor's custody. Stakeholders and the admin may trigger it.
// Sources with empty pools are skipped; if every pool is empty,
// ErrNothingToClaim is returned.
func (d *Distributor) Pull(ctx context.Context, caller types.Address, assetID types.AssetID) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.mayPull(caller) {
		return 0, handlepay.ErrUnauthorized
	}

	var total uint64
	for _, src := range d.sources {
		// Read before claiming so empty sources are skipped without a
		// drain-and-transfer round trip.
		accrued, err := src.AccruedFees(ctx, assetID)
		if err != nil {
			return total, fmt.Errorf("distributor: pull %s: %w", assetID, err)
		}
		if accrued == 0 {
			continue
		}

		amount, err := src.ClaimFees(ctx, d.addr, assetID)
		if errors.Is(err, handlepay.ErrNothingToClaim) {
			continue
		}
		if err != nil {
			return total, fmt.Errorf("distributor: pull %s: %w", assetID, err)
		}
		sum, err := types.AddChecked(d.held[assetID], amount)
		if err != nil {
			return total, fmt.Errorf("distributor: pull %s: %w", assetID, err)
		}
		d.held[assetID] = sum
		total += amount
	}

	if total == 0 {
		return 0, handlepay.ErrNothingToClaim
	}

	d.logger.Debug("fees pulled",
		"asset", assetID,
		"amount", total,
		"sources", len(d.sources),
	)
	return total, nil
}

// PullMultiple pulls several assets in one call. Assets with nothing to
// pull are skipped. Returns the amount pulled per asset.
func (d *Distributor) PullMultiple(ctx context.Context, caller types.Address, assets []types.AssetID) (map[types.AssetID]uint64, error) {
	pulled := make(map[types.AssetID]uint64, len(assets))
	for _, assetID := range assets {
		amount, err := d.Pull(ctx, caller, assetID)
		if errors.Is(err, handlepay.ErrNothingToClaim) {
			continue
		}
		if err != nil {
			return pulled, err
		}
		pulled[assetID] = amount
	}
	return pulled, nil
}

// ──────────────────────────────────────────────────
// Claiming
// ──────────────────────────────────────────────────

// ClaimShare pays the calling stakeholder their share of the currently
// held pool for one asset. The share applies to whatever is held at
// claim time, so claim order matters: a stakeholder claiming late takes
// their cut of a pool already reduced by earlier claims.
func (d *Distributor) ClaimShare(ctx context.Context, caller types.Address, assetID types.AssetID) (*ShareClaimReceipt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	share, ok := d.ShareOf(caller)
	if !ok {
		return nil, handlepay.ErrUnauthorized
	}

	amount := share.FeeOn(d.held[assetID])
	if amount == 0 {
		return nil, handlepay.ErrNothingToClaim
	}

	d.held[assetID] -= amount

	if err := d.mover.Move(ctx, assetID, d.addr, caller, amount); err != nil {
		d.held[assetID] += amount
		return nil, fmt.Errorf("%w: pay stakeholder %s: %v", handlepay.ErrTransferFailed, caller, err)
	}

	rcpt := &ShareClaimReceipt{
		Entity:      types.NewEntity(),
		ID:          id.NewShareClaimID(),
		Stakeholder: caller,
		Share:       share,
		Asset:       assetID,
		Amount:      amount,
	}

	d.logger.Debug("share claimed",
		"stakeholder", caller,
		"asset", assetID,
		"amount", amount,
		"share", share.Percent(),
	)
	d.plugins.EmitShareClaimed(ctx, rcpt)
	return rcpt, nil
}

// mayPull reports whether an address may trigger a pull.
func (d *Distributor) mayPull(caller types.Address) bool {
	if caller.IsZero() {
		return false
	}
	if _, ok := d.ShareOf(caller); ok {
		return true
	}
	return caller == d.admin
}
