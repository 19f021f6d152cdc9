package vault

import (
	"context"
	"errors"
	"fmt"

	handlepay "github.com/xraph/handlepay"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/types"
)

// AccruedFees returns the vault's accumulated withdrawal fees for an asset.
func (v *Vault) AccruedFees(ctx context.Context, assetID types.AssetID) (uint64, error) {
	return v.store.FeeBalance(ctx, store.PoolVault, assetID)
}

// ClaimFees drains the vault's fee pool for an asset and transfers it to
// the caller. Only the configured fee receiver may claim.
func (v *Vault) ClaimFees(ctx context.Context, caller types.Address, assetID types.AssetID) (uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.claimFees(ctx, caller, assetID)
}

// ClaimNativeFees claims the native-asset fee pool.
func (v *Vault) ClaimNativeFees(ctx context.Context, caller types.Address) (uint64, error) {
	return v.ClaimFees(ctx, caller, types.Native)
}

// ClaimFeesMultiple claims the fee pools for several assets in one call.
// Empty pools are skipped rather than treated as errors, so the method is
// safe to run on a fixed asset list. Returns the amount drained per asset.
func (v *Vault) ClaimFeesMultiple(ctx context.Context, caller types.Address, assets []types.AssetID) (map[types.AssetID]uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	claimed := make(map[types.AssetID]uint64, len(assets))
	for _, assetID := range assets {
		amount, err := v.claimFees(ctx, caller, assetID)
		if errors.Is(err, handlepay.ErrNothingToClaim) {
			continue
		}
		if err != nil {
			return claimed, err
		}
		claimed[assetID] = amount
	}
	return claimed, nil
}

// claimFees drains one pool. Caller holds the guard.
func (v *Vault) claimFees(ctx context.Context, caller types.Address, assetID types.AssetID) (uint64, error) {
	if caller.IsZero() || caller != v.feeReceiver {
		return 0, handlepay.ErrUnauthorized
	}

	amount, err := v.store.DrainFee(ctx, store.PoolVault, assetID)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, handlepay.ErrNothingToClaim
	}

	if err := v.mover.Move(ctx, assetID, v.addr, caller, amount); err != nil {
		if restoreErr := v.store.RestoreFee(ctx, store.PoolVault, assetID, amount); restoreErr != nil {
			v.logger.Error("failed to restore fee pool after claim failure",
				"asset", assetID,
				"amount", amount,
				"error", restoreErr,
			)
		}
		return 0, fmt.Errorf("%w: claim fees: %v", handlepay.ErrTransferFailed, err)
	}

	v.plugins.EmitFeesClaimed(ctx, string(store.PoolVault), assetID.String(), amount, caller.String())
	return amount, nil
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// SetWithdrawFeeRate updates the withdrawal fee rate. Only the admin may
// call; rates above MaxWithdrawFeeRate are rejected.
func (v *Vault) SetWithdrawFeeRate(ctx context.Context, caller types.Address, rate types.BasisPoints) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller.IsZero() || caller != v.admin {
		return handlepay.ErrUnauthorized
	}
	if rate > MaxWithdrawFeeRate {
		return handlepay.ErrInvalidRate
	}

	old := v.withdrawFeeRate
	v.withdrawFeeRate = rate

	v.logger.Info("vault withdraw fee rate changed",
		"old", old.Percent(),
		"new", rate.Percent(),
	)
	v.plugins.EmitFeeRateChanged(ctx, "vault", uint32(old), uint32(rate))
	return nil
}

// SetFeeReceiver updates the address allowed to claim accumulated fees.
func (v *Vault) SetFeeReceiver(ctx context.Context, caller, receiver types.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if caller.IsZero() || caller != v.admin {
		return handlepay.ErrUnauthorized
	}
	if receiver.IsZero() {
		return handlepay.ErrInvalidAddress
	}

	old := v.feeReceiver
	v.feeReceiver = receiver

	v.plugins.EmitFeeReceiverChanged(ctx, "vault", old.String(), receiver.String())
	return nil
}
