package distributor_test

import (
	"context"
	"errors"
	"testing"

	handlepay "github.com/xraph/handlepay"
	"github.com/xraph/handlepay/asset"
	"github.com/xraph/handlepay/distributor"
	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/store/memory"
	"github.com/xraph/handlepay/types"
)

const (
	treasury = types.Address("acct:treasury")
	operator = types.Address("acct:operator")
	outsider = types.Address("acct:outsider")
	sender   = types.Address("acct:sender")
	bobAddr  = types.Address("acct:bob")
	admin    = types.Address("acct:admin")
)

func stakeholders() (distributor.Stakeholder, distributor.Stakeholder) {
	return distributor.Stakeholder{Address: treasury, Share: 7000},
		distributor.Stakeholder{Address: operator, Share: 3000}
}

// newWired builds a dispatcher whose fee receiver is the distributor,
// runs one transfer, and returns both plus the bank.
func newWired(t *testing.T) (*distributor.Distributor, *handlepay.Dispatcher, *asset.Bank) {
	t.Helper()

	registry := identity.NewStatic()
	bank := asset.NewBank()
	first, second := stakeholders()

	d := handlepay.New(memory.New(), registry, bank,
		handlepay.WithFeeRate(100),
		handlepay.WithFeeReceiver(distributor.DefaultAddress),
	)

	dist, err := distributor.New(bank, first, second,
		distributor.WithAdmin(admin),
		distributor.WithSource(d),
	)
	if err != nil {
		t.Fatalf("new distributor: %v", err)
	}

	registry.Register("bob", bobAddr)
	bank.Mint(types.Native, sender, 1_000_000)
	if _, err := d.Transfer(context.Background(), sender, "bob", types.Native, 1_000_000); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	return dist, d, bank
}

func TestNewValidation(t *testing.T) {
	bank := asset.NewBank()

	t.Run("shares must sum to 10000", func(t *testing.T) {
		_, err := distributor.New(bank,
			distributor.Stakeholder{Address: treasury, Share: 7000},
			distributor.Stakeholder{Address: operator, Share: 2000},
		)
		if !errors.Is(err, handlepay.ErrBadShares) {
			t.Errorf("err = %v, want ErrBadShares", err)
		}
	})

	t.Run("zero stakeholder address", func(t *testing.T) {
		_, err := distributor.New(bank,
			distributor.Stakeholder{Address: types.ZeroAddress, Share: 7000},
			distributor.Stakeholder{Address: operator, Share: 3000},
		)
		if !errors.Is(err, handlepay.ErrInvalidAddress) {
			t.Errorf("err = %v, want ErrInvalidAddress", err)
		}
	})

	t.Run("valid split", func(t *testing.T) {
		first, second := stakeholders()
		dist, err := distributor.New(bank, first, second)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		if share, ok := dist.ShareOf(treasury); !ok || share != 7000 {
			t.Errorf("ShareOf(treasury) = %d/%v, want 7000/true", share, ok)
		}
		if _, ok := dist.ShareOf(outsider); ok {
			t.Error("ShareOf(outsider) = true, want false")
		}
	})
}

func TestPull(t *testing.T) {
	dist, d, _ := newWired(t)
	ctx := context.Background()

	t.Run("outsider may not pull", func(t *testing.T) {
		if _, err := dist.Pull(ctx, outsider, types.Native); !errors.Is(err, handlepay.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("stakeholder pulls the dispatcher pool", func(t *testing.T) {
		pulled, err := dist.Pull(ctx, treasury, types.Native)
		if err != nil {
			t.Fatalf("pull: %v", err)
		}
		if pulled != 10_000 {
			t.Errorf("pulled = %d, want 10000", pulled)
		}
		if held := dist.Held(types.Native); held != 10_000 {
			t.Errorf("held = %d, want 10000", held)
		}
		if accrued, _ := d.AccruedFees(ctx, types.Native); accrued != 0 {
			t.Errorf("dispatcher pool = %d, want 0 after pull", accrued)
		}
	})

	t.Run("empty sources report nothing to claim", func(t *testing.T) {
		if _, err := dist.Pull(ctx, treasury, types.Native); !errors.Is(err, handlepay.ErrNothingToClaim) {
			t.Errorf("err = %v, want ErrNothingToClaim", err)
		}
	})
}

func TestPullMultiple(t *testing.T) {
	dist, _, _ := newWired(t)
	ctx := context.Background()

	empty := types.AssetID("tok:empty")
	pulled, err := dist.PullMultiple(ctx, admin, []types.AssetID{types.Native, empty})
	if err != nil {
		t.Fatalf("pull multiple: %v", err)
	}
	if pulled[types.Native] != 10_000 {
		t.Errorf("pulled = %v, want native=10000", pulled)
	}
	if _, ok := pulled[empty]; ok {
		t.Errorf("empty asset should be skipped, got %v", pulled)
	}
}

func TestClaimShare(t *testing.T) {
	dist, _, bank := newWired(t)
	ctx := context.Background()

	if _, err := dist.Pull(ctx, treasury, types.Native); err != nil {
		t.Fatalf("pull: %v", err)
	}

	t.Run("outsider may not claim", func(t *testing.T) {
		if _, err := dist.ClaimShare(ctx, outsider, types.Native); !errors.Is(err, handlepay.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("shares apply to the live pool", func(t *testing.T) {
		// treasury takes 70% of 10000.
		rcpt, err := dist.ClaimShare(ctx, treasury, types.Native)
		if err != nil {
			t.Fatalf("claim treasury: %v", err)
		}
		if rcpt.Amount != 7_000 {
			t.Errorf("treasury claim = %d, want 7000", rcpt.Amount)
		}
		if got := bank.BalanceOf(types.Native, treasury); got != 7_000 {
			t.Errorf("treasury balance = %d, want 7000", got)
		}

		// operator then takes 30% of the remaining 3000.
		rcpt, err = dist.ClaimShare(ctx, operator, types.Native)
		if err != nil {
			t.Fatalf("claim operator: %v", err)
		}
		if rcpt.Amount != 900 {
			t.Errorf("operator claim = %d, want 900 (30%% of live pool)", rcpt.Amount)
		}
		if held := dist.Held(types.Native); held != 2_100 {
			t.Errorf("held = %d, want 2100", held)
		}
	})

	t.Run("empty pool reports nothing to claim", func(t *testing.T) {
		empty := types.AssetID("tok:empty")
		if _, err := dist.ClaimShare(ctx, treasury, empty); !errors.Is(err, handlepay.ErrNothingToClaim) {
			t.Errorf("err = %v, want ErrNothingToClaim", err)
		}
	})
}
