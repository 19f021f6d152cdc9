package asset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/handlepay/asset"
	"github.com/xraph/handlepay/types"
)

func TestBankMove(t *testing.T) {
	bank := asset.NewBank()
	ctx := context.Background()
	a := types.Address("acct:a")
	b := types.Address("acct:b")

	bank.Mint(types.Native, a, 100)

	if err := bank.Move(ctx, types.Native, a, b, 60); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := bank.BalanceOf(types.Native, a); got != 40 {
		t.Errorf("a balance = %d, want 40", got)
	}
	if got := bank.BalanceOf(types.Native, b); got != 60 {
		t.Errorf("b balance = %d, want 60", got)
	}

	// Insufficient funds fail without side effects.
	err := bank.Move(ctx, types.Native, a, b, 41)
	if !errors.Is(err, asset.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}
	if got := bank.BalanceOf(types.Native, a); got != 40 {
		t.Errorf("a balance = %d, want 40 (unchanged)", got)
	}
}

func TestBankBlock(t *testing.T) {
	bank := asset.NewBank()
	ctx := context.Background()
	a := types.Address("acct:a")
	b := types.Address("acct:b")

	bank.Mint(types.Native, a, 100)
	bank.Block(b)

	if err := bank.Move(ctx, types.Native, a, b, 10); err == nil {
		t.Fatal("move to blocked address succeeded")
	}
	if got := bank.BalanceOf(types.Native, a); got != 100 {
		t.Errorf("a balance = %d, want 100 (unchanged)", got)
	}

	bank.Unblock(b)
	if err := bank.Move(ctx, types.Native, a, b, 10); err != nil {
		t.Errorf("move after unblock: %v", err)
	}
}

func TestMoverFunc(t *testing.T) {
	var called bool
	m := asset.MoverFunc(func(_ context.Context, _ types.AssetID, _, _ types.Address, _ uint64) error {
		called = true
		return nil
	})

	if err := m.Move(context.Background(), types.Native, "a", "b", 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	if !called {
		t.Error("adapter did not invoke the function")
	}
}
