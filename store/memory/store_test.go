package memory_test

import (
	"context"
	"math"
	"testing"

	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/store"
	"github.com/xraph/handlepay/store/memory"
	"github.com/xraph/handlepay/types"
)

var (
	alice = identity.KeyOf("alice")
	bob   = identity.KeyOf("bob")
	token = types.AssetID("tok:usdc")
)

func TestCreditAndBalance(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.Credit(ctx, alice, types.Native, 100); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := s.Credit(ctx, alice, types.Native, 50); err != nil {
		t.Fatalf("credit: %v", err)
	}

	bal, err := s.Balance(ctx, alice, types.Native)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal != 150 {
		t.Errorf("balance = %d, want 150", bal)
	}

	// Assets are independent.
	if bal, _ := s.Balance(ctx, alice, token); bal != 0 {
		t.Errorf("token balance = %d, want 0", bal)
	}
	// Keys are independent.
	if bal, _ := s.Balance(ctx, bob, types.Native); bal != 0 {
		t.Errorf("bob balance = %d, want 0", bal)
	}
}

func TestCreditOverflow(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.Credit(ctx, alice, types.Native, math.MaxUint64); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := s.Credit(ctx, alice, types.Native, 1); err == nil {
		t.Fatal("overflow credit succeeded, want error")
	}
	// The failed credit must not corrupt the balance.
	if bal, _ := s.Balance(ctx, alice, types.Native); bal != math.MaxUint64 {
		t.Errorf("balance = %d, want MaxUint64", bal)
	}
}

func TestCreditBatchAllOrNothing(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.Credit(ctx, bob, types.Native, math.MaxUint64); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// Second entry overflows; the first must not be applied.
	err := s.CreditBatch(ctx, []store.Credit{
		{Key: alice, Asset: types.Native, Amount: 100},
		{Key: bob, Asset: types.Native, Amount: 1},
	})
	if err == nil {
		t.Fatal("batch with overflow succeeded, want error")
	}
	if bal, _ := s.Balance(ctx, alice, types.Native); bal != 0 {
		t.Errorf("alice balance = %d, want 0 (batch aborted)", bal)
	}
}

func TestDrainAndRestore(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.Credit(ctx, alice, types.Native, 500); err != nil {
		t.Fatalf("credit: %v", err)
	}

	amount, err := s.Drain(ctx, alice, types.Native)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if amount != 500 {
		t.Errorf("drained = %d, want 500", amount)
	}
	if bal, _ := s.Balance(ctx, alice, types.Native); bal != 0 {
		t.Errorf("balance after drain = %d, want 0", bal)
	}

	// Draining an empty entry yields zero, not an error.
	if amount, _ := s.Drain(ctx, alice, types.Native); amount != 0 {
		t.Errorf("second drain = %d, want 0", amount)
	}

	if err := s.Restore(ctx, alice, types.Native, 500); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if bal, _ := s.Balance(ctx, alice, types.Native); bal != 500 {
		t.Errorf("balance after restore = %d, want 500", bal)
	}
}

func TestFeePools(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.AccrueFee(ctx, store.PoolDispatcher, types.Native, 30); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if err := s.AccrueFee(ctx, store.PoolVault, types.Native, 70); err != nil {
		t.Fatalf("accrue: %v", err)
	}

	// Pools are independent accumulators.
	if bal, _ := s.FeeBalance(ctx, store.PoolDispatcher, types.Native); bal != 30 {
		t.Errorf("dispatcher pool = %d, want 30", bal)
	}
	if bal, _ := s.FeeBalance(ctx, store.PoolVault, types.Native); bal != 70 {
		t.Errorf("vault pool = %d, want 70", bal)
	}

	amount, err := s.DrainFee(ctx, store.PoolVault, types.Native)
	if err != nil {
		t.Fatalf("drain fee: %v", err)
	}
	if amount != 70 {
		t.Errorf("drained = %d, want 70", amount)
	}
	if bal, _ := s.FeeBalance(ctx, store.PoolDispatcher, types.Native); bal != 30 {
		t.Errorf("dispatcher pool = %d, want 30 (untouched)", bal)
	}

	if err := s.RestoreFee(ctx, store.PoolVault, types.Native, 70); err != nil {
		t.Fatalf("restore fee: %v", err)
	}
	if bal, _ := s.FeeBalance(ctx, store.PoolVault, types.Native); bal != 70 {
		t.Errorf("vault pool = %d, want 70 (restored)", bal)
	}
}

func TestDebitFee(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.AccrueFee(ctx, store.PoolDispatcher, types.Native, 100); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	if err := s.DebitFee(ctx, store.PoolDispatcher, types.Native, 30); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if bal, _ := s.FeeBalance(ctx, store.PoolDispatcher, types.Native); bal != 70 {
		t.Errorf("pool = %d, want 70", bal)
	}

	// Debiting more than the pool holds fails and leaves it untouched.
	if err := s.DebitFee(ctx, store.PoolDispatcher, types.Native, 71); err == nil {
		t.Fatal("over-debit succeeded, want error")
	}
	if bal, _ := s.FeeBalance(ctx, store.PoolDispatcher, types.Native); bal != 70 {
		t.Errorf("pool = %d, want 70 (untouched)", bal)
	}
}
