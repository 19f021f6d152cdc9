package handlepay_test

import (
	"context"
	"log/slog"
	"testing"

	handlepay "github.com/xraph/handlepay"
	"github.com/xraph/handlepay/asset"
	"github.com/xraph/handlepay/distributor"
	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/store/memory"
	"github.com/xraph/handlepay/types"
	"github.com/xraph/handlepay/vault"
)

// TestDocumentationExamples verifies that the examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Quick Start example from the package docs
	t.Run("QuickStartExample", func(t *testing.T) {
		registry := identity.NewStatic()
		bank := asset.NewBank()

		v := vault.New(memory.New(), registry, bank,
			vault.WithWithdrawFeeRate(1000), // 10%
			vault.WithFeeReceiver("acct:ops"),
		)

		d := handlepay.New(memory.New(), registry, bank,
			handlepay.WithLogger(slog.Default()),
			handlepay.WithEscrow(v),
			handlepay.WithFeeRate(100), // 1%
			handlepay.WithFeeReceiver("acct:ops"),
		)

		ctx := context.Background()
		if err := d.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer d.Stop()

		// Pay a handle before its owner ever registers.
		bank.Mint(types.Native, "acct:payer", 1_000_000)
		receipt, err := d.Transfer(ctx, "acct:payer", "alice", types.Native, 1_000_000)
		if err != nil {
			t.Fatal(err)
		}
		if receipt.Route != handlepay.RouteEscrowed {
			t.Fatalf("route = %q, want escrowed", receipt.Route)
		}

		// alice registers and claims her funds, net of the vault fee.
		registry.Register("alice", "acct:alice")
		wr, err := v.Withdraw(ctx, "acct:alice", "alice", types.Native)
		if err != nil {
			t.Fatal(err)
		}
		if wr.Net != 900_000 {
			t.Fatalf("net = %d, want 900000", wr.Net)
		}
	})

	// Fee distribution example from the package docs
	t.Run("DistributorExample", func(t *testing.T) {
		registry := identity.NewStatic()
		bank := asset.NewBank()

		d := handlepay.New(memory.New(), registry, bank,
			handlepay.WithFeeRate(100),
			handlepay.WithFeeReceiver(distributor.DefaultAddress),
		)

		dist, err := distributor.New(bank,
			distributor.Stakeholder{Address: "acct:treasury", Share: 7000},
			distributor.Stakeholder{Address: "acct:operator", Share: 3000},
			distributor.WithSource(d),
		)
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		registry.Register("bob", "acct:bob")
		bank.Mint(types.Native, "acct:payer", 10_000)
		if _, err := d.Transfer(ctx, "acct:payer", "bob", types.Native, 10_000); err != nil {
			t.Fatal(err)
		}

		pulled, err := dist.Pull(ctx, "acct:treasury", types.Native)
		if err != nil {
			t.Fatal(err)
		}
		if pulled != 100 {
			t.Fatalf("pulled = %d, want 100", pulled)
		}
		if _, err := dist.ClaimShare(ctx, "acct:treasury", types.Native); err != nil {
			t.Fatal(err)
		}
	})
}
