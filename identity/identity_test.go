package identity_test

import (
	"context"
	"testing"

	"github.com/xraph/handlepay/identity"
	"github.com/xraph/handlepay/types"
)

func TestKeyOf(t *testing.T) {
	// Same handle, same key.
	if identity.KeyOf("alice") != identity.KeyOf("alice") {
		t.Error("KeyOf is not deterministic")
	}
	// Different handles, different keys.
	if identity.KeyOf("alice") == identity.KeyOf("bob") {
		t.Error("distinct handles produced the same key")
	}
	// Case matters: handles are taken as given.
	if identity.KeyOf("Alice") == identity.KeyOf("alice") {
		t.Error("KeyOf should be case-sensitive")
	}

	if got := len(identity.KeyOf("alice").String()); got != 64 {
		t.Errorf("hex key length = %d, want 64", got)
	}
}

func TestStaticRegistry(t *testing.T) {
	reg := identity.NewStatic()
	ctx := context.Background()
	owner := types.Address("acct:alice")

	// Unregistered handles resolve to the zero address, not an error.
	got, err := reg.Resolve(ctx, "alice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("unregistered handle resolved to %q", got)
	}

	reg.Register("alice", owner)
	if got, _ := reg.Resolve(ctx, "alice"); got != owner {
		t.Errorf("resolved = %q, want %q", got, owner)
	}

	// Re-registration moves ownership.
	other := types.Address("acct:other")
	reg.Register("alice", other)
	if got, _ := reg.Resolve(ctx, "alice"); got != other {
		t.Errorf("resolved = %q, want %q", got, other)
	}

	reg.Unregister("alice")
	if got, _ := reg.Resolve(ctx, "alice"); !got.IsZero() {
		t.Errorf("unregistered handle resolved to %q", got)
	}
}
