package plugin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/handlepay/plugin"
)

// recorder implements a subset of hooks and records what it saw.
type recorder struct {
	name      string
	transfers int
	claims    []uint64
	fail      error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnTransferCompleted(_ context.Context, _ interface{}) error {
	r.transfers++
	return r.fail
}

func (r *recorder) OnFeesClaimed(_ context.Context, _, _ string, amount uint64, _ string) error {
	r.claims = append(r.claims, amount)
	return nil
}

func TestRegister(t *testing.T) {
	reg := plugin.NewRegistry()
	p := &recorder{name: "a"}

	if err := reg.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(&recorder{name: "a"}); err == nil {
		t.Fatal("duplicate registration succeeded")
	}
	if reg.Count() != 1 {
		t.Errorf("count = %d, want 1", reg.Count())
	}
	if got := reg.Get("a"); got != p {
		t.Errorf("Get returned %v, want the registered plugin", got)
	}
	if got := reg.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}
}

func TestEmitDispatchesToImplementers(t *testing.T) {
	reg := plugin.NewRegistry()
	a := &recorder{name: "a"}
	b := &recorder{name: "b"}
	if err := reg.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(b); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	reg.EmitTransferCompleted(ctx, nil)
	reg.EmitFeesClaimed(ctx, "dispatcher", "", 42, "acct:x")
	// No plugin implements OnWithdrawn; emitting must be a no-op.
	reg.EmitWithdrawn(ctx, nil)

	for _, r := range []*recorder{a, b} {
		if r.transfers != 1 {
			t.Errorf("%s transfers = %d, want 1", r.name, r.transfers)
		}
		if len(r.claims) != 1 || r.claims[0] != 42 {
			t.Errorf("%s claims = %v, want [42]", r.name, r.claims)
		}
	}
}

func TestEmitSwallowsPluginErrors(t *testing.T) {
	reg := plugin.NewRegistry()
	failing := &recorder{name: "failing", fail: errors.New("boom")}
	healthy := &recorder{name: "healthy"}
	if err := reg.Register(failing); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(healthy); err != nil {
		t.Fatal(err)
	}

	// A failing plugin must not stop dispatch to the others.
	reg.EmitTransferCompleted(context.Background(), nil)
	if healthy.transfers != 1 {
		t.Errorf("healthy transfers = %d, want 1", healthy.transfers)
	}
}
