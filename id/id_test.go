package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/handlepay/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"TransferID", id.NewTransferID, "xfer_"},
		{"DepositID", id.NewDepositID, "dep_"},
		{"WithdrawalID", id.NewWithdrawalID, "wdr_"},
		{"ShareClaimID", id.NewShareClaimID, "shr_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixTransfer)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixTransfer {
		t.Errorf("expected prefix %q, got %q", id.PrefixTransfer, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"TransferID", id.NewTransferID, id.ParseTransferID},
		{"DepositID", id.NewDepositID, id.ParseDepositID},
		{"WithdrawalID", id.NewWithdrawalID, id.ParseWithdrawalID},
		{"ShareClaimID", id.NewShareClaimID, id.ParseShareClaimID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	xfer := id.NewTransferID()

	if _, err := id.ParseDepositID(xfer.String()); err == nil {
		t.Error("expected prefix mismatch error parsing a transfer ID as a deposit ID")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Garbage", "not-a-typeid"},
		{"BadSuffix", "xfer_!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := id.Parse(tt.input); err == nil {
				t.Errorf("expected parse error for %q", tt.input)
			}
		})
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID

	if !nilID.IsNil() {
		t.Error("zero-value ID should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil ID String: got %q, want empty", nilID.String())
	}
	if nilID.Prefix() != "" {
		t.Errorf("nil ID Prefix: got %q, want empty", nilID.Prefix())
	}
}

func TestTextRoundTrip(t *testing.T) {
	original := id.NewWithdrawalID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}

	if decoded.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", decoded.String(), original.String())
	}
}

func TestSortable(t *testing.T) {
	a := id.NewTransferID()
	b := id.NewTransferID()

	// UUIDv7-based IDs generated in sequence sort in generation order.
	if !(a.String() < b.String()) {
		t.Errorf("expected %q < %q", a.String(), b.String())
	}
}
