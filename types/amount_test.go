package types

import (
	"errors"
	"math"
	"testing"
)

func TestBasisPointsFeeOn(t *testing.T) {
	tests := []struct {
		name   string
		rate   BasisPoints
		amount uint64
		fee    uint64
	}{
		{"1% of 100", 100, 100, 1},
		{"1% of 99 floors to 0", 100, 99, 0},
		{"3% of 1000", 300, 1000, 30},
		{"10% of 10^18", 1000, 1_000_000_000_000_000_000, 100_000_000_000_000_000},
		{"Zero rate", 0, 12345, 0},
		{"Zero amount", 500, 0, 0},
		{"Full scale", 10000, 777, 777},
		{"Max amount at full scale", 10000, math.MaxUint64, math.MaxUint64},
		{"Max amount at 1%", 100, math.MaxUint64, math.MaxUint64 / 100},
		{"Rounding down", 100, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rate.FeeOn(tt.amount); got != tt.fee {
				t.Errorf("FeeOn(%d): got %d, want %d", tt.amount, got, tt.fee)
			}
			if net := tt.rate.NetOn(tt.amount); net != tt.amount-tt.fee {
				t.Errorf("NetOn(%d): got %d, want %d", tt.amount, net, tt.amount-tt.fee)
			}
		})
	}
}

func TestBasisPointsOutOfRange(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for rate above full scale")
		}
	}()

	_ = BasisPoints(10001).FeeOn(100)
}

func TestBasisPointsValid(t *testing.T) {
	if !BasisPoints(0).Valid() {
		t.Error("0 should be valid")
	}
	if !BasisPoints(10000).Valid() {
		t.Error("10000 should be valid")
	}
	if BasisPoints(10001).Valid() {
		t.Error("10001 should be invalid")
	}
}

func TestBasisPointsPercent(t *testing.T) {
	tests := []struct {
		rate BasisPoints
		want string
	}{
		{100, "1.00%"},
		{300, "3.00%"},
		{1000, "10.00%"},
		{25, "0.25%"},
		{10000, "100.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.rate.Percent(); got != tt.want {
				t.Errorf("Percent: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSumChecked(t *testing.T) {
	tests := []struct {
		name    string
		amounts []uint64
		want    uint64
		wantErr bool
	}{
		{"Empty", nil, 0, false},
		{"Single", []uint64{42}, 42, false},
		{"Multiple", []uint64{1, 2, 3, 4}, 10, false},
		{"Large", []uint64{math.MaxUint64 - 1, 1}, math.MaxUint64, false},
		{"Overflow", []uint64{math.MaxUint64, 1}, 0, true},
		{"Overflow mid-slice", []uint64{math.MaxUint64, math.MaxUint64, 1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SumChecked(tt.amounts)
			if tt.wantErr {
				if !errors.Is(err, ErrOverflow) {
					t.Fatalf("expected ErrOverflow, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SumChecked: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAssetID(t *testing.T) {
	if !Native.IsNative() {
		t.Error("Native should report IsNative")
	}
	if AssetID("0xabc").IsNative() {
		t.Error("Token asset should not report IsNative")
	}
	if Native.String() != "native" {
		t.Errorf("Native label: got %s", Native.String())
	}
	if AssetID("0xabc").String() != "0xabc" {
		t.Errorf("Token label: got %s", AssetID("0xabc").String())
	}
}

func TestAddress(t *testing.T) {
	if !ZeroAddress.IsZero() {
		t.Error("ZeroAddress should report IsZero")
	}
	if Address("0x1").IsZero() {
		t.Error("Non-empty address should not report IsZero")
	}
}

func BenchmarkFeeOn(b *testing.B) {
	rate := BasisPoints(300)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = rate.FeeOn(1_000_000_000)
	}
}

func BenchmarkSumChecked(b *testing.B) {
	amounts := make([]uint64, 100)
	for i := range amounts {
		amounts[i] = uint64(i) * 1000
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = SumChecked(amounts)
	}
}
