package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt64, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt64")
	}
	if _, ok := AddOverflowSafe(math.MinInt64, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt64")
	}
}

func TestClampRange(t *testing.T) {
	tests := []struct {
		name       string
		total, off int64
		length     int64
		wantStart  int64
		wantEnd    int64
		wantErr    bool
	}{
		{name: "inside", total: 100, off: 10, length: 20, wantStart: 10, wantEnd: 30},
		{name: "tail clamped", total: 100, off: 90, length: 512, wantStart: 90, wantEnd: 100},
		{name: "past end", total: 100, off: 100, length: 16, wantStart: 100, wantEnd: 100},
		{name: "whole file", total: 100, off: 0, length: 100, wantStart: 0, wantEnd: 100},
		{name: "overflowing length", total: 100, off: 50, length: math.MaxInt64, wantStart: 50, wantEnd: 100},
		{name: "negative offset", total: 100, off: -1, length: 1, wantErr: true},
		{name: "negative length", total: 100, off: 0, length: -1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ClampRange(tt.total, tt.off, tt.length)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got [%d,%d)", start, end)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Fatalf("got [%d,%d) want [%d,%d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if got, ok := Slice(data, 5, 0); !ok || len(got) != 0 {
		t.Fatalf("Slice should allow an empty tail: %v, %v", got, ok)
	}

	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}
