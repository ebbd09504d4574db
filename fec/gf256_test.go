package fec

import (
	"errors"
	"testing"
)

func TestGFMulDivRoundTrip(t *testing.T) {
	for a := 1; a < 256; a++ {
		for b := 1; b < 256; b++ {
			p := GFMul(byte(a), byte(b))
			q, err := GFDiv(p, byte(b))
			if err != nil {
				t.Fatalf("GFDiv(%d,%d): %v", p, b, err)
			}
			if q != byte(a) {
				t.Fatalf("div(mul(%d,%d),%d) = %d, want %d", a, b, b, q, a)
			}
		}
	}
}

func TestGFMulZero(t *testing.T) {
	for a := 0; a < 256; a++ {
		if GFMul(byte(a), 0) != 0 || GFMul(0, byte(a)) != 0 {
			t.Fatalf("multiplication by zero must be zero (a=%d)", a)
		}
	}
}

func TestGFInverse(t *testing.T) {
	for a := 1; a < 256; a++ {
		if got := GFMul(byte(a), GFInv(byte(a))); got != 1 {
			t.Fatalf("a*inv(a) = %d for a=%d, want 1", got, a)
		}
	}
}

func TestGFDivByZero(t *testing.T) {
	if _, err := GFDiv(7, 0); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
}

func TestGFInvZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("GFInv(0) must panic")
		}
	}()
	GFInv(0)
}

func TestAlphaPowDistinctCycle(t *testing.T) {
	seen := make(map[byte]bool)
	for e := 0; e < 255; e++ {
		v := AlphaPow(e)
		if v == 0 {
			t.Fatalf("alpha^%d = 0", e)
		}
		if seen[v] {
			t.Fatalf("alpha^%d = %d repeats before the cycle closes", e, v)
		}
		seen[v] = true
	}
	if AlphaPow(255) != 1 || AlphaPow(0) != 1 {
		t.Fatal("alpha^0 and alpha^255 must both be 1")
	}
	if AlphaPow(-1) != AlphaPow(254) {
		t.Fatal("negative exponents must wrap mod 255")
	}
}

func TestGFPow(t *testing.T) {
	for a := 1; a < 256; a++ {
		if GFPow(byte(a), 2) != GFMul(byte(a), byte(a)) {
			t.Fatalf("pow(%d,2) != mul(%d,%d)", a, a, a)
		}
		if GFMul(GFPow(byte(a), -1), byte(a)) != 1 {
			t.Fatalf("pow(%d,-1) is not the inverse", a)
		}
		if GFPow(byte(a), 0) != 1 {
			t.Fatalf("pow(%d,0) != 1", a)
		}
	}
}
