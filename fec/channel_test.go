package fec

import (
	"bytes"
	"math"
	"testing"
)

func mustFlip(t *testing.T, word []byte, positions ...int) []byte {
	t.Helper()
	out, err := FlipBits(word, positions...)
	if err != nil {
		t.Fatalf("FlipBits(%v, %v): %v", word, positions, err)
	}
	return out
}

func TestFlipBits(t *testing.T) {
	word := []byte{0, 1, 0, 1}
	got, err := FlipBits(word, 0, 3)
	if err != nil {
		t.Fatalf("FlipBits: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 1, 0, 0}) {
		t.Fatalf("FlipBits = %v", got)
	}
	if !bytes.Equal(word, []byte{0, 1, 0, 1}) {
		t.Fatalf("input mutated: %v", word)
	}
	// Flipping a position twice is the identity.
	got, err = FlipBits(word, 2, 2)
	if err != nil {
		t.Fatalf("FlipBits: %v", err)
	}
	if !bytes.Equal(got, word) {
		t.Fatalf("double flip = %v, want %v", got, word)
	}
	if _, err := FlipBits(word, 4); err == nil {
		t.Fatal("out-of-range position accepted")
	}
	if _, err := FlipBits(word, -1); err == nil {
		t.Fatal("negative position accepted")
	}
	if _, err := FlipBits([]byte{0, 7}, 1); err == nil {
		t.Fatal("non-bit symbol accepted")
	}
}

func TestXorSymbols(t *testing.T) {
	word := []byte{0x10, 0x20, 0x30}
	got, err := XorSymbols(word, map[int]byte{0: 0xff, 2: 0x01})
	if err != nil {
		t.Fatalf("XorSymbols: %v", err)
	}
	if !bytes.Equal(got, []byte{0xef, 0x20, 0x31}) {
		t.Fatalf("XorSymbols = %v", got)
	}
	if !bytes.Equal(word, []byte{0x10, 0x20, 0x30}) {
		t.Fatalf("input mutated: %v", word)
	}
	if _, err := XorSymbols(word, map[int]byte{3: 1}); err == nil {
		t.Fatal("out-of-range position accepted")
	}
}

func TestBSCLLR(t *testing.T) {
	p := 0.1
	want := math.Log(9)
	if got := BSCLLR(0, p); math.Abs(got-want) > 1e-12 {
		t.Fatalf("BSCLLR(0, 0.1) = %g, want %g", got, want)
	}
	if got := BSCLLR(1, p); math.Abs(got+want) > 1e-12 {
		t.Fatalf("BSCLLR(1, 0.1) = %g, want %g", got, -want)
	}
	// A noisier channel carries less confidence.
	if math.Abs(BSCLLR(0, 0.4)) >= math.Abs(BSCLLR(0, 0.1)) {
		t.Fatal("LLR magnitude must shrink as p approaches 0.5")
	}
}

func TestPolarChannelLLRs(t *testing.T) {
	got := PolarChannelLLRs([]byte{0, 1, 1, 0}, DefaultPolarLLR)
	want := []float64{4, -4, -4, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("llrs = %v, want %v", got, want)
		}
	}
}
