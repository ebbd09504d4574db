package fec

import (
	"bytes"
	"testing"
)

func allDataWords() [][]byte {
	out := make([][]byte, 0, 16)
	for v := 0; v < 16; v++ {
		out = append(out, []byte{
			byte(v) & 1, byte(v>>1) & 1, byte(v>>2) & 1, byte(v>>3) & 1,
		})
	}
	return out
}

func TestHammingEncodeFormulas(t *testing.T) {
	data := []byte{1, 0, 1, 1}
	cw, err := HammingEncode(data, false)
	if err != nil {
		t.Fatal(err)
	}
	// p1=d0^d1^d3, p2=d0^d2^d3, p4=d1^d2^d3, layout {p1,p2,d0,p4,d1,d2,d3}
	want := []byte{0, 1, 1, 0, 0, 1, 1}
	if !bytes.Equal(cw, want) {
		t.Fatalf("codeword = %v, want %v", cw, want)
	}
}

func TestHammingExtendedParity(t *testing.T) {
	for _, data := range allDataWords() {
		cw, err := HammingEncode(data, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(cw) != 8 {
			t.Fatalf("extended codeword length %d", len(cw))
		}
		var parity byte
		for _, b := range cw {
			parity ^= b
		}
		if parity != 0 {
			t.Fatalf("extended codeword %v has odd overall parity", cw)
		}
	}
}

func TestHammingNoErrorDecode(t *testing.T) {
	for _, extended := range []bool{false, true} {
		for _, data := range allDataWords() {
			cw, err := HammingEncode(data, extended)
			if err != nil {
				t.Fatal(err)
			}
			res, err := HammingDecode(cw)
			if err != nil {
				t.Fatal(err)
			}
			if res.ErrorPosition != -1 || res.Syndrome != 0 {
				t.Fatalf("clean decode flagged error at %d (syndrome %d)", res.ErrorPosition, res.Syndrome)
			}
			if !bytes.Equal(res.Message, data) {
				t.Fatalf("message = %v, want %v", res.Message, data)
			}
		}
	}
}

func TestHammingSingleBitCorrection(t *testing.T) {
	for _, extended := range []bool{false, true} {
		for _, data := range allDataWords() {
			cw, err := HammingEncode(data, extended)
			if err != nil {
				t.Fatal(err)
			}
			for pos := 0; pos < len(cw); pos++ {
				recv, err := FlipBits(cw, pos)
				if err != nil {
					t.Fatal(err)
				}
				res, err := HammingDecode(recv)
				if err != nil {
					t.Fatal(err)
				}
				if res.ErrorPosition != pos {
					t.Fatalf("extended=%v data=%v: flipped %d, reported %d", extended, data, pos, res.ErrorPosition)
				}
				if !bytes.Equal(res.Corrected, cw) {
					t.Fatalf("extended=%v: corrected %v, want %v", extended, res.Corrected, cw)
				}
				if !bytes.Equal(res.Message, data) {
					t.Fatalf("extended=%v: message %v, want %v", extended, res.Message, data)
				}
			}
		}
	}
}

// Flipping 1-indexed position 5 of the [1,0,1,1] codeword must be reported at
// 0-indexed position 4 with the original word restored.
func TestHammingKnownScenario(t *testing.T) {
	cw, err := HammingEncode([]byte{1, 0, 1, 1}, false)
	if err != nil {
		t.Fatal(err)
	}
	recv, err := FlipBits(cw, 4)
	if err != nil {
		t.Fatal(err)
	}
	res, err := HammingDecode(recv)
	if err != nil {
		t.Fatal(err)
	}
	if res.ErrorPosition != 4 {
		t.Fatalf("error position %d, want 4", res.ErrorPosition)
	}
	if !bytes.Equal(res.Corrected, cw) {
		t.Fatalf("corrected %v, want %v", res.Corrected, cw)
	}
}

// Correction under two flips is undefined, but the syndrome must not be zero.
func TestHammingDoubleFlipDetected(t *testing.T) {
	for _, data := range allDataWords() {
		cw, err := HammingEncode(data, false)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < len(cw); i++ {
			for j := i + 1; j < len(cw); j++ {
				recv, err := FlipBits(cw, i, j)
				if err != nil {
					t.Fatal(err)
				}
				res, err := HammingDecode(recv)
				if err != nil {
					t.Fatal(err)
				}
				if res.Syndrome == 0 {
					t.Fatalf("double flip (%d,%d) of %v produced zero syndrome", i, j, cw)
				}
			}
		}
	}
}

func TestHammingInputViolations(t *testing.T) {
	if _, err := HammingEncode([]byte{1, 0, 1}, false); err == nil {
		t.Fatal("short data must be rejected")
	}
	if _, err := HammingEncode([]byte{1, 0, 1, 2}, false); err == nil {
		t.Fatal("non-bit data must be rejected")
	}
	if _, err := HammingDecode([]byte{1, 0, 1, 0, 1}); err == nil {
		t.Fatal("wrong-length word must be rejected")
	}
}
