package fec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestRSEncodeYieldsZeroSyndromes(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, tc := range []struct{ k, nsym int }{
		{4, 2}, {11, 4}, {16, 8}, {32, 10}, {223, 32},
	} {
		msg := make([]byte, tc.k)
		r.Read(msg)
		cw, err := RSEncode(msg, tc.nsym)
		if err != nil {
			t.Fatalf("k=%d nsym=%d: %v", tc.k, tc.nsym, err)
		}
		if len(cw) != tc.k+tc.nsym {
			t.Fatalf("codeword length %d, want %d", len(cw), tc.k+tc.nsym)
		}
		if !bytes.Equal(cw[:tc.k], msg) {
			t.Fatal("systematic encode must keep message symbols in front")
		}
		for i := 0; i < tc.nsym; i++ {
			if s := gfPolyEval(cw, AlphaPow(i)); s != 0 {
				t.Fatalf("syndrome %d of clean codeword = %d", i, s)
			}
		}
	}
}

func TestRSDecodeClean(t *testing.T) {
	msg := []byte{0x40, 0xd2, 0x75, 0x47, 0x76, 0x17, 0x32, 0x06, 0x27, 0x26, 0x96, 0xc6}
	cw, err := RSEncode(msg, 4)
	if err != nil {
		t.Fatal(err)
	}
	res, err := RSDecode(cw, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ErrorPositions) != 0 {
		t.Fatalf("clean decode reported errors at %v", res.ErrorPositions)
	}
	if !bytes.Equal(res.Message, msg) {
		t.Fatalf("message %x, want %x", res.Message, msg)
	}
	if !allZero(res.Syndromes) {
		t.Fatalf("clean decode has non-zero syndromes %v", res.Syndromes)
	}
}

func TestRSCorrectsUpToCapacity(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, nsym := range []int{2, 4, 6, 8} {
		maxErrs := nsym / 2
		for trial := 0; trial < 50; trial++ {
			k := 8 + r.Intn(40)
			msg := make([]byte, k)
			r.Read(msg)
			cw, err := RSEncode(msg, nsym)
			if err != nil {
				t.Fatal(err)
			}
			nerr := 1 + r.Intn(maxErrs)
			injected := map[int]byte{}
			for len(injected) < nerr {
				pos := r.Intn(len(cw))
				if _, dup := injected[pos]; dup {
					continue
				}
				injected[pos] = byte(1 + r.Intn(255))
			}
			recv, err := XorSymbols(cw, injected)
			if err != nil {
				t.Fatal(err)
			}
			res, err := RSDecode(recv, nsym)
			if err != nil {
				t.Fatalf("nsym=%d errs=%d: %v", nsym, nerr, err)
			}
			if !bytes.Equal(res.Message, msg) {
				t.Fatalf("nsym=%d errs=%d: message not recovered", nsym, nerr)
			}
			if !bytes.Equal(res.Corrected, cw) {
				t.Fatalf("nsym=%d errs=%d: codeword not restored", nsym, nerr)
			}
			if len(res.ErrorPositions) != nerr {
				t.Fatalf("located %d positions, injected %d", len(res.ErrorPositions), nerr)
			}
			for i, pos := range res.ErrorPositions {
				if res.Magnitudes[i] != injected[pos] {
					t.Fatalf("position %d: magnitude %#x, injected %#x", pos, res.Magnitudes[i], injected[pos])
				}
			}
		}
	}
}

// Beyond capacity the decoder must report a typed failure in the common case;
// a silently wrong (but never silently "correct") result is a documented rare
// limit of bounded-distance decoding.
func TestRSBeyondCapacityFails(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	msg := make([]byte, 12)
	r.Read(msg)
	cw, err := RSEncode(msg, 4)
	if err != nil {
		t.Fatal(err)
	}
	failures := 0
	const trials = 30
	for trial := 0; trial < trials; trial++ {
		injected := map[int]byte{}
		for len(injected) < 3 {
			injected[r.Intn(len(cw))] = byte(1 + r.Intn(255))
		}
		recv, err := XorSymbols(cw, injected)
		if err != nil {
			t.Fatal(err)
		}
		res, err := RSDecode(recv, 4)
		if err != nil {
			if !errors.Is(err, ErrTooManyErrors) && !errors.Is(err, ErrLocatorMismatch) {
				t.Fatalf("unexpected error type: %v", err)
			}
			if !bytes.Equal(res.Corrected, recv) {
				t.Fatal("failed decode must carry the received word unmodified")
			}
			failures++
			continue
		}
		if bytes.Equal(res.Corrected, cw) {
			t.Fatal("three errors with nsym=4 cannot restore the original codeword")
		}
	}
	if failures < trials*2/3 {
		t.Fatalf("only %d/%d trials reported an uncorrectable failure", failures, trials)
	}
}

func TestRSParityOnlyErrors(t *testing.T) {
	msg := []byte("hello rs parity")
	cw, err := RSEncode(msg, 6)
	if err != nil {
		t.Fatal(err)
	}
	// Corrupt parity symbols only; the message is untouched but decoding
	// must still locate and fix the parity positions.
	recv, err := XorSymbols(cw, map[int]byte{len(msg): 0x5a, len(msg) + 3: 0x11})
	if err != nil {
		t.Fatal(err)
	}
	res, err := RSDecode(recv, 6)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.Corrected, cw) {
		t.Fatal("parity symbols not restored")
	}
}

func TestRSInputViolations(t *testing.T) {
	if _, err := RSEncode(nil, 4); err == nil {
		t.Fatal("empty message must be rejected")
	}
	if _, err := RSEncode(make([]byte, 300), 4); err == nil {
		t.Fatal("oversized block must be rejected")
	}
	if _, err := RSEncode([]byte{1}, 0); err == nil {
		t.Fatal("nsym=0 must be rejected")
	}
	if _, err := RSDecode([]byte{1, 2}, 4); err == nil {
		t.Fatal("word shorter than nsym must be rejected")
	}
}

func TestRSGeneratorPoly(t *testing.T) {
	// g(x) for nsym=2: (x - a^0)(x - a^1) = x^2 + (1+a)x + a, leading first.
	g := rsGeneratorPoly(2)
	want := []byte{1, 1 ^ AlphaPow(1), AlphaPow(1)}
	if !bytes.Equal(g, want) {
		t.Fatalf("generator %v, want %v", g, want)
	}
	if g[0] != 1 {
		t.Fatal("generator must be monic")
	}
	for i := 0; i < 2; i++ {
		// leading-first evaluation must vanish at the roots
		if gfPolyEval(g, AlphaPow(i)) != 0 {
			t.Fatalf("g(alpha^%d) != 0", i)
		}
	}
}
