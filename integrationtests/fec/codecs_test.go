package fec

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fecviz/feccore/fec"
)

// End-to-end flows across codec boundaries: the packaged codecs must agree on
// the extended Hamming code, survive symbol corruption on byte frames, and
// hold up against the RaptorQ erasure baseline.

func TestHammingCodewordsFeedLDPC(t *testing.T) {
	params, err := fec.NewLDPCParams(fec.ExtendedHammingH(), 0.1, 20)
	require.NoError(t, err)

	for data := 0; data < 16; data++ {
		word := []byte{byte(data >> 3 & 1), byte(data >> 2 & 1), byte(data >> 1 & 1), byte(data & 1)}
		cw, err := fec.HammingEncode(word, true)
		require.NoError(t, err)

		for pos := 0; pos < len(cw); pos++ {
			rx, err := fec.FlipBits(cw, pos)
			require.NoError(t, err)

			res, err := params.Decode(rx)
			require.NoError(t, err)
			require.True(t, res.Converged, "data %v flip %d", word, pos)
			require.Equal(t, cw, res.Decoded, "data %v flip %d", word, pos)

			// The LDPC output is a clean codeword for the syndrome decoder.
			hr, err := fec.HammingDecode(res.Decoded)
			require.NoError(t, err)
			require.Equal(t, -1, hr.ErrorPosition)
			require.Equal(t, word, hr.Message)
		}
	}
}

func TestFrameOverReedSolomon(t *testing.T) {
	const nsym = 8
	r := rand.New(rand.NewSource(42))
	frame := make([]byte, 48)
	_, err := r.Read(frame)
	require.NoError(t, err)

	cw, err := fec.RSEncode(frame, nsym)
	require.NoError(t, err)

	// Corrupt nsym/2 distinct symbols, the full correction capacity.
	errs := map[int]byte{}
	for len(errs) < nsym/2 {
		pos := r.Intn(len(cw))
		if _, dup := errs[pos]; dup {
			continue
		}
		errs[pos] = byte(1 + r.Intn(255))
	}
	rx, err := fec.XorSymbols(cw, errs)
	require.NoError(t, err)

	res, err := fec.RSDecode(rx, nsym)
	require.NoError(t, err)
	require.Equal(t, frame, res.Message)
	require.Len(t, res.ErrorPositions, nsym/2)
}

func TestPolarBitstreamRoundTrip(t *testing.T) {
	ranking, err := fec.NewPolarRanking(8, 0.3, 4)
	require.NoError(t, err)

	r := rand.New(rand.NewSource(11))
	payload := make([]byte, 16)
	_, err = r.Read(payload)
	require.NoError(t, err)

	// Each byte travels as two polar blocks of four information bits.
	var stream [][]byte
	for _, b := range payload {
		for _, nib := range []byte{b >> 4, b & 0x0f} {
			info := []byte{nib >> 3 & 1, nib >> 2 & 1, nib >> 1 & 1, nib & 1}
			cw, err := fec.PolarEncode(info, ranking)
			require.NoError(t, err)
			stream = append(stream, cw)
		}
	}

	got := make([]byte, 0, len(payload))
	for i := 0; i < len(stream); i += 2 {
		var b byte
		for j, cw := range stream[i : i+2] {
			info, _, err := fec.PolarDecode(cw, ranking)
			require.NoError(t, err)
			nib := info[0]<<3 | info[1]<<2 | info[2]<<1 | info[3]
			if j == 0 {
				b = nib << 4
			} else {
				b |= nib
			}
		}
		got = append(got, b)
	}
	require.Equal(t, payload, got)
}

func TestRaptorQBaseline(t *testing.T) {
	const (
		K         = 32
		N         = 40
		L         = 16
		frameSize = K * L
	)
	r := rand.New(rand.NewSource(1))
	frame := make([]byte, frameSize)
	if _, err := r.Read(frame); err != nil {
		t.Fatalf("Failed to generate random frame: %v", err)
	}

	fmt.Printf("Parameters: K=%d source symbols, N=%d sent, symbol size=%d bytes\n", K, N, L)
	symbols, err := fec.RaptorQEncodeBlock(frame, N, K, L)
	if err != nil {
		t.Fatalf("Encoding failed: %v", err)
	}
	if len(symbols) != N {
		t.Fatalf("expected %d symbols, got %d", N, len(symbols))
	}

	// Drop four source symbols so the decoder has to use repair symbols.
	survivors := make([]fec.RaptorQSymbol, 0, N-4)
	for i, s := range symbols {
		if i%8 == 3 && i < K {
			continue
		}
		survivors = append(survivors, s)
	}
	fmt.Printf("Dropped %d symbols, decoding from %d survivors\n", N-len(survivors), len(survivors))

	recovered, ok := fec.RaptorQDecodeBlock(survivors, L, frameSize)
	if !ok {
		t.Fatal("Decoding failed with sufficient survivors")
	}
	if !bytes.Equal(frame, recovered) {
		t.Fatal("Recovered frame does not match the original")
	}
}
