package fec

import (
	"fmt"
	"math"
)

// Error-pattern application and channel models. All helpers copy their input;
// the original codeword is never mutated.

// FlipBits returns a copy of word with the bits at the given 0-indexed
// positions flipped. Positions must be in range and the word must be binary.
func FlipBits(word []byte, positions ...int) ([]byte, error) {
	out := append([]byte(nil), word...)
	for _, pos := range positions {
		if pos < 0 || pos >= len(word) {
			return nil, fmt.Errorf("fec: flip position %d outside [0,%d)", pos, len(word))
		}
		if out[pos] > 1 {
			return nil, fmt.Errorf("fec: word[%d] = %d is not a bit", pos, out[pos])
		}
		out[pos] ^= 1
	}
	return out, nil
}

// XorSymbols returns a copy of word with each listed position XORed by its
// error value, the full-symbol corruption rule of Reed-Solomon.
func XorSymbols(word []byte, errs map[int]byte) ([]byte, error) {
	out := append([]byte(nil), word...)
	for pos, v := range errs {
		if pos < 0 || pos >= len(word) {
			return nil, fmt.Errorf("fec: error position %d outside [0,%d)", pos, len(word))
		}
		out[pos] ^= v
	}
	return out, nil
}

// BSCLLR maps a received bit to its channel log-likelihood ratio for a binary
// symmetric channel with flip probability p: ln((1-p)/p), negated for bit 1.
func BSCLLR(bit byte, p float64) float64 {
	llr := math.Log((1 - p) / p)
	if bit == 1 {
		return -llr
	}
	return llr
}

// PolarChannelLLRs maps received bits to +/-base LLRs (positive for 0).
func PolarChannelLLRs(received []byte, base float64) []float64 {
	llrs := make([]float64, len(received))
	for i, b := range received {
		if b == 1 {
			llrs[i] = -base
		} else {
			llrs[i] = base
		}
	}
	return llrs
}
