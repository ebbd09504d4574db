package fec

import "github.com/francoispqt/gojay"

// gojay marshalers for decode traces. The trace stream is the hot path of the
// visualization client (one frame per BP iteration), so it bypasses
// encoding/json reflection.

// Bits is a gojay-marshalable bit vector.
type Bits []byte

func (b Bits) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range b {
		enc.Int(int(v))
	}
}

func (b Bits) IsNil() bool { return b == nil }

// LLRs is a gojay-marshalable LLR vector.
type LLRs []float64

func (l LLRs) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range l {
		enc.Float(v)
	}
}

func (l LLRs) IsNil() bool { return l == nil }

// LLRMatrix is a gojay-marshalable dense message matrix.
type LLRMatrix [][]float64

func (m LLRMatrix) MarshalJSONArray(enc *gojay.Encoder) {
	for _, row := range m {
		enc.Array(LLRs(row))
	}
}

func (m LLRMatrix) IsNil() bool { return m == nil }

// Positions is a gojay-marshalable position list.
type Positions []int

func (p Positions) MarshalJSONArray(enc *gojay.Encoder) {
	for _, v := range p {
		enc.Int(v)
	}
}

func (p Positions) IsNil() bool { return p == nil }

func (it *LDPCIteration) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ArrayKey("checkToVar", LLRMatrix(it.CheckToVar))
	enc.ArrayKey("varToCheck", LLRMatrix(it.VarToCheck))
	enc.ArrayKey("beliefs", LLRs(it.Beliefs))
	enc.ArrayKey("hardDecision", Bits(it.HardDecision))
	enc.BoolKey("syndromeOK", it.SyndromeOK)
}

func (it *LDPCIteration) IsNil() bool { return it == nil }

func (r *LDPCResult) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ArrayKey("decoded", Bits(r.Decoded))
	enc.BoolKey("converged", r.Converged)
	enc.IntKey("iterations", r.Iterations)
}

func (r *LDPCResult) IsNil() bool { return r == nil }

func (r *RSResult) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ArrayKey("corrected", Bits(r.Corrected))
	enc.ArrayKey("message", Bits(r.Message))
	enc.ArrayKey("errorPositions", Positions(r.ErrorPositions))
	enc.ArrayKey("magnitudes", Bits(r.Magnitudes))
	enc.ArrayKey("syndromes", Bits(r.Syndromes))
	enc.ArrayKey("skippedPositions", Positions(r.SkippedPositions))
}

func (r *RSResult) IsNil() bool { return r == nil }

func (r *HammingResult) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ArrayKey("corrected", Bits(r.Corrected))
	enc.IntKey("errorPosition", r.ErrorPosition)
	enc.IntKey("syndrome", r.Syndrome)
	enc.BoolKey("syndromeOutOfRange", r.SyndromeOutOfRange)
	enc.ArrayKey("message", Bits(r.Message))
}

func (r *HammingResult) IsNil() bool { return r == nil }
