package fec

import (
	"fmt"
	"math"
	"sort"
)

// Polar code over GF(2) with generator G_N = F^(kron n), F = [[1,0],[1,1]],
// information set chosen by the BEC Bhattacharyya recursion and decoding by
// recursive successive cancellation on LLRs.

// DefaultPolarLLR is the magnitude assigned to each received bit's channel
// LLR when no soft information is available.
const DefaultPolarLLR = 4.0

// PolarRanking is the static per-code configuration: the frozen/information
// partition of the N bit-channels for a given erasure probability.
type PolarRanking struct {
	N, K        int
	ErasureProb float64
	// Frozen[i] is true when u-channel i is frozen to 0.
	Frozen []bool
	// InfoIndices lists the K information channels in ascending index order;
	// message bits are placed and read back in this order.
	InfoIndices []int
	// Bhattacharyya holds the per-channel reliability parameter, indexed like
	// the u vector (smaller = more reliable).
	Bhattacharyya []float64
}

// NewPolarRanking ranks the N bit-channels for a binary-erasure channel with
// the given erasure probability and freezes the N-K least reliable ones.
func NewPolarRanking(N int, erasureProb float64, K int) (*PolarRanking, error) {
	if N <= 0 || N&(N-1) != 0 {
		return nil, fmt.Errorf("polar: N=%d is not a power of two", N)
	}
	if K < 0 || K > N {
		return nil, fmt.Errorf("polar: K=%d outside [0,%d]", K, N)
	}
	if erasureProb <= 0 || erasureProb >= 1 {
		return nil, fmt.Errorf("polar: erasure probability %g outside (0,1)", erasureProb)
	}
	// The recursion emits (bad,good) pairs adjacently, so the first (outermost)
	// split lands in the most significant bit of the table index. That is the
	// u-index order of G_N = F^(kron n) with halves split MSB-first, so the
	// table needs no reordering.
	z := bhattacharyyaBEC(N, erasureProb)
	order := make([]int, N)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return z[order[a]] < z[order[b]] })

	info := append([]int(nil), order[:K]...)
	sort.Ints(info)
	frozen := make([]bool, N)
	for i := range frozen {
		frozen[i] = true
	}
	for _, idx := range info {
		frozen[idx] = false
	}
	return &PolarRanking{
		N: N, K: K,
		ErasureProb:   erasureProb,
		Frozen:        frozen,
		InfoIndices:   info,
		Bhattacharyya: z,
	}, nil
}

// bhattacharyyaBEC expands the erasure probability through n polarization
// levels, emitting for each channel z the pair (min(2z-z^2,1), z^2).
func bhattacharyyaBEC(N int, eps float64) []float64 {
	z := []float64{eps}
	for len(z) < N {
		next := make([]float64, 0, len(z)*2)
		for _, v := range z {
			bad := 2*v - v*v
			if bad > 1 {
				bad = 1
			}
			next = append(next, bad, v*v)
		}
		z = next
	}
	return z
}

// PolarGenerator builds G_N by repeated Kronecker product of F mod 2.
func PolarGenerator(N int) ([][]byte, error) {
	if N <= 0 || N&(N-1) != 0 {
		return nil, fmt.Errorf("polar: N=%d is not a power of two", N)
	}
	G := [][]byte{{1}}
	for len(G) < N {
		a := len(G)
		next := make([][]byte, 2*a)
		for i := 0; i < 2*a; i++ {
			next[i] = make([]byte, 2*a)
		}
		for i := 0; i < a; i++ {
			for j := 0; j < a; j++ {
				if G[i][j] == 1 {
					next[i][j] = 1
					next[a+i][j] = 1
					next[a+i][a+j] = 1
				}
			}
		}
		G = next
	}
	return G, nil
}

// PolarEncode places the K information bits into their assigned channels of
// an all-zero u vector and multiplies by G_N mod 2.
func PolarEncode(infoBits []byte, r *PolarRanking) ([]byte, error) {
	if len(infoBits) != r.K {
		return nil, fmt.Errorf("polar: got %d info bits, want %d", len(infoBits), r.K)
	}
	for i, b := range infoBits {
		if b > 1 {
			return nil, fmt.Errorf("polar: infoBits[%d] = %d, want 0 or 1", i, b)
		}
	}
	u := make([]byte, r.N)
	for i, idx := range r.InfoIndices {
		u[idx] = infoBits[i]
	}
	G, err := PolarGenerator(r.N)
	if err != nil {
		return nil, err
	}
	cw := make([]byte, r.N)
	for i := 0; i < r.N; i++ {
		if u[i] == 0 {
			continue
		}
		for j := 0; j < r.N; j++ {
			cw[j] ^= G[i][j]
		}
	}
	return cw, nil
}

// PolarDecode runs successive cancellation on the received bits and returns
// the recovered message followed by the full decoded u vector.
func PolarDecode(received []byte, r *PolarRanking) (msg, u []byte, err error) {
	if len(received) != r.N {
		return nil, nil, fmt.Errorf("polar: received word has %d bits, want %d", len(received), r.N)
	}
	for i, b := range received {
		if b > 1 {
			return nil, nil, fmt.Errorf("polar: received[%d] = %d, want 0 or 1", i, b)
		}
	}
	llrs := PolarChannelLLRs(received, DefaultPolarLLR)
	return PolarDecodeLLRs(llrs, r)
}

// PolarDecodeLLRs is PolarDecode for callers that already have channel LLRs.
func PolarDecodeLLRs(llrs []float64, r *PolarRanking) (msg, u []byte, err error) {
	if len(llrs) != r.N {
		return nil, nil, fmt.Errorf("polar: got %d LLRs, want %d", len(llrs), r.N)
	}
	u, _ = scDecode(llrs, r.Frozen)
	msg = make([]byte, r.K)
	for i, idx := range r.InfoIndices {
		msg[i] = u[idx]
	}
	return msg, u, nil
}

// scDecode decodes one block, returning both the u bits and the re-encoded
// partial sums x = u*G for the block; the parent needs x, not u, to feed its
// g-function.
func scDecode(llr []float64, frozen []bool) (u, x []byte) {
	if len(llr) == 1 {
		var bit byte
		if !frozen[0] && llr[0] < 0 {
			bit = 1
		}
		return []byte{bit}, []byte{bit}
	}
	half := len(llr) / 2

	f := make([]float64, half)
	for i := 0; i < half; i++ {
		f[i] = polarF(llr[i], llr[half+i])
	}
	uUp, xUp := scDecode(f, frozen[:half])

	g := make([]float64, half)
	for i := 0; i < half; i++ {
		g[i] = polarG(llr[i], llr[half+i], xUp[i])
	}
	uLo, xLo := scDecode(g, frozen[half:])

	u = append(uUp, uLo...)
	x = make([]byte, len(llr))
	for i := 0; i < half; i++ {
		x[i] = xUp[i] ^ xLo[i]
		x[half+i] = xLo[i]
	}
	return u, x
}

// polarF is the min-sum check combination of two LLRs.
func polarF(a, b float64) float64 {
	s := 1.0
	if a < 0 {
		s = -s
	}
	if b < 0 {
		s = -s
	}
	return s * math.Min(math.Abs(a), math.Abs(b))
}

// polarG folds the already-decoded upper-half bit u into the lower-half LLR.
func polarG(a, b float64, u byte) float64 {
	return b + (1-2*float64(u))*a
}
