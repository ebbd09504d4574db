package fec

import (
	"errors"
	"fmt"
	"math"
)

// LDPC decoding by min-sum belief propagation over a caller-supplied binary
// parity-check matrix. The decoder is pure: every call works on its own
// message buffers and returns a fresh result with the full per-iteration
// trace, so callers can replay the message flow over the Tanner graph.

// DefaultLDPCDamping scales check-to-variable magnitudes to compensate the
// min-sum overestimate. Tuning constant, not derived; 0.75 and 0.9 both work
// well on small codes.
const DefaultLDPCDamping = 0.75

// LDPCParams holds the static per-code configuration. Build it once with
// NewLDPCParams and reuse it across decodes; Decode never mutates it.
type LDPCParams struct {
	H        [][]byte
	FlipProb float64
	MaxIter  int
	// Damping is the min-sum scaling factor in (0,1]. Defaults to
	// DefaultLDPCDamping; override before the first Decode if needed.
	Damping float64

	m, n      int
	checkVars [][]int // per check row, connected variable indices
	varChecks [][]int // per variable, connected check indices
}

// LDPCIteration captures the decoder state after one message-passing round.
// Message matrices are dense M x N with zeros at non-edges.
type LDPCIteration struct {
	CheckToVar   [][]float64
	VarToCheck   [][]float64
	Beliefs      []float64
	HardDecision []byte
	SyndromeOK   bool
}

// LDPCResult is the decode outcome. Converged=false after MaxIter rounds is
// not an error; Decoded still holds the final hard decision.
type LDPCResult struct {
	Decoded    []byte
	Converged  bool
	Iterations int
	Trace      []LDPCIteration
}

// NewLDPCParams validates H and the channel model and precomputes the Tanner
// graph adjacency.
func NewLDPCParams(H [][]byte, flipProb float64, maxIter int) (*LDPCParams, error) {
	if len(H) == 0 || len(H[0]) == 0 {
		return nil, errors.New("ldpc: empty parity-check matrix")
	}
	m, n := len(H), len(H[0])
	for i, row := range H {
		if len(row) != n {
			return nil, fmt.Errorf("ldpc: row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v > 1 {
				return nil, fmt.Errorf("ldpc: H[%d][%d] = %d, want 0 or 1", i, j, v)
			}
		}
	}
	if flipProb <= 0 || flipProb >= 0.5 {
		return nil, fmt.Errorf("ldpc: flip probability %g outside (0, 0.5)", flipProb)
	}
	if maxIter <= 0 {
		return nil, fmt.Errorf("ldpc: max iterations must be positive, got %d", maxIter)
	}
	p := &LDPCParams{
		H:        H,
		FlipProb: flipProb,
		MaxIter:  maxIter,
		Damping:  DefaultLDPCDamping,
		m:        m,
		n:        n,
	}
	p.checkVars = make([][]int, m)
	p.varChecks = make([][]int, n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			if H[i][j] == 1 {
				p.checkVars[i] = append(p.checkVars[i], j)
				p.varChecks[j] = append(p.varChecks[j], i)
			}
		}
	}
	return p, nil
}

// Decode runs min-sum belief propagation on the received bits, stopping early
// when the hard decision satisfies every parity check.
func (p *LDPCParams) Decode(received []byte) (*LDPCResult, error) {
	if len(received) != p.n {
		return nil, fmt.Errorf("ldpc: received word has %d bits, want %d", len(received), p.n)
	}
	for j, b := range received {
		if b > 1 {
			return nil, fmt.Errorf("ldpc: received[%d] = %d, want 0 or 1", j, b)
		}
	}
	if p.Damping <= 0 || p.Damping > 1 {
		return nil, fmt.Errorf("ldpc: damping %g outside (0, 1]", p.Damping)
	}

	chLLR := make([]float64, p.n)
	for j, b := range received {
		chLLR[j] = BSCLLR(b, p.FlipProb)
	}

	// Variable-to-check messages start as the channel LLRs on every edge.
	v2c := makeDense(p.m, p.n)
	for i, vars := range p.checkVars {
		for _, j := range vars {
			v2c[i][j] = chLLR[j]
		}
	}

	res := &LDPCResult{Decoded: make([]byte, p.n)}
	c2v := makeDense(p.m, p.n)
	beliefs := make([]float64, p.n)

	for iter := 0; iter < p.MaxIter; iter++ {
		// Check to variable: sign product and min magnitude over the other
		// edges of the check, scaled by the damping factor.
		for i, vars := range p.checkVars {
			for _, j := range vars {
				sign := 1.0
				minAbs := math.Inf(1)
				for _, k := range vars {
					if k == j {
						continue
					}
					msg := v2c[i][k]
					if msg < 0 {
						sign = -sign
					}
					if a := math.Abs(msg); a < minAbs {
						minAbs = a
					}
				}
				if math.IsInf(minAbs, 1) {
					minAbs = 0 // degree-1 check has no other edges
				}
				c2v[i][j] = p.Damping * sign * minAbs
			}
		}

		// Total belief per variable.
		for j := 0; j < p.n; j++ {
			b := chLLR[j]
			for _, i := range p.varChecks[j] {
				b += c2v[i][j]
			}
			beliefs[j] = b
		}

		// Variable to check for the next round: extrinsic exclusion of the
		// message just received on the same edge.
		for i, vars := range p.checkVars {
			for _, j := range vars {
				v2c[i][j] = beliefs[j] - c2v[i][j]
			}
		}

		// Hard decision and syndrome check.
		hard := make([]byte, p.n)
		for j, b := range beliefs {
			if b < 0 {
				hard[j] = 1
			}
		}
		ok := p.syndromeOK(hard)

		res.Trace = append(res.Trace, LDPCIteration{
			CheckToVar:   copyDense(c2v),
			VarToCheck:   copyDense(v2c),
			Beliefs:      append([]float64(nil), beliefs...),
			HardDecision: hard,
			SyndromeOK:   ok,
		})
		res.Iterations = iter + 1
		copy(res.Decoded, hard)
		if ok {
			res.Converged = true
			break
		}
	}
	return res, nil
}

func (p *LDPCParams) syndromeOK(bits []byte) bool {
	for _, vars := range p.checkVars {
		var x byte
		for _, j := range vars {
			x ^= bits[j]
		}
		if x != 0 {
			return false
		}
	}
	return true
}

// ExtendedHammingH returns a 4x8 parity-check matrix of the extended
// Hamming(8,4) code, the default H for demos and tests. The last row is the
// overall-parity row XORed with the three Hamming rows, keeping the row space
// while avoiding a degree-8 check that stalls min-sum on single flips.
func ExtendedHammingH() [][]byte {
	return [][]byte{
		{0, 1, 0, 1, 0, 1, 0, 1},
		{0, 0, 1, 1, 0, 0, 1, 1},
		{0, 0, 0, 0, 1, 1, 1, 1},
		{1, 0, 0, 1, 0, 1, 1, 0},
	}
}

func makeDense(m, n int) [][]float64 {
	out := make([][]float64, m)
	for i := range out {
		out[i] = make([]float64, n)
	}
	return out
}

func copyDense(src [][]float64) [][]float64 {
	out := make([][]float64, len(src))
	for i := range src {
		out[i] = append([]float64(nil), src[i]...)
	}
	return out
}
