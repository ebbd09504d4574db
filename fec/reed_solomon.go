package fec

import (
	"errors"
	"fmt"
)

// Systematic Reed-Solomon over GF(2^8) with nsym parity symbols, correcting up
// to nsym/2 symbol errors. Codeword slices store the leading coefficient first
// (message symbols occupy the first K positions unchanged); the small decoder
// polynomials (syndromes, locator, evaluator) are kept in ascending order with
// index = degree.

var (
	// ErrTooManyErrors signals that Berlekamp-Massey produced a locator whose
	// degree exceeds the code's correction capability (2*errs > nsym).
	ErrTooManyErrors = errors.New("rs: too many errors to correct")
	// ErrLocatorMismatch signals that Chien search located a different number
	// of error positions than the locator degree predicted.
	ErrLocatorMismatch = errors.New("rs: error locator does not match located positions")
)

// RSResult reports a decode outcome. On a typed failure (ErrTooManyErrors,
// ErrLocatorMismatch) the result is still returned with Corrected holding the
// received word unmodified, so the caller can display it as-is.
type RSResult struct {
	Corrected []byte
	// Message is the first K symbols of Corrected; nil on failure.
	Message        []byte
	ErrorPositions []int
	Magnitudes     []byte
	Syndromes      []byte
	// SkippedPositions lists located positions whose Forney denominator
	// evaluated to zero and were left uncorrected. Known soft-failure mode.
	SkippedPositions []int
}

// RSEncode appends nsym parity symbols to msg. len(msg)+nsym must fit in the
// 255-symbol block of GF(2^8).
func RSEncode(msg []byte, nsym int) ([]byte, error) {
	if nsym <= 0 {
		return nil, fmt.Errorf("rs: nsym must be positive, got %d", nsym)
	}
	if len(msg) == 0 {
		return nil, errors.New("rs: empty message")
	}
	if len(msg)+nsym > 255 {
		return nil, fmt.Errorf("rs: message length %d + nsym %d exceeds 255", len(msg), nsym)
	}
	gen := rsGeneratorPoly(nsym)
	// Long division of msg(x)*x^nsym by g(x); the remainder becomes parity.
	rem := make([]byte, len(msg)+nsym)
	copy(rem, msg)
	for i := 0; i < len(msg); i++ {
		coef := rem[i]
		if coef == 0 {
			continue
		}
		for j := 1; j < len(gen); j++ {
			rem[i+j] ^= GFMul(gen[j], coef)
		}
	}
	cw := make([]byte, len(msg)+nsym)
	copy(cw, msg)
	copy(cw[len(msg):], rem[len(msg):])
	return cw, nil
}

// RSDecode corrects up to nsym/2 symbol errors in the received word and
// recovers the leading len(received)-nsym message symbols.
func RSDecode(received []byte, nsym int) (*RSResult, error) {
	if nsym <= 0 {
		return nil, fmt.Errorf("rs: nsym must be positive, got %d", nsym)
	}
	if len(received) <= nsym {
		return nil, fmt.Errorf("rs: received word of %d symbols too short for nsym %d", len(received), nsym)
	}
	if len(received) > 255 {
		return nil, fmt.Errorf("rs: received word of %d symbols exceeds 255", len(received))
	}
	n := len(received)
	synd := rsSyndromes(received, nsym)

	res := &RSResult{
		Corrected: append([]byte(nil), received...),
		Syndromes: synd,
	}
	if allZero(synd) {
		res.Message = res.Corrected[:n-nsym]
		return res, nil
	}

	errLoc := rsBerlekampMassey(synd)
	errs := len(errLoc) - 1
	if 2*errs > nsym {
		return res, ErrTooManyErrors
	}

	positions := rsChienSearch(errLoc, n)
	if len(positions) != errs {
		return res, ErrLocatorMismatch
	}

	res.ErrorPositions = positions
	res.Magnitudes = make([]byte, len(positions))
	rsForney(res, synd, errLoc, positions, n, nsym)
	res.Message = res.Corrected[:n-nsym]
	return res, nil
}

// rsGeneratorPoly builds g(x) = prod_{i=0}^{nsym-1} (x - alpha^i), leading
// coefficient first.
func rsGeneratorPoly(nsym int) []byte {
	gen := []byte{1}
	for i := 0; i < nsym; i++ {
		gen = gfPolyMul(gen, []byte{1, AlphaPow(i)})
	}
	return gen
}

// rsSyndromes evaluates the received polynomial at alpha^i for i in [0,nsym).
func rsSyndromes(received []byte, nsym int) []byte {
	synd := make([]byte, nsym)
	for i := 0; i < nsym; i++ {
		synd[i] = gfPolyEval(received, AlphaPow(i))
	}
	return synd
}

// rsBerlekampMassey iterates over all syndromes and returns the error locator
// polynomial in ascending order with high-degree zero coefficients stripped.
func rsBerlekampMassey(synd []byte) []byte {
	errLoc := []byte{1}
	oldLoc := []byte{1}
	for i := 0; i < len(synd); i++ {
		delta := synd[i]
		for j := 1; j < len(errLoc); j++ {
			if i-j >= 0 {
				delta ^= GFMul(errLoc[j], synd[i-j])
			}
		}
		oldLoc = append([]byte{0}, oldLoc...) // multiply by x
		if delta == 0 {
			continue
		}
		if len(oldLoc) > len(errLoc) {
			// Swap roles, scaling by delta and its inverse.
			newLoc := gfPolyScale(oldLoc, delta)
			oldLoc = gfPolyScale(errLoc, GFInv(delta))
			errLoc = newLoc
		}
		errLoc = gfPolyAdd(errLoc, gfPolyScale(oldLoc, delta))
	}
	// Strip zero coefficients above the true degree.
	deg := 0
	for i := len(errLoc) - 1; i >= 0; i-- {
		if errLoc[i] != 0 {
			deg = i
			break
		}
	}
	return errLoc[:deg+1]
}

// rsChienSearch evaluates the locator at alpha^-(n-1-k) for every symbol
// position k and returns the positions where it vanishes, ascending.
func rsChienSearch(errLoc []byte, n int) []int {
	var positions []int
	for k := 0; k < n; k++ {
		x := AlphaPow(-(n - 1 - k))
		if gfPolyEvalAsc(errLoc, x) == 0 {
			positions = append(positions, k)
		}
	}
	return positions
}

// rsForney computes error magnitudes and applies them to res.Corrected. The
// evaluator is Omega(x) = S(x)*Lambda(x) mod x^nsym; the locator derivative at
// Xi^-1 is taken as the product over the other error locations of
// (1 + Xi^-1 * Xj). A zero denominator leaves that position uncorrected.
func rsForney(res *RSResult, synd, errLoc []byte, positions []int, n, nsym int) {
	omega := gfPolyMul(synd, errLoc)
	if len(omega) > nsym {
		omega = omega[:nsym]
	}
	for i, pos := range positions {
		xi := AlphaPow(n - 1 - pos)
		xiInv := GFInv(xi)
		den := byte(1)
		for j, other := range positions {
			if j == i {
				continue
			}
			xj := AlphaPow(n - 1 - other)
			den = GFMul(den, 1^GFMul(xiInv, xj))
		}
		if den == 0 {
			res.SkippedPositions = append(res.SkippedPositions, pos)
			continue
		}
		mag := gfDivUnchecked(gfPolyEvalAsc(omega, xiInv), den)
		res.Magnitudes[i] = mag
		res.Corrected[pos] ^= mag
	}
}

// --- polynomial helpers over GF(2^8) ---

// gfPolyEval evaluates a leading-coefficient-first polynomial at x by Horner's
// rule.
func gfPolyEval(p []byte, x byte) byte {
	y := p[0]
	for i := 1; i < len(p); i++ {
		y = GFMul(y, x) ^ p[i]
	}
	return y
}

// gfPolyEvalAsc evaluates an ascending-order polynomial at x.
func gfPolyEvalAsc(p []byte, x byte) byte {
	y := p[len(p)-1]
	for i := len(p) - 2; i >= 0; i-- {
		y = GFMul(y, x) ^ p[i]
	}
	return y
}

// gfPolyMul convolves two coefficient slices; valid for either coefficient
// order as long as both operands use the same one.
func gfPolyMul(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b)-1)
	for i := range a {
		if a[i] == 0 {
			continue
		}
		for j := range b {
			out[i+j] ^= GFMul(a[i], b[j])
		}
	}
	return out
}

// gfPolyAdd adds two ascending-order polynomials coefficient-wise.
func gfPolyAdd(a, b []byte) []byte {
	if len(b) > len(a) {
		a, b = b, a
	}
	out := append([]byte(nil), a...)
	for i := range b {
		out[i] ^= b[i]
	}
	return out
}

func gfPolyScale(p []byte, s byte) []byte {
	out := make([]byte, len(p))
	for i := range p {
		out[i] = GFMul(p[i], s)
	}
	return out
}

func allZero(p []byte) bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}
