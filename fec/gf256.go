package fec

import "errors"

// GF(2^8) arithmetic using log/antilog tables with primitive polynomial 0x11d.
// Tables are built once at package init and are read-only afterwards, so all
// operations are safe for unsynchronized concurrent use.

// ErrDivisionByZero is returned by GFDiv when the divisor is the zero element.
var ErrDivisionByZero = errors.New("gf256: division by zero")

var (
	gfExp [512]byte
	gfLog [256]byte
)

func init() {
	// generator = 0x02, primitive polynomial = 0x11d
	x := 1
	for i := 0; i < 255; i++ {
		gfExp[i] = byte(x)
		gfLog[byte(x)] = byte(i)
		x <<= 1
		if (x & 0x100) != 0 { // carry out from bit 8
			x ^= 0x11d // reduce by 0x11d
		}
	}
	for i := 255; i < 512; i++ {
		gfExp[i] = gfExp[i-255]
	}
}

// GFMul multiplies two field elements. Zero operands short-circuit without a
// table lookup (log(0) is undefined).
func GFMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

// GFDiv divides a by b. Dividing by zero is an input violation and returns
// ErrDivisionByZero; 0/b is 0 for any non-zero b.
func GFDiv(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == 0 {
		return 0, nil
	}
	return gfExp[(int(gfLog[a])-int(gfLog[b])+255)%255], nil
}

// GFInv returns the multiplicative inverse of a. Calling it with the zero
// element violates the precondition and panics.
func GFInv(a byte) byte {
	if a == 0 {
		panic("gf256: inverse of zero")
	}
	return gfExp[255-int(gfLog[a])]
}

// GFPow raises a to the n-th power. n may be negative for non-zero a.
func GFPow(a byte, n int) byte {
	if a == 0 {
		if n == 0 {
			return 1
		}
		return 0
	}
	e := (int(gfLog[a]) * n) % 255
	if e < 0 {
		e += 255
	}
	return gfExp[e]
}

// AlphaPow returns generator^e, with e taken mod 255.
func AlphaPow(e int) byte {
	e %= 255
	if e < 0 {
		e += 255
	}
	return gfExp[e]
}

// gfDivUnchecked is the internal divide for call sites that have already
// excluded a zero divisor.
func gfDivUnchecked(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return gfExp[(int(gfLog[a])-int(gfLog[b])+255)%255]
}
