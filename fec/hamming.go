package fec

import "errors"

// Hamming(7,4) block code with an optional extended (8,4) variant that carries
// an overall parity bit in front of the 7-bit codeword.
//
// Codeword layout follows the classic 1-indexed positions {p1,p2,d0,p4,d1,d2,d3};
// the extended variant prepends p0 at slice index 0.

var (
	errHammingDataLen = errors.New("hamming: data must be exactly 4 bits")
	errHammingWordLen = errors.New("hamming: received word must be 7 or 8 bits")
	errHammingBitVal  = errors.New("hamming: bits must be 0 or 1")
)

// HammingResult reports the outcome of a decode.
type HammingResult struct {
	// Corrected is the received word with the located single-bit error (if
	// any) flipped back.
	Corrected []byte
	// ErrorPosition is the 0-indexed position of the corrected bit in the
	// received word, or -1 when the syndrome was zero.
	ErrorPosition int
	// Syndrome is the combined syndrome value s1 + 2*s2 + 4*s4.
	Syndrome int
	// SyndromeOutOfRange flags a syndrome that points outside the word; the
	// word is returned uncorrected in that case. Diagnostic only.
	SyndromeOutOfRange bool
	// Message holds the four data bits extracted from the corrected word.
	Message []byte
}

// HammingEncode encodes 4 data bits. With extended=true the result is the
// 8-bit codeword of Hamming(8,4), otherwise the 7-bit codeword of Hamming(7,4).
func HammingEncode(data []byte, extended bool) ([]byte, error) {
	if len(data) != 4 {
		return nil, errHammingDataLen
	}
	for _, b := range data {
		if b > 1 {
			return nil, errHammingBitVal
		}
	}
	d0, d1, d2, d3 := data[0], data[1], data[2], data[3]
	p1 := d0 ^ d1 ^ d3
	p2 := d0 ^ d2 ^ d3
	p4 := d1 ^ d2 ^ d3
	cw := []byte{p1, p2, d0, p4, d1, d2, d3}
	if !extended {
		return cw, nil
	}
	var p0 byte
	for _, b := range cw {
		p0 ^= b
	}
	return append([]byte{p0}, cw...), nil
}

// HammingDecode locates and corrects at most one flipped bit in a received
// 7- or 8-bit word (the length selects the variant). Two or more flips yield
// an undefined correction; the syndrome is still non-zero and reported.
func HammingDecode(received []byte) (*HammingResult, error) {
	if len(received) != 7 && len(received) != 8 {
		return nil, errHammingWordLen
	}
	for _, b := range received {
		if b > 1 {
			return nil, errHammingBitVal
		}
	}
	extended := len(received) == 8
	off := 0
	if extended {
		off = 1
	}
	// bit at 1-indexed position i of the base 7-bit word
	bit := func(i int) byte { return received[off+i-1] }

	s1 := bit(1) ^ bit(3) ^ bit(5) ^ bit(7)
	s2 := bit(2) ^ bit(3) ^ bit(6) ^ bit(7)
	s4 := bit(4) ^ bit(5) ^ bit(6) ^ bit(7)
	syndrome := int(s1) + 2*int(s2) + 4*int(s4)

	res := &HammingResult{
		Corrected:     append([]byte(nil), received...),
		ErrorPosition: -1,
		Syndrome:      syndrome,
	}
	if syndrome != 0 {
		pos := off + syndrome - 1
		if pos >= len(received) {
			res.SyndromeOutOfRange = true
		} else {
			res.Corrected[pos] ^= 1
			res.ErrorPosition = pos
		}
	} else if extended {
		// Zero syndrome with odd overall parity means the overall parity
		// bit itself was flipped.
		var overall byte
		for _, b := range received {
			overall ^= b
		}
		if overall != 0 {
			res.Corrected[0] ^= 1
			res.ErrorPosition = 0
		}
	}
	// data bits sit at 1-indexed positions 3,5,6,7
	res.Message = []byte{
		res.Corrected[off+2],
		res.Corrected[off+4],
		res.Corrected[off+5],
		res.Corrected[off+6],
	}
	return res, nil
}
