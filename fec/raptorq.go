package fec

import (
	"errors"

	rqq "github.com/xssnick/raptorq"
)

// Thin wrapper around systematic RaptorQ, used by the evaluation CLI as the
// external erasure-code baseline the four codecs are compared against.

// RaptorQSymbol is one generated symbol of a RaptorQ generation.
type RaptorQSymbol struct {
	ID   uint32
	Data []byte
}

// RaptorQEncodeBlock generates N symbols of size L for data (padded internally
// by the library when len(data) < K*L; truncated when longer). Symbols 0..K-1
// are the systematic source symbols.
func RaptorQEncodeBlock(data []byte, N, K, L int) ([]RaptorQSymbol, error) {
	if N <= 0 || K <= 0 || L <= 0 || K > N {
		return nil, errors.New("raptorq: bad N/K/L")
	}
	if max := K * L; len(data) > max {
		data = data[:max]
	}
	rq := rqq.NewRaptorQ(uint32(L))
	enc, err := rq.CreateEncoder(data)
	if err != nil {
		return nil, err
	}
	out := make([]RaptorQSymbol, N)
	for i := 0; i < N; i++ {
		out[i] = RaptorQSymbol{ID: uint32(i), Data: enc.GenSymbol(uint32(i))}
	}
	return out, nil
}

// RaptorQDecodeBlock reconstructs the original dataSize bytes from whatever
// symbols survived. Returns ok=false when too few symbols were received.
func RaptorQDecodeBlock(recv []RaptorQSymbol, L, dataSize int) ([]byte, bool) {
	if L <= 0 || dataSize < 0 {
		return nil, false
	}
	rq := rqq.NewRaptorQ(uint32(L))
	dec, err := rq.CreateDecoder(uint32(dataSize))
	if err != nil {
		return nil, false
	}
	for _, s := range recv {
		if _, err := dec.AddSymbol(s.ID, s.Data); err != nil {
			continue // skip unusable symbol
		}
	}
	ok, data, err := dec.Decode()
	if err != nil || !ok {
		return nil, false
	}
	return data, true
}
