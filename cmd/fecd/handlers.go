package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/francoispqt/gojay"

	"github.com/fecviz/feccore/fec"
)

// server exposes the codec call surface over JSON HTTP. Bit and symbol
// vectors travel as plain integer arrays, never base64.
type server struct {
	cfg *Config
}

func newServer(cfg *Config) *server {
	return &server{cfg: cfg}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/hamming/encode", s.handleHammingEncode)
	mux.HandleFunc("POST /api/hamming/decode", s.handleHammingDecode)
	mux.HandleFunc("POST /api/rs/encode", s.handleRSEncode)
	mux.HandleFunc("POST /api/rs/decode", s.handleRSDecode)
	mux.HandleFunc("POST /api/ldpc/decode", s.handleLDPCDecode)
	mux.HandleFunc("POST /api/polar/ranking", s.handlePolarRanking)
	mux.HandleFunc("POST /api/polar/encode", s.handlePolarEncode)
	mux.HandleFunc("POST /api/polar/decode", s.handlePolarDecode)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

func (s *server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Limits.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("bad request body: %v", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeGojay(w http.ResponseWriter, v gojay.MarshalerJSONObject) {
	w.Header().Set("Content-Type", "application/json")
	enc := gojay.NewEncoder(w)
	defer enc.Release()
	if err := enc.EncodeObject(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// toSymbols converts a JSON integer vector into bytes, rejecting out-of-range
// values instead of wrapping them.
func (s *server) toSymbols(name string, in []int) ([]byte, error) {
	if len(in) > s.cfg.Limits.MaxWordLen {
		return nil, fmt.Errorf("%s has %d symbols, limit %d", name, len(in), s.cfg.Limits.MaxWordLen)
	}
	out := make([]byte, len(in))
	for i, v := range in {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("%s[%d] = %d outside [0,255]", name, i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func symbolsToInts(in []byte) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func (s *server) handleHammingEncode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data     []int `json:"data"`
		Extended bool  `json:"extended"`
	}
	if !s.readJSON(w, r, &req) {
		encodesTotal.WithLabelValues("hamming", outcomeBadInput).Inc()
		return
	}
	data, err := s.toSymbols("data", req.Data)
	if err == nil {
		var cw []byte
		cw, err = fec.HammingEncode(data, req.Extended)
		if err == nil {
			encodesTotal.WithLabelValues("hamming", outcomeOK).Inc()
			writeJSON(w, map[string]any{"codeword": symbolsToInts(cw)})
			return
		}
	}
	encodesTotal.WithLabelValues("hamming", outcomeBadInput).Inc()
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *server) handleHammingDecode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Received []int `json:"received"`
	}
	if !s.readJSON(w, r, &req) {
		decodesTotal.WithLabelValues("hamming", outcomeBadInput).Inc()
		return
	}
	received, err := s.toSymbols("received", req.Received)
	if err != nil {
		decodesTotal.WithLabelValues("hamming", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	res, err := fec.HammingDecode(received)
	decodeSeconds.WithLabelValues("hamming").Observe(time.Since(start).Seconds())
	if err != nil {
		decodesTotal.WithLabelValues("hamming", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	decodesTotal.WithLabelValues("hamming", outcomeOK).Inc()
	writeGojay(w, res)
}

func (s *server) handleRSEncode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message []int `json:"message"`
		Nsym    int   `json:"nsym"`
	}
	if !s.readJSON(w, r, &req) {
		encodesTotal.WithLabelValues("rs", outcomeBadInput).Inc()
		return
	}
	msg, err := s.toSymbols("message", req.Message)
	if err == nil {
		var cw []byte
		cw, err = fec.RSEncode(msg, req.Nsym)
		if err == nil {
			encodesTotal.WithLabelValues("rs", outcomeOK).Inc()
			writeJSON(w, map[string]any{"codeword": symbolsToInts(cw)})
			return
		}
	}
	encodesTotal.WithLabelValues("rs", outcomeBadInput).Inc()
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *server) handleRSDecode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Received []int `json:"received"`
		Nsym     int   `json:"nsym"`
	}
	if !s.readJSON(w, r, &req) {
		decodesTotal.WithLabelValues("rs", outcomeBadInput).Inc()
		return
	}
	received, err := s.toSymbols("received", req.Received)
	if err != nil {
		decodesTotal.WithLabelValues("rs", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	res, err := fec.RSDecode(received, req.Nsym)
	decodeSeconds.WithLabelValues("rs").Observe(time.Since(start).Seconds())
	switch {
	case errors.Is(err, fec.ErrTooManyErrors), errors.Is(err, fec.ErrLocatorMismatch):
		// Uncorrectable: the caller still gets the received word back.
		decodesTotal.WithLabelValues("rs", outcomeFailed).Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":     err.Error(),
			"corrected": symbolsToInts(res.Corrected),
			"syndromes": symbolsToInts(res.Syndromes),
		})
	case err != nil:
		decodesTotal.WithLabelValues("rs", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		decodesTotal.WithLabelValues("rs", outcomeOK).Inc()
		writeGojay(w, res)
	}
}

// ldpcRequest is shared by the HTTP endpoint and the websocket stream. A
// missing H selects the extended Hamming default; zero tuning fields fall
// back to the configured values.
type ldpcRequest struct {
	H        [][]int `json:"h,omitempty"`
	Received []int   `json:"received"`
	FlipProb float64 `json:"flipProb,omitempty"`
	MaxIter  int     `json:"maxIter,omitempty"`
	Damping  float64 `json:"damping,omitempty"`
}

func (s *server) ldpcParams(req *ldpcRequest) (*fec.LDPCParams, error) {
	var H [][]byte
	if len(req.H) == 0 {
		H = fec.ExtendedHammingH()
	} else {
		if len(req.H) > s.cfg.Limits.MaxWordLen {
			return nil, fmt.Errorf("h has %d rows, limit %d", len(req.H), s.cfg.Limits.MaxWordLen)
		}
		H = make([][]byte, len(req.H))
		for i, row := range req.H {
			b, err := s.toSymbols(fmt.Sprintf("h[%d]", i), row)
			if err != nil {
				return nil, err
			}
			H[i] = b
		}
	}
	flipProb := req.FlipProb
	if flipProb == 0 {
		flipProb = s.cfg.LDPC.FlipProb
	}
	maxIter := req.MaxIter
	if maxIter == 0 {
		maxIter = s.cfg.LDPC.MaxIter
	}
	params, err := fec.NewLDPCParams(H, flipProb, maxIter)
	if err != nil {
		return nil, err
	}
	if req.Damping != 0 {
		params.Damping = req.Damping
	} else {
		params.Damping = s.cfg.LDPC.Damping
	}
	return params, nil
}

type ldpcTrace []fec.LDPCIteration

func (t ldpcTrace) MarshalJSONArray(enc *gojay.Encoder) {
	for i := range t {
		enc.Object(&t[i])
	}
}

func (t ldpcTrace) IsNil() bool { return t == nil }

type ldpcResponse struct {
	*fec.LDPCResult
}

func (r *ldpcResponse) MarshalJSONObject(enc *gojay.Encoder) {
	enc.ArrayKey("decoded", fec.Bits(r.Decoded))
	enc.BoolKey("converged", r.Converged)
	enc.IntKey("iterations", r.Iterations)
	enc.ArrayKey("trace", ldpcTrace(r.Trace))
}

func (r *ldpcResponse) IsNil() bool { return r == nil || r.LDPCResult == nil }

func (s *server) handleLDPCDecode(w http.ResponseWriter, r *http.Request) {
	var req ldpcRequest
	if !s.readJSON(w, r, &req) {
		decodesTotal.WithLabelValues("ldpc", outcomeBadInput).Inc()
		return
	}
	params, err := s.ldpcParams(&req)
	if err != nil {
		decodesTotal.WithLabelValues("ldpc", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	received, err := s.toSymbols("received", req.Received)
	if err != nil {
		decodesTotal.WithLabelValues("ldpc", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	res, err := params.Decode(received)
	decodeSeconds.WithLabelValues("ldpc").Observe(time.Since(start).Seconds())
	if err != nil {
		decodesTotal.WithLabelValues("ldpc", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if res.Converged {
		decodesTotal.WithLabelValues("ldpc", outcomeOK).Inc()
	} else {
		decodesTotal.WithLabelValues("ldpc", outcomeFailed).Inc()
	}
	writeGojay(w, &ldpcResponse{res})
}

type polarRequest struct {
	N           int     `json:"n"`
	K           int     `json:"k"`
	ErasureProb float64 `json:"erasureProb,omitempty"`
	Info        []int   `json:"info,omitempty"`
	Received    []int   `json:"received,omitempty"`
}

func (s *server) polarRanking(req *polarRequest) (*fec.PolarRanking, error) {
	eps := req.ErasureProb
	if eps == 0 {
		eps = s.cfg.Polar.ErasureProb
	}
	if req.N > s.cfg.Limits.MaxWordLen {
		return nil, fmt.Errorf("n = %d, limit %d", req.N, s.cfg.Limits.MaxWordLen)
	}
	return fec.NewPolarRanking(req.N, eps, req.K)
}

func (s *server) handlePolarRanking(w http.ResponseWriter, r *http.Request) {
	var req polarRequest
	if !s.readJSON(w, r, &req) {
		return
	}
	ranking, err := s.polarRanking(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, map[string]any{
		"frozen":        ranking.Frozen,
		"infoIndices":   ranking.InfoIndices,
		"bhattacharyya": ranking.Bhattacharyya,
	})
}

func (s *server) handlePolarEncode(w http.ResponseWriter, r *http.Request) {
	var req polarRequest
	if !s.readJSON(w, r, &req) {
		encodesTotal.WithLabelValues("polar", outcomeBadInput).Inc()
		return
	}
	ranking, err := s.polarRanking(&req)
	if err == nil {
		var info, cw []byte
		if info, err = s.toSymbols("info", req.Info); err == nil {
			if cw, err = fec.PolarEncode(info, ranking); err == nil {
				encodesTotal.WithLabelValues("polar", outcomeOK).Inc()
				writeJSON(w, map[string]any{"codeword": symbolsToInts(cw)})
				return
			}
		}
	}
	encodesTotal.WithLabelValues("polar", outcomeBadInput).Inc()
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *server) handlePolarDecode(w http.ResponseWriter, r *http.Request) {
	var req polarRequest
	if !s.readJSON(w, r, &req) {
		decodesTotal.WithLabelValues("polar", outcomeBadInput).Inc()
		return
	}
	ranking, err := s.polarRanking(&req)
	if err != nil {
		decodesTotal.WithLabelValues("polar", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	received, err := s.toSymbols("received", req.Received)
	if err != nil {
		decodesTotal.WithLabelValues("polar", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	msg, u, err := fec.PolarDecode(received, ranking)
	decodeSeconds.WithLabelValues("polar").Observe(time.Since(start).Seconds())
	if err != nil {
		decodesTotal.WithLabelValues("polar", outcomeBadInput).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	decodesTotal.WithLabelValues("polar", outcomeOK).Inc()
	writeJSON(w, map[string]any{
		"message": symbolsToInts(msg),
		"u":       symbolsToInts(u),
	})
}
