package main

import (
	"encoding/json"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fecviz/feccore/fec"
)

type scheme string

const (
	schemeHamming scheme = "hamming"
	schemeRS      scheme = "rs"
	schemeLDPC    scheme = "ldpc"
	schemePolar   scheme = "polar"
	schemeRaptorQ scheme = "raptorq"
)

var allSchemes = []scheme{schemeHamming, schemeRS, schemeLDPC, schemePolar, schemeRaptorQ}

type config struct {
	N int
	K int
}

type resultKey struct {
	Scheme scheme
	N      int
	K      int
	Loss   float64
}

type agg struct {
	Runs      int
	Successes int
	EncTotal  time.Duration
	DecTotal  time.Duration
	// Per-run decode latencies in nanoseconds and LDPC/SC iteration counts,
	// kept raw for the summary statistics.
	DecNS []float64
	Iters []float64
}

type allResults map[resultKey]*agg

type jsonRecord struct {
	Scheme    string  `json:"scheme"`
	N         int     `json:"N"`
	K         int     `json:"K"`
	Loss      float64 `json:"loss"`
	Runs      int     `json:"runs"`
	Successes int     `json:"successes"`
	EncMS     int64   `json:"enc_ms_total"`
	DecMS     int64   `json:"dec_ms_total"`
	DecMeanUS float64 `json:"dec_mean_us"`
	DecStdUS  float64 `json:"dec_std_us"`
	IterMean  float64 `json:"iter_mean,omitempty"`
	IterStd   float64 `json:"iter_std,omitempty"`
}

func parseConfigs(s string) ([]config, error) {
	parts := strings.Split(s, ";")
	out := make([]config, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var a, b int
		if _, err := fmt.Sscanf(p, "%d,%d", &a, &b); err != nil {
			return nil, fmt.Errorf("bad config %q: %w", p, err)
		}
		out = append(out, config{N: a, K: b})
	}
	return out, nil
}

func parseLosses(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		var f float64
		if _, err := fmt.Sscanf(p, "%f", &f); err != nil {
			return nil, fmt.Errorf("bad loss %q: %w", p, err)
		}
		out = append(out, f)
	}
	return out, nil
}

func isPow2(n int) bool { return n > 0 && n&(n-1) == 0 }

// schemeApplies reports whether the scheme can run at the config. Hamming and LDPC are
// fixed to the extended (8,4) code; Polar needs a power-of-two block; RS needs
// a codeword that fits GF(2^8).
func schemeApplies(sch scheme, cfg config) bool {
	switch sch {
	case schemeHamming, schemeLDPC:
		return cfg.N == 8 && cfg.K == 4
	case schemePolar:
		return isPow2(cfg.N) && cfg.K <= cfg.N
	case schemeRS:
		return cfg.N <= 255
	case schemeRaptorQ:
		return true
	}
	return false
}

func main() {
	var (
		runs    = flag.Int("runs", 10000, "runs per (scheme,config,loss)")
		symSize = flag.Int("symbol-size", 64, "raptorq symbol size in bytes")
		maxIter = flag.Int("max-iter", 20, "ldpc iteration cap")
		cfgStr  = flag.String("configs", "8,4;16,8;64,32;255,223", "semicolon-separated list of N,K pairs")
		lossStr = flag.String("loss", "0.005,0.01,0.03,0.05", "comma-separated list of corruption probabilities")
		outPath = flag.String("out", "docs/reports/fec_eval_report.md", "output markdown report path")
		seed    = flag.Int64("seed", 42, "random seed")
		which   = flag.String("scheme", "all", "which scheme to run: hamming|rs|ldpc|polar|raptorq|all")
	)
	flag.Parse()

	cfgs, err := parseConfigs(*cfgStr)
	if err != nil {
		fatalf("%v", err)
	}
	losses, err := parseLosses(*lossStr)
	if err != nil {
		fatalf("%v", err)
	}
	for _, l := range losses {
		if l <= 0 || l >= 0.5 {
			fatalf("invalid loss %.4f (want (0,0.5))", l)
		}
	}

	selected := make([]scheme, 0, len(allSchemes))
	for _, sch := range allSchemes {
		if *which == "all" || *which == string(sch) {
			selected = append(selected, sch)
		}
	}
	if len(selected) == 0 {
		fatalf("unknown scheme %q", *which)
	}

	rng := mrand.New(mrand.NewSource(*seed))
	results := make(allResults)

	for _, cfg := range cfgs {
		if cfg.N <= 0 || cfg.K < 0 || cfg.K > cfg.N {
			fatalf("invalid config N=%d K=%d", cfg.N, cfg.K)
		}
		for _, loss := range losses {
			for _, sch := range selected {
				if !schemeApplies(sch, cfg) {
					continue
				}
				key := resultKey{Scheme: sch, N: cfg.N, K: cfg.K, Loss: loss}
				a := &agg{Runs: *runs, DecNS: make([]float64, 0, *runs)}
				results[key] = a
				if err := runScheme(sch, cfg, loss, *runs, *symSize, *maxIter, rng, a); err != nil {
					fatalf("%s N=%d K=%d: %v", sch, cfg.N, cfg.K, err)
				}
			}
		}
	}

	ts := time.Now().Format("20060102_150405")
	jsonPath := strings.TrimSuffix(*outPath, ".md") + "_" + ts + ".json"
	mdPath := strings.TrimSuffix(*outPath, ".md") + "_" + ts + ".md"
	if err := writeJSON(jsonPath, results); err != nil {
		fatalf("write json: %v", err)
	}
	if err := writeMarkdown(mdPath, results); err != nil {
		fatalf("write md: %v", err)
	}
	fmt.Printf("Report written: %s\nJSON: %s\n", mdPath, jsonPath)
}

func runScheme(sch scheme, cfg config, loss float64, runs, symSize, maxIter int, rng *mrand.Rand, a *agg) error {
	switch sch {
	case schemeHamming:
		return runHamming(loss, runs, rng, a)
	case schemeRS:
		return runRS(cfg, loss, runs, rng, a)
	case schemeLDPC:
		return runLDPC(loss, runs, maxIter, rng, a)
	case schemePolar:
		return runPolar(cfg, loss, runs, rng, a)
	case schemeRaptorQ:
		return runRaptorQ(cfg, loss, runs, symSize, rng, a)
	}
	return fmt.Errorf("unknown scheme %q", sch)
}

func randomBits(rng *mrand.Rand, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(rng.Intn(2))
	}
	return out
}

// flipEach flips every bit independently with probability p, in place.
func flipEach(rng *mrand.Rand, word []byte, p float64) {
	for i := range word {
		if rng.Float64() < p {
			word[i] ^= 1
		}
	}
}

func runHamming(loss float64, runs int, rng *mrand.Rand, a *agg) error {
	for run := 0; run < runs; run++ {
		data := randomBits(rng, 4)
		encStart := time.Now()
		cw, err := fec.HammingEncode(data, true)
		a.EncTotal += time.Since(encStart)
		if err != nil {
			return err
		}
		rx := append([]byte(nil), cw...)
		flipEach(rng, rx, loss)

		decStart := time.Now()
		res, err := fec.HammingDecode(rx)
		d := time.Since(decStart)
		a.DecTotal += d
		a.DecNS = append(a.DecNS, float64(d.Nanoseconds()))
		if err == nil && bitsEqual(res.Message, data) {
			a.Successes++
		}
	}
	return nil
}

func runRS(cfg config, loss float64, runs int, rng *mrand.Rand, a *agg) error {
	nsym := cfg.N - cfg.K
	if nsym <= 0 {
		return fmt.Errorf("rs needs N > K")
	}
	for run := 0; run < runs; run++ {
		msg := make([]byte, cfg.K)
		rng.Read(msg)
		encStart := time.Now()
		cw, err := fec.RSEncode(msg, nsym)
		a.EncTotal += time.Since(encStart)
		if err != nil {
			return err
		}
		rx := append([]byte(nil), cw...)
		for i := range rx {
			if rng.Float64() < loss {
				rx[i] ^= byte(1 + rng.Intn(255))
			}
		}

		decStart := time.Now()
		res, err := fec.RSDecode(rx, nsym)
		d := time.Since(decStart)
		a.DecTotal += d
		a.DecNS = append(a.DecNS, float64(d.Nanoseconds()))
		if err == nil && bitsEqual(res.Message, msg) {
			a.Successes++
		}
	}
	return nil
}

func runLDPC(loss float64, runs, maxIter int, rng *mrand.Rand, a *agg) error {
	params, err := fec.NewLDPCParams(fec.ExtendedHammingH(), loss, maxIter)
	if err != nil {
		return err
	}
	for run := 0; run < runs; run++ {
		data := randomBits(rng, 4)
		encStart := time.Now()
		cw, err := fec.HammingEncode(data, true)
		a.EncTotal += time.Since(encStart)
		if err != nil {
			return err
		}
		rx := append([]byte(nil), cw...)
		flipEach(rng, rx, loss)

		decStart := time.Now()
		res, err := params.Decode(rx)
		d := time.Since(decStart)
		a.DecTotal += d
		a.DecNS = append(a.DecNS, float64(d.Nanoseconds()))
		if err != nil {
			return err
		}
		a.Iters = append(a.Iters, float64(res.Iterations))
		if res.Converged && bitsEqual(res.Decoded, cw) {
			a.Successes++
		}
	}
	return nil
}

func runPolar(cfg config, loss float64, runs int, rng *mrand.Rand, a *agg) error {
	ranking, err := fec.NewPolarRanking(cfg.N, loss, cfg.K)
	if err != nil {
		return err
	}
	for run := 0; run < runs; run++ {
		msg := randomBits(rng, cfg.K)
		encStart := time.Now()
		cw, err := fec.PolarEncode(msg, ranking)
		a.EncTotal += time.Since(encStart)
		if err != nil {
			return err
		}
		rx := append([]byte(nil), cw...)
		flipEach(rng, rx, loss)

		decStart := time.Now()
		got, _, err := fec.PolarDecode(rx, ranking)
		d := time.Since(decStart)
		a.DecTotal += d
		a.DecNS = append(a.DecNS, float64(d.Nanoseconds()))
		if err != nil {
			return err
		}
		if bitsEqual(got, msg) {
			a.Successes++
		}
	}
	return nil
}

func runRaptorQ(cfg config, loss float64, runs, symSize int, rng *mrand.Rand, a *agg) error {
	dataSize := cfg.K * symSize
	for run := 0; run < runs; run++ {
		data := make([]byte, dataSize)
		rng.Read(data)
		encStart := time.Now()
		symbols, err := fec.RaptorQEncodeBlock(data, cfg.N, cfg.K, symSize)
		a.EncTotal += time.Since(encStart)
		if err != nil {
			return err
		}
		recv := make([]fec.RaptorQSymbol, 0, cfg.N)
		for _, s := range symbols {
			if rng.Float64() < loss {
				continue
			}
			recv = append(recv, s)
		}

		decStart := time.Now()
		got, ok := fec.RaptorQDecodeBlock(recv, symSize, dataSize)
		d := time.Since(decStart)
		a.DecTotal += d
		a.DecNS = append(a.DecNS, float64(d.Nanoseconds()))
		if ok && bitsEqual(got, data) {
			a.Successes++
		}
	}
	return nil
}

func bitsEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func record(k resultKey, a *agg) jsonRecord {
	rec := jsonRecord{
		Scheme:    string(k.Scheme),
		N:         k.N,
		K:         k.K,
		Loss:      k.Loss,
		Runs:      a.Runs,
		Successes: a.Successes,
		EncMS:     a.EncTotal.Milliseconds(),
		DecMS:     a.DecTotal.Milliseconds(),
	}
	if len(a.DecNS) > 0 {
		rec.DecMeanUS = stat.Mean(a.DecNS, nil) / 1e3
		rec.DecStdUS = stat.StdDev(a.DecNS, nil) / 1e3
	}
	if len(a.Iters) > 0 {
		rec.IterMean = stat.Mean(a.Iters, nil)
		rec.IterStd = stat.StdDev(a.Iters, nil)
	}
	return rec
}

func writeJSON(path string, res allResults) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	recs := make([]jsonRecord, 0, len(res))
	for k, v := range res {
		if v == nil {
			continue
		}
		recs = append(recs, record(k, v))
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Scheme != recs[j].Scheme {
			return recs[i].Scheme < recs[j].Scheme
		}
		if recs[i].N != recs[j].N {
			return recs[i].N < recs[j].N
		}
		if recs[i].K != recs[j].K {
			return recs[i].K < recs[j].K
		}
		return recs[i].Loss < recs[j].Loss
	})
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Records []jsonRecord `json:"records"`
	}{Records: recs})
}

func writeMarkdown(path string, res allResults) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	type cfg struct{ N, K int }
	cfgSet := map[cfg]struct{}{}
	lossesSet := map[float64]struct{}{}
	schemesSet := map[scheme]struct{}{}
	for k := range res {
		cfgSet[cfg{N: k.N, K: k.K}] = struct{}{}
		lossesSet[k.Loss] = struct{}{}
		schemesSet[k.Scheme] = struct{}{}
	}
	cfgs := make([]cfg, 0, len(cfgSet))
	for c := range cfgSet {
		cfgs = append(cfgs, c)
	}
	sort.Slice(cfgs, func(i, j int) bool {
		if cfgs[i].N != cfgs[j].N {
			return cfgs[i].N < cfgs[j].N
		}
		return cfgs[i].K < cfgs[j].K
	})
	losses := make([]float64, 0, len(lossesSet))
	for l := range lossesSet {
		losses = append(losses, l)
	}
	sort.Float64s(losses)
	schemes := make([]scheme, 0, len(schemesSet))
	for s := range schemesSet {
		schemes = append(schemes, s)
	}
	sort.Slice(schemes, func(i, j int) bool { return schemes[i] < schemes[j] })

	fmt.Fprintf(f, "# FEC Evaluation Report\n\n")
	fmt.Fprintf(f, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	for _, c := range cfgs {
		fmt.Fprintf(f, "## (N=%d, K=%d)\n\n", c.N, c.K)
		fmt.Fprintf(f, "### Success Rate (%%)\n\n")
		fmt.Fprintf(f, "| Scheme | %s |\n", joinLossHeaders(losses))
		div := make([]string, 0, 1+len(losses))
		div = append(div, "---")
		for range losses {
			div = append(div, "---")
		}
		fmt.Fprintf(f, "|%s\n", strings.Join(div, "|"))
		for _, s := range schemes {
			any := false
			for _, l := range losses {
				if res[resultKey{Scheme: s, N: c.N, K: c.K, Loss: l}] != nil {
					any = true
				}
			}
			if !any {
				continue
			}
			fmt.Fprintf(f, "| %s ", strings.ToUpper(string(s)))
			for _, l := range losses {
				a := res[resultKey{Scheme: s, N: c.N, K: c.K, Loss: l}]
				if a == nil || a.Runs == 0 {
					fmt.Fprintf(f, "|  ")
					continue
				}
				fmt.Fprintf(f, "| %.2f ", 100.0*float64(a.Successes)/float64(a.Runs))
			}
			fmt.Fprintf(f, "|\n")
		}
		fmt.Fprintf(f, "\n")

		fmt.Fprintf(f, "### Decode Latency (us, mean +/- std over runs and losses)\n\n")
		fmt.Fprintf(f, "| Scheme | Mean | Std |\n")
		fmt.Fprintf(f, "|---|---:|---:|\n")
		for _, s := range schemes {
			var all []float64
			for _, l := range losses {
				a := res[resultKey{Scheme: s, N: c.N, K: c.K, Loss: l}]
				if a == nil {
					continue
				}
				all = append(all, a.DecNS...)
			}
			if len(all) == 0 {
				continue
			}
			fmt.Fprintf(f, "| %s | %.3f | %.3f |\n",
				strings.ToUpper(string(s)), stat.Mean(all, nil)/1e3, stat.StdDev(all, nil)/1e3)
		}
		fmt.Fprintf(f, "\n")

		// LDPC iteration counts, when the scheme ran for this config.
		for _, s := range schemes {
			if s != schemeLDPC {
				continue
			}
			var iters []float64
			for _, l := range losses {
				if a := res[resultKey{Scheme: s, N: c.N, K: c.K, Loss: l}]; a != nil {
					iters = append(iters, a.Iters...)
				}
			}
			if len(iters) == 0 {
				continue
			}
			fmt.Fprintf(f, "### LDPC Iterations\n\nmean %.3f, std %.3f over %d decodes\n\n",
				stat.Mean(iters, nil), stat.StdDev(iters, nil), len(iters))
		}
	}

	fmt.Fprintf(f, "---\n\nNotes:\n\n- Corruption model: i.i.d. per-bit flips for the bit codes, per-symbol corruption for RS, per-symbol drops for RaptorQ.\n- Hamming and LDPC run on the extended (8,4) code; success means the exact message (Hamming) or converged codeword (LDPC) was recovered.\n")
	return nil
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func joinLossHeaders(losses []float64) string {
	parts := make([]string, len(losses))
	for i, l := range losses {
		parts[i] = fmt.Sprintf("p=%.3f", l)
	}
	return strings.Join(parts, " | ")
}
