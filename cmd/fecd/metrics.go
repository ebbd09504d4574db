package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fecd_decodes_total",
		Help: "Decode requests by codec and outcome.",
	}, []string{"codec", "outcome"})

	encodesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fecd_encodes_total",
		Help: "Encode requests by codec and outcome.",
	}, []string{"codec", "outcome"})

	decodeSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fecd_decode_seconds",
		Help:    "Decode latency by codec.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	}, []string{"codec"})

	wsSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fecd_ws_sessions",
		Help: "Open trace-streaming websocket sessions.",
	})

	wsFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fecd_ws_frames_total",
		Help: "Trace frames written to websocket clients.",
	})
)

const (
	outcomeOK       = "ok"
	outcomeBadInput = "bad_input"
	outcomeFailed   = "failed"
)
