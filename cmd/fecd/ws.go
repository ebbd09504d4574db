package main

import (
	"log"
	"net/http"
	"time"

	"github.com/francoispqt/gojay"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fecviz/feccore/fec"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The service has no cross-origin state to protect; the trace stream is
	// read-only derived data.
	CheckOrigin: func(*http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

type wsSessionFrame struct {
	id        string
	vars      int
	checks    int
	flipProb  float64
	maxIter   int
	damping   float64
}

func (f *wsSessionFrame) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", "session")
	enc.StringKey("id", f.id)
	enc.IntKey("variables", f.vars)
	enc.IntKey("checks", f.checks)
	enc.FloatKey("flipProb", f.flipProb)
	enc.IntKey("maxIter", f.maxIter)
	enc.FloatKey("damping", f.damping)
}

func (f *wsSessionFrame) IsNil() bool { return f == nil }

type wsIterationFrame struct {
	index int
	it    *fec.LDPCIteration
}

func (f *wsIterationFrame) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", "iteration")
	enc.IntKey("index", f.index)
	enc.ObjectKey("iteration", f.it)
}

func (f *wsIterationFrame) IsNil() bool { return f == nil }

type wsResultFrame struct {
	res *fec.LDPCResult
}

func (f *wsResultFrame) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", "result")
	enc.ObjectKey("result", f.res)
}

func (f *wsResultFrame) IsNil() bool { return f == nil }

type wsErrorFrame struct {
	msg string
}

func (f *wsErrorFrame) MarshalJSONObject(enc *gojay.Encoder) {
	enc.StringKey("type", "error")
	enc.StringKey("error", f.msg)
}

func (f *wsErrorFrame) IsNil() bool { return f == nil }

// handleWS streams one decode trace per request frame: the client sends an
// ldpcRequest, the server answers with a session frame, one frame per BP
// iteration, and a final result frame. The connection stays open for further
// requests.
func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	defer conn.Close()
	wsSessions.Inc()
	defer wsSessions.Dec()

	remote := conn.RemoteAddr().String()
	log.Printf("ws connected: %s", remote)
	for {
		var req ldpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read %s: %v", remote, err)
			}
			return
		}
		if err := s.streamDecode(conn, &req); err != nil {
			log.Printf("ws stream %s: %v", remote, err)
			return
		}
	}
}

func (s *server) streamDecode(conn *websocket.Conn, req *ldpcRequest) error {
	params, err := s.ldpcParams(req)
	if err != nil {
		return writeFrame(conn, &wsErrorFrame{msg: err.Error()})
	}
	received, err := s.toSymbols("received", req.Received)
	if err != nil {
		return writeFrame(conn, &wsErrorFrame{msg: err.Error()})
	}

	start := time.Now()
	res, err := params.Decode(received)
	decodeSeconds.WithLabelValues("ldpc").Observe(time.Since(start).Seconds())
	if err != nil {
		decodesTotal.WithLabelValues("ldpc", outcomeBadInput).Inc()
		return writeFrame(conn, &wsErrorFrame{msg: err.Error()})
	}
	if res.Converged {
		decodesTotal.WithLabelValues("ldpc", outcomeOK).Inc()
	} else {
		decodesTotal.WithLabelValues("ldpc", outcomeFailed).Inc()
	}

	session := &wsSessionFrame{
		id:       uuid.NewString(),
		vars:     len(received),
		checks:   len(params.H),
		flipProb: params.FlipProb,
		maxIter:  params.MaxIter,
		damping:  params.Damping,
	}
	if err := writeFrame(conn, session); err != nil {
		return err
	}
	for i := range res.Trace {
		if err := writeFrame(conn, &wsIterationFrame{index: i, it: &res.Trace[i]}); err != nil {
			return err
		}
	}
	return writeFrame(conn, &wsResultFrame{res: res})
}

func writeFrame(conn *websocket.Conn, frame gojay.MarshalerJSONObject) error {
	raw, err := gojay.MarshalJSONObject(frame)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return err
	}
	wsFramesTotal.Inc()
	return nil
}
