// Package ws is the websocket signaling transport: it authenticates the
// handshake header, pumps frames in both directions and feeds inbound
// signals to the orchestrator.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/app"
	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

// identifierHeader carries the peer's claimed identifier at handshake.
// deviceTypeHeader distinguishes callable devices ("1", the default)
// from caller-only devices ("2"), which never register presence.
const (
	identifierHeader = "phone"
	deviceTypeHeader = "type"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Orch       *app.Orchestrator
	ReadLimit  int64
	PingPeriod time.Duration

	// Calls throttles call attempts per peer. Nil means unlimited.
	Calls *CallRateLimiter
}

func NewController(orch *app.Orchestrator, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{Orch: orch, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

// HandleSignal upgrades the connection and runs it until the transport
// closes. The identifier claim is immutable for the connection's
// lifetime.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	peer, err := domain.ParsePeerID(c.GetHeader(identifierHeader))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid phone header"})
		return
	}
	presence := c.GetHeader(deviceTypeHeader) != "2"

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Msg("upgrade failed")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := newWSConn(ws)
	ctx, cancel := context.WithCancel(ctx)
	cid := ctl.Orch.OnConnect(ctx, peer, conn, presence)
	log.Info().Str("module", "adapters.ws").Str("peer", string(peer)).Str("conn", string(cid)).Bool("presence", presence).Msg("connected")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cid, peer, conn)
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "adapters.ws").Msg("write failed")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cid domain.ConnID, peer domain.PeerID, c *wsConn) {
	defer func() {
		cancel()
		ctl.Orch.OnDisconnect(ctx, cid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "adapters.ws").Str("peer", string(peer)).Msg("read loop closing")
				return
			}
			ctl.handleFrame(ctx, peer, c, data)
		}
	}
}

// handleFrame parses, validates and routes one inbound frame. Invalid
// frames are dropped without an error event; the only acknowledgement
// channel this protocol has is the optional call result.
func (ctl *Controller) handleFrame(ctx context.Context, peer domain.PeerID, c *wsConn, data []byte) {
	sig, err := domain.ParseSignal(data, peer)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Str("peer", string(peer)).Msg("dropping invalid frame")
		return
	}

	switch sig.Type {
	case domain.EventCall:
		if ctl.Calls != nil && !ctl.Calls.Allow(peer) {
			log.Warn().Str("module", "adapters.ws").Str("peer", string(peer)).Msg("call rate limit exceeded")
			if sig.Ack != "" {
				ctl.sendCallResult(c, sig.Ack, app.StatusDropped)
			}
			return
		}
	case domain.EventCancelCall, domain.EventCallDeclined, domain.EventCallAccepted:
	case domain.EventOffer:
		if !validSessionDescription(sig, webrtc.SDPTypeOffer) {
			log.Warn().Str("module", "adapters.ws").Str("peer", string(peer)).Msg("dropping offer without sdp")
			return
		}
	case domain.EventAnswer:
		if !validSessionDescription(sig, webrtc.SDPTypeAnswer) {
			log.Warn().Str("module", "adapters.ws").Str("peer", string(peer)).Msg("dropping answer without sdp")
			return
		}
	case domain.EventICECandidate:
		if !validCandidate(sig) {
			log.Warn().Str("module", "adapters.ws").Str("peer", string(peer)).Msg("dropping malformed candidate")
			return
		}
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", string(sig.Type)).Msg("unknown signal type")
		return
	}

	status := ctl.Orch.OnSignal(ctx, sig)
	if sig.Type == domain.EventCall && sig.Ack != "" {
		ctl.sendCallResult(c, sig.Ack, status)
	}
}

// validSessionDescription checks that the frame carries a usable SDP
// body. The description itself is relayed verbatim, never rewritten.
func validSessionDescription(sig *domain.Signal, typ webrtc.SDPType) bool {
	raw, ok := sig.Field("sdp")
	if !ok {
		return false
	}
	desc := webrtc.SessionDescription{Type: typ}
	if err := json.Unmarshal(raw, &desc.SDP); err != nil {
		return false
	}
	return desc.SDP != ""
}

// validCandidate checks the candidate fields decode into an
// ICECandidateInit shape. An empty candidate string is legal
// (end-of-candidates).
func validCandidate(sig *domain.Signal) bool {
	raw, ok := sig.Field("candidate")
	if !ok {
		return false
	}
	var ci webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &ci.Candidate); err != nil {
		return false
	}
	if mid, ok := sig.Field("sdpMid"); ok {
		var s string
		if err := json.Unmarshal(mid, &s); err != nil {
			return false
		}
		ci.SDPMid = &s
	}
	return true
}

func (ctl *Controller) sendCallResult(c *wsConn, ack string, status app.DispatchStatus) {
	result := "ringing"
	switch status {
	case app.StatusFallback:
		result = "fallback"
	case app.StatusDropped:
		result = "dropped"
	}
	resp := struct {
		Type   domain.EventType `json:"type"`
		Ack    string           `json:"ack"`
		Status string           `json:"status"`
	}{
		Type:   domain.EventCallResult,
		Ack:    ack,
		Status: result,
	}
	b, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("encode call result")
		return
	}
	if err := c.TrySend(core.Frame(b)); err != nil {
		log.Warn().Err(err).Str("module", "adapters.ws").Msg("call result dropped")
	}
}
