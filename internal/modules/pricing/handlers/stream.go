package handlers

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/mcpricer/internal/modules/payoff"
	"github.com/aristath/mcpricer/internal/modules/pricing"
)

// Stream message types
const (
	MessageValuation = "valuation"
	MessageDone      = "done"
	MessageError     = "error"
)

// StreamMessage is one frame sent on the pricing stream
type StreamMessage struct {
	Type       string            `json:"type"`
	Valuation  *payoff.Valuation `json:"valuation,omitempty"`
	Snapped    []pricing.Snap    `json:"snapped,omitempty"`
	Paths      int               `json:"paths,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
	Error      string            `json:"error,omitempty"`
	Status     int               `json:"status,omitempty"`
}

const streamWriteTimeout = 10 * time.Second

// HandleStream handles GET /api/pricing/stream.
// The client sends one pricing request; the server answers with one message per
// valuation date, then a done (or error) message, and closes.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to accept websocket")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	var req pricing.PricingRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		h.log.Debug().Err(err).Msg("Failed to read pricing request from stream")
		conn.Close(websocket.StatusUnsupportedData, "invalid pricing request")
		return
	}

	result, err := h.service.Price(ctx, &req)
	if err != nil {
		_ = h.send(ctx, conn, StreamMessage{Type: MessageError, Error: err.Error(), Status: statusFor(err)})
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	for i := range result.Valuations {
		if err := h.send(ctx, conn, StreamMessage{Type: MessageValuation, Valuation: &result.Valuations[i]}); err != nil {
			h.log.Debug().Err(err).Msg("Stream client went away")
			return
		}
	}

	_ = h.send(ctx, conn, StreamMessage{
		Type:       MessageDone,
		Snapped:    result.Snapped,
		Paths:      result.Paths,
		DurationMs: result.DurationMs,
	})
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
