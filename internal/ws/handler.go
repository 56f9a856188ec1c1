package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lotsaero/rifa-backend/internal/config"
	"github.com/lotsaero/rifa-backend/internal/engine"
	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/selection"
	"github.com/lotsaero/rifa-backend/internal/services"
)

const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 1024
)

// clientMessage is what a browser session may send: selection toggles,
// a clear, or the checkout commit.
type clientMessage struct {
	Type   string `json:"type"`
	Number int    `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

type serverMessage struct {
	Type      string                   `json:"type"`
	State     *models.StateView        `json:"state,omitempty"`
	Selection *selectionView           `json:"selection,omitempty"`
	Checkout  *models.CheckoutResponse `json:"checkout,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Conflicts []int                    `json:"conflicts,omitempty"`
}

type selectionView struct {
	Numbers []int  `json:"numbers"`
	Count   int    `json:"count"`
	Total   string `json:"total"`
}

// Handler owns the upgrade path and per-session loop.
type Handler struct {
	hub      *Hub
	engine   *engine.Service
	checkout *services.CheckoutService
	cfg      config.RaffleConfig
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(hub *Hub, eng *engine.Service, checkout *services.CheckoutService, cfg config.RaffleConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		engine:   eng,
		checkout: checkout,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "ws").Logger(),
	}
}

// Serve upgrades the connection and runs the session until the client
// leaves. Each session owns its ephemeral selection; it is discarded
// on disconnect.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.NewString()
	outbox := h.hub.Register(clientID)
	sel := selection.NewManager(h.cfg.PriceCents, h.cfg.Currency)

	log := h.logger.With().Str("client_id", clientID).Logger()
	log.Info().Msg("client connected")

	// Immediately serve the current state so the grid renders without
	// waiting for the next remote change.
	h.sendDirect(conn, serverMessage{Type: "state", State: stateViewPtr(h.engine.StateView())})

	done := make(chan struct{})
	go h.writeLoop(conn, outbox, done, log)

	h.readLoop(c, conn, sel, outbox, log)

	close(done)
	h.hub.Unregister(clientID)
	conn.Close()
	log.Info().Msg("client disconnected")
}

func (h *Handler) readLoop(c *gin.Context, conn *websocket.Conn, sel *selection.Manager, outbox chan []byte, log zerolog.Logger) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("unexpected close")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(outbox, serverMessage{Type: "error", Error: "bad json"})
			continue
		}

		switch msg.Type {
		case "toggle":
			if msg.Number < h.cfg.StartNumber || msg.Number > h.cfg.EndNumber {
				h.reply(outbox, serverMessage{Type: "error", Error: "number out of range"})
				continue
			}
			sel.Toggle(msg.Number)
			h.reply(outbox, h.selectionMessage(sel))

		case "clear":
			sel.Clear()
			h.reply(outbox, h.selectionMessage(sel))

		case "checkout":
			resp, err := h.checkout.Commit(c.Request.Context(), sel, msg.Name, msg.Phone)
			if err != nil {
				h.reply(outbox, checkoutError(err))
				continue
			}
			h.reply(outbox, serverMessage{Type: "checkout", Checkout: resp})

		default:
			h.reply(outbox, serverMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, outbox <-chan []byte, done <-chan struct{}, log zerolog.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-outbox:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// reply enqueues a message on the session outbox, dropping it if the
// session is already backed up.
func (h *Handler) reply(outbox chan []byte, msg serverMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal server message")
		return
	}
	select {
	case outbox <- payload:
	default:
	}
}

func (h *Handler) sendDirect(conn *websocket.Conn, msg serverMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Handler) selectionMessage(sel *selection.Manager) serverMessage {
	return serverMessage{
		Type: "selection",
		Selection: &selectionView{
			Numbers: sel.Numbers(),
			Count:   sel.Count(),
			Total:   sel.FormatTotal(),
		},
	}
}

func checkoutError(err error) serverMessage {
	var conflict *engine.ConflictError
	if errors.As(err, &conflict) {
		return serverMessage{Type: "error", Error: err.Error(), Conflicts: conflict.Numbers}
	}
	return serverMessage{Type: "error", Error: err.Error()}
}

func stateViewPtr(v models.StateView) *models.StateView { return &v }
