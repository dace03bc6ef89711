package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/pkg/uid"
)

// Intents is what the socket layer forwards player actions to.
type Intents interface {
	JoinQueue(connectionID, playerID string)
	MakeMove(connectionID, sessionID string, column int, playerID string)
	Disconnect(connectionID string)
}

const (
	msgInvalidMessage = "invalid message"
	msgUnknownType    = "unknown message type"
)

type Handler struct {
	manager  *ConnectionManager
	intents  Intents
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler accepts upgrades from the listed origins. Requests without an
// Origin header (non-browser clients) are always accepted.
func NewHandler(cm *ConnectionManager, intents Intents, origins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("component", "websocket"))
	return &Handler{
		manager: cm,
		intents: intents,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || lo.Contains(origins, origin) {
					return true
				}
				log.Warn("[WS] Origin not allowed", zap.String("origin", origin))
				return false
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket upgrades an unauthenticated connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.ServeWS(w, r, "")
}

// ServeWS upgrades the request and runs the connection until it closes.
// A non-empty pinned id is the only player id the connection may act as.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request, pinned string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Info("[WS] Upgrade error", zap.Error(err))
		return
	}

	c := newClient(uid.GenerateConnectionID(), conn, pinned, h.log)
	h.manager.add(c)
	h.log.Info("[WS] Connection opened", zap.String("connection", c.id), zap.String("pinned", pinned))

	go c.writePump()
	c.readLoop(func(data []byte) { h.route(c, data) })

	h.manager.remove(c)
	c.close()
	h.intents.Disconnect(c.id)
	h.log.Info("[WS] Connection closed", zap.String("connection", c.id))
}

func (h *Handler) route(c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.reject(c, msgInvalidMessage)
		return
	}

	switch env.Type {
	case domain.IntentJoinQueue:
		var intent domain.JoinQueueIntent
		if !h.decode(c, env.Data, &intent) {
			return
		}
		playerID, ok := h.resolve(c, intent.PlayerID)
		if !ok {
			return
		}
		h.intents.JoinQueue(c.id, playerID)

	case domain.IntentMakeMove:
		var intent domain.MakeMoveIntent
		if !h.decode(c, env.Data, &intent) {
			return
		}
		playerID, ok := h.resolve(c, intent.PlayerID)
		if !ok {
			return
		}
		h.intents.MakeMove(c.id, intent.SessionID, intent.Col, playerID)

	default:
		h.reject(c, msgUnknownType)
	}
}

func (h *Handler) decode(c *Client, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		h.reject(c, msgInvalidMessage)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		h.reject(c, msgInvalidMessage)
		return false
	}
	return true
}

// resolve applies the token pin. An omitted player id defaults to the pin.
func (h *Handler) resolve(c *Client, playerID string) (string, bool) {
	if c.pinned == "" {
		return playerID, true
	}
	if playerID == "" {
		return c.pinned, true
	}
	if playerID != c.pinned {
		h.log.Warn("[WS] Player id does not match token",
			zap.String("connection", c.id),
			zap.String("player", playerID),
			zap.String("pinned", c.pinned))
		h.reject(c, domain.ErrInvalidPlayerID.Error())
		return "", false
	}
	return playerID, true
}

func (h *Handler) reject(c *Client, message string) {
	h.manager.Send(c.id, domain.ErrorEvent{Message: message})
}
