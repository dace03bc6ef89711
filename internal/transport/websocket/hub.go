package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/domain"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/metrics"
)

// Envelope is the wire frame for both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ConnectionManager tracks live clients by connection id and delivers
// events to them. It implements domain.Notifier.
type ConnectionManager struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

func NewConnectionManager(logger *zap.Logger) *ConnectionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConnectionManager{
		clients: make(map[string]*Client),
		log:     logger.With(zap.String("component", "websocket")),
	}
}

func (cm *ConnectionManager) add(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.clients[c.id] = c
	metrics.WebSocketConnections.Set(float64(len(cm.clients)))
}

// remove only drops c if it is still the registered client for its id.
func (cm *ConnectionManager) remove(c *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if current, ok := cm.clients[c.id]; ok && current == c {
		delete(cm.clients, c.id)
	}
	metrics.WebSocketConnections.Set(float64(len(cm.clients)))
}

func (cm *ConnectionManager) Len() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// Send encodes event and queues it on the connection's write pump. It
// never blocks: unknown connections and full buffers drop the event.
func (cm *ConnectionManager) Send(connectionID string, event domain.Event) {
	cm.mu.RLock()
	c, ok := cm.clients[connectionID]
	cm.mu.RUnlock()
	if !ok {
		return
	}

	frame, err := encode(event)
	if err != nil {
		cm.log.Error("[WS] Failed to encode event",
			zap.String("connection", connectionID),
			zap.String("type", event.EventType()),
			zap.Error(err))
		return
	}

	if !c.enqueue(frame) {
		cm.log.Warn("[WS] Send buffer full, dropping event",
			zap.String("connection", connectionID),
			zap.String("type", event.EventType()))
	}
}

// CloseAll closes every live socket; their read loops then report the
// disconnects.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	clients := make([]*Client, 0, len(cm.clients))
	for _, c := range cm.clients {
		clients = append(clients, c)
	}
	cm.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

func encode(event domain.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: event.EventType(), Data: data})
}
