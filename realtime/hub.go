package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Область доставки конверта. Одно событие уходит дважды: всем клиентам (global)
// и подписчикам комнаты матча (room); клиент, слушающий оба, различает их по scope.
const (
	ScopeGlobal = "global"
	ScopeRoom   = "room"
	ScopeDirect = "direct"
)

// Envelope описывает сообщение, отправляемое клиенту.
type Envelope struct {
	Type    string      `json:"type"`
	Scope   string      `json:"scope"`
	RoomID  string      `json:"room_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

func RoomName(matchID string) string {
	return "match_" + matchID
}

// Hub владеет реестром подписок и множеством подключённых клиентов.
type Hub struct {
	registry   *Registry
	logger     *slog.Logger
	sendBuffer int

	mu      sync.RWMutex
	clients map[*Client]struct{}

	// publishMu сохраняет порядок событий для каждого соединения.
	publishMu sync.Mutex
}

func NewHub(registry *Registry, logger *slog.Logger, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		registry:   registry,
		logger:     logger,
		sendBuffer: sendBuffer,
		clients:    make(map[*Client]struct{}),
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Serve регистрирует соединение и запускает его pump-горутины.
// Непустой matchID сразу подписывает клиента на комнату матча.
func (h *Hub) Serve(conn *websocket.Conn, matchID string) *Client {
	client := newClient(h, conn, h.sendBuffer)
	h.Register(client)
	if matchID != "" {
		h.Join(client, matchID)
	}

	go client.writePump()
	go client.readPump()
	return client
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("Client connected", slog.String("client_id", c.ID), slog.Int("clients", total))
}

// Unregister отключает клиента: удаляет из всех комнат и закрывает очередь отправки.
// Повторный вызов безопасен.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()

	h.registry.RemoveClient(c)
	c.closeSend()

	if ok {
		h.logger.Debug("Client disconnected", slog.String("client_id", c.ID), slog.Int("clients", total))
	}
}

func (h *Hub) Join(c *Client, matchID string) {
	if h.registry.Join(c, matchID) {
		h.logger.Debug("Client joined match room", slog.String("client_id", c.ID), slog.String("match_id", matchID))
	}
}

func (h *Hub) Leave(c *Client, matchID string) {
	if h.registry.Leave(c, matchID) {
		h.logger.Debug("Client left match room", slog.String("client_id", c.ID), slog.String("match_id", matchID))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish рассылает событие всем клиентам и участникам комнаты матча.
// Доставка best-effort: переполненная очередь клиента теряет сообщение, вызов не блокируется.
func (h *Hub) Publish(matchID, event string, payload interface{}) {
	global, err := json.Marshal(Envelope{Type: event, Scope: ScopeGlobal, RoomID: RoomName(matchID), Payload: payload})
	if err != nil {
		h.logger.Error("Failed to encode broadcast", slog.String("event", event), slog.String("match_id", matchID), slog.Any("error", err))
		return
	}
	inRoom, err := json.Marshal(Envelope{Type: event, Scope: ScopeRoom, RoomID: RoomName(matchID), Payload: payload})
	if err != nil {
		h.logger.Error("Failed to encode broadcast", slog.String("event", event), slog.String("match_id", matchID), slog.Any("error", err))
		return
	}

	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.mu.RLock()
	everyone := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		everyone = append(everyone, c)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range everyone {
		if !c.enqueue(global) {
			dropped++
		}
	}
	members := h.registry.Members(matchID)
	for _, c := range members {
		if !c.enqueue(inRoom) {
			dropped++
		}
	}

	if dropped > 0 {
		h.logger.Warn("Broadcast dropped for some clients",
			slog.String("event", event), slog.String("match_id", matchID), slog.Int("dropped", dropped))
	}
}

// Close отключает всех клиентов.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}
