package realtime

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Входящие сообщения клиента.
const (
	MessageJoinMatch  = "joinMatch"
	MessageLeaveMatch = "leaveMatch"

	MessageJoinedMatch = "joinedMatch"
	MessageLeftMatch   = "leftMatch"
	MessageError       = "error"
)

// inboundMessage принимает id матча как match_id или matchId.
type inboundMessage struct {
	Type         string `json:"type"`
	MatchID      string `json:"match_id"`
	MatchIDCamel string `json:"matchId"`
}

func (m inboundMessage) matchID() string {
	if id := strings.TrimSpace(m.MatchID); id != "" {
		return id
	}
	return strings.TrimSpace(m.MatchIDCamel)
}

type matchAck struct {
	MatchID string `json:"match_id"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Client обслуживает одно websocket-соединение.
type Client struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.Mutex
	isClosed bool
	rooms    map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, sendBuffer int) *Client {
	return &Client{
		ID:    uuid.NewString(),
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]struct{}),
	}
}

// Rooms возвращает отсортированный список матчей, на которые подписан клиент.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	ids := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	sort.Strings(ids)
	return ids
}

func (c *Client) trackRoom(matchID string) {
	c.mu.Lock()
	c.rooms[matchID] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) untrackRoom(matchID string) {
	c.mu.Lock()
	delete(c.rooms, matchID)
	c.mu.Unlock()
}

// enqueue не блокируется: при переполненной очереди сообщение отбрасывается.
func (c *Client) enqueue(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend закрывает очередь отправки ровно один раз.
func (c *Client) closeSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return false
	}
	c.isClosed = true
	close(c.send)
	return true
}

func (c *Client) reply(messageType, matchID string, payload interface{}) {
	env := Envelope{Type: messageType, Scope: ScopeDirect, Payload: payload}
	if matchID != "" {
		env.RoomID = RoomName(matchID)
	}
	msg, err := json.Marshal(env)
	if err != nil {
		c.hub.logger.Error("Failed to encode reply", slog.String("client_id", c.ID), slog.Any("error", err))
		return
	}
	if !c.enqueue(msg) {
		c.hub.logger.Warn("Reply dropped", slog.String("client_id", c.ID), slog.String("type", messageType))
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reply(MessageError, "", errorPayload{Message: "message must be a JSON object"})
		return
	}
	matchID := msg.matchID()

	switch msg.Type {
	case MessageJoinMatch, MessageLeaveMatch:
		if matchID == "" {
			c.reply(MessageError, "", errorPayload{Message: "match_id is required"})
			return
		}
	default:
		c.reply(MessageError, "", errorPayload{Message: "unknown message type " + msg.Type})
		return
	}

	if msg.Type == MessageJoinMatch {
		c.hub.Join(c, matchID)
		c.reply(MessageJoinedMatch, matchID, matchAck{MatchID: matchID})
		return
	}
	c.hub.Leave(c, matchID)
	c.reply(MessageLeftMatch, matchID, matchAck{MatchID: matchID})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket closed unexpectedly", slog.String("client_id", c.ID), slog.Any("error", err))
			}
			return
		}
		c.handleMessage(message)
	}
}

// writePump отправляет каждое сообщение отдельным фреймом.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("WebSocket write failed", slog.String("client_id", c.ID), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
