package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/hockey-live/realtime"
)

type WebSocketHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler создаёт обработчик канала подписки.
// Пустой список allowedOrigins или "*" разрешает любой Origin.
func NewWebSocketHandler(hub *realtime.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// ServeWs godoc
// @Summary WebSocket-канал обновлений
// @Tags websocket
// @Description Подключает клиента к общему каналу. Подписка на матчи идёт сообщениями joinMatch/leaveMatch.
// @Success 101 "Switching Protocols"
// @Router /ws [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "")
}

// ServeMatchWs godoc
// @Summary WebSocket-канал одного матча
// @Tags websocket
// @Description Подключает клиента и сразу подписывает его на комнату матча из пути.
// @Param matchId path string true "Match ID"
// @Success 101 "Switching Protocols"
// @Failure 400 {string} string "Missing matchId"
// @Router /ws/matches/{matchId} [get]
func (h *WebSocketHandler) ServeMatchWs(w http.ResponseWriter, r *http.Request) {
	matchID := strings.TrimSpace(chi.URLParam(r, "matchId"))
	if matchID == "" {
		http.Error(w, "Missing matchId", http.StatusBadRequest)
		return
	}
	h.serve(w, r, matchID)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, matchID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту HTTP-ошибкой.
		h.logger.Warn("Failed to upgrade websocket connection", slog.String("match_id", matchID), slog.Any("error", err))
		return
	}

	client := h.hub.Serve(conn, matchID)
	h.logger.Debug("WebSocket client connected",
		slog.String("client_id", client.ID), slog.String("match_id", matchID), slog.String("remote_addr", r.RemoteAddr))
}
