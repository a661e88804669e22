package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// HealthCheck проверяет одну зависимость (БД, Redis).
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
	responder
}

func NewHealthHandler(checks map[string]HealthCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, responder: responder{logger: logger}}
}

// Healthz godoc
// @Summary Проверка зависимостей
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{} "Все зависимости доступны"
// @Failure 503 {object} map[string]interface{} "Одна из зависимостей недоступна"
// @Router /healthz [get]
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	report := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "Health check failed", slog.String("check", name), slog.Any("error", err))
			report[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}

	h.writeOK(w, r, status, jsonResponse{"status": http.StatusText(status), "checks": report})
}
