package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/hockey-live/handlers"
	"github.com/Dosada05/hockey-live/middleware"
)

func SetupRoutes(
	r chi.Router,
	allowedOrigins []string,
	scorerAuth *middleware.ScorerAuth,
	liveMatchHandler *handlers.LiveMatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
) {
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthHandler.Healthz)

	// WebSocket маршруты без таймаута: соединение живёт долго.
	r.Get("/ws", webSocketHandler.ServeWs)
	r.Get("/ws/matches/{matchId}", webSocketHandler.ServeMatchWs)

	r.Route("/matches", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(15 * time.Second))

		r.Get("/", liveMatchHandler.ListMatches)
		r.Get("/{matchId}", liveMatchHandler.GetMatch)

		r.Group(func(r chi.Router) {
			r.Use(scorerAuth.Require)

			r.Post("/", liveMatchHandler.CreateMatch)
			r.Post("/{matchId}/score", liveMatchHandler.UpdateScore)
			r.Post("/{matchId}/timer", liveMatchHandler.UpdateTimer)
			r.Post("/{matchId}/events", liveMatchHandler.AddEvent)
			r.Post("/{matchId}/quarter", liveMatchHandler.ChangeQuarter)
			r.Post("/{matchId}/status", liveMatchHandler.ChangeStatus)
			r.Delete("/{matchId}", liveMatchHandler.DeleteMatch)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
