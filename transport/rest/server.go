package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

type Options struct {
	// RateLimit is the number of requests per minute allowed per client ip and endpoint; zero disables it.
	RateLimit      int
	AllowedOrigins []string
}

// NewRouter - mounts the websocket join endpoint and the read-only REST surface on one router.
func NewRouter(logger *slog.Logger, opts Options, join http.HandlerFunc, rooms roomsProvider, results resultsProvider) http.Handler {
	handlers := NewHandlers(logger, rooms, results)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	if opts.RateLimit > 0 {
		router.Use(httprate.Limit(opts.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint)))
	}

	router.Get("/join/{roomID}", join)

	router.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins(opts.AllowedOrigins),
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowCredentials: false,
		}))

		r.Get("/ping", NewPingHandler().PingHandler)
		r.Get("/rooms", handlers.ListRooms)
		r.Get("/rooms/{roomID}", handlers.GetRoom)
		r.Get("/rooms/{roomID}/results", handlers.ListRoomResults)
		r.Get("/results/totals", handlers.GetTotals)
	})

	return router
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
