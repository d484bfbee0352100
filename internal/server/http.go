// Package server exposes the game manager over HTTP, WebSocket and gRPC.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chacun/chacun-server-go/internal/game"
	"github.com/chacun/chacun-server-go/internal/game/player"
)

// CreateGameRequest seats players in order. A missing seed picks a random one.
type CreateGameRequest struct {
	Players []string `json:"players"`
	Seed    *uint64  `json:"seed,omitempty"`
}

func (r CreateGameRequest) colors() ([]player.Color, error) {
	colors := make([]player.Color, len(r.Players))
	for i, name := range r.Players {
		c, err := player.ParseColor(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadIntent, err)
		}
		colors[i] = c
	}
	return colors, nil
}

func (r CreateGameRequest) seed() uint64 {
	if r.Seed != nil {
		return *r.Seed
	}
	return rand.Uint64()
}

// API serves the REST routes.
type API struct {
	mgr    *game.Manager
	logger *zap.Logger
}

// NewRouter builds the HTTP handler: the REST API under /api and, when hub
// is not nil, the websocket endpoint at wsPath.
func NewRouter(mgr *game.Manager, hub *Hub, wsPath string, logger *zap.Logger) http.Handler {
	api := &API{mgr: mgr, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recovery(logger))
	r.Use(requestLogger(logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", api.ListGames)
			r.Post("/", api.CreateGame)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", api.GetGame)
				r.Get("/actions", api.GetActions)
				r.Post("/actions", api.PostAction)
			})
		})
	})

	if hub != nil {
		r.Get(wsPath, hub.ServeHTTP)
	}
	return r
}

// ListGames handles GET /api/games
func (a *API) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := a.mgr.List(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, games)
}

// CreateGame handles POST /api/games
func (a *API) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := decodeBody(r.Body, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	colors, err := req.colors()
	if err != nil {
		a.fail(w, err)
		return
	}
	v, err := a.mgr.CreateGame(r.Context(), colors, req.seed())
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Location", "/api/games/"+v.ID)
	respondJSON(w, http.StatusCreated, v)
}

// GetGame handles GET /api/games/{id}
func (a *API) GetGame(w http.ResponseWriter, r *http.Request) {
	v, err := a.mgr.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// GetActions handles GET /api/games/{id}/actions
func (a *API) GetActions(w http.ResponseWriter, r *http.Request) {
	actions, err := a.mgr.Actions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"actions": actions})
}

// PostAction handles POST /api/games/{id}/actions
func (a *API) PostAction(w http.ResponseWriter, r *http.Request) {
	var in Intent
	if err := decodeBody(r.Body, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	v, err := in.Apply(r.Context(), a.mgr, chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (a *API) fail(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError && a.logger != nil {
		a.logger.Error("request failed", zap.Error(err))
	}
	respondError(w, status, err.Error())
}

func httpStatus(err error) int {
	switch classify(err) {
	case kindNotFound:
		return http.StatusNotFound
	case kindForbidden:
		return http.StatusForbidden
	case kindInvalid:
		return http.StatusBadRequest
	case kindRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(body io.Reader, v any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					if logger != nil {
						logger.Error("panic in handler",
							zap.Any("panic", rec),
							zap.String("path", r.URL.Path),
							zap.Stack("stack"),
						)
					}
					respondError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
