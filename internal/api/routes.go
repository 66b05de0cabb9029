package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"talkclip/internal/config"
	"talkclip/internal/export"
	"talkclip/internal/exportlock"
	"talkclip/internal/history"
	"talkclip/internal/host"
	"talkclip/internal/logging"
	"talkclip/internal/services"
)

const (
	maxHistoryLimit = 500
	maxBodyBytes    = 1 << 20
)

// ServerConfig wires the API to the export pipeline.
type ServerConfig struct {
	Config  *config.Config
	Runner  *export.Runner
	History *history.Store
	// NewHost builds the speech host for one export.
	NewHost   func(cfg *config.Config) host.Host
	Logger    *slog.Logger
	StartTime time.Time
}

// NewRouter builds the API routes.
func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Route("/api", func(r chi.Router) {
		r.Post("/export", exportHandler(cfg))
		r.Get("/history", historyHandler(cfg))
	})
	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var uptime int64
		if !cfg.StartTime.IsZero() {
			uptime = int64(time.Since(cfg.StartTime).Seconds())
		}
		WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", UptimeS: uptime})
	}
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body ExportRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				WriteError(w, http.StatusRequestEntityTooLarge, "request body too large", "BODY_TOO_LARGE")
				return
			}
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if cfg.Runner == nil || cfg.NewHost == nil {
			WriteError(w, http.StatusServiceUnavailable, "export pipeline not configured", "UNAVAILABLE")
			return
		}
		req, err := export.NewRequest(cfg.Config, cfg.NewHost(cfg.Config), body.Text)
		if err != nil {
			status, code := errorStatus(err)
			WriteError(w, status, err.Error(), code)
			return
		}
		// A started export finishes and is journaled even if the client goes away.
		out, err := cfg.Runner.Run(context.WithoutCancel(r.Context()), req)
		if errors.Is(err, exportlock.ErrBusy) {
			WriteError(w, http.StatusConflict, err.Error(), "BUSY")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, FromOutcome(out))
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			WriteJSON(w, http.StatusOK, HistoryResponse{Entries: []HistoryEntry{}})
			return
		}
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxHistoryLimit {
				WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500", "BAD_REQUEST")
				return
			}
			limit = n
		}
		entries, err := cfg.History.List(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list history", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{Entries: FromHistory(entries)})
	}
}

func errorStatus(err error) (int, string) {
	switch services.Marker(err) {
	case services.ErrValidation:
		return http.StatusBadRequest, "INVALID_REQUEST"
	case services.ErrConfiguration:
		return http.StatusInternalServerError, "CONFIG_ERROR"
	case services.ErrTimeout:
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
