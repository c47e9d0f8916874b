package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickgao/tickplant/internal/auth"
	"github.com/rickgao/tickplant/internal/metrics"
	"github.com/rickgao/tickplant/internal/model"
	"github.com/rickgao/tickplant/internal/poller"
	"github.com/rickgao/tickplant/internal/version"
)

type sessionSource interface {
	Session() (auth.Session, error)
}

type pollerStatus interface {
	Status() poller.Status
}

type quoteReader interface {
	Latest(ctx context.Context, contractID string) (model.Tick, bool, error)
}

// healthHandler serves /health and, when a cache is configured, the latest
// mirrored quote per contract.
type healthHandler struct {
	sessions   sessionSource
	poller     pollerStatus
	quotes     quoteReader // nil when the Redis mirror is disabled
	staleAfter time.Duration
	now        func() time.Time
}

// newRouter builds the HTTP surface of the collector.
func newRouter(h *healthHandler, metricsPath string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Handle(metricsPath, metrics.Handler())
	if h.quotes != nil {
		r.Get("/quotes/{contractID}", h.quote)
	}
	return r
}

func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	health := struct {
		Status     string         `json:"status"`
		Version    version.Info   `json:"version"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Version:    version.Get(),
		Components: make(map[string]any),
	}

	if s, err := h.sessions.Session(); err != nil {
		health.Status = "unhealthy"
		health.Components["session"] = map[string]string{
			"status": "none",
			"error":  err.Error(),
		}
	} else {
		health.Components["session"] = map[string]any{
			"status":      "active",
			"acquired_at": s.AcquiredAt,
		}
	}

	st := h.poller.Status()
	pollerInfo := map[string]any{
		"cycles":   st.Cycles,
		"failures": st.Failures,
	}
	if !st.LastSuccess.IsZero() {
		pollerInfo["last_success"] = st.LastSuccess
	}
	if st.LastError != "" {
		pollerInfo["last_error"] = st.LastError
	}
	if st.LastSuccess.IsZero() || h.now().Sub(st.LastSuccess) > h.staleAfter {
		if health.Status == "healthy" {
			health.Status = "degraded"
		}
	}
	health.Components["poller"] = pollerInfo

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

func (h *healthHandler) quote(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	tick, ok, err := h.quotes.Latest(r.Context(), contractID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"contract_id": tick.ContractID,
		"timestamp":   tick.Timestamp,
		"bids":        tick.Book.Bids,
		"offers":      tick.Book.Offers,
	})
}
