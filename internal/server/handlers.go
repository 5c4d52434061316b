// Package server exposes the JSON HTTP surface: congestion snapshots,
// pre-arrival forecasts, alert history and acknowledgement, plus a KML
// rendering of the current snapshot.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/quayside/portpulse/server/internal/alerts"
	"github.com/quayside/portpulse/server/internal/lib/congestion"
	"github.com/quayside/portpulse/server/internal/lib/prearrival"
	"github.com/quayside/portpulse/server/internal/services"
)

// SnapshotProvider is the congestion surface the handlers need
type SnapshotProvider interface {
	Snapshot(ctx context.Context, portCode string) (congestion.Snapshot, error)
}

// AlertAPI is the alert surface the handlers need
type AlertAPI interface {
	Evaluate(ctx context.Context, portCode string) ([]alerts.Alert, error)
	History(ctx context.Context, portCode string, limit int) ([]alerts.Alert, error)
	Acknowledge(ctx context.Context, portCode, alertID string) (bool, error)
}

// ForecastProvider is the pre-arrival surface the handlers need
type ForecastProvider interface {
	Forecast(ctx context.Context, portCode string, window time.Duration) (prearrival.Forecast, error)
}

// Handler routes everything under /api/v1/ports/
type Handler struct {
	congestion SnapshotProvider
	prearrival ForecastProvider
	alerts     AlertAPI
	ports      services.PortDirectory
}

// New creates the API handler
func New(congestion SnapshotProvider, forecasts ForecastProvider, alertAPI AlertAPI, ports services.PortDirectory) *Handler {
	return &Handler{
		congestion: congestion,
		prearrival: forecasts,
		alerts:     alertAPI,
		ports:      ports,
	}
}

// ServeHTTP dispatches /api/v1/ports/{code}/<resource> requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest, ok := strings.CutPrefix(r.URL.Path, "/api/v1/ports/")
	if !ok || rest == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(strings.Trim(rest, "/"), "/")
	portCode := strings.ToUpper(parts[0])
	if portCode == "" || len(parts) < 2 {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "congestion" && r.Method == http.MethodGet:
		h.handleCongestion(w, r, portCode)
	case len(parts) == 2 && parts[1] == "congestion.kml" && r.Method == http.MethodGet:
		h.handleCongestionKML(w, r, portCode)
	case len(parts) == 2 && parts[1] == "prearrivals" && r.Method == http.MethodGet:
		h.handlePreArrivals(w, r, portCode)
	case len(parts) == 2 && parts[1] == "alerts" && r.Method == http.MethodGet:
		h.handleAlertHistory(w, r, portCode)
	case len(parts) == 2 && parts[1] == "alerts" && r.Method == http.MethodPost:
		h.handleEvaluate(w, r, portCode)
	case len(parts) == 4 && parts[1] == "alerts" && parts[3] == "ack" && r.Method == http.MethodPost:
		h.handleAcknowledge(w, r, portCode, parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleCongestion(w http.ResponseWriter, r *http.Request, portCode string) {
	snapshot, err := h.congestion.Snapshot(r.Context(), portCode)
	if err != nil {
		writeServiceError(w, portCode, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleCongestionKML(w http.ResponseWriter, r *http.Request, portCode string) {
	port, err := h.ports.Port(r.Context(), portCode)
	if err != nil || port.Position == nil {
		writeError(w, http.StatusNotFound, "port not available: "+portCode)
		return
	}

	snapshot, err := h.congestion.Snapshot(r.Context(), portCode)
	if err != nil {
		writeServiceError(w, portCode, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	if err := services.WriteSnapshotKML(w, snapshot, *port.Position); err != nil {
		log.Printf("Failed to render KML for %s: %v", portCode, err)
	}
}

func (h *Handler) handlePreArrivals(w http.ResponseWriter, r *http.Request, portCode string) {
	var window time.Duration
	if raw := r.URL.Query().Get("window_hours"); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "window_hours must be a positive number")
			return
		}
		window = time.Duration(hours * float64(time.Hour))
	}

	forecast, err := h.prearrival.Forecast(r.Context(), portCode, window)
	if err != nil {
		writeServiceError(w, portCode, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (h *Handler) handleAlertHistory(w http.ResponseWriter, r *http.Request, portCode string) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	history, err := h.alerts.History(r.Context(), portCode, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read alert history")
		return
	}
	if history == nil {
		history = []alerts.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"port_code": portCode,
		"alerts":    history,
	})
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request, portCode string) {
	fired, err := h.alerts.Evaluate(r.Context(), portCode)
	if err != nil {
		writeServiceError(w, portCode, err)
		return
	}
	if fired == nil {
		fired = []alerts.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"port_code": portCode,
		"fired":     fired,
	})
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request, portCode, alertID string) {
	found, err := h.alerts.Acknowledge(r.Context(), portCode, alertID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to acknowledge alert")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no alert "+alertID+" at "+portCode)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"port_code":    portCode,
		"alert_id":     alertID,
		"acknowledged": true,
	})
}

func writeServiceError(w http.ResponseWriter, portCode string, err error) {
	if errors.Is(err, services.ErrPortUnavailable) {
		writeError(w, http.StatusNotFound, "port not available: "+portCode)
		return
	}
	log.Printf("Request for %s failed: %v", portCode, err)
	writeError(w, http.StatusBadGateway, "upstream data unavailable")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
