package site

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/AgriSight/AS-Backend/internal/gateway"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Handler exposes the analysis over HTTP. The store is optional; without it
// report retrieval answers 503.
type Handler struct {
	orch  *Orchestrator
	store *Store
}

func NewHandler(orch *Orchestrator, store *Store) *Handler {
	return &Handler{orch: orch, store: store}
}

// SetupRoutes mounts the site endpoints.
func (h *Handler) SetupRoutes() http.Handler {
	r := chi.NewRouter()
	r.Post("/analyze", h.Analyze)
	r.Get("/reports/{id}", h.GetReport)
	return r
}

// Analyze runs the full assessment for the posted polygon.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Polygon.Geometry.Type != "Polygon" || len(req.Polygon.Geometry.Coordinates) == 0 {
		http.Error(w, "polygon must be a GeoJSON Feature<Polygon>", http.StatusBadRequest)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		http.Error(w, "startDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		http.Error(w, "endDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	report, err := h.orch.AnalyzeSite(r.Context(), req.Polygon.Geometry.Coordinates[0], req.Source, start, end)
	if err != nil {
		status := statusFor(err)
		log.Printf("[site] analyze failed (%d): %v", status, err)
		http.Error(w, err.Error(), status)
		return
	}

	if h.store != nil {
		if err := h.store.Save(report); err != nil {
			// Persistence is best-effort; the caller still gets the report.
			log.Printf("[site] save report %s: %v", report.ID, err)
		}
	}
	writeJSON(w, http.StatusOK, report)
}

// GetReport serves a previously stored report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "report storage not configured", http.StatusServiceUnavailable)
		return
	}

	report, err := h.store.Get(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "report not found", http.StatusNotFound)
		return
	case err != nil:
		log.Printf("[site] load report: %v", err)
		http.Error(w, "failed to load report", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// NewHealthHandler reports liveness plus the gateway's cache occupancy and
// current rate limits.
func NewHealthHandler(gw *gateway.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"time":    time.Now().UTC().Format(time.RFC3339),
			"gateway": gw.Stats(),
		})
	}
}

// parseDate accepts an empty string as an unspecified date.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// statusFor maps the error taxonomy onto HTTP statuses: validation 400,
// missing upstream data 422, upstream faults 502, everything else 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, gateway.ErrDataInsufficient):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gateway.ErrUpstreamTimeout),
		errors.Is(err, gateway.ErrUpstreamRateLimited),
		errors.Is(err, gateway.ErrUpstreamTransient),
		errors.Is(err, gateway.ErrUpstreamTerminal),
		errors.Is(err, gateway.ErrSchemaMismatch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
