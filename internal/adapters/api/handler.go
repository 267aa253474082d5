// Package api exposes the zone mutation operations over HTTP with JSON bodies.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/poyrazK/zonectl/internal/core/domain"
	"github.com/poyrazK/zonectl/internal/core/ports"
)

// maxBodyBytes caps request bodies; every request is a handful of short strings.
const maxBodyBytes = 64 << 10

// APIHandler handles HTTP requests for record management.
type APIHandler struct {
	svc    ports.ZoneService
	tokens []string
	logger *zerolog.Logger
}

// NewAPIHandler creates and returns a new APIHandler instance.
func NewAPIHandler(svc ports.ZoneService, tokens []string, logger *zerolog.Logger) *APIHandler {
	if logger == nil {
		logger = &log.Logger
	}
	return &APIHandler{svc: svc, tokens: tokens, logger: logger}
}

// Handler returns the routes wrapped in request logging.
func (h *APIHandler) Handler() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return LoggingMiddleware(h.logger)(mux)
}

// RegisterRoutes registers the API routes with the provided ServeMux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	// Public Routes
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /metrics", h.Metrics)
	mux.HandleFunc("GET /records", h.ListRecords)
	mux.HandleFunc("GET /changes", h.ListChanges)

	auth := AuthMiddleware(h.tokens)

	mux.Handle("POST /add_record", auth(http.HandlerFunc(h.AddRecord)))
	mux.Handle("POST /delete_record", auth(http.HandlerFunc(h.DeleteRecord)))
	mux.Handle("POST /check_record", auth(http.HandlerFunc(h.CheckRecord)))
}

// Metrics handles Prometheus metrics scraping requests.
func (h *APIHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// HealthCheck handles health check requests.
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)
	checks := h.svc.HealthCheck(r.Context())

	for name, checkErr := range checks {
		if checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, map[string]interface{}{
		"status":  status,
		"details": details,
	})
}

func (h *APIHandler) AddRecord(w http.ResponseWriter, r *http.Request) {
	var req domain.AddRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.svc.AddRecord(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Record added successfully",
		"zone":    res.Zone,
		"serial":  res.Serial,
		"created": res.Created,
	})
}

func (h *APIHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	var req domain.DeleteRecordRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.svc.DeleteRecord(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Record deleted successfully",
		"zone":    res.Zone,
		"serial":  res.Serial,
		"removed": res.Removed,
	})
}

func (h *APIHandler) CheckRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "Missing domain", "")
		return
	}

	out, err := h.svc.CheckZone(r.Context(), req.Domain)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"output": out})
}

func (h *APIHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("domain")
	if zone == "" {
		writeError(w, http.StatusBadRequest, "Missing domain", "")
		return
	}

	records, err := h.svc.ListRecords(r.Context(), zone)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *APIHandler) ListChanges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zone := q.Get("domain")
	if zone == "" {
		writeError(w, http.StatusBadRequest, "Missing domain", "")
		return
	}

	var from uint64
	if s := q.Get("from"); s != "" {
		var err error
		if from, err = strconv.ParseUint(s, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from serial", "")
			return
		}
	}

	changes, err := h.svc.ListChanges(r.Context(), zone, from)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, changes)
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input", err.Error())
		return false
	}
	return true
}

// writeServiceError maps the domain error taxonomy onto status codes.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error) {
	var lookupErr *domain.LookupError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, domain.ErrZoneNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.As(err, &lookupErr):
		writeError(w, http.StatusInternalServerError, "Failed to execute lookup", lookupErr.Details)
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, err.Error(), "")
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string, details string) {
	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
