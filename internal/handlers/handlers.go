// Package handlers contains the HTTP API handlers
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SpherenexLabs/npk/internal/cache"
	"github.com/SpherenexLabs/npk/internal/metrics"
	"github.com/SpherenexLabs/npk/internal/models"
	"github.com/SpherenexLabs/npk/internal/services"
)

const maxBodyBytes = 1 << 20

// Handler holds the HTTP handler dependencies. cache may be nil.
type Handler struct {
	advisor   *services.AdvisorService
	cache     *cache.RedisCache
	startTime time.Time
}

// HealthStatus is the /health response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis"`
	Devices   int       `json:"devices"`
	Uptime    string    `json:"uptime"`
}

// StatsResponse is the /stats response
type StatsResponse struct {
	Devices         int      `json:"devices"`
	ReadingsTotal   int64    `json:"readings_total"`
	WarningsTotal   int64    `json:"warnings_total"`
	DatasetSize     int      `json:"dataset_size"`
	Labels          []string `json:"labels"`
	NeighbourCountK int      `json:"k"`
}

// NewHandler creates a new handler
func NewHandler(advisor *services.AdvisorService, cache *cache.RedisCache) *Handler {
	return &Handler{
		advisor:   advisor,
		cache:     cache,
		startTime: time.Now(),
	}
}

// Router builds the API routes
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/devices", h.instrument("/devices", h.DevicesHandler)).Methods("GET")
	router.HandleFunc("/devices/{device_id}/readings", h.instrument("/devices/readings", h.ReadingHandler)).Methods("POST")
	router.HandleFunc("/devices/{device_id}/history", h.instrument("/devices/history", h.HistoryHandler)).Methods("GET")
	router.HandleFunc("/devices/{device_id}/advice", h.instrument("/devices/advice", h.AdviceHandler)).Methods("GET")
	router.HandleFunc("/devices/{device_id}/trend", h.instrument("/devices/trend", h.TrendHandler)).Methods("GET")
	router.HandleFunc("/devices/{device_id}/recent", h.instrument("/devices/recent", h.RecentHandler)).Methods("GET")
	router.HandleFunc("/stats", h.instrument("/stats", h.StatsHandler)).Methods("GET")
	router.HandleFunc("/health", h.HealthHandler).Methods("GET")

	router.Handle("/prometheus", promhttp.Handler())

	router.Use(loggingMiddleware)
	return router
}

// ReadingHandler handles POST /devices/{device_id}/readings
func (h *Handler) ReadingHandler(w http.ResponseWriter, r *http.Request) int {
	deviceID := mux.Vars(r)["device_id"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return h.respondError(w, "Failed to read body: "+err.Error(), http.StatusBadRequest)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var reading models.Reading
	if err := dec.Decode(&reading); err != nil || reading == nil {
		return h.respondError(w, "Reading must be a JSON object", http.StatusBadRequest)
	}

	result, err := h.advisor.IngestFrom(r.Context(), services.SourceHTTP, deviceID, reading, time.Now())
	if err != nil {
		return h.respondError(w, err.Error(), http.StatusBadRequest)
	}

	return h.respondJSON(w, result, http.StatusOK)
}

// DevicesHandler handles GET /devices
func (h *Handler) DevicesHandler(w http.ResponseWriter, r *http.Request) int {
	return h.respondJSON(w, h.advisor.Devices(), http.StatusOK)
}

// HistoryHandler handles GET /devices/{device_id}/history
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) int {
	history, err := h.advisor.History(mux.Vars(r)["device_id"])
	if err != nil {
		return h.respondServiceError(w, err)
	}
	return h.respondJSON(w, history, http.StatusOK)
}

// AdviceHandler handles GET /devices/{device_id}/advice
func (h *Handler) AdviceHandler(w http.ResponseWriter, r *http.Request) int {
	latest, err := h.advisor.Latest(mux.Vars(r)["device_id"])
	if err != nil {
		return h.respondServiceError(w, err)
	}
	return h.respondJSON(w, latest, http.StatusOK)
}

// TrendHandler handles GET /devices/{device_id}/trend?field=ph
func (h *Handler) TrendHandler(w http.ResponseWriter, r *http.Request) int {
	trend, err := h.advisor.Trend(mux.Vars(r)["device_id"], r.URL.Query().Get("field"))
	if err != nil {
		return h.respondServiceError(w, err)
	}
	return h.respondJSON(w, trend, http.StatusOK)
}

// RecentHandler handles GET /devices/{device_id}/recent?count=20 from the Redis list
func (h *Handler) RecentHandler(w http.ResponseWriter, r *http.Request) int {
	if h.cache == nil {
		return h.respondError(w, "Cache not available", http.StatusServiceUnavailable)
	}

	count := int64(20)
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		if c, err := strconv.ParseInt(countStr, 10, 64); err == nil && c > 0 && c <= cache.RecentLimit {
			count = c
		}
	}

	results, err := h.cache.GetRecent(r.Context(), mux.Vars(r)["device_id"], count)
	if err != nil {
		return h.respondError(w, "Failed to get recent results: "+err.Error(), http.StatusInternalServerError)
	}
	return h.respondJSON(w, results, http.StatusOK)
}

// StatsHandler handles GET /stats
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) int {
	ds := h.advisor.Classifier().Dataset()
	stats := StatsResponse{
		Devices:         len(h.advisor.Devices()),
		DatasetSize:     ds.Len(),
		Labels:          ds.Labels(),
		NeighbourCountK: h.advisor.Classifier().K(),
	}

	if h.cache != nil {
		stats.ReadingsTotal, _ = h.cache.GetCounter(r.Context(), cache.ReadingsTotalKey)
		stats.WarningsTotal, _ = h.cache.GetCounter(r.Context(), cache.WarningsTotalKey)
	}
	return h.respondJSON(w, stats, http.StatusOK)
}

// HealthHandler handles GET /health
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	redisStatus := "disabled"
	if h.cache != nil {
		redisStatus = "disconnected"
		if h.cache.Ping(r.Context()) == nil {
			redisStatus = "connected"
		}
	}

	h.respondJSON(w, HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Redis:     redisStatus,
		Devices:   len(h.advisor.Devices()),
		Uptime:    time.Since(h.startTime).String(),
	}, http.StatusOK)
}

// instrument records request count and duration for a handler returning its status
func (h *Handler) instrument(endpoint string, fn func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(endpoint, r.Method))
		defer timer.ObserveDuration()

		status := fn(w, r)
		metrics.RequestsTotal.WithLabelValues(endpoint, r.Method, strconv.Itoa(status)).Inc()
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownDevice):
		return h.respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUnknownField):
		return h.respondError(w, err.Error(), http.StatusBadRequest)
	default:
		return h.respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondJSON writes a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, status int) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("HTTP: Error encoding response: %v", err)
	}
	return status
}

// respondError writes an error in JSON form
func (h *Handler) respondError(w http.ResponseWriter, message string, status int) int {
	return h.respondJSON(w, map[string]string{"error": message}, status)
}

// loggingMiddleware logs each HTTP request
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
