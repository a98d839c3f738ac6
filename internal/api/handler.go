// Package api is the HTTP transport over the ledger operations.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/punchamoorthee/orionledger/internal/auth"
	"github.com/punchamoorthee/orionledger/internal/models"
	"github.com/punchamoorthee/orionledger/internal/service"
)

// Metrics
var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

const maxBodyBytes = 1 << 20

type Handler struct {
	ledger *service.Ledger
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

func NewHandler(ledger *service.Ledger, tokens *auth.TokenIssuer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ledger: ledger, tokens: tokens, logger: logger}
}

// NewRouter wires every endpoint, /health and /metrics.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheckHandler).Methods(http.MethodGet)

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.Use(instrument)
	apiV1.HandleFunc("/sessions", h.LoginHandler).Methods(http.MethodPost)
	apiV1.HandleFunc("/accounts", h.RegisterHandler).Methods(http.MethodPost)
	apiV1.HandleFunc("/accounts/me", h.requireAuth(h.GetAccountHandler)).Methods(http.MethodGet)
	apiV1.HandleFunc("/accounts/me", h.requireAuth(h.DeleteAccountHandler)).Methods(http.MethodDelete)
	apiV1.HandleFunc("/accounts/me/password", h.requireAuth(h.ChangePasswordHandler)).Methods(http.MethodPut)
	apiV1.HandleFunc("/transfers", h.requireAuth(h.CreateTransferHandler)).Methods(http.MethodPost)
	apiV1.HandleFunc("/admin/stats", h.requireAuth(h.GetStatsHandler)).Methods(http.MethodGet)
	return r
}

// instrument records request count and latency per route template.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		httpLatency.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		httpReqTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Helpers
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return false
	}
	return true
}

func respondOK(w http.ResponseWriter, code int, message string, data any) {
	respondWithJSON(w, code, models.Outcome{Success: true, Message: message, Data: data})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, models.Outcome{Success: false, Message: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
