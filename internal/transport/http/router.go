package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"triage-service/internal/metrics"
)

func NewRouter(h *Handler, m *metrics.Metrics, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()

	// Middleware
	r.Use(recoverPanic(logger))
	r.Use(requestID)
	r.Use(accessLog(logger))
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	})

	// Triage endpoint
	r.HandleFunc("/triage", h.Triage).Methods(http.MethodPost)

	// Промахи мимо маршрутов: r.Use к ним не применяется, оборачиваем явно
	r.NotFoundHandler = unmatched(http.NotFoundHandler(), m, logger)
	r.MethodNotAllowedHandler = unmatched(http.HandlerFunc(methodNotAllowed), m, logger)

	return r
}

func unmatched(next http.Handler, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	if m != nil {
		next = m.Middleware(next)
	}
	return accessLog(logger)(next)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// NewOpsRouter Служебный роутер: метрики и проверка живости
func NewOpsRouter(m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()

	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
