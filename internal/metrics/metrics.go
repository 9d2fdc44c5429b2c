package metrics

import (
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"triage-service/internal/triage"
)

// Исходы обработки запроса на триаж
const (
	OutcomeClassified         = "classified"
	OutcomeInvalidJSON        = "invalid_json"
	OutcomeMissingDescription = "missing_description"
	OutcomeTooLarge           = "too_large"
)

// RouteUnmatched Метка route для запросов, не попавших ни в один маршрут (404, 405)
const RouteUnmatched = "unmatched"

// Metrics Prometheus-метрики сервиса триажа
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RequestsTotal       *prometheus.CounterVec
	ClassificationTotal *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
	EventsLogged        *prometheus.CounterVec
}

// New Регистрирует метрики в собственном реестре
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_http_requests_total",
			Help: "Total HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triage_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms .. ~1s
		}, []string{"route", "method"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_requests_total",
			Help: "Triage requests by outcome.",
		}, []string{"outcome"}),
		ClassificationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_classifications_total",
			Help: "Classified issues by category and priority.",
		}, []string{"category", "priority"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_events_published_total",
			Help: "Triage events published to NATS by result.",
		}, []string{"result"}),
		EventsLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_events_logged_total",
			Help: "Triage events written to ClickHouse by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RequestsTotal,
		m.ClassificationTotal,
		m.EventsPublished,
		m.EventsLogged,
	)

	// Нулевые значения для всех известных комбинаций меток
	for _, outcome := range []string{OutcomeClassified, OutcomeInvalidJSON, OutcomeMissingDescription, OutcomeTooLarge} {
		m.RequestsTotal.WithLabelValues(outcome)
	}
	for _, category := range triage.Categories() {
		for _, priority := range triage.Priorities() {
			m.ClassificationTotal.WithLabelValues(string(category), string(priority))
		}
	}
	for _, result := range []string{"ok", "error"} {
		m.EventsPublished.WithLabelValues(result)
		m.EventsLogged.WithLabelValues(result)
	}

	return m
}

// Registry Реестр, в котором зарегистрированы метрики
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler Отдаёт метрики в формате Prometheus
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(outcome string) {
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveClassification(category triage.Category, priority triage.Priority) {
	m.ClassificationTotal.WithLabelValues(string(category), string(priority)).Inc()
}

func (m *Metrics) ObservePublish(err error) {
	m.EventsPublished.WithLabelValues(resultLabel(err)).Inc()
}

func (m *Metrics) ObserveLog(err error) {
	m.EventsLogged.WithLabelValues(resultLabel(err)).Inc()
}

// Middleware Считает запросы и их длительность, меткой route служит шаблон маршрута mux.
// Для обработчиков 404 и 405 маршрута нет, они попадают под RouteUnmatched.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snoop := httpsnoop.CaptureMetrics(next, w, r)

		route := RouteUnmatched
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(snoop.Code)).Inc()
		m.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(snoop.Duration.Seconds())
	})
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
