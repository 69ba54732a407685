package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry содержит все метрики Prometheus сервиса
type Registry struct {
	gatherer prometheus.Gatherer

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Синхронизация справочников
	SyncRecordsTotal *prometheus.CounterVec
	SyncDuration     *prometheus.HistogramVec

	// Поиск рейсов
	LookupsTotal *prometheus.CounterVec

	// Внешний источник
	SourceRequestsTotal   *prometheus.CounterVec
	SourceRequestDuration *prometheus.HistogramVec
}

// New регистрирует метрики в reg.
// Каждый процесс и каждый тест создает свой prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		gatherer: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flighthub_http_requests_total",
				Help: "Total HTTP requests processed by route, method and status code",
			},
			[]string{"route", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flighthub_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method"},
		),

		SyncRecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flighthub_reference_sync_records_total",
				Help: "Reference records processed by sync, by entity and outcome (saved, invalid, skipped)",
			},
			[]string{"entity", "outcome"},
		),
		SyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flighthub_reference_sync_duration_seconds",
				Help:    "Reference sync execution time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"entity"},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flighthub_flight_lookups_total",
				Help: "Flight lookups by result (cache_hit, source, error code)",
			},
			[]string{"result"},
		),

		SourceRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flighthub_source_requests_total",
				Help: "Requests to the external flight source by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		SourceRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flighthub_source_request_duration_seconds",
				Help:    "External flight source latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
	}
}

// Handler отдает метрики в формате Prometheus
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
