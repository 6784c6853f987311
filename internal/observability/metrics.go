package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for advisory runs.
type Metrics struct {
	// Weather API metrics.
	WeatherRequests    *prometheus.CounterVec   // labels: endpoint={lookup,now,3d,24h}, outcome={success,transport_error,http_error,api_error,decode_error,not_found}
	WeatherAPIDuration *prometheus.HistogramVec // labels: endpoint

	// Advisory metrics.
	ReportsGenerated  *prometheus.CounterVec // labels: weather={ok,error}
	PestDiagnoses     *prometheus.CounterVec // labels: outcome={matched,no_match,unsupported}
	ReportsPublished  prometheus.Counter
	PublishFailures   prometheus.Counter
	ObservationErrors prometheus.Counter
}

// NewMetrics creates and registers all advisor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.WeatherRequests,
		m.WeatherAPIDuration,
		m.ReportsGenerated,
		m.PestDiagnoses,
		m.ReportsPublished,
		m.PublishFailures,
		m.ObservationErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "weather_requests_total",
			Help:      "QWeather API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		WeatherAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crop_advisor",
			Name:      "weather_api_duration_seconds",
			Help:      "QWeather API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "reports_generated_total",
			Help:      "Advisory reports generated, by weather availability.",
		}, []string{"weather"}),
		PestDiagnoses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "pest_diagnoses_total",
			Help:      "Pest diagnoses by outcome.",
		}, []string{"outcome"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "reports_published_total",
			Help:      "Reports published to Kafka.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "report_publish_failures_total",
			Help:      "Report publications that failed.",
		}),
		ObservationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_advisor",
			Name:      "observation_errors_total",
			Help:      "Observation files that could not be loaded.",
		}),
	}
}

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
