package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the Diwan backend
type Metrics struct {
	// Tea House session metrics
	ActiveSessions  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsFailed  *prometheus.CounterVec
	SessionDuration prometheus.Histogram

	// Audio metrics
	FramesSent         prometheus.Counter
	AudioBytesSent     prometheus.Counter
	AudioBytesReceived prometheus.Counter
	ChunksScheduled    prometheus.Counter
	TranscriptUpdates  *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Upstream metrics
	UpstreamErrors *prometheus.CounterVec
	StatsFallbacks prometheus.Counter
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "diwan_teahouse_active_sessions",
			Help: "Current number of connected Tea House sessions",
		}),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "diwan_teahouse_sessions_created_total",
			Help: "Total number of Tea House sessions that reached connected",
		}),
		SessionsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diwan_teahouse_sessions_failed_total",
			Help: "Total number of Tea House sessions that ended in error",
		}, []string{"reason"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "diwan_teahouse_session_duration_seconds",
			Help:    "Duration of connected Tea House sessions",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),

		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "diwan_teahouse_frames_sent_total",
			Help: "Total number of microphone frames sent upstream",
		}),
		AudioBytesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "diwan_teahouse_audio_sent_bytes_total",
			Help: "Total PCM16 bytes sent upstream",
		}),
		AudioBytesReceived: f.NewCounter(prometheus.CounterOpts{
			Name: "diwan_teahouse_audio_received_bytes_total",
			Help: "Total PCM16 bytes received from the model",
		}),
		ChunksScheduled: f.NewCounter(prometheus.CounterOpts{
			Name: "diwan_teahouse_chunks_scheduled_total",
			Help: "Total number of audio chunks scheduled for playback",
		}),
		TranscriptUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diwan_teahouse_transcript_updates_total",
			Help: "Total number of transcript updates by author",
		}, []string{"author"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diwan_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "diwan_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		UpstreamErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "diwan_upstream_errors_total",
			Help: "Total number of failed calls to upstream services",
		}, []string{"service"}),
		StatsFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "diwan_stats_fallbacks_total",
			Help: "Total number of stats requests answered with the zeroed fallback",
		}),
	}
}

// RecordSessionStart records a session reaching connected
func (m *Metrics) RecordSessionStart() {
	m.SessionsCreated.Inc()
	m.ActiveSessions.Inc()
}

// RecordSessionEnd records the end of a connected session
func (m *Metrics) RecordSessionEnd(d time.Duration) {
	m.ActiveSessions.Dec()
	m.SessionDuration.Observe(d.Seconds())
}

// RecordSessionFailure records a session ending in error
func (m *Metrics) RecordSessionFailure(reason string) {
	m.SessionsFailed.WithLabelValues(reason).Inc()
}

// RecordFrameSent records one uplink frame
func (m *Metrics) RecordFrameSent(bytes int) {
	m.FramesSent.Inc()
	m.AudioBytesSent.Add(float64(bytes))
}

// RecordChunkScheduled records one downlink chunk handed to playback
func (m *Metrics) RecordChunkScheduled(bytes int) {
	m.ChunksScheduled.Inc()
	m.AudioBytesReceived.Add(float64(bytes))
}

// RecordTranscriptUpdate records a transcript change
func (m *Metrics) RecordTranscriptUpdate(author string) {
	m.TranscriptUpdates.WithLabelValues(author).Inc()
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordUpstreamError records a failed upstream call
func (m *Metrics) RecordUpstreamError(service string) {
	m.UpstreamErrors.WithLabelValues(service).Inc()
}

// RecordStatsFallback records a stats request served from the fallback
func (m *Metrics) RecordStatsFallback() {
	m.StatsFallbacks.Inc()
}
