package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ragdesk/ragdesk/pkg/metrics"
)

type Metrics struct {
	apiResponseTime  *prometheus.HistogramVec
	apiErrorCounter  *prometheus.CounterVec
	ingestDocCounter *prometheus.CounterVec
	ingestChunkTotal *prometheus.CounterVec
	ingestTime       *prometheus.HistogramVec
	chatTaskCounter  *prometheus.CounterVec
	retrievalTime    *prometheus.HistogramVec
	generateTime     *prometheus.HistogramVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	return &Metrics{
		apiResponseTime:  metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:  metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		ingestDocCounter: metrics.NewCounterVec("ingest_documents", []string{"status"}),
		ingestChunkTotal: metrics.NewCounterVec("ingest_chunks", nil),
		ingestTime:       metrics.NewHistogramVec("ingest_time", []string{"type"}),
		chatTaskCounter:  metrics.NewCounterVec("chat_tasks", []string{"status"}),
		retrievalTime:    metrics.NewHistogramVec("retrieval_time", nil),
		generateTime:     metrics.NewHistogramVec("generate_time", []string{"driver"}),
	}
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) IngestDocInc(status string) {
	m.ingestDocCounter.WithLabelValues(status).Inc()
}

func (m *Metrics) IngestChunkAdd(n int) {
	m.ingestChunkTotal.WithLabelValues().Add(float64(n))
}

func (m *Metrics) IngestTimer(fileType string) *prometheus.Timer {
	return prometheus.NewTimer(m.ingestTime.WithLabelValues(fileType))
}

func (m *Metrics) ChatTaskInc(status string) {
	m.chatTaskCounter.WithLabelValues(status).Inc()
}

func (m *Metrics) RetrievalTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.retrievalTime.WithLabelValues())
}

func (m *Metrics) GenerateTimer(driver string) *prometheus.Timer {
	return prometheus.NewTimer(m.generateTime.WithLabelValues(driver))
}
