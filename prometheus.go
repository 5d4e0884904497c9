package main

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metric collectors for the
// acquisition engine and the streaming layer
type PrometheusMetrics struct {
	// Engine metrics
	blocksProcessedTotal prometheus.Counter   // Total input blocks processed
	correlationsTotal    prometheus.Counter   // Total per-PRN correlation passes
	blockDuration        prometheus.Histogram // Wall time per block including the barrier
	streamShortRead      prometheus.Counter   // Input streams terminated by a short read

	// Per-PRN acquisition evidence (prn label)
	prnPeakMagnitude *prometheus.GaugeVec // Peak correlation magnitude of the best bin
	prnBestOffsetHz  *prometheus.GaugeVec // Doppler offset of the best bin
	prnModeOffsetHz  *prometheus.GaugeVec // Doppler offset of the histogram mode bin

	// WebSocket metrics
	wsConnectionsTotal  prometheus.Counter // Total acquisition WebSocket connections
	wsActiveConnections prometheus.Gauge   // Currently connected acquisition clients
	wsFramesSentTotal   prometheus.Counter // Total snapshot frames sent
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		blocksProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gpscorr_blocks_processed_total",
			Help: "Total number of input IQ blocks processed",
		}),
		correlationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gpscorr_correlations_total",
			Help: "Total number of per-PRN correlation passes",
		}),
		blockDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gpscorr_block_duration_seconds",
			Help:    "Wall time to process one block including the pool barrier",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		streamShortRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gpscorr_stream_short_reads_total",
			Help: "Input streams terminated by a short read",
		}),
		prnPeakMagnitude: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gpscorr_prn_peak_magnitude",
			Help: "Peak correlation magnitude of the best Doppler bin",
		}, []string{"prn"}),
		prnBestOffsetHz: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gpscorr_prn_best_offset_hz",
			Help: "Doppler offset of the last winning bin in Hz",
		}, []string{"prn"}),
		prnModeOffsetHz: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gpscorr_prn_mode_offset_hz",
			Help: "Doppler offset of the histogram mode bin in Hz",
		}, []string{"prn"}),
		wsConnectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gpscorr_ws_connections_total",
			Help: "Total acquisition WebSocket connections established",
		}),
		wsActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gpscorr_ws_active_connections",
			Help: "Currently connected acquisition WebSocket clients",
		}),
		wsFramesSentTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gpscorr_ws_frames_sent_total",
			Help: "Total snapshot frames sent to WebSocket clients",
		}),
	}
}

// UpdatePRN publishes the current per-PRN acquisition evidence.
func (pm *PrometheusMetrics) UpdatePRN(prnID int, peak float64, bestOffsetHz, modeOffsetHz float64) {
	label := strconv.Itoa(prnID + 1)
	pm.prnPeakMagnitude.WithLabelValues(label).Set(peak)
	pm.prnBestOffsetHz.WithLabelValues(label).Set(bestOffsetHz)
	pm.prnModeOffsetHz.WithLabelValues(label).Set(modeOffsetHz)
}
