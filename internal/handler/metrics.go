package handler

import (
	"fmt"
	"net/http"

	"github.com/locshare/locshare/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "locshare_presence_connected_total %d\n", snap.PresenceConnected)
	writeMetric(w, "locshare_presence_disconnected_total %d\n", snap.PresenceDisconnected)

	writeMetric(w, "locshare_samples_published_total{status=\"success\"} %d\n", snap.SamplesPublished)
	writeMetric(w, "locshare_samples_published_total{status=\"dropped\"} %d\n", snap.SamplesDropped)

	writeMetric(w, "locshare_samples_processed_total{status=\"success\"} %d\n", snap.SamplesProcessed)
	writeMetric(w, "locshare_samples_processed_total{status=\"failed\"} %d\n", snap.SamplesFailed)
	writeMetric(w, "locshare_samples_processed_total{status=\"dead_lettered\"} %d\n", snap.SamplesDeadLettered)

	writeMetric(w, "locshare_ingest_batches_total %d\n", snap.IngestBatchCount)
	writeMetric(w, "locshare_ingest_queue_depth %d\n", snap.IngestQueueDepth)
	writeMetric(w, "locshare_ingest_batch_duration_seconds_sum %.6f\n", float64(snap.IngestBatchDurationNs)/1e9)

	writeMetric(w, "locshare_subscribers_connected_total %d\n", snap.SubscribersConnected)
	writeMetric(w, "locshare_subscribers_disconnected_total %d\n", snap.SubscribersDisconnected)
	writeMetric(w, "locshare_snapshots_sent_total{kind=\"presence\"} %d\n", snap.PresenceSnapshotsSent)
	writeMetric(w, "locshare_snapshots_sent_total{kind=\"route\"} %d\n", snap.RouteSnapshotsSent)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
