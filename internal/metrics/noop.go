package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncPresenceConnected is a no-op.
func (n *NoopRecorder) IncPresenceConnected() {}

// IncPresenceDisconnected is a no-op.
func (n *NoopRecorder) IncPresenceDisconnected() {}

// IncSamplePublished is a no-op.
func (n *NoopRecorder) IncSamplePublished(status string) {}

// IncSampleProcessed is a no-op.
func (n *NoopRecorder) IncSampleProcessed(status string) {}

// ObserveIngestBatchSize is a no-op.
func (n *NoopRecorder) ObserveIngestBatchSize(size int) {}

// ObserveIngestBatchDuration is a no-op.
func (n *NoopRecorder) ObserveIngestBatchDuration(duration time.Duration) {}

// SetIngestQueueDepth is a no-op.
func (n *NoopRecorder) SetIngestQueueDepth(depth int64) {}

// ObserveIngestLag is a no-op.
func (n *NoopRecorder) ObserveIngestLag(lag time.Duration) {}

// IncSubscriberConnected is a no-op.
func (n *NoopRecorder) IncSubscriberConnected() {}

// IncSubscriberDisconnected is a no-op.
func (n *NoopRecorder) IncSubscriberDisconnected() {}

// IncSnapshotSent is a no-op.
func (n *NoopRecorder) IncSnapshotSent(kind string) {}
