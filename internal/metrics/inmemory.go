package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PresenceConnected        uint64
	PresenceDisconnected     uint64
	SamplesPublished         uint64
	SamplesDropped           uint64
	SamplesProcessed         uint64
	SamplesFailed            uint64
	SamplesDeadLettered      uint64
	IngestBatchCount         uint64
	IngestBatchDurationNs    int64
	IngestQueueDepth         int64
	SubscribersConnected     uint64
	SubscribersDisconnected  uint64
	PresenceSnapshotsSent    uint64
	RouteSnapshotsSent       uint64
}

// InMemoryRecorder stores metrics in process memory. It backs the
// /metrics endpoint and doubles as a test recorder.
type InMemoryRecorder struct {
	presenceConnected       uint64
	presenceDisconnected    uint64
	samplesPublished        uint64
	samplesDropped          uint64
	samplesProcessed        uint64
	samplesFailed           uint64
	samplesDeadLettered     uint64
	ingestBatchCount        uint64
	ingestBatchDurationNs   int64
	ingestQueueDepth        int64
	subscribersConnected    uint64
	subscribersDisconnected uint64
	presenceSnapshotsSent   uint64
	routeSnapshotsSent      uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		PresenceConnected:       atomic.LoadUint64(&m.presenceConnected),
		PresenceDisconnected:    atomic.LoadUint64(&m.presenceDisconnected),
		SamplesPublished:        atomic.LoadUint64(&m.samplesPublished),
		SamplesDropped:          atomic.LoadUint64(&m.samplesDropped),
		SamplesProcessed:        atomic.LoadUint64(&m.samplesProcessed),
		SamplesFailed:           atomic.LoadUint64(&m.samplesFailed),
		SamplesDeadLettered:     atomic.LoadUint64(&m.samplesDeadLettered),
		IngestBatchCount:        atomic.LoadUint64(&m.ingestBatchCount),
		IngestBatchDurationNs:   atomic.LoadInt64(&m.ingestBatchDurationNs),
		IngestQueueDepth:        atomic.LoadInt64(&m.ingestQueueDepth),
		SubscribersConnected:    atomic.LoadUint64(&m.subscribersConnected),
		SubscribersDisconnected: atomic.LoadUint64(&m.subscribersDisconnected),
		PresenceSnapshotsSent:   atomic.LoadUint64(&m.presenceSnapshotsSent),
		RouteSnapshotsSent:      atomic.LoadUint64(&m.routeSnapshotsSent),
	}
}

// IncPresenceConnected increments the connect counter.
func (m *InMemoryRecorder) IncPresenceConnected() {
	atomic.AddUint64(&m.presenceConnected, 1)
}

// IncPresenceDisconnected increments the disconnect counter.
func (m *InMemoryRecorder) IncPresenceDisconnected() {
	atomic.AddUint64(&m.presenceDisconnected, 1)
}

// IncSamplePublished increments publish counters by status.
func (m *InMemoryRecorder) IncSamplePublished(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.samplesPublished, 1)
	case "dropped":
		atomic.AddUint64(&m.samplesDropped, 1)
	}
}

// IncSampleProcessed increments processing counters by status.
func (m *InMemoryRecorder) IncSampleProcessed(status string) {
	switch status {
	case "success":
		atomic.AddUint64(&m.samplesProcessed, 1)
	case "failed":
		atomic.AddUint64(&m.samplesFailed, 1)
	case "dead_lettered":
		atomic.AddUint64(&m.samplesDeadLettered, 1)
	}
}

// ObserveIngestBatchSize records a processed batch.
func (m *InMemoryRecorder) ObserveIngestBatchSize(size int) {
	atomic.AddUint64(&m.ingestBatchCount, 1)
}

// ObserveIngestBatchDuration records batch processing time.
func (m *InMemoryRecorder) ObserveIngestBatchDuration(duration time.Duration) {
	atomic.AddInt64(&m.ingestBatchDurationNs, duration.Nanoseconds())
}

// SetIngestQueueDepth records the stream backlog.
func (m *InMemoryRecorder) SetIngestQueueDepth(depth int64) {
	atomic.StoreInt64(&m.ingestQueueDepth, depth)
}

// ObserveIngestLag is recorded only in aggregate batch duration here.
func (m *InMemoryRecorder) ObserveIngestLag(lag time.Duration) {}

// IncSubscriberConnected increments the subscriber counter.
func (m *InMemoryRecorder) IncSubscriberConnected() {
	atomic.AddUint64(&m.subscribersConnected, 1)
}

// IncSubscriberDisconnected increments the unsubscribe counter.
func (m *InMemoryRecorder) IncSubscriberDisconnected() {
	atomic.AddUint64(&m.subscribersDisconnected, 1)
}

// IncSnapshotSent increments snapshot fan-out counters by kind.
func (m *InMemoryRecorder) IncSnapshotSent(kind string) {
	switch kind {
	case "presence":
		atomic.AddUint64(&m.presenceSnapshotsSent, 1)
	case "route":
		atomic.AddUint64(&m.routeSnapshotsSent, 1)
	}
}
