// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Presence metrics
	IncPresenceConnected()
	IncPresenceDisconnected()

	// Ingest pipeline metrics
	IncSamplePublished(status string) // status: "success" or "dropped"
	IncSampleProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObserveIngestBatchSize(size int)
	ObserveIngestBatchDuration(duration time.Duration)
	SetIngestQueueDepth(depth int64)
	ObserveIngestLag(lag time.Duration)

	// Subscription fan-out metrics
	IncSubscriberConnected()
	IncSubscriberDisconnected()
	IncSnapshotSent(kind string) // kind: "presence" or "route"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
