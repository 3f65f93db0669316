// Package publisher implements the client-side location publishing
// state machine: it samples a position source while enabled and pushes
// each sample to the backend.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Default sampling behavior.
const (
	// DefaultCadence is the longest interval between emitted samples.
	DefaultCadence = 3 * time.Second

	// DefaultMoveThresholdMeters emits a sample early when the device
	// moved at least this far since the last emit.
	DefaultMoveThresholdMeters = 1.0

	// defaultPollInterval is how often the position source is read to
	// check for movement between cadence ticks.
	defaultPollInterval = 500 * time.Millisecond
)

// ErrAlreadyRunning is returned by Start while sampling is in progress.
var ErrAlreadyRunning = errors.New("publisher already running")

// Position is a single sampled coordinate.
type Position struct {
	Latitude  float64
	Longitude float64
}

// PermissionProvider answers whether location access is granted.
type PermissionProvider interface {
	RequestLocationPermission(ctx context.Context) (bool, error)
}

// PositionSource reads the device's current position.
type PositionSource interface {
	Position(ctx context.Context) (Position, error)
}

// Store is the backend surface the publisher writes to.
type Store interface {
	PublishPosition(ctx context.Context, lat, lon float64, recordedAt time.Time) error
	SetConnected(ctx context.Context, connected bool) error
	ClearRoute(ctx context.Context) error
}

// Publisher drives the Idle, RequestingPermission, Sampling, Stopped
// lifecycle. Sample writes are fire-and-forget: failures are logged and
// dropped, never retried.
type Publisher struct {
	perms  PermissionProvider
	source PositionSource
	store  Store
	logger *slog.Logger

	cadence       time.Duration
	moveThreshold float64
	pollInterval  time.Duration

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	path   []Position
}

// New creates a Publisher in StateIdle.
func New(perms PermissionProvider, source PositionSource, store Store, logger *slog.Logger) *Publisher {
	return &Publisher{
		perms:         perms,
		source:        source,
		store:         store,
		logger:        logger.With("component", "publisher"),
		cadence:       DefaultCadence,
		moveThreshold: DefaultMoveThresholdMeters,
		pollInterval:  defaultPollInterval,
	}
}

// SetCadence overrides the sample cadence. For testing.
func (p *Publisher) SetCadence(d time.Duration) {
	p.cadence = d
}

// SetPollInterval overrides the movement poll interval. For testing.
func (p *Publisher) SetPollInterval(d time.Duration) {
	p.pollInterval = d
}

// State returns the current lifecycle state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Path returns a copy of the locally buffered path.
func (p *Publisher) Path() []Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Position, len(p.path))
	copy(out, p.path)
	return out
}

// Start requests location permission and begins sampling.
// Permission denial returns the machine to StateIdle with no retry.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateSampling || p.state == StateRequestingPermission {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	p.state = StateRequestingPermission
	p.mu.Unlock()

	granted, err := p.perms.RequestLocationPermission(ctx)
	if err != nil || !granted {
		p.mu.Lock()
		if p.state == StateRequestingPermission {
			p.state = StateIdle
		}
		p.mu.Unlock()
		if err != nil {
			p.logger.Error("permission_request_failed", "error", err)
			return err
		}
		p.logger.Info("permission_denied")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	// Stop may have run while the permission dialog was open
	if p.state != StateRequestingPermission {
		p.mu.Unlock()
		cancel()
		p.logger.Info("start_superseded_by_stop")
		return nil
	}
	p.state = StateSampling
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	p.logger.Info("sampling_started")
	go p.run(runCtx, done)

	return nil
}

// Stop ends sampling, marks the user disconnected, clears the route
// log, and drops the local path buffer. Safe to call in any state.
func (p *Publisher) Stop(ctx context.Context) {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	p.state = StateStopped
	p.path = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	if err := p.store.SetConnected(ctx, false); err != nil {
		p.logger.Error("disconnect_failed", "error", err)
	}
	if err := p.store.ClearRoute(ctx); err != nil {
		p.logger.Error("route_clear_failed", "error", err)
	}

	p.logger.Info("sampling_stopped")
}

// run polls the position source until cancelled. A sample is emitted
// when the cadence elapses, or early when the device moved at least
// moveThreshold meters since the last emit.
func (p *Publisher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	var (
		last      Position
		lastEmit  time.Time
		havePrior bool
	)

	p.emit(ctx, &last, &lastEmit, &havePrior, true)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			force := time.Since(lastEmit) >= p.cadence
			p.emit(ctx, &last, &lastEmit, &havePrior, force)
		}
	}
}

// emit reads the current position and publishes it when forced or when
// movement since the last emitted sample exceeds the threshold.
func (p *Publisher) emit(ctx context.Context, last *Position, lastEmit *time.Time, havePrior *bool, force bool) {
	pos, err := p.source.Position(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("position_read_failed", "error", err)
		}
		return
	}

	if !force && *havePrior {
		if distanceMeters(last.Latitude, last.Longitude, pos.Latitude, pos.Longitude) < p.moveThreshold {
			return
		}
	} else if !force {
		return
	}

	if err := p.store.PublishPosition(ctx, pos.Latitude, pos.Longitude, time.Now().UTC()); err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("sample_publish_failed", "error", err)
		}
	}

	p.mu.Lock()
	if p.state == StateSampling {
		p.path = append(p.path, pos)
	}
	p.mu.Unlock()

	*last = pos
	*lastEmit = time.Now()
	*havePrior = true
}
