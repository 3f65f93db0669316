package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakePerms struct {
	granted bool
	err     error
}

func (f *fakePerms) RequestLocationPermission(ctx context.Context) (bool, error) {
	return f.granted, f.err
}

type fakeSource struct {
	mu  sync.Mutex
	pos Position
	err error
}

func (f *fakeSource) set(pos Position) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pos = pos
}

func (f *fakeSource) Position(ctx context.Context) (Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos, f.err
}

type fakeStore struct {
	mu         sync.Mutex
	samples    []Position
	connected  []bool
	clears     int
	publishErr error
}

func (f *fakeStore) PublishPosition(ctx context.Context, lat, lon float64, recordedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.samples = append(f.samples, Position{Latitude: lat, Longitude: lon})
	return nil
}

func (f *fakeStore) SetConnected(ctx context.Context, connected bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, connected)
	return nil
}

func (f *fakeStore) ClearRoute(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeStore) sampleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.samples)
}

func newTestPublisher(perms *fakePerms, source *fakeSource, store *fakeStore) *Publisher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := New(perms, source, store, logger)
	p.SetCadence(30 * time.Millisecond)
	p.SetPollInterval(5 * time.Millisecond)
	return p
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestPublisher_PermissionDenied(t *testing.T) {
	store := &fakeStore{}
	p := newTestPublisher(&fakePerms{granted: false}, &fakeSource{}, store)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if got := p.State(); got != StateIdle {
		t.Errorf("expected StateIdle after denial, got %v", got)
	}

	time.Sleep(50 * time.Millisecond)
	if n := store.sampleCount(); n != 0 {
		t.Errorf("expected no samples after denial, got %d", n)
	}
}

func TestPublisher_PermissionError(t *testing.T) {
	permErr := errors.New("platform unavailable")
	p := newTestPublisher(&fakePerms{err: permErr}, &fakeSource{}, &fakeStore{})

	if err := p.Start(context.Background()); !errors.Is(err, permErr) {
		t.Fatalf("expected permission error, got %v", err)
	}

	if got := p.State(); got != StateIdle {
		t.Errorf("expected StateIdle after error, got %v", got)
	}
}

func TestPublisher_SamplesAtCadence(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{pos: Position{Latitude: 10.0, Longitude: 20.0}}
	p := newTestPublisher(&fakePerms{granted: true}, source, store)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer p.Stop(context.Background())

	if got := p.State(); got != StateSampling {
		t.Fatalf("expected StateSampling, got %v", got)
	}

	waitFor(t, time.Second, func() bool { return store.sampleCount() >= 3 })

	store.mu.Lock()
	first := store.samples[0]
	store.mu.Unlock()
	if first.Latitude != 10.0 || first.Longitude != 20.0 {
		t.Errorf("unexpected first sample: %+v", first)
	}

	if got := len(p.Path()); got < 3 {
		t.Errorf("expected local path to track samples, got %d points", got)
	}
}

func TestPublisher_MovementTriggersEarlySample(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{pos: Position{Latitude: 10.0, Longitude: 20.0}}
	p := newTestPublisher(&fakePerms{granted: true}, source, store)
	p.SetCadence(time.Hour)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer p.Stop(context.Background())

	waitFor(t, time.Second, func() bool { return store.sampleCount() == 1 })

	// A ~0.001 degree latitude shift is roughly 111 meters, well past
	// the 1 meter threshold.
	source.set(Position{Latitude: 10.001, Longitude: 20.0})

	waitFor(t, time.Second, func() bool { return store.sampleCount() >= 2 })
}

func TestPublisher_StationaryDoesNotEmitEarly(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{pos: Position{Latitude: 10.0, Longitude: 20.0}}
	p := newTestPublisher(&fakePerms{granted: true}, source, store)
	p.SetCadence(time.Hour)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer p.Stop(context.Background())

	waitFor(t, time.Second, func() bool { return store.sampleCount() == 1 })

	time.Sleep(50 * time.Millisecond)
	if n := store.sampleCount(); n != 1 {
		t.Errorf("expected exactly 1 sample while stationary, got %d", n)
	}
}

func TestPublisher_StopDisconnectsAndClears(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{pos: Position{Latitude: 10.0, Longitude: 20.0}}
	p := newTestPublisher(&fakePerms{granted: true}, source, store)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	waitFor(t, time.Second, func() bool { return store.sampleCount() >= 1 })

	p.Stop(context.Background())

	if got := p.State(); got != StateStopped {
		t.Errorf("expected StateStopped, got %v", got)
	}

	if got := len(p.Path()); got != 0 {
		t.Errorf("expected empty local path after stop, got %d points", got)
	}

	store.mu.Lock()
	connected := append([]bool(nil), store.connected...)
	clears := store.clears
	store.mu.Unlock()

	if len(connected) != 1 || connected[0] != false {
		t.Errorf("expected one SetConnected(false), got %v", connected)
	}
	if clears != 1 {
		t.Errorf("expected one route clear, got %d", clears)
	}
}

func TestPublisher_RestartAfterStop(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{pos: Position{Latitude: 1.0, Longitude: 2.0}}
	p := newTestPublisher(&fakePerms{granted: true}, source, store)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}
	p.Stop(context.Background())

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("restart returned error: %v", err)
	}
	defer p.Stop(context.Background())

	if got := p.State(); got != StateSampling {
		t.Errorf("expected StateSampling after restart, got %v", got)
	}
}

func TestPublisher_StartWhileRunning(t *testing.T) {
	store := &fakeStore{}
	p := newTestPublisher(&fakePerms{granted: true}, &fakeSource{}, store)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer p.Stop(context.Background())

	if err := p.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

type blockingPerms struct {
	requested chan struct{}
	release   chan bool
}

func (b *blockingPerms) RequestLocationPermission(ctx context.Context) (bool, error) {
	close(b.requested)
	return <-b.release, nil
}

func TestPublisher_StopDuringPermissionRequest(t *testing.T) {
	store := &fakeStore{}
	source := &fakeSource{pos: Position{Latitude: 1.0, Longitude: 2.0}}
	perms := &blockingPerms{requested: make(chan struct{}), release: make(chan bool)}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := New(perms, source, store, logger)
	p.SetCadence(30 * time.Millisecond)
	p.SetPollInterval(5 * time.Millisecond)

	startDone := make(chan error, 1)
	go func() {
		startDone <- p.Start(context.Background())
	}()

	// Stop lands while Start is blocked in the permission dialog;
	// the late grant must not resurrect sampling.
	<-perms.requested
	p.Stop(context.Background())
	perms.release <- true

	if err := <-startDone; err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if got := p.State(); got != StateStopped {
		t.Errorf("expected StateStopped to stand, got %v", got)
	}

	time.Sleep(50 * time.Millisecond)
	if n := store.sampleCount(); n != 0 {
		t.Errorf("expected no samples after superseded start, got %d", n)
	}
}

func TestPublisher_PublishFailureIsSwallowed(t *testing.T) {
	store := &fakeStore{publishErr: errors.New("backend unreachable")}
	source := &fakeSource{pos: Position{Latitude: 1.0, Longitude: 2.0}}
	p := newTestPublisher(&fakePerms{granted: true}, source, store)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer p.Stop(context.Background())

	time.Sleep(100 * time.Millisecond)
	if got := p.State(); got != StateSampling {
		t.Errorf("expected StateSampling despite publish failures, got %v", got)
	}
}

func TestDistanceMeters(t *testing.T) {
	// One degree of latitude is about 111 km.
	d := distanceMeters(0, 0, 1, 0)
	if d < 110000 || d > 112000 {
		t.Errorf("unexpected distance for 1 degree latitude: %f", d)
	}

	if d := distanceMeters(10, 20, 10, 20); d != 0 {
		t.Errorf("expected zero distance for identical points, got %f", d)
	}
}
