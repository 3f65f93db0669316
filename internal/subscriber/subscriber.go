package subscriber

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/locshare/locshare/internal/stream"
)

const iconResolveTimeout = 15 * time.Second

type userEntry struct {
	name      string
	latitude  float64
	longitude float64
	photoRef  string
}

// Subscriber merges presence and route snapshot messages into a render
// view. Presence snapshots replace the whole connected-user map; route
// snapshots replace only that user's path. The subscriber's own user is
// never part of the view.
type Subscriber struct {
	selfID   string
	resolver IconResolver
	logger   *slog.Logger

	mu    sync.Mutex
	users map[string]userEntry
	paths map[string][]Point
	icons map[string][]byte
	// tried marks photo refs whose resolution already ran; failures keep
	// the default icon and are not retried.
	tried map[string]bool

	wg sync.WaitGroup
}

// New creates a Subscriber for the given user.
// A nil resolver disables icon resolution.
func New(selfID string, resolver IconResolver, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		selfID:   selfID,
		resolver: resolver,
		logger:   logger.With("component", "subscriber"),
		users:    make(map[string]userEntry),
		paths:    make(map[string][]Point),
		icons:    make(map[string][]byte),
		tried:    make(map[string]bool),
	}
}

// Apply dispatches one snapshot message into the view.
func (s *Subscriber) Apply(msg stream.Message) {
	switch msg.Type {
	case stream.TypePresenceSnapshot:
		s.ApplyPresence(msg.Users)
	case stream.TypeRouteSnapshot:
		s.ApplyRoute(msg.UserID, msg.Points)
	default:
		s.logger.Warn("unknown_message_type", "type", msg.Type)
	}
}

// ApplyPresence replaces the entire connected-user map with the
// snapshot contents, excluding self. Icon state for users absent from
// the snapshot is dropped so a long-running subscriber stays bounded;
// a changed photo ref drops the old icon and resolves the new one.
func (s *Subscriber) ApplyPresence(entries []stream.PresenceEntry) {
	next := make(map[string]userEntry, len(entries))
	for _, e := range entries {
		if e.UserID == s.selfID {
			continue
		}
		next[e.UserID] = userEntry{
			name:      e.Name,
			latitude:  e.Latitude,
			longitude: e.Longitude,
			photoRef:  e.PhotoRef,
		}
	}

	s.mu.Lock()
	prev := s.users
	s.users = next

	for uid := range prev {
		if _, ok := next[uid]; !ok {
			delete(s.icons, uid)
		}
	}
	for uid, u := range next {
		if p, ok := prev[uid]; ok && p.photoRef != u.photoRef {
			delete(s.icons, uid)
		}
	}

	live := make(map[string]bool, len(next))
	for _, u := range next {
		if u.photoRef != "" {
			live[u.photoRef] = true
		}
	}
	for ref := range s.tried {
		if !live[ref] {
			delete(s.tried, ref)
		}
	}

	for uid, u := range next {
		if u.photoRef == "" || s.tried[u.photoRef] {
			continue
		}
		s.tried[u.photoRef] = true
		s.resolveIconAsync(uid, u.photoRef)
	}
	s.mu.Unlock()
}

// ApplyRoute replaces one user's path with the snapshot contents.
// The subscriber's own route is ignored.
func (s *Subscriber) ApplyRoute(userID string, points []stream.RouteEntry) {
	if userID == s.selfID {
		return
	}

	path := make([]Point, 0, len(points))
	for _, p := range points {
		path = append(path, Point{Latitude: p.Latitude, Longitude: p.Longitude})
	}

	s.mu.Lock()
	if len(path) == 0 {
		delete(s.paths, userID)
	} else {
		s.paths[userID] = path
	}
	s.mu.Unlock()
}

// View returns the current render view. Paths with fewer than two
// points are omitted; markers carry resolved icons when available.
func (s *Subscriber) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	markers := make([]Marker, 0, len(s.users))
	for uid, u := range s.users {
		markers = append(markers, Marker{
			UserID:    uid,
			Name:      u.name,
			Latitude:  u.latitude,
			Longitude: u.longitude,
			Icon:      s.icons[uid],
		})
	}

	paths := make(map[string][]Point, len(s.paths))
	for uid, path := range s.paths {
		if _, connected := s.users[uid]; !connected {
			continue
		}
		if len(path) < minRenderablePoints {
			continue
		}
		out := make([]Point, len(path))
		copy(out, path)
		paths[uid] = out
	}

	return View{Markers: markers, Paths: paths}
}

// Wait blocks until in-flight icon resolutions finish. For testing and
// shutdown.
func (s *Subscriber) Wait() {
	s.wg.Wait()
}

// resolveIconAsync fetches an icon in the background. Failure keeps the
// default icon; there is no retry. Caller holds s.mu.
func (s *Subscriber) resolveIconAsync(userID, photoRef string) {
	if s.resolver == nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), iconResolveTimeout)
		defer cancel()

		data, err := s.resolver.Resolve(ctx, photoRef)
		if err != nil {
			s.logger.Warn("icon_resolution_failed", "user_id", userID, "error", err)
			return
		}

		s.mu.Lock()
		// The user may have left or changed refs while the fetch ran
		if u, ok := s.users[userID]; ok && u.photoRef == photoRef {
			s.icons[userID] = data
		}
		s.mu.Unlock()
	}()
}
