package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/locshare/locshare/internal/cache"
	"github.com/locshare/locshare/internal/metrics"
	"github.com/locshare/locshare/internal/model"
)

// SnapshotSource provides the full state the hub pushes to subscribers.
type SnapshotSource interface {
	ListConnectedPresence(ctx context.Context) ([]*model.PresenceRecord, error)
	ListRoute(ctx context.Context, userID string) (*model.Route, error)
}

// Hub maintains WebSocket subscribers and fans out snapshots when
// Redis change notifications arrive.
type Hub struct {
	redis   *redis.Client
	source  SnapshotSource
	logger  *slog.Logger
	metrics metrics.Recorder

	upgrader websocket.Upgrader

	clients map[*Client]struct{}
	mu      sync.Mutex

	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewHub creates a subscription hub.
// checkOrigin decides whether a WebSocket upgrade is allowed; nil
// permits all origins (development only).
func NewHub(client *redis.Client, source SnapshotSource, logger *slog.Logger, recorder metrics.Recorder, checkOrigin func(*http.Request) bool) *Hub {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		redis:   client,
		source:  source,
		logger:  logger.With("component", "stream.hub"),
		metrics: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*Client]struct{}),
	}
}

// Run subscribes to change channels and dispatches snapshots until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return errors.New("hub already started")
	}
	h.started = true
	h.done = make(chan struct{})
	ctx, h.cancel = context.WithCancel(ctx)
	h.mu.Unlock()

	defer close(h.done)

	sub := h.redis.Subscribe(ctx, cache.ChannelPresenceChanged, cache.ChannelRouteChanged)
	defer sub.Close()

	h.logger.Info("subscription hub started")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("subscription hub stopping")
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.handleNotification(ctx, msg.Channel, msg.Payload)
		}
	}
}

// Shutdown stops the hub and closes all subscriber connections.
// It implements server.ShutdownFunc.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return nil
	}
	cancel := h.cancel
	done := h.done
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.logger.Info("subscription hub shutdown complete")
	return nil
}

// handleNotification reassembles and broadcasts full state for a change.
func (h *Hub) handleNotification(ctx context.Context, channel, userID string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch channel {
	case cache.ChannelPresenceChanged:
		h.broadcastPresence(ctx)
	case cache.ChannelRouteChanged:
		h.broadcastRoute(ctx, userID)
	default:
		h.logger.Warn("notification on unknown channel", "channel", channel)
	}
}

// broadcastPresence pushes the full connected set to every subscriber.
func (h *Hub) broadcastPresence(ctx context.Context) {
	records, err := h.source.ListConnectedPresence(ctx)
	if err != nil {
		h.logger.Error("failed to assemble presence snapshot", "error", err)
		return
	}

	h.broadcast(NewPresenceSnapshot(records))
	h.metrics.IncSnapshotSent("presence")
}

// broadcastRoute pushes one user's full route to every subscriber.
func (h *Hub) broadcastRoute(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	route, err := h.source.ListRoute(ctx, userID)
	if err != nil {
		h.logger.Error("failed to assemble route snapshot", "user_id", userID, "error", err)
		return
	}

	h.broadcast(NewRouteSnapshot(route))
	h.metrics.IncSnapshotSent("route")
}

// broadcast enqueues a message to every connected client.
// Slow clients are disconnected instead of buffered indefinitely.
func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	var stalled []*Client
	for c := range h.clients {
		if !c.enqueue(msg) {
			stalled = append(stalled, c)
		}
	}
	for _, c := range stalled {
		h.logger.Warn("dropping slow subscriber", "user_id", c.userID)
		close(c.send)
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range stalled {
		c.conn.Close()
		h.metrics.IncSubscriberDisconnected()
	}
}

// ServeWS upgrades an HTTP request to a WebSocket subscription and
// sends the initial full-state snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	client := &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan Message, sendBufferSize),
		hub:    h,
		logger: h.logger,
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.metrics.IncSubscriberConnected()

	go client.writePump()
	go client.readPump()

	h.sendInitialState(r.Context(), client)

	h.logger.Info("subscriber connected", "user_id", userID)
}

// sendInitialState queues the current presence snapshot plus a route
// snapshot per connected user so a new subscriber starts complete.
func (h *Hub) sendInitialState(ctx context.Context, client *Client) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	records, err := h.source.ListConnectedPresence(ctx)
	if err != nil {
		h.logger.Error("failed to load initial presence", "error", err)
		return
	}
	client.enqueue(NewPresenceSnapshot(records))

	for _, rec := range records {
		route, err := h.source.ListRoute(ctx, rec.UserID)
		if err != nil {
			h.logger.Warn("failed to load initial route", "user_id", rec.UserID, "error", err)
			continue
		}
		if len(route.Points) > 0 {
			client.enqueue(NewRouteSnapshot(route))
		}
	}
}

// unregister removes a client after its read loop ends.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
		h.mu.Unlock()
		h.metrics.IncSubscriberDisconnected()
		h.logger.Info("subscriber disconnected", "user_id", c.userID)
		return
	}
	h.mu.Unlock()
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
