// Package realtime is the websocket room channel used to push notifications
// to signed-in users.
//
// Clients send {"event":"join-room"|"leave-room"|"keepalive","room":...}
// frames; the server pushes {"event":...,"room":...,"data":...} frames to
// every client in a room. Delivery is best effort: a client whose send
// queue is full misses the frame, and nothing is replayed on reconnect.
//
// Without a Broker every process has its own room registry, so an event
// emitted on one instance never reaches clients connected to another.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/metrics"
	"github.com/dalemusser/studentportal/internal/app/system/timeouts"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client -> server events.
const (
	EventJoinRoom  = "join-room"
	EventLeaveRoom = "leave-room"
	EventKeepalive = "keepalive"
)

// Server -> client events.
const (
	EventNotification = "notification"
	EventProjectNew   = "project:new"
	EventProjectAdded = "project:added"
	EventJoined       = "room:joined"
	EventLeft         = "room:left"
	EventError        = "error"
)

const (
	sendBufferSize = 32
	maxFrameBytes  = 4096
	writeWait      = 10 * time.Second
	pingEvery      = 30 * time.Second
)

// ErrRoomForbidden is returned when a client asks for another user's room.
var ErrRoomForbidden = errors.New("room is not joinable by this user")

// UserRoom is the per-user room name.
func UserRoom(userID string) string { return "user-" + userID }

// Frame is the JSON shape of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks connected clients and their rooms.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}

	broker   Broker
	nodeID   string
	upgrader websocket.Upgrader
	log      *zap.Logger

	cancel context.CancelFunc
}

// NewHub returns a hub. broker may be nil for single-instance operation.
func NewHub(logger *zap.Logger, broker Broker) *Hub {
	return &Hub{
		rooms:    make(map[string]map[*Client]struct{}),
		clients:  make(map[*Client]struct{}),
		broker:   broker,
		nodeID:   uuid.NewString(),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		log:      logger.With(zap.String("component", "realtime_hub")),
	}
}

// NodeID identifies this hub on the broker.
func (h *Hub) NodeID() string { return h.nodeID }

// Start subscribes to the broker, if any. Events published by this node are ignored.
func (h *Hub) Start() error {
	if h.broker == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := h.broker.Subscribe(ctx, h.handleEnvelope); err != nil {
		cancel()
		return err
	}
	h.cancel = cancel
	h.log.Info("realtime broker subscribed", zap.String("node_id", h.nodeID))
	return nil
}

// Close disconnects every client and releases the broker.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.close()
	}
	if h.broker != nil {
		if err := h.broker.Close(); err != nil {
			h.log.Warn("realtime broker close failed", zap.Error(err))
		}
	}
}

// Emit sends event to every client in room, here and, through the broker,
// on other instances.
func (h *Hub) Emit(room, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Warn("realtime payload marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	h.deliver(room, Frame{Event: event, Room: room, Data: data})

	if h.broker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()
	env := Envelope{Source: h.nodeID, Room: room, Event: event, Data: data, SentAt: time.Now().UTC()}
	if err := h.broker.Publish(ctx, env); err != nil {
		h.log.Warn("realtime broker publish failed", zap.String("room", room), zap.Error(err))
	}
}

func (h *Hub) handleEnvelope(env Envelope) {
	if env.Source == h.nodeID {
		return
	}
	h.deliver(env.Room, Frame{Event: env.Event, Room: env.Room, Data: env.Data})
}

func (h *Hub) deliver(room string, f Frame) {
	msg, err := json.Marshal(f)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if !c.enqueue(msg) {
			metrics.RealtimeDropped.Inc()
			h.log.Warn("dropping realtime frame for slow client",
				zap.String("room", room), zap.String("user_id", c.userID))
		}
	}
}

// ServeWS upgrades the request and serves the connection until it closes.
// userID is the authenticated caller.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, userID)
	h.register(c)
	go c.writePump()
	c.readPump()
	return nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.RealtimeClients.Set(float64(n))
	h.log.Debug("realtime client connected", zap.String("user_id", c.userID))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	for room := range c.rooms {
		h.removeFromRoom(c, room)
	}
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	metrics.RealtimeClients.Set(float64(n))
	h.log.Debug("realtime client disconnected", zap.String("user_id", c.userID))
}

// join adds c to room. Per-user rooms are only joinable by their owner.
func (h *Hub) join(c *Client, room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return errors.New("room is required")
	}
	if strings.HasPrefix(room, "user-") && room != UserRoom(c.userID) {
		return ErrRoomForbidden
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return errors.New("client is closed")
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
	return nil
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, room)
}

// removeFromRoom requires h.mu held for writing.
func (h *Hub) removeFromRoom(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// SweepIdle closes clients that have not been heard from within idle and
// returns how many were closed.
func (h *Hub) SweepIdle(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	h.mu.RLock()
	var stale []*Client
	for c := range h.clients {
		if c.lastSeenAt().Before(cutoff) {
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range stale {
		c.close()
	}
	return len(stale)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
