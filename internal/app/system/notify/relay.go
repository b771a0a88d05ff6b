// Package notify holds the in-process notification relay.
//
// A Relay keeps the most recent events in memory, newest first, and pushes
// each one to the realtime rooms of its recipients. Nothing is persisted
// and there is no acknowledgement or retry.
package notify

import (
	"sync"
	"time"

	"github.com/dalemusser/studentportal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/studentportal/internal/app/system/metrics"
	"github.com/dalemusser/studentportal/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxEvents is the default capacity of a relay.
const MaxEvents = 200

// EventNotification is the realtime event name used for relay events.
const EventNotification = "notification"

// Emitter delivers an event to a realtime room. *realtime.Hub implements it.
type Emitter interface {
	Emit(room, event string, payload any)
}

// UserRoom is the realtime room of a single account.
func UserRoom(userID string) string { return "user-" + userID }

// Relay is safe for concurrent use.
type Relay struct {
	mu       sync.RWMutex
	events   []models.Notification
	capacity int
	emitter  Emitter
	log      *zap.Logger
}

// NewRelay returns an empty relay. capacity <= 0 means MaxEvents.
func NewRelay(capacity int, logger *zap.Logger) *Relay {
	if capacity <= 0 {
		capacity = MaxEvents
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{capacity: capacity, log: logger}
}

// Attach sets the emitter used for realtime delivery.
func (r *Relay) Attach(e Emitter) {
	r.mu.Lock()
	r.emitter = e
	r.mu.Unlock()
}

// Publish records n and emits it to every recipient's room. The id and
// timestamp are assigned here; the stored copy is returned.
func (r *Relay) Publish(n models.Notification) models.Notification {
	n.ID = uuid.NewString()
	n.TS = time.Now().UTC()
	n.Title = htmlsanitize.Text(n.Title)
	n.Message = htmlsanitize.Text(n.Message)
	n.Recipients = append([]string(nil), n.Recipients...)

	r.mu.Lock()
	r.events = append([]models.Notification{n}, r.events...)
	if len(r.events) > r.capacity {
		r.events = r.events[:r.capacity]
	}
	emitter := r.emitter
	r.mu.Unlock()

	metrics.NotificationsPublished.WithLabelValues(n.Type).Inc()

	if emitter != nil {
		for _, id := range n.Recipients {
			emitter.Emit(UserRoom(id), EventNotification, n)
		}
	}
	r.log.Debug("notification published",
		zap.String("type", n.Type),
		zap.String("group_id", n.GroupID),
		zap.Int("recipients", len(n.Recipients)))
	return n
}

// List returns a copy of the stored events, newest first. A non-empty
// typ keeps only events of that type.
func (r *Relay) List(typ string) []models.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Notification, 0, len(r.events))
	for _, n := range r.events {
		if typ == "" || n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of stored events.
func (r *Relay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// Emit passes a non-notification event straight to the emitter, if any.
func (r *Relay) Emit(room, event string, payload any) {
	r.mu.RLock()
	emitter := r.emitter
	r.mu.RUnlock()
	if emitter != nil {
		emitter.Emit(room, event, payload)
	}
}
