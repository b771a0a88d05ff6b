package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the redis channel / NATS subject events travel on.
const DefaultChannel = "portal.realtime"

// Envelope is an emitted event as it travels between instances.
type Envelope struct {
	Source string          `json:"source"`
	Room   string          `json:"room"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	SentAt time.Time       `json:"sentAt"`
}

// Broker fans events out to every instance. Subscribe returns once the
// subscription is live and delivers until ctx is cancelled.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, handle func(Envelope)) error
	Close() error
}

// RedisBroker uses redis PUBLISH/SUBSCRIBE.
type RedisBroker struct {
	client  *redis.Client
	channel string
}

// NewRedisBroker takes ownership of client.
func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBroker{client: client, channel: channel}
}

func (b *RedisBroker) Publish(ctx context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, handle func(Envelope)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					continue
				}
				handle(env)
			}
		}
	}()
	return nil
}

func (b *RedisBroker) Close() error { return b.client.Close() }

// NATSBroker uses a plain NATS subscription so every instance sees every event.
type NATSBroker struct {
	conn    *nats.Conn
	subject string
}

// NewNATSBroker takes ownership of conn.
func NewNATSBroker(conn *nats.Conn, subject string) *NATSBroker {
	if subject == "" {
		subject = DefaultChannel
	}
	return &NATSBroker{conn: conn, subject: subject}
}

func (b *NATSBroker) Publish(_ context.Context, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.conn.Publish(b.subject, payload)
}

func (b *NATSBroker) Subscribe(ctx context.Context, handle func(Envelope)) error {
	sub, err := b.conn.Subscribe(b.subject, func(m *nats.Msg) {
		var env Envelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			return
		}
		handle(env)
	})
	if err != nil {
		return err
	}
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return err
	}
	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

func (b *NATSBroker) Close() error {
	b.conn.Close()
	return nil
}
