package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
// durable names the JetStream consumer so restarts resume where they left off;
// an empty durable creates an ephemeral consumer that only sees new votes.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeVotes delivers every vote event to handler. Handler errors nak the
// message for redelivery, up to three attempts.
func (s *Subscriber) SubscribeVotes(ctx context.Context, handler func(ctx context.Context, ev *domain.VoteEvent) error) error {
	opts := []nats.SubOpt{nats.ManualAck(), nats.MaxDeliver(3)}
	if s.durable != "" {
		opts = append(opts, nats.Durable(s.durable))
	} else {
		opts = append(opts, nats.DeliverNew())
	}

	sub, err := s.js.Subscribe(FeedbackSubjects, func(msg *nats.Msg) {
		var ev domain.VoteEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			// Poison message; redelivery will not fix it.
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &ev); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, opts...)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
