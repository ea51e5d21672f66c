package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
)

const (
	// FeedbackStream holds vote events for replay by late subscribers.
	FeedbackStream = "FOUNTAIN_FEEDBACK"
	// FeedbackSubjects matches every vote event subject.
	FeedbackSubjects = "fountains.feedback.>"

	feedbackSubjectPrefix = "fountains.feedback."
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      FeedbackStream,
		Subjects:  []string{FeedbackSubjects},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishVote publishes a recorded vote on fountains.feedback.<id>.
func (p *Publisher) PublishVote(ctx context.Context, ev *domain.VoteEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(FeedbackSubject(ev.FountainID), data, nats.Context(ctx))
	return err
}

// FeedbackSubject returns the subject for a fountain id. OSM ids such as
// "node/123" contain characters that are not valid in subject tokens.
func FeedbackSubject(fountainID string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r', '/':
			return '_'
		}
		return r
	}, fountainID)
	if token == "" {
		token = "_"
	}
	return feedbackSubjectPrefix + token
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
