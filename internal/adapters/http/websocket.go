package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/pulpuluck/internal/adapters/nats"
	"github.com/samirrijal/pulpuluck/internal/core/domain"
	"github.com/samirrijal/pulpuluck/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsMessage is a client command. An empty FountainID on unsubscribe clears
// every filter.
type wsMessage struct {
	Action     string `json:"action"` // "subscribe" | "unsubscribe"
	FountainID string `json:"fountainId"`
}

type wsReply struct {
	Status    string   `json:"status,omitempty"`
	Error     string   `json:"error,omitempty"`
	Fountains []string `json:"fountains,omitempty"`
}

// voteFilter decides which fountains a client hears about. No entries means all.
type voteFilter struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

func (f *voteFilter) allows(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.ids) == 0 {
		return true
	}
	_, ok := f.ids[id]
	return ok
}

func (f *voteFilter) add(id string) {
	f.mu.Lock()
	f.ids[id] = struct{}{}
	f.mu.Unlock()
}

func (f *voteFilter) remove(id string) {
	f.mu.Lock()
	if id == "" {
		f.ids = map[string]struct{}{}
	} else {
		delete(f.ids, id)
	}
	f.mu.Unlock()
}

func (f *voteFilter) list() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.ids))
	for id := range f.ids {
		out = append(out, id)
	}
	return out
}

// WebSocketHandler returns a handler relaying vote events from NATS. Each
// client holds one subscription on the feedback subjects and narrows it with
// {"action":"subscribe","fountainId":"..."}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if nc == nil {
			_ = c.WriteJSON(wsReply{Error: "live updates unavailable"})
			return
		}

		remote := c.RemoteAddr().String()
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		slog.Info("ws client connected", "remote", remote)

		var writeMu sync.Mutex
		write := func(msgType int, data []byte) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			return c.WriteMessage(msgType, data)
		}
		reply := func(r wsReply) {
			data, _ := json.Marshal(r)
			_ = write(websocket.TextMessage, data)
		}

		filter := &voteFilter{ids: map[string]struct{}{}}
		sub, err := nc.Subscribe(natsadapter.FeedbackSubjects, func(msg *nats.Msg) {
			var ev domain.VoteEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return
			}
			if filter.allows(ev.FountainID) {
				_ = write(websocket.TextMessage, msg.Data)
			}
		})
		if err != nil {
			slog.Error("ws subscribe failed", "remote", remote, "error", err)
			reply(wsReply{Error: "live updates unavailable"})
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if write(websocket.PingMessage, nil) != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				reply(wsReply{Error: "invalid JSON"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if m.FountainID == "" {
					reply(wsReply{Error: "fountainId is required"})
					continue
				}
				filter.add(m.FountainID)
				reply(wsReply{Status: "subscribed", Fountains: filter.list()})
			case "unsubscribe":
				filter.remove(m.FountainID)
				reply(wsReply{Status: "unsubscribed", Fountains: filter.list()})
			default:
				reply(wsReply{Error: "unknown action: " + m.Action})
			}
		}

		slog.Info("ws client disconnected", "remote", remote)
	}
}
