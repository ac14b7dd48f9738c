// Package eventsink provides concrete event.EventHandler sinks: a
// gorilla/websocket-backed UI streaming handler (spec §6, domain stack
// §11.10) and a Prometheus-backed instrumentation handler (domain stack
// §11.11), plus a gopsutil-backed process resource gauge (§11.12).
package eventsink

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/r3e-network/oxy-engine/internal/engine/enginerr"
	"github.com/r3e-network/oxy-engine/internal/engine/event"
)

// wireEvent is the JSON shape a WebsocketSink writes per event — the
// event's source scope plus its kind's discriminant name and fields,
// mirroring output.Kind's discriminated-union JSON rendering.
type wireEvent struct {
	Source struct {
		ID       string  `json:"id"`
		Kind     string  `json:"kind"`
		ParentID *string `json:"parent_id,omitempty"`
	} `json:"source"`
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// WebsocketSink marshals each Event to JSON and writes it to a connected
// UI client over a gorilla/websocket connection — the "UI streaming"
// handler spec §6 names but leaves unimplemented. Safe for concurrent
// HandleEvent calls; gorilla/websocket requires a single writer goroutine
// per connection, so writes are serialized behind a mutex.
type WebsocketSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebsocketSink wraps an already-upgraded *websocket.Conn.
func NewWebsocketSink(conn *websocket.Conn) *WebsocketSink {
	return &WebsocketSink{conn: conn}
}

func (w *WebsocketSink) HandleEvent(e event.Event) error {
	wire := wireEvent{Kind: e.Kind.Name(), Data: e.Kind}
	wire.Source.ID = e.Source.ID
	wire.Source.Kind = e.Source.Kind
	wire.Source.ParentID = e.Source.ParentID

	payload, err := json.Marshal(wire)
	if err != nil {
		return enginerr.Wrap(enginerr.SerializerError, "encoding event for websocket sink", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return enginerr.Wrap(enginerr.IOError, "writing event to websocket client", err)
	}
	return nil
}

// Close closes the underlying connection.
func (w *WebsocketSink) Close() error {
	return w.conn.Close()
}

var _ event.EventHandler = (*WebsocketSink)(nil)
