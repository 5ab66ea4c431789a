// Package websocket streams seat packets to a relay server over a single
// websocket connection.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
)

const (
	// TypeHello opens a session on the relay and is acknowledged.
	TypeHello = "hello"
	// TypeAck is the relay's acknowledgement frame.
	TypeAck = "ack"
)

// Ack acknowledges a frame of type For.
type Ack struct {
	Type string `json:"type"`
	For  string `json:"for"`
}

// Hello identifies the session to the relay.
type Hello struct {
	Type    string `json:"type"`
	Session string `json:"session"`
}

// Config holds the relay connection settings.
type Config struct {
	URL       string
	Secret    string
	Session   string
	QueueSize int
}

// Relay is a protocol.Sink that forwards every packet as a JSON envelope.
type Relay struct {
	conn    *connection
	cfg     Config
	dropped atomic.Uint64
	logger  *slog.Logger
}

// New creates an unconnected relay sink.
func New(cfg Config, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Relay{
		conn:   newConnection(cfg.QueueSize, logger),
		cfg:    cfg,
		logger: logger,
	}
	r.conn.dropped = func() { r.dropped.Add(1) }
	return r
}

// Init dials the relay and waits for the hello to be acknowledged.
func (r *Relay) Init() error {
	if err := r.conn.dial(r.cfg.URL, r.cfg.Secret); err != nil {
		return err
	}

	hello, err := json.Marshal(Hello{Type: TypeHello, Session: r.cfg.Session})
	if err != nil {
		return fmt.Errorf("marshal hello: %w", err)
	}
	r.conn.mu.Lock()
	r.conn.hello = hello
	r.conn.mu.Unlock()

	return r.conn.sendAndWait(hello, TypeHello, ackTimeout)
}

// Send encodes p and queues it. Encoding failures are logged and dropped.
func (r *Relay) Send(observer core.EntityID, p protocol.Packet) {
	data, err := protocol.Encode(observer, p)
	if err != nil {
		r.logger.Error("Failed to encode packet", "type", p.PacketType(), "error", err)
		return
	}
	r.conn.send(data)
}

// Dropped returns the number of frames discarded because the queue was full.
func (r *Relay) Dropped() uint64 {
	return r.dropped.Load()
}

// Close waits up to timeout for queued frames to drain, then closes the
// connection.
func (r *Relay) Close(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for len(r.conn.sendCh) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	return r.conn.close()
}
