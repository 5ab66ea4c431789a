// Package transport assembles the packet sinks selected in configuration
// into a single protocol.Sink.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OCAP2/seatsync/internal/config"
	"github.com/OCAP2/seatsync/internal/transport/journal"
	"github.com/OCAP2/seatsync/internal/transport/memory"
	"github.com/OCAP2/seatsync/internal/transport/websocket"
	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/seatsync/internal/transport"

// Sink type names accepted in transport.sinks.
const (
	SinkMemory    = "memory"
	SinkWebsocket = "websocket"
	SinkJournal   = "journal"
)

// ErrUnknownSinkType is returned by New for an unrecognised sink name.
var ErrUnknownSinkType = errors.New("unknown sink type")

// relayDrainTimeout bounds how long Close waits for the relay queue.
const relayDrainTimeout = 2 * time.Second

// Multi fans every packet out to each sink in order.
type Multi []protocol.Sink

// Send forwards to every sink.
func (m Multi) Send(observer core.EntityID, p protocol.Packet) {
	for _, s := range m {
		s.Send(observer, p)
	}
}

// Instrumented counts packets by type before forwarding them.
type Instrumented struct {
	next protocol.Sink
	sent metric.Int64Counter
}

// NewInstrumented wraps next with a seat.packets.sent counter.
func NewInstrumented(next protocol.Sink) *Instrumented {
	i := &Instrumented{next: next}
	sent, err := otel.Meter(instrumentationName).Int64Counter("seat.packets.sent",
		metric.WithDescription("Packets sent to observers"),
		metric.WithUnit("{packet}"),
	)
	if err == nil {
		i.sent = sent
	}
	return i
}

// Send records and forwards p.
func (i *Instrumented) Send(observer core.EntityID, p protocol.Packet) {
	if i.sent != nil {
		i.sent.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", p.PacketType())))
	}
	i.next.Send(observer, p)
}

// Deps are the collaborators sinks are built with.
type Deps struct {
	Logger   *slog.Logger
	DBLogger zerolog.Logger
	DB       config.DBConfig
	Session  string
}

// Set is the assembled sink along with the concrete sinks it owns.
type Set struct {
	Sink     protocol.Sink
	Recorder *memory.Recorder
	Relay    *websocket.Relay
	Journal  *journal.Journal
}

// New builds every sink named in cfg.Sinks, in order. Sinks built before a
// failure are closed again.
func New(cfg config.TransportConfig, deps Deps) (*Set, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	set := &Set{}
	var sinks Multi
	for _, name := range cfg.Sinks {
		switch name {
		case SinkMemory:
			if set.Recorder != nil {
				continue
			}
			set.Recorder = memory.New()
			sinks = append(sinks, set.Recorder)

		case SinkWebsocket:
			if set.Relay != nil {
				continue
			}
			relay := websocket.New(websocket.Config{
				URL:       cfg.Websocket.URL,
				Secret:    cfg.Websocket.Secret,
				Session:   deps.Session,
				QueueSize: cfg.Websocket.QueueSize,
			}, deps.Logger)
			if err := relay.Init(); err != nil {
				_ = relay.Close(0)
				_ = set.Close()
				return nil, fmt.Errorf("websocket sink: %w", err)
			}
			set.Relay = relay
			sinks = append(sinks, relay)

		case SinkJournal:
			if set.Journal != nil {
				continue
			}
			db, err := journal.Open(cfg.Journal, deps.DB, deps.DBLogger)
			if err != nil {
				_ = set.Close()
				return nil, fmt.Errorf("journal sink: %w", err)
			}
			j, err := journal.New(db, journal.Options{
				BatchSize:     cfg.Journal.BatchSize,
				FlushInterval: cfg.Journal.FlushInterval,
			}, deps.DBLogger)
			if err != nil {
				_ = set.Close()
				return nil, fmt.Errorf("journal sink: %w", err)
			}
			set.Journal = j
			sinks = append(sinks, j)

		default:
			_ = set.Close()
			return nil, fmt.Errorf("%w: %q", ErrUnknownSinkType, name)
		}
	}

	set.Sink = NewInstrumented(sinks)
	return set, nil
}

// Close shuts down the I/O sinks, draining what they have queued.
func (s *Set) Close() error {
	var errs []error
	if s.Relay != nil {
		errs = append(errs, s.Relay.Close(relayDrainTimeout))
	}
	if s.Journal != nil {
		errs = append(errs, s.Journal.Close())
	}
	return errors.Join(errs...)
}
