// Package journal persists every outbound packet to a SQL database through
// gorm. Packets are queued and written in batches off the tick.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultBatchSize     = 256
	defaultFlushInterval = time.Second
)

// PacketRecord is one journaled packet.
type PacketRecord struct {
	ID       uint           `gorm:"primarykey" json:"id"`
	Time     time.Time      `gorm:"index" json:"time"`
	Seq      uint64         `gorm:"index" json:"seq"`
	Observer core.EntityID  `gorm:"index" json:"observer"`
	Type     string         `gorm:"size:32;index" json:"type"`
	Payload  datatypes.JSON `json:"payload"`
}

// TableName pins the table name.
func (PacketRecord) TableName() string {
	return "seat_packets"
}

// Options tune batching.
type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	// QueueSize bounds the pending queue; Send drops beyond it.
	QueueSize int
}

// Journal is a protocol.Sink writing packets to db.
type Journal struct {
	db   *gorm.DB
	log  zerolog.Logger
	opts Options
	now  func() time.Time

	seq     atomic.Uint64
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
	queue  chan PacketRecord
	done   chan struct{}
}

// New migrates the schema and starts the writer.
func New(db *gorm.DB, opts Options, log zerolog.Logger) (*Journal, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.BatchSize * 16
	}

	if err := db.AutoMigrate(&PacketRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate packet journal: %w", err)
	}

	j := &Journal{
		db:    db,
		log:   log,
		opts:  opts,
		now:   time.Now,
		queue: make(chan PacketRecord, opts.QueueSize),
		done:  make(chan struct{}),
	}
	go j.writeLoop()
	return j, nil
}

// Send encodes p and queues it. It never blocks: a full queue or a closed
// journal drops the packet.
func (j *Journal) Send(observer core.EntityID, p protocol.Packet) {
	env, err := protocol.NewEnvelope(observer, p)
	if err != nil {
		j.log.Error().Err(err).Str("type", p.PacketType()).Msg("Failed to encode packet")
		return
	}

	rec := PacketRecord{
		Time:     j.now(),
		Seq:      j.seq.Add(1),
		Observer: observer,
		Type:     env.Type,
		Payload:  datatypes.JSON(env.Payload),
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		j.dropped.Add(1)
		return
	}
	select {
	case j.queue <- rec:
	default:
		j.dropped.Add(1)
		j.log.Warn().Uint64("seq", rec.Seq).Msg("Packet journal queue full, dropping")
	}
}

// Dropped returns how many packets were discarded.
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

func (j *Journal) writeLoop() {
	defer close(j.done)

	ticker := time.NewTicker(j.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]PacketRecord, 0, j.opts.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := j.db.CreateInBatches(batch, j.opts.BatchSize).Error; err != nil {
			j.log.Error().Err(err).Int("count", len(batch)).Msg("Failed to write packet batch")
		} else {
			j.log.Trace().Int("count", len(batch)).Msg("Packet batch written")
		}
		batch = make([]PacketRecord, 0, j.opts.BatchSize)
	}

	for {
		select {
		case rec, ok := <-j.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= j.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close stops accepting packets, writes everything queued and waits for the
// writer to finish.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	<-j.done
	return nil
}

// Records returns journaled packets in sequence order, optionally filtered
// to one observer. core.NoEntity selects every observer.
func (j *Journal) Records(ctx context.Context, observer core.EntityID) ([]PacketRecord, error) {
	q := j.db.WithContext(ctx).Order("seq")
	if observer != core.NoEntity {
		q = q.Where("observer = ?", observer)
	}
	var out []PacketRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query packet journal: %w", err)
	}
	return out, nil
}

// Decode parses a record back into its packet.
func (r PacketRecord) Decode() (protocol.Packet, error) {
	return protocol.Envelope{
		Type:     r.Type,
		Observer: r.Observer,
		Payload:  json.RawMessage(r.Payload),
	}.Packet()
}
