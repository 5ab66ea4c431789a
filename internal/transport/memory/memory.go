// Package memory records outbound packets in memory. It backs the simulator's
// capture export and the seat behavior tests.
package memory

import (
	"sync"
	"time"

	"github.com/OCAP2/seatsync/pkg/core"
	"github.com/OCAP2/seatsync/pkg/protocol"
)

// Entry is one recorded packet.
type Entry struct {
	Seq      uint64
	Time     time.Time
	Observer core.EntityID
	Packet   protocol.Packet
}

// Recorder is a protocol.Sink that keeps every packet it is given.
type Recorder struct {
	mu      sync.RWMutex
	entries []Entry
	seq     uint64
	now     func() time.Time
}

func New() *Recorder {
	return &Recorder{now: time.Now}
}

// Send records p for observer.
func (r *Recorder) Send(observer core.EntityID, p protocol.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.entries = append(r.entries, Entry{
		Seq:      r.seq,
		Time:     r.now(),
		Observer: observer,
		Packet:   p,
	})
}

// All returns a copy of every recorded entry in send order.
func (r *Recorder) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// For returns the packets sent to observer, in order.
func (r *Recorder) For(observer core.EntityID) []protocol.Packet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []protocol.Packet
	for _, e := range r.entries {
		if e.Observer == observer {
			out = append(out, e.Packet)
		}
	}
	return out
}

// Types returns the packet types sent to observer, in order.
func (r *Recorder) Types(observer core.EntityID) []string {
	packets := r.For(observer)
	out := make([]string, len(packets))
	for i, p := range packets {
		out[i] = p.PacketType()
	}
	return out
}

// Count returns how many packets of type typ were sent to observer.
func (r *Recorder) Count(observer core.EntityID, typ string) int {
	n := 0
	for _, t := range r.Types(observer) {
		if t == typ {
			n++
		}
	}
	return n
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
