package seat

import (
	"sync"

	"github.com/OCAP2/seatsync/pkg/core"
)

// Registry maps passengers to the seat they occupy. A passenger sits in at
// most one seat at a time.
type Registry struct {
	m     sync.Mutex
	seats map[core.EntityID]*Seat
}

func NewRegistry() *Registry {
	return &Registry{seats: make(map[core.EntityID]*Seat)}
}

// Get returns the seat the passenger occupies.
func (r *Registry) Get(id core.EntityID) (*Seat, bool) {
	r.m.Lock()
	defer r.m.Unlock()
	s, ok := r.seats[id]
	return s, ok
}

func (r *Registry) Set(id core.EntityID, s *Seat) {
	r.m.Lock()
	defer r.m.Unlock()
	r.seats[id] = s
}

// Remove drops the passenger only if it is still registered to s.
func (r *Registry) Remove(id core.EntityID, s *Seat) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.seats[id] == s {
		delete(r.seats, id)
	}
}

func (r *Registry) Len() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.seats)
}
