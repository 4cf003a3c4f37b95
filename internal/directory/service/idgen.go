package service

import (
	"sync"
	"time"

	"github.com/staffdir/staffdir-backend/internal/directory/domain"
)

// IDGenerator issues millisecond-timestamp ids. Ids are strictly increasing
// within the process and always greater than every id already stored.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator creates a generator backed by the wall clock
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns a fresh id that collides with nothing in existing
func (g *IDGenerator) Next(existing []domain.Employee) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	for _, e := range existing {
		if e.ID >= id {
			id = e.ID + 1
		}
	}

	g.last = id
	return id
}
