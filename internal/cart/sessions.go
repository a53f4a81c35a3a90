package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an untouched cart is kept.
const DefaultTTL = 7 * 24 * time.Hour

type entry struct {
	cart     *Cart
	lastSeen time.Time
}

// Sessions maps browser session ids to carts. Carts live in memory only.
type Sessions struct {
	mu    sync.Mutex
	carts map[string]*entry
	ttl   time.Duration
	now   func() time.Time
	// onResize sees the session count after every create or sweep.
	onResize func(n int)
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{carts: map[string]*entry{}, ttl: ttl, now: time.Now}
}

// OnResize registers fn to receive the session count whenever carts are
// created or swept. Call it before the sessions are shared.
func (s *Sessions) OnResize(fn func(n int)) {
	s.onResize = fn
}

// Get returns the cart for id, creating one when id is unknown. Ids that are
// not UUIDs are replaced by a fresh one; the id actually used is returned.
func (s *Sessions) Get(id string) (string, *Cart) {
	s.mu.Lock()
	now := s.now()
	if e, ok := s.carts[id]; ok {
		e.lastSeen = now
		s.mu.Unlock()
		return id, e.cart
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	e := &entry{cart: New(), lastSeen: now}
	s.carts[id] = e
	n := len(s.carts)
	s.mu.Unlock()

	s.resized(n)
	return id, e.cart
}

// Lookup returns an existing cart without creating one.
func (s *Sessions) Lookup(id string) (*Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.cart, true
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

// Sweep drops carts idle for longer than the TTL and returns how many went.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, e := range s.carts {
		if e.lastSeen.Before(cutoff) {
			delete(s.carts, id)
			n++
		}
	}
	left := len(s.carts)
	s.mu.Unlock()

	s.resized(left)
	return n
}

func (s *Sessions) resized(n int) {
	if s.onResize != nil {
		s.onResize(n)
	}
}

// Run sweeps on every tick until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
