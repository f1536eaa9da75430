package timeline

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a read replaced by a newer one for the same view
var ErrSuperseded = errors.New("superseded by a newer request")

// Superseder enforces last-request-wins per key: starting a request cancels the
// context of the previous request under the same key, and only the latest
// request may publish its result.
type Superseder struct {
	mu     sync.Mutex
	seq    uint64
	active map[string]*Ticket
}

// Ticket is one request registered with a Superseder
type Ticket struct {
	s      *Superseder
	key    string
	seq    uint64
	cancel context.CancelCauseFunc
}

// NewSuperseder creates an empty Superseder
func NewSuperseder() *Superseder {
	return &Superseder{active: make(map[string]*Ticket)}
}

// Begin registers a new request for key, cancelling the previous one with
// ErrSuperseded. Callers must call Done on the ticket when finished.
func (s *Superseder) Begin(parent context.Context, key string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancelCause(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &Ticket{s: s, key: key, seq: s.seq, cancel: cancel}
	if prev, ok := s.active[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	s.active[key] = t
	return ctx, t
}

// Current reports whether t is still the latest request for its key
func (t *Ticket) Current() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.active[t.key]
	return ok && cur.seq == t.seq
}

// Done releases the ticket and its context
func (t *Ticket) Done() {
	t.s.mu.Lock()
	if cur, ok := t.s.active[t.key]; ok && cur.seq == t.seq {
		delete(t.s.active, t.key)
	}
	t.s.mu.Unlock()
	t.cancel(context.Canceled)
}

// Pending returns the number of keys with a request in flight
func (s *Superseder) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
