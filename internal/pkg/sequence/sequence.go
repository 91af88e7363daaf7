// Package sequence orders concurrent refreshes of the same view so that only the
// most recently issued request may publish its result.
package sequence

import (
	"context"
	"sync"
	"sync/atomic"

	xerrors "invoicely-service/internal/pkg/errors"
)

type inflight struct {
	token  uint64
	cancel context.CancelFunc
}

// Sequencer hands out monotonically increasing tokens per key.
type Sequencer struct {
	counter atomic.Uint64
	mu      sync.Mutex
	latest  map[string]inflight
}

func New() *Sequencer {
	return &Sequencer{latest: make(map[string]inflight)}
}

// Ticket identifies one issued request.
type Ticket struct {
	seq   *Sequencer
	key   string
	token uint64
}

// Begin issues a new ticket for key and cancels the request holding the previous one.
// The returned context is cancelled when a newer request for the same key begins.
func (s *Sequencer) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	token := s.counter.Add(1)

	s.mu.Lock()
	if prev, ok := s.latest[key]; ok {
		prev.cancel()
	}
	s.latest[key] = inflight{token: token, cancel: cancel}
	s.mu.Unlock()

	return ctx, Ticket{seq: s, key: key, token: token}
}

// Token returns the ticket's sequence number.
func (t Ticket) Token() uint64 {
	return t.token
}

// IsLatest reports whether no newer request for the key has been issued.
func (t Ticket) IsLatest() bool {
	t.seq.mu.Lock()
	defer t.seq.mu.Unlock()
	cur, ok := t.seq.latest[t.key]
	return ok && cur.token == t.token
}

// Finish releases the ticket. It returns ErrStaleRequest when a newer request
// superseded this one, in which case the caller must discard its result.
func (t Ticket) Finish() error {
	t.seq.mu.Lock()
	defer t.seq.mu.Unlock()

	cur, ok := t.seq.latest[t.key]
	if !ok || cur.token != t.token {
		return xerrors.ErrStaleRequest
	}
	cur.cancel()
	delete(t.seq.latest, t.key)
	return nil
}

// InFlight returns the number of keys with an outstanding request.
func (s *Sequencer) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latest)
}
