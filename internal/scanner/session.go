package scanner

import (
	"context"
	"sync"
)

// Generations is the authoritative scan generation shared by every session of
// an Engine. Only Next and Cancel advance it.
type Generations struct {
	mu      sync.Mutex
	current uint64
	done    chan struct{}
}

// NewGenerations returns a counter at generation zero
func NewGenerations() *Generations {
	return &Generations{done: make(chan struct{})}
}

// Current returns the authoritative generation
func (g *Generations) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Next supersedes the current session and returns a new one
func (g *Generations) Next() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.advance()
	return Session{Generation: g.current, done: g.done, gens: g}
}

// Cancel supersedes s if it is still current and reports whether it did.
// Cancelling a stale session is a no-op.
func (g *Generations) Cancel(s Session) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s.gens != g || s.Generation != g.current {
		return false
	}
	g.advance()
	return true
}

// advance must be called with mu held
func (g *Generations) advance() {
	close(g.done)
	g.current++
	g.done = make(chan struct{})
}

// Session identifies one scan invocation. It is an immutable value; whether it
// is still authoritative is read from the shared Generations.
type Session struct {
	Generation uint64
	done       chan struct{}
	gens       *Generations
}

// Stale reports whether the session has been superseded or cancelled
func (s Session) Stale() bool {
	if s.gens == nil {
		return true
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed once the session is superseded
func (s Session) Done() <-chan struct{} {
	return s.done
}

// bind derives a context that ends when either parent ends or the session is
// superseded. The returned cancel must be called to release the watcher.
func (s Session) bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if s.done == nil {
		cancel()
		return ctx, cancel
	}
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
