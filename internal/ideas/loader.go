package ideas

import (
	"context"
	"sync"
)

// Loader drives a Resolver on behalf of a view. Each Load supersedes the one
// before it, and a superseded or closed load never reaches the setter.
type Loader struct {
	parent   context.Context
	resolver *Resolver
	set      func(*Result, error)
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	gen      uint64
	mu       sync.Mutex
}

// NewLoader binds set to resolver. set runs on a loader goroutine and must
// not call Load or Close.
func NewLoader(ctx context.Context, resolver *Resolver, set func(*Result, error)) *Loader {
	return &Loader{parent: ctx, resolver: resolver, set: set}
}

// Load starts resolving topic, cancelling any load in flight.
func (l *Loader) Load(topic string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(l.parent)
	l.cancel = cancel
	l.gen++
	gen := l.gen

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		result, err := l.resolver.Resolve(ctx, topic)

		l.mu.Lock()
		defer l.mu.Unlock()
		if gen != l.gen || ctx.Err() != nil {
			return
		}
		l.set(result, err)
	}()
}

// Wait blocks until every started load has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Close cancels the current load and waits for it to unwind.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.mu.Unlock()
	l.wg.Wait()
}
