package layout

import (
	"context"
	"sync"
)

// busyGuard marks containers with a layout pass in flight. A container is
// busy from the moment its pass is scheduled until the pass has run.
type busyGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
	wg   sync.WaitGroup
}

// TryLock marks container busy. It returns false if it already is.
func (g *busyGuard) TryLock(container string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy == nil {
		g.busy = make(map[string]struct{})
	}
	if _, ok := g.busy[container]; ok {
		return false
	}
	g.busy[container] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock clears the flag. Must follow a successful TryLock.
func (g *busyGuard) Unlock(container string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, container)
	g.wg.Done()
}

// Busy reports whether container has a pass in flight.
func (g *busyGuard) Busy(container string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.busy[container]
	return ok
}

// WaitAll blocks until every scheduled pass has finished or ctx is done.
func (g *busyGuard) WaitAll(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
