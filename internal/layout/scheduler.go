// Package layout batches layout triggers into layout passes.
//
// Two tiers keep the grid from recomputing on every input event. Window
// resize events first go through a WindowDebouncer, which only lets the last
// event of a burst through. The Scheduler then coalesces whatever reaches it:
// the first request for a container schedules one pass after a short delay,
// and any request that arrives before that pass has finished is dropped.
package layout

import (
	"context"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
)

// Defaults for the two tiers.
const (
	DefaultCoalesce       = 16 * time.Millisecond
	DefaultWindowDebounce = 150 * time.Millisecond
)

// Pass recomputes the layout of one container.
type Pass func(container string)

// Executor runs fn on the goroutine that owns layout state. It reports false
// if fn will never run.
type Executor func(fn func()) bool

// Scheduler coalesces layout requests per container.
type Scheduler struct {
	pass  Pass
	delay time.Duration
	exec  Executor
	log   *log.Logger
	guard busyGuard

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay sets the coalescing window.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithExecutor runs passes through exec instead of on the timer goroutine.
func WithExecutor(exec Executor) Option {
	return func(s *Scheduler) { s.exec = exec }
}

// WithLogger sets the scheduler logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// NewScheduler creates a scheduler that runs pass.
func NewScheduler(pass Pass, opts ...Option) *Scheduler {
	s := &Scheduler{
		pass:   pass,
		delay:  DefaultCoalesce,
		log:    log.Default(),
		timers: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestLayout schedules a pass for container unless one is already
// scheduled or running, in which case the request is dropped. It reports
// whether a pass was scheduled.
func (s *Scheduler) RequestLayout(container string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if !s.guard.TryLock(container) {
		s.log.Debug("layout request dropped", "container", container)
		return false
	}
	s.timers[container] = time.AfterFunc(s.delay, func() { s.fire(container) })
	return true
}

// Busy reports whether a pass for container is scheduled or running.
func (s *Scheduler) Busy(container string) bool { return s.guard.Busy(container) }

func (s *Scheduler) fire(container string) {
	s.mu.Lock()
	delete(s.timers, container)
	s.mu.Unlock()

	run := func() {
		defer s.guard.Unlock(container)
		s.pass(container)
	}
	if s.exec == nil {
		run()
		return
	}
	if !s.exec(run) {
		s.log.Debug("layout pass not run", "container", container)
		s.guard.Unlock(container)
	}
}

// Stop cancels passes that have not started yet. Later requests are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for container, t := range s.timers {
		if t.Stop() {
			s.guard.Unlock(container)
		}
		delete(s.timers, container)
	}
}

// Wait blocks until every scheduled pass has finished or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	return s.guard.WaitAll(ctx)
}

// WindowDebouncer forwards only the last window size of a burst of resize
// events.
type WindowDebouncer struct {
	debounced func(func())
	apply     func(width, height float64)
}

// NewWindowDebouncer calls apply once the window has not been resized for after.
func NewWindowDebouncer(after time.Duration, apply func(width, height float64)) *WindowDebouncer {
	if after <= 0 {
		after = DefaultWindowDebounce
	}
	return &WindowDebouncer{debounced: debounce.New(after), apply: apply}
}

// Trigger records a window resize.
func (d *WindowDebouncer) Trigger(width, height float64) {
	d.debounced(func() { d.apply(width, height) })
}
