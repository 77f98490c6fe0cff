package service

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"cardgrid/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// RefreshScheduler — periodic card re-render
// ─────────────────────────────────────────────────────────────

// RefreshScheduler re-renders cards on cron schedules. Jobs do not touch
// dashboard state themselves; they post the refresh to the event loop.
type RefreshScheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	post    func(fn func()) bool
	refresh func(cardID string)
	log     *log.Logger
	started bool
}

// NewRefreshScheduler creates a stopped scheduler.
func NewRefreshScheduler(post func(fn func()) bool, refresh func(cardID string), l *log.Logger) *RefreshScheduler {
	if l == nil {
		l = log.Default()
	}
	return &RefreshScheduler{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
		post:    post,
		refresh: refresh,
		log:     l,
	}
}

// Schedule (re)installs the schedule of a card. An empty spec removes it.
func (r *RefreshScheduler) Schedule(cardID, spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.entries[cardID]; ok {
		r.cron.Remove(id)
		delete(r.entries, cardID)
	}
	if spec == "" {
		return nil
	}
	id, err := r.cron.AddFunc(spec, func() {
		if !r.post(func() { r.refresh(cardID) }) {
			r.log.Debug("refresh dropped, loop stopped", "card", cardID)
		}
	})
	if err != nil {
		return err
	}
	r.entries[cardID] = id
	return nil
}

// Unschedule removes a card's schedule.
func (r *RefreshScheduler) Unschedule(cardID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.entries[cardID]; ok {
		r.cron.Remove(id)
		delete(r.entries, cardID)
	}
}

// Scheduled returns the number of cards with a schedule.
func (r *RefreshScheduler) Scheduled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Start starts the cron scheduler.
func (r *RefreshScheduler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		r.cron.Start()
		r.started = true
	}
}

// Stop stops the cron scheduler and waits for running jobs.
func (r *RefreshScheduler) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	r.mu.Unlock()
	<-r.cron.Stop().Done()
}

// scheduleRefresh installs a card's schedule, falling back to the default.
func (d *Dashboard) scheduleRefresh(c *domain.Card) {
	spec := c.Refresh
	if spec == "" {
		spec = d.opts.DefaultRefresh
	}
	if err := d.refresh.Schedule(c.ID, spec); err != nil {
		d.log.Warn("invalid refresh schedule", "card", c.ID, "spec", spec, "err", err)
	}
}
