package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"cardgrid/internal/domain"
	"cardgrid/internal/grid"
	"cardgrid/internal/layout"
	"cardgrid/internal/loop"
	"cardgrid/internal/menu"
	"cardgrid/internal/render"
	"cardgrid/internal/resize"
	"cardgrid/internal/sources"
)

// ─────────────────────────────────────────────────────────────
// Dashboard — wires sources, pipeline, grid and controllers
// ─────────────────────────────────────────────────────────────

// MainContainer is the layout container of the dashboard grid.
const MainContainer = "dashboard"

// GridSettings persists the last applied grid spec.
type GridSettings interface {
	LoadGridSpec() (domain.GridSpec, bool, error)
	SaveGridSpec(spec domain.GridSpec) error
}

// placementSaver is implemented by stores that can write a layout pass in one go.
type placementSaver interface {
	SavePlacements(ps []domain.CardPlacement) error
}

// Options tunes the dashboard. Zero values mean defaults.
type Options struct {
	Spec              domain.GridSpec
	MinCardWidth      float64
	MinCardHeight     float64
	Coalesce          time.Duration
	WindowDebounce    time.Duration
	LeftHandleMinSpan int
	// FitWindow recomputes columns and rows when the window is resized.
	FitWindow bool
	// DefaultRefresh is the cron spec for cards without their own.
	DefaultRefresh string
}

// Deps are the collaborators of a Dashboard.
type Deps struct {
	Cards    domain.CardStore
	Settings GridSettings // optional
	Sources  *sources.Registry
	Emitter  EventEmitter
	Logger   *log.Logger
}

// Dashboard is the card grid service. Its exported methods are safe for
// concurrent use: each one runs on the dashboard's event loop, which owns the
// grid model and the menu and gesture controllers.
type Dashboard struct {
	loop     *loop.Loop
	store    domain.CardStore
	settings GridSettings
	sources  *sources.Registry
	pipeline *render.Pipeline
	grid     *grid.Model
	menus    *menu.Controller
	gestures *resize.Controller
	layout   *layout.Scheduler
	window   *layout.WindowDebouncer
	refresh  *RefreshScheduler
	emitter  EventEmitter
	log      *log.Logger
	opts     Options

	// Owned by the event loop.
	ctx      context.Context
	records  map[string]*domain.Card
	content  map[string]domain.CardContent
	rendered map[string]domain.RenderedCard

	startOnce sync.Once
	cancel    context.CancelFunc
}

// NewDashboard creates a dashboard. Call Start before using it.
func NewDashboard(deps Deps, opts Options) *Dashboard {
	l := deps.Logger
	if l == nil {
		l = log.Default()
	}
	if deps.Emitter == nil {
		deps.Emitter = NopEmitter{}
	}
	if deps.Sources == nil {
		deps.Sources = sources.Defaults()
	}
	if opts.Spec.IsZero() {
		opts.Spec = domain.DefaultGridSpec()
	}
	if opts.Coalesce <= 0 {
		opts.Coalesce = layout.DefaultCoalesce
	}

	d := &Dashboard{
		loop:     loop.New(512),
		store:    deps.Cards,
		settings: deps.Settings,
		sources:  deps.Sources,
		emitter:  deps.Emitter,
		log:      l,
		opts:     opts,
		ctx:      context.Background(),
		records:  make(map[string]*domain.Card),
		content:  make(map[string]domain.CardContent),
		rendered: make(map[string]domain.RenderedCard),
	}

	d.pipeline = render.DefaultPipeline(l.WithPrefix("render"))
	d.grid = grid.New(opts.Spec, grid.WithMinimumSize(opts.MinCardWidth, opts.MinCardHeight))
	d.menus = menu.New(d.grid,
		menu.WithBuilder(menu.SizeMenu(d.sizeClassOf)),
		menu.WithOnChange(d.onMenuChanged),
		menu.WithLogger(l.WithPrefix("menu")),
	)
	d.gestures = resize.New(d.grid, l.WithPrefix("gesture"))
	d.layout = layout.NewScheduler(d.layoutPass,
		layout.WithDelay(opts.Coalesce),
		layout.WithExecutor(d.loop.Post),
		layout.WithLogger(l.WithPrefix("layout")),
	)
	d.window = layout.NewWindowDebouncer(opts.WindowDebounce, d.onWindowSettled)
	d.refresh = NewRefreshScheduler(d.loop.Post, d.refreshOnLoop, l.WithPrefix("refresh"))

	if src, err := d.sources.Get("metric"); err == nil {
		if m, ok := src.(*sources.MetricSource); ok && m.OnRangeChange == nil {
			m.OnRangeChange = d.onMetricRange
		}
	}
	return d
}

// Start runs the event loop, restores saved cards and schedules the first
// layout pass. ctx is also used for frontend events.
func (d *Dashboard) Start(ctx context.Context) error {
	err := errors.New("dashboard already started")
	d.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		d.cancel = cancel
		go d.loop.Run(loopCtx)

		err = d.loop.Call(ctx, func() error {
			d.ctx = ctx
			return d.restore()
		})
		if err != nil {
			return
		}
		d.refresh.Start()
		d.layout.RequestLayout(MainContainer)
	})
	return err
}

// Shutdown stops timers, waits for a running layout pass and stops the loop.
func (d *Dashboard) Shutdown(ctx context.Context) {
	d.refresh.Stop()
	d.layout.Stop()
	if err := d.layout.Wait(ctx); err != nil {
		d.log.Warn("layout pass still running at shutdown", "err", err)
	}
	if d.cancel != nil {
		d.cancel()
		<-d.loop.Done()
	}
}

// restore loads persisted cards into the grid. Cards whose saved cells are
// taken or out of range are placed anew or parked.
func (d *Dashboard) restore() error {
	if d.settings != nil {
		spec, ok, err := d.settings.LoadGridSpec()
		if err != nil {
			d.log.Warn("load grid spec", "err", err)
		} else if ok {
			if _, err := d.grid.ApplySpec(spec); err != nil {
				d.log.Warn("saved grid spec rejected", "err", err)
			}
		}
	}

	cards, err := d.store.ListCards()
	if err != nil {
		return fmt.Errorf("restore cards: %w", err)
	}
	for i := range cards {
		c := cards[i]
		d.records[c.ID] = &c
		if _, err := d.grid.Restore(c.Placement); err != nil {
			if _, err := d.grid.Place(c.ID, c.Placement.ColumnSpan, c.Placement.RowSpan); err != nil {
				d.log.Info("card parked", "card", c.ID, "err", err)
				d.grid.Park(c.ID, c.Placement.ColumnSpan, c.Placement.RowSpan)
				continue
			}
		}
		d.renderCard(c.ID)
		d.scheduleRefresh(&c)
	}
	d.log.Info("dashboard restored", "cards", len(cards), "unplaced", len(d.grid.Unplaced()))
	return nil
}

// call runs fn on the event loop.
func (d *Dashboard) call(ctx context.Context, fn func() error) error {
	return d.loop.Call(ctx, fn)
}

func (d *Dashboard) emit(event string, data any) {
	d.emitter.Emit(d.ctx, event, data)
}

// ── Grid spec ──────────────────────────────────────────────

// Spec returns the current grid spec.
func (d *Dashboard) Spec(ctx context.Context) (domain.GridSpec, error) {
	var spec domain.GridSpec
	err := d.call(ctx, func() error {
		spec = d.grid.Spec()
		return nil
	})
	return spec, err
}

// ApplySpec replaces the grid geometry in one step.
func (d *Dashboard) ApplySpec(ctx context.Context, spec domain.GridSpec) error {
	return d.call(ctx, func() error { return d.applySpec(spec) })
}

func (d *Dashboard) applySpec(spec domain.GridSpec) error {
	if _, err := d.grid.ApplySpec(spec); err != nil {
		return err
	}
	applied := d.grid.Spec()
	if d.settings != nil {
		if err := d.settings.SaveGridSpec(applied); err != nil {
			d.log.Warn("save grid spec", "err", err)
		}
	}
	d.log.Info("grid spec applied", "columns", applied.Columns, "rows", applied.Rows,
		"width", applied.ContainerWidth(), "height", applied.ContainerHeight())
	d.emit(EventGridSpecChanged, applied)
	d.layout.RequestLayout(MainContainer)
	return nil
}

// WindowResized feeds a window size change through the debounce tier.
func (d *Dashboard) WindowResized(width, height float64) {
	d.window.Trigger(width, height)
}

func (d *Dashboard) onWindowSettled(width, height float64) {
	d.loop.Post(func() {
		if !d.opts.FitWindow {
			d.layout.RequestLayout(MainContainer)
			return
		}
		spec, err := grid.FitSpec(d.grid.Spec(), width, height)
		if err != nil {
			d.log.Warn("fit grid to window", "err", err)
			return
		}
		cur := d.grid.Spec()
		if spec.Columns == cur.Columns && spec.Rows == cur.Rows {
			d.layout.RequestLayout(MainContainer)
			return
		}
		if err := d.applySpec(spec); err != nil {
			d.log.Warn("apply fitted spec", "err", err)
		}
	})
}

// SourceTypes lists the card types cards can be added with.
func (d *Dashboard) SourceTypes() []string {
	return d.sources.Types()
}

// RequestLayout asks for a layout pass. It reports false when one is
// already pending and the request was dropped.
func (d *Dashboard) RequestLayout() bool {
	return d.layout.RequestLayout(MainContainer)
}

// ── Layout pass ────────────────────────────────────────────

// LayoutResult is the payload of layout:applied.
type LayoutResult struct {
	Container  string                 `json:"container"`
	Spec       domain.GridSpec        `json:"spec"`
	Placements []domain.CardPlacement `json:"placements"`
	Unplaced   []string               `json:"unplaced,omitempty"`
}

// layoutPass runs on the event loop.
func (d *Dashboard) layoutPass(container string) {
	res := d.grid.Reflow()

	if saver, ok := d.store.(placementSaver); ok {
		if err := saver.SavePlacements(res.Placements); err != nil {
			d.log.Warn("save placements", "err", err)
		}
	}

	for _, p := range res.Placements {
		if prev, ok := d.rendered[p.ID]; ok && prev.Placement == p {
			continue
		}
		if _, ok := d.content[p.ID]; ok {
			d.rebuild(p.ID)
		} else {
			d.renderCard(p.ID)
		}
	}

	d.emit(EventLayoutApplied, LayoutResult{
		Container:  container,
		Spec:       d.grid.Spec(),
		Placements: res.Placements,
		Unplaced:   res.Unplaced,
	})
	if len(res.Unplaced) > 0 {
		d.log.Warn("cards left unplaced", "cards", res.Unplaced)
		d.emit(EventLayoutError, map[string]any{
			"error":    domain.ErrOutOfBounds.Error(),
			"unplaced": res.Unplaced,
		})
	}
}

// ── State ──────────────────────────────────────────────────

// State returns everything the frontend needs to paint the grid.
func (d *Dashboard) State(ctx context.Context) (domain.DashboardState, error) {
	var st domain.DashboardState
	err := d.call(ctx, func() error {
		st.Spec = d.grid.Spec()
		for _, p := range d.grid.List() {
			rc, ok := d.rendered[p.ID]
			if !ok {
				continue
			}
			st.Cards = append(st.Cards, rc)
		}
		st.OpenMenu, _ = d.menus.Open()
		st.Unplaced = d.grid.Unplaced()
		return nil
	})
	return st, err
}
