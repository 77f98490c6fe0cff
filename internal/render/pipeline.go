// Package render turns card content into card markup.
//
// Content produced by a source goes through an ordered list of patch steps
// before any markup exists. Each step rewrites the structured CardContent
// (never the serialized HTML) and must be idempotent: running the whole
// pipeline on its own output changes nothing. A step that fails or panics is
// logged and skipped, so a card always renders, at worst with reduced fidelity.
//
// # Usage
//
//	p := render.DefaultPipeline(logger)
//	content, report, err := p.Render(ctx, source, sources.State{CardID: id})
//	node := render.Build(content, placement, render.BuildOptions{})
//	markup := render.Markup(node)
package render

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"cardgrid/internal/domain"
	"cardgrid/internal/sources"
)

// Step is one named transformation of card content.
type Step interface {
	Name() string
	Apply(c domain.CardContent) (domain.CardContent, error)
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	StepName string
	Fn       func(c domain.CardContent) (domain.CardContent, error)
}

func (s StepFunc) Name() string { return s.StepName }

func (s StepFunc) Apply(c domain.CardContent) (domain.CardContent, error) { return s.Fn(c) }

// Hooks receives pipeline events. Embed NoopHooks to implement a subset.
type Hooks interface {
	OnStepFailed(cardID, step string, err error)
}

// NoopHooks ignores every event.
type NoopHooks struct{}

func (NoopHooks) OnStepFailed(string, string, error) {}

// Report describes one pipeline run.
type Report struct {
	Applied []string // steps that ran without error
	Failed  []string // steps that were skipped after an error or panic
}

type registered struct {
	step  Step
	order int
	seq   int
}

// Pipeline is an ordered list of patch steps.
type Pipeline struct {
	mu    sync.RWMutex
	steps []registered
	seq   int
	hooks Hooks
	log   *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHooks installs pipeline hooks.
func WithHooks(h Hooks) Option {
	return func(p *Pipeline) {
		if h != nil {
			p.hooks = h
		}
	}
}

// WithLogger sets the logger used for step failures.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{hooks: NoopHooks{}, log: log.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RegisterStep adds a step. Steps run by ascending order; steps with the same
// order run in registration order.
func (p *Pipeline) RegisterStep(step Step, order int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.steps = append(p.steps, registered{step: step, order: order, seq: p.seq})
	sort.SliceStable(p.steps, func(i, j int) bool {
		if p.steps[i].order != p.steps[j].order {
			return p.steps[i].order < p.steps[j].order
		}
		return p.steps[i].seq < p.steps[j].seq
	})
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, len(p.steps))
	for i, r := range p.steps {
		names[i] = r.step.Name()
	}
	return names
}

// Render fetches content from src and runs the pipeline once on it.
// Only a source failure is returned as an error; step failures are recorded
// in the report.
func (p *Pipeline) Render(ctx context.Context, src sources.Source, st sources.State) (domain.CardContent, Report, error) {
	content, err := src.GetContent(ctx, st)
	if err != nil {
		return domain.CardContent{}, Report{}, fmt.Errorf("get content from %s: %w", src.Type(), err)
	}
	if content.CardID == "" {
		content.CardID = st.CardID
	}
	out, report := p.Apply(content)
	return out, report, nil
}

// Apply runs every step once, in order, on a copy of c.
func (p *Pipeline) Apply(c domain.CardContent) (domain.CardContent, Report) {
	p.mu.RLock()
	steps := append([]registered(nil), p.steps...)
	p.mu.RUnlock()

	var report Report
	cur := c.Clone()
	for _, r := range steps {
		next, err := p.runStep(r.step, cur)
		if err != nil {
			report.Failed = append(report.Failed, r.step.Name())
			p.log.Warn("render step skipped", "card", c.CardID, "step", r.step.Name(), "err", err)
			p.hooks.OnStepFailed(c.CardID, r.step.Name(), err)
			continue
		}
		report.Applied = append(report.Applied, r.step.Name())
		cur = next
	}
	return cur, report
}

// runStep gives the step its own copy so a failing step cannot leave a
// half-modified value behind. Steps may only touch the chrome around the
// body; a changed body counts as a failure.
func (p *Pipeline) runStep(step Step, in domain.CardContent) (out domain.CardContent, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s: %w: panic: %v", step.Name(), domain.ErrPatchStepFailure, rec)
		}
	}()
	out, err = step.Apply(in.Clone())
	if err != nil {
		return domain.CardContent{}, fmt.Errorf("%s: %w: %w", step.Name(), domain.ErrPatchStepFailure, err)
	}
	if out.BodyMarkup != in.BodyMarkup {
		return domain.CardContent{}, fmt.Errorf("%s: %w: body markup changed", step.Name(), domain.ErrPatchStepFailure)
	}
	return out, nil
}
