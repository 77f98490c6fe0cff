package render_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgrid/internal/domain"
	"cardgrid/internal/render"
	"cardgrid/internal/sources"
)

func quietLogger() *log.Logger { return log.New(io.Discard) }

func legacyContent() domain.CardContent {
	return domain.CardContent{
		CardID:     "c1",
		BodyMarkup: `<div class="metric">42</div>`,
		Header: &domain.HeaderBlock{
			Title: "  📊  Requests   per second ",
			Controls: []domain.Control{
				{Kind: domain.ControlSelect, ID: "c1-range", Value: "24h", Options: []string{"1h", "24h"}},
			},
		},
		Controls: []domain.Control{
			{Kind: domain.ControlButton, ID: "c1-refresh", Label: "Refresh"},
		},
	}
}

type recordingHooks struct {
	render.NoopHooks
	failed []string
}

func (h *recordingHooks) OnStepFailed(_, step string, _ error) { h.failed = append(h.failed, step) }

// ─────────────────────────────────────────────────────────────
// Ordering and idempotence
// ─────────────────────────────────────────────────────────────

func TestPipeline_StepOrder(t *testing.T) {
	p := render.New(render.WithLogger(quietLogger()))
	noop := func(name string) render.Step {
		return render.StepFunc{StepName: name, Fn: func(c domain.CardContent) (domain.CardContent, error) { return c, nil }}
	}
	p.RegisterStep(noop("late"), 50)
	p.RegisterStep(noop("first"), 10)
	p.RegisterStep(noop("also-late"), 50)

	assert.Equal(t, []string{"first", "late", "also-late"}, p.Steps())
}

func controlIDs(c domain.CardContent) []string {
	ids := make([]string, len(c.Controls))
	for i, ctl := range c.Controls {
		ids[i] = string(ctl.Kind) + ":" + ctl.ID + ":" + ctl.Label
	}
	return ids
}

func sourceContent(t *testing.T, src sources.Source, data string) domain.CardContent {
	t.Helper()
	c, err := src.GetContent(context.Background(), sources.State{CardID: "c1", Title: " 🗒 From   source ", Data: data})
	require.NoError(t, err)
	return c
}

func TestPipeline_Idempotent(t *testing.T) {
	feedFile := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(feedFile, []byte(`{"rows":[{"name":"a","n":1},{"name":"b","n":2}]}`), 0o644))

	failing := render.StepFunc{StepName: "boom", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		return c, errors.New("boom")
	}}

	tests := []struct {
		name    string
		content func(t *testing.T) domain.CardContent
		extra   render.Step
	}{
		{name: "legacy header", content: func(*testing.T) domain.CardContent { return legacyContent() }},
		{name: "no header", content: func(*testing.T) domain.CardContent {
			return domain.CardContent{CardID: "c1", Title: "Plain", BodyMarkup: "<p>x</p>"}
		}},
		{name: "unnamed controls", content: func(*testing.T) domain.CardContent {
			return domain.CardContent{CardID: "c1", Header: &domain.HeaderBlock{Title: "h", Controls: []domain.Control{
				{Kind: domain.ControlButton, Label: "A"}, {Kind: domain.ControlButton, Label: "B"},
			}}}
		}},
		{name: "source title region", content: func(*testing.T) domain.CardContent {
			return domain.CardContent{CardID: "c1", Title: "T", TitleRegion: &domain.TitleRegion{Text: " Keep "}}
		}},
		{name: "markdown source", content: func(t *testing.T) domain.CardContent {
			return sourceContent(t, sources.NewMarkdownSource(), `{"text":"# Hi\n\nbody"}`)
		}},
		{name: "html source", content: func(t *testing.T) domain.CardContent {
			return sourceContent(t, sources.NewHTMLSource(), `{"html":"<b>bold</b><script>x()</script>"}`)
		}},
		{name: "metric source", content: func(t *testing.T) domain.CardContent {
			return sourceContent(t, sources.NewMetricSource(), `{"label":"rps","values":[1,2,3]}`)
		}},
		{name: "text source", content: func(t *testing.T) domain.CardContent {
			return sourceContent(t, sources.NewTextSource(), `{"text":"a <b>\nline"}`)
		}},
		{name: "feed source", content: func(t *testing.T) domain.CardContent {
			return sourceContent(t, sources.NewFeedSource(), `{"file":"`+filepath.ToSlash(feedFile)+`","dataPath":"rows"}`)
		}},
		{name: "error placeholder", content: func(*testing.T) domain.CardContent {
			return domain.CardContent{
				CardID:     "c1",
				Title:      "markdown",
				BodyMarkup: `<div class="card-error">source down</div>`,
				Classes:    []string{"card--error"},
			}
		}},
		{name: "with failing step", extra: failing, content: func(*testing.T) domain.CardContent { return legacyContent() }},
	}

	placement := domain.CardPlacement{ID: "c1", ColumnSpan: 8, RowSpan: 6, PixelWidth: 312, PixelHeight: 232}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := render.DefaultPipeline(quietLogger())
			if tt.extra != nil {
				p.RegisterStep(tt.extra, 25)
			}

			once, _ := p.Apply(tt.content(t))
			twice, _ := p.Apply(once)

			a := render.Markup(render.Build(once, placement, render.BuildOptions{}))
			b := render.Markup(render.Build(twice, placement, render.BuildOptions{}))
			assert.Equal(t, a, b)
			assert.Equal(t, controlIDs(once), controlIDs(twice))
			assert.Equal(t, once.Classes, twice.Classes)
		})
	}
}

// ─────────────────────────────────────────────────────────────
// Built-in steps
// ─────────────────────────────────────────────────────────────

func TestUnwrapHeader_KeepsControls(t *testing.T) {
	out, _ := render.DefaultPipeline(quietLogger()).Apply(legacyContent())

	assert.Nil(t, out.Header)
	ids := make([]string, len(out.Controls))
	for i, c := range out.Controls {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"c1-refresh", "c1-range", "c1-menu"}, ids)
	assert.Equal(t, `<div class="metric">42</div>`, out.BodyMarkup)
}

func TestCleanTitle(t *testing.T) {
	out, _ := render.DefaultPipeline(quietLogger()).Apply(legacyContent())
	require.NotNil(t, out.TitleRegion)
	assert.Equal(t, "Requests per second", out.TitleRegion.Text)
	assert.Equal(t, "Requests per second", out.Attributes[render.TitleAttribute])
}

func TestUnwrapHeader_ExistingTitleWins(t *testing.T) {
	c := legacyContent()
	c.Title = "Custom"
	out, _ := render.DefaultPipeline(quietLogger()).Apply(c)
	assert.Equal(t, "Custom", out.TitleRegion.Text)
}

func TestUnwrapHeader_KeepsUnnamedControls(t *testing.T) {
	c := domain.CardContent{CardID: "c", Header: &domain.HeaderBlock{Controls: []domain.Control{
		{Kind: domain.ControlButton, Label: "A"},
		{Kind: domain.ControlButton, Label: "B"},
	}}}
	out, report := render.DefaultPipeline(quietLogger()).Apply(c)
	assert.Empty(t, report.Failed)
	assert.Equal(t, []string{"button::A", "button::B", "menu-trigger:c-menu:" + render.MenuTriggerLabel}, controlIDs(out))
}

func TestCleanTitle_SourceRegionWins(t *testing.T) {
	c := domain.CardContent{CardID: "c", Title: "T", TitleRegion: &domain.TitleRegion{Text: "  Keep   this "}}
	out, _ := render.DefaultPipeline(quietLogger()).Apply(c)
	assert.Equal(t, "Keep this", out.TitleRegion.Text)
	assert.Equal(t, "Keep this", out.Title)
	assert.Equal(t, "Keep this", out.Attributes[render.TitleAttribute])
}

func TestDedupeControls(t *testing.T) {
	c := domain.CardContent{CardID: "c1", Controls: []domain.Control{
		{ID: "a", Label: "first"}, {ID: "a", Label: "second"},
	}}
	out, _ := render.DefaultPipeline(quietLogger()).Apply(c)
	ctl, ok := out.FindControl("a")
	require.True(t, ok)
	assert.Equal(t, "first", ctl.Label)
	assert.Len(t, out.Controls, 2) // a + menu trigger
}

func TestDedupeControls_UnnamedNeverMerged(t *testing.T) {
	c := domain.CardContent{CardID: "c1", Controls: []domain.Control{
		{Label: "x"}, {ID: "a", Label: "first"}, {Label: "y"}, {ID: "a", Label: "second"},
	}}
	out, _ := render.DefaultPipeline(quietLogger()).Apply(c)
	assert.Len(t, out.Controls, 4) // x, a, y + menu trigger
}

func TestCardClasses(t *testing.T) {
	out, _ := render.DefaultPipeline(quietLogger()).Apply(domain.CardContent{CardID: "c1", Classes: []string{"pinned"}})
	assert.Equal(t, []string{"card", "pinned"}, out.Classes)

	out, _ = render.DefaultPipeline(quietLogger()).Apply(legacyContent())
	assert.Equal(t, []string{"card", "card--has-controls"}, out.Classes)
}

// ─────────────────────────────────────────────────────────────
// Failure policy
// ─────────────────────────────────────────────────────────────

func TestPipeline_FailingStepIsSkipped(t *testing.T) {
	hooks := &recordingHooks{}
	p := render.DefaultPipeline(quietLogger(), render.WithHooks(hooks))
	p.RegisterStep(render.StepFunc{StepName: "boom", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		c.Title = "half-done"
		return c, errors.New("boom")
	}}, 25)
	p.RegisterStep(render.StepFunc{StepName: "panics", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		panic("nil map")
	}}, 26)

	out, report := p.Apply(legacyContent())
	assert.Equal(t, []string{"boom", "panics"}, report.Failed)
	assert.Equal(t, []string{"boom", "panics"}, hooks.failed)
	assert.Equal(t, "Requests per second", out.Title, "failed step output is discarded")
	assert.Len(t, report.Applied, 6)
}

func TestPipeline_BodyChangeRejected(t *testing.T) {
	p := render.New(render.WithLogger(quietLogger()))
	p.RegisterStep(render.StepFunc{StepName: "rewrite-body", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		c.BodyMarkup = "<p>gone</p>"
		return c, nil
	}}, 1)

	out, report := p.Apply(domain.CardContent{CardID: "c1", BodyMarkup: "<p>keep</p>"})
	assert.Equal(t, "<p>keep</p>", out.BodyMarkup)
	assert.Equal(t, []string{"rewrite-body"}, report.Failed)
}

func TestPipeline_MissingCardIDDegrades(t *testing.T) {
	out, report := render.DefaultPipeline(quietLogger()).Apply(domain.CardContent{Title: "x"})
	assert.Equal(t, []string{"menu-trigger"}, report.Failed)
	assert.Equal(t, "x", out.TitleRegion.Text)
}

func TestPipeline_RenderFromSource(t *testing.T) {
	p := render.DefaultPipeline(quietLogger())
	out, report, err := p.Render(context.Background(), sources.NewMetricSource(), sources.State{CardID: "m1"})
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	assert.Equal(t, "m1", out.CardID)
	_, ok := out.FindControl("m1-range")
	assert.True(t, ok)

	_, _, err = p.Render(context.Background(), sources.NewTextSource(), sources.State{Data: "{"})
	assert.Error(t, err)
}
