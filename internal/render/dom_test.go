package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"cardgrid/internal/domain"
	"cardgrid/internal/render"
)

func TestBuild_Regions(t *testing.T) {
	content, _ := render.DefaultPipeline(quietLogger()).Apply(legacyContent())
	p := domain.CardPlacement{ID: "c1", ColumnSpan: 8, RowSpan: 6, PixelLeft: 16, PixelTop: 18, PixelWidth: 312, PixelHeight: 232, SizeClass: domain.SizeNormal}

	markup := render.Markup(render.Build(content, p, render.BuildOptions{}))

	assert.True(t, strings.HasPrefix(markup, `<div id="card-c1" class="card card--has-controls"`))
	assert.Contains(t, markup, `data-card-title="Requests per second"`)
	assert.Contains(t, markup, `style="left:16px;top:18px;width:312px;height:232px"`)
	assert.Contains(t, markup, `<div class="card-title">Requests per second</div>`)
	assert.Contains(t, markup, `<option value="24h" selected="">24h</option>`)
	assert.Contains(t, markup, `data-menu-for="c1"`)
	assert.Contains(t, markup, `<div class="card-body"><div class="metric">42</div></div>`)
	assert.Contains(t, markup, `data-anchor="bottom-right"`)
	assert.Contains(t, markup, `data-anchor="bottom-left"`)
}

func TestBuild_SingleColumnHasOneHandle(t *testing.T) {
	content, _ := render.DefaultPipeline(quietLogger()).Apply(domain.CardContent{CardID: "n", Title: "Narrow"})
	p := domain.CardPlacement{ID: "n", ColumnSpan: 1, RowSpan: 4}

	markup := render.Markup(render.Build(content, p, render.BuildOptions{}))
	assert.Equal(t, 1, strings.Count(markup, `class="resize-handle`))
	assert.NotContains(t, markup, "bottom-left")
}

func TestBuild_EscapesTitle(t *testing.T) {
	content, _ := render.DefaultPipeline(quietLogger()).Apply(domain.CardContent{CardID: "x", Title: `<b>"hi"</b>`})
	markup := render.Markup(render.Build(content, domain.CardPlacement{ColumnSpan: 2}, render.BuildOptions{}))
	assert.Contains(t, markup, `&lt;b&gt;&#34;hi&#34;&lt;/b&gt;`)
}
