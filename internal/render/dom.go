package render

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"cardgrid/internal/domain"
)

// Class names of the card's structural regions. The hosting page relies on
// them to find the title, controls, body and resize handles.
const (
	ClassTitle        = "card-title"
	ClassControls     = "card-controls"
	ClassBody         = "card-body"
	ClassResizeHandle = "resize-handle"
)

// BuildOptions controls markup generation.
type BuildOptions struct {
	// LeftHandleMinSpan is the column span above which a card also gets a
	// bottom-left resize handle. Defaults to 1.
	LeftHandleMinSpan int
}

// Build creates the DOM node of one card. Content must already have been
// through the pipeline.
func Build(c domain.CardContent, p domain.CardPlacement, opts BuildOptions) *html.Node {
	if opts.LeftHandleMinSpan < 1 {
		opts.LeftHandleMinSpan = 1
	}

	card := element(atom.Div,
		attr("id", "card-"+c.CardID),
		attr("class", strings.Join(c.Classes, " ")),
		attr("data-card-id", c.CardID),
		attr("data-size-class", string(p.SizeClass)),
		attr("style", geometryStyle(p)),
	)
	keys := make([]string, 0, len(c.Attributes))
	for k := range c.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		card.Attr = append(card.Attr, attr(k, c.Attributes[k]))
	}

	title := element(atom.Div, attr("class", ClassTitle))
	if c.TitleRegion != nil {
		title.AppendChild(text(c.TitleRegion.Text))
	}
	card.AppendChild(title)

	controls := element(atom.Div, attr("class", ClassControls))
	for _, ctl := range c.Controls {
		controls.AppendChild(buildControl(c.CardID, ctl))
	}
	card.AppendChild(controls)

	body := element(atom.Div, attr("class", ClassBody))
	body.AppendChild(&html.Node{Type: html.RawNode, Data: c.BodyMarkup})
	card.AppendChild(body)

	card.AppendChild(resizeHandle(domain.AnchorBottomRight))
	if p.ColumnSpan > opts.LeftHandleMinSpan {
		card.AppendChild(resizeHandle(domain.AnchorBottomLeft))
	}
	return card
}

// Markup serializes a node built by Build.
func Markup(n *html.Node) string {
	var b strings.Builder
	// Rendering to a strings.Builder cannot fail.
	_ = html.Render(&b, n)
	return b.String()
}

func buildControl(cardID string, ctl domain.Control) *html.Node {
	switch ctl.Kind {
	case domain.ControlSelect:
		sel := element(atom.Select, attr("data-control-id", ctl.ID), attr("aria-label", ctl.Label))
		for _, opt := range ctl.Options {
			o := element(atom.Option, attr("value", opt))
			if opt == ctl.Value {
				o.Attr = append(o.Attr, attr("selected", ""))
			}
			o.AppendChild(text(opt))
			sel.AppendChild(o)
		}
		return sel
	case domain.ControlToggle:
		in := element(atom.Input, attr("type", "checkbox"), attr("data-control-id", ctl.ID), attr("aria-label", ctl.Label))
		if v, _ := strconv.ParseBool(ctl.Value); v {
			in.Attr = append(in.Attr, attr("checked", ""))
		}
		return in
	case domain.ControlMenuTrigger:
		btn := element(atom.Button,
			attr("type", "button"),
			attr("class", "menu-trigger"),
			attr("data-control-id", ctl.ID),
			attr("data-menu-for", cardID),
		)
		btn.AppendChild(text(ctl.Label))
		return btn
	default:
		btn := element(atom.Button, attr("type", "button"), attr("data-control-id", ctl.ID))
		btn.AppendChild(text(ctl.Label))
		return btn
	}
}

func resizeHandle(anchor domain.Anchor) *html.Node {
	return element(atom.Div,
		attr("class", ClassResizeHandle+" "+ClassResizeHandle+"--"+string(anchor)),
		attr("data-anchor", string(anchor)),
	)
}

func geometryStyle(p domain.CardPlacement) string {
	return "left:" + px(p.PixelLeft) + ";top:" + px(p.PixelTop) +
		";width:" + px(p.PixelWidth) + ";height:" + px(p.PixelHeight)
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
