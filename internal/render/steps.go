package render

import (
	"errors"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"cardgrid/internal/domain"
)

// Built-in step orders. Gaps leave room for steps registered by callers.
const (
	OrderUnwrapHeader   = 10
	OrderCleanTitle     = 20
	OrderTitleAttribute = 30
	OrderMenuTrigger    = 40
	OrderDedupeControls = 50
	OrderCardClasses    = 60
)

// TitleAttribute is the card-level attribute carrying the human-readable title.
const TitleAttribute = "data-card-title"

// MenuTriggerLabel is the glyph drawn on every card's menu button.
const MenuTriggerLabel = "⋮"

// DefaultPipeline returns a pipeline with every built-in step registered.
func DefaultPipeline(l *log.Logger, opts ...Option) *Pipeline {
	p := New(append([]Option{WithLogger(l)}, opts...)...)
	p.RegisterStep(UnwrapHeader(), OrderUnwrapHeader)
	p.RegisterStep(CleanTitle(), OrderCleanTitle)
	p.RegisterStep(TitleAttributeStep(), OrderTitleAttribute)
	p.RegisterStep(MenuTrigger(), OrderMenuTrigger)
	p.RegisterStep(DedupeControls(), OrderDedupeControls)
	p.RegisterStep(CardClasses(), OrderCardClasses)
	return p
}

// UnwrapHeader removes the legacy header wrapper. Controls nested in the
// header are moved to the controls region first and its title becomes the
// card title when the card has none.
func UnwrapHeader() Step {
	return StepFunc{StepName: "unwrap-header", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		if c.Header == nil {
			return c, nil
		}
		if strings.TrimSpace(c.Title) == "" {
			c.Title = c.Header.Title
		}
		for _, ctl := range c.Header.Controls {
			if ctl.ID != "" {
				if _, exists := c.FindControl(ctl.ID); exists {
					continue
				}
			}
			c.Controls = append(c.Controls, ctl)
		}
		c.Header = nil
		return c, nil
	}}
}

// CleanTitle builds the title region from the card title: surrounding
// whitespace and leading decoration glyphs are dropped and inner runs of
// whitespace collapse to one space. A title region supplied by the source
// wins over Title; it is cleaned the same way and Title follows it.
func CleanTitle() Step {
	return StepFunc{StepName: "clean-title", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		raw := c.Title
		if c.TitleRegion != nil {
			raw = c.TitleRegion.Text
		}
		text := cleanTitle(raw)
		if c.TitleRegion != nil && c.TitleRegion.Text == text && c.Title == text {
			return c, nil
		}
		c.Title = text
		c.TitleRegion = &domain.TitleRegion{Text: text}
		return c, nil
	}}
}

// TitleAttributeStep copies the clean title onto the card attributes.
func TitleAttributeStep() Step {
	return StepFunc{StepName: "title-attribute", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		title := c.Title
		if c.TitleRegion != nil {
			title = c.TitleRegion.Text
		}
		if c.Attributes[TitleAttribute] == title {
			return c, nil
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]string)
		}
		c.Attributes[TitleAttribute] = title
		return c, nil
	}}
}

var errNoCardID = errors.New("card has no id")

// MenuTrigger appends a menu button unless the card already has one.
func MenuTrigger() Step {
	return StepFunc{StepName: "menu-trigger", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		if c.CardID == "" {
			return c, errNoCardID
		}
		if lo.ContainsBy(c.Controls, func(ctl domain.Control) bool { return ctl.Kind == domain.ControlMenuTrigger }) {
			return c, nil
		}
		c.Controls = append(c.Controls, domain.Control{
			Kind:  domain.ControlMenuTrigger,
			ID:    MenuTriggerID(c.CardID),
			Label: MenuTriggerLabel,
		})
		return c, nil
	}}
}

// MenuTriggerID is the control id of a card's menu button.
func MenuTriggerID(cardID string) string { return cardID + "-menu" }

// DedupeControls keeps the first control for each id. Controls without an
// id are never merged.
func DedupeControls() Step {
	return StepFunc{StepName: "dedupe-controls", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		seen := make(map[string]struct{}, len(c.Controls))
		c.Controls = lo.Filter(c.Controls, func(ctl domain.Control, _ int) bool {
			if ctl.ID == "" {
				return true
			}
			if _, dup := seen[ctl.ID]; dup {
				return false
			}
			seen[ctl.ID] = struct{}{}
			return true
		})
		return c, nil
	}}
}

// CardClasses sets the base card class and a marker class for cards that
// carry controls besides the menu button.
func CardClasses() Step {
	return StepFunc{StepName: "card-classes", Fn: func(c domain.CardContent) (domain.CardContent, error) {
		classes := lo.Filter(c.Classes, func(cl string, _ int) bool {
			return cl != "card" && cl != "card--has-controls"
		})
		want := []string{"card"}
		if lo.ContainsBy(c.Controls, func(ctl domain.Control) bool { return ctl.Kind != domain.ControlMenuTrigger }) {
			want = append(want, "card--has-controls")
		}
		c.Classes = lo.Uniq(append(want, classes...))
		return c, nil
	}}
}

func cleanTitle(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.In(r, unicode.So, unicode.Sk, unicode.Mn, unicode.Cf)
	})
	return strings.Join(strings.Fields(s), " ")
}
