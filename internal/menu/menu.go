// Package menu tracks the per-card context menus.
//
// At most one menu is open at a time. Opening a menu on another card closes
// the current one first. Menus are built on the first toggle for a card and
// cached until the card goes away.
package menu

import (
	"fmt"

	"github.com/charmbracelet/log"

	"cardgrid/internal/domain"
)

// ItemKind says what selecting a menu item does.
type ItemKind string

const (
	ItemSizeClass ItemKind = "size-class"
	ItemRemove    ItemKind = "remove"
)

// RemoveItemID is the id of the remove entry in the default menu.
const RemoveItemID = "remove"

// Item is one entry in a card menu.
type Item struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Kind      ItemKind         `json:"kind"`
	SizeClass domain.SizeClass `json:"sizeClass,omitempty"`
	Checked   bool             `json:"checked,omitempty"`
}

// Menu is the built menu of one card.
type Menu struct {
	CardID string `json:"cardId"`
	Items  []Item `json:"items"`
}

// Builder constructs the menu of one card.
type Builder func(cardID string) Menu

// Cards tells the controller which cards exist.
type Cards interface {
	Has(cardID string) bool
}

// Controller owns the single open-menu id. It is confined to the event loop.
type Controller struct {
	cards    Cards
	build    Builder
	menus    map[string]Menu
	open     string
	onChange func(open string)
	log      *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithBuilder replaces the default menu builder.
func WithBuilder(b Builder) Option {
	return func(c *Controller) {
		if b != nil {
			c.build = b
		}
	}
}

// WithOnChange registers a callback run after the open menu changes. It gets
// the id of the card whose menu is now open, or "" when none is.
func WithOnChange(fn func(open string)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a controller over cards.
func New(cards Cards, opts ...Option) *Controller {
	c := &Controller{
		cards: cards,
		build: DefaultItems,
		menus: make(map[string]Menu),
		log:   log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Toggle closes the card's menu when it is open and otherwise closes any
// other menu and opens this one. It reports whether the card's menu is open
// afterwards. A card the controller does not know is ignored.
func (c *Controller) Toggle(cardID string) bool {
	if !c.cards.Has(cardID) {
		c.log.Debug("toggle ignored", "card", cardID, "err", domain.ErrMissingCardContext)
		return false
	}
	if c.open == cardID {
		c.set("")
		return false
	}
	if _, built := c.menus[cardID]; !built {
		c.menus[cardID] = c.build(cardID)
	}
	c.set("")
	c.set(cardID)
	return true
}

// CloseAll closes the open menu, if any.
func (c *Controller) CloseAll() {
	if c.open != "" {
		c.set("")
	}
}

// Open returns the card whose menu is open.
func (c *Controller) Open() (string, bool) {
	return c.open, c.open != ""
}

// Menu returns the built menu of a card. Menus that were never toggled do not
// exist yet.
func (c *Controller) Menu(cardID string) (Menu, bool) {
	m, ok := c.menus[cardID]
	return m, ok
}

// Built returns the number of menus built so far.
func (c *Controller) Built() int { return len(c.menus) }

// Invalidate drops a cached menu so the next toggle rebuilds it, e.g. after
// the card changed size class. An open menu is rebuilt in place and stays
// open; the change callback runs so it can be redrawn.
func (c *Controller) Invalidate(cardID string) {
	if c.open != cardID {
		delete(c.menus, cardID)
		return
	}
	c.menus[cardID] = c.build(cardID)
	if c.onChange != nil {
		c.onChange(cardID)
	}
}

// Forget drops everything known about a removed card.
func (c *Controller) Forget(cardID string) {
	delete(c.menus, cardID)
	if c.open == cardID {
		c.set("")
	}
}

// Select picks an item from the open menu of cardID and closes the menu.
// The caller carries out the returned item.
func (c *Controller) Select(cardID, itemID string) (Item, error) {
	if c.open != cardID {
		return Item{}, fmt.Errorf("select %s on %s: %w: menu not open", itemID, cardID, domain.ErrMissingCardContext)
	}
	for _, it := range c.menus[cardID].Items {
		if it.ID == itemID {
			c.set("")
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("select %s on %s: unknown menu item", itemID, cardID)
}

func (c *Controller) set(open string) {
	if c.open == open {
		return
	}
	c.open = open
	if c.onChange != nil {
		c.onChange(open)
	}
}

// DefaultItems builds a menu with one entry per size preset and a remove entry.
func DefaultItems(cardID string) Menu {
	labels := map[domain.SizeClass]string{
		domain.SizeNormal:    "Normal",
		domain.SizeWide:      "Wide",
		domain.SizeTall:      "Tall",
		domain.SizeExtraWide: "Extra wide",
	}
	m := Menu{CardID: cardID}
	for _, class := range domain.SizeClasses() {
		m.Items = append(m.Items, Item{
			ID:        "size-" + string(class),
			Label:     labels[class],
			Kind:      ItemSizeClass,
			SizeClass: class,
		})
	}
	m.Items = append(m.Items, Item{ID: RemoveItemID, Label: "Remove", Kind: ItemRemove})
	return m
}

// SizeMenu returns a builder that marks the card's current size class.
func SizeMenu(current func(cardID string) domain.SizeClass) Builder {
	return func(cardID string) Menu {
		m := DefaultItems(cardID)
		class := current(cardID)
		for i := range m.Items {
			m.Items[i].Checked = m.Items[i].Kind == ItemSizeClass && m.Items[i].SizeClass == class
		}
		return m
	}
}
