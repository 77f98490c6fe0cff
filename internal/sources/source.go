// Package sources holds the content sources that produce card content.
//
// The dashboard core never knows how a card's content is computed. It asks the
// source registered for the card's type for a domain.CardContent and hands the
// result to the render pipeline.
package sources

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cardgrid/internal/domain"
)

// State is what a source gets to build one card's content.
type State struct {
	CardID string
	Title  string // user-chosen title; empty means use the source title
	Data   string // source-specific JSON stored with the card
}

// Source is the contract for a card content producer.
type Source interface {
	// Type returns the card type this source handles (e.g. "markdown").
	Type() string
	// Title returns the default title for cards of this type.
	Title() string
	// GetContent builds the card content. It must not keep references to the
	// returned value.
	GetContent(ctx context.Context, st State) (domain.CardContent, error)
}

// Registry maps card types to their sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source. Panics on duplicate registration.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := s.Type()
	if _, exists := r.sources[t]; exists {
		panic(fmt.Sprintf("source registry: duplicate registration for card type %q", t))
	}
	r.sources[t] = s
}

// Get returns the source for a card type.
func (r *Registry) Get(cardType string) (Source, error) {
	r.mu.RLock()
	s, ok := r.sources[cardType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no content source for card type %q", cardType)
	}
	return s, nil
}

// Types lists registered card types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for t := range r.sources {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Defaults returns a registry with every built-in source.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(NewMarkdownSource())
	r.Register(NewHTMLSource())
	r.Register(NewMetricSource())
	r.Register(NewTextSource())
	r.Register(NewFeedSource())
	return r
}

// titleOr returns the user title when set, else the fallback.
func titleOr(st State, fallback string) string {
	if st.Title != "" {
		return st.Title
	}
	return fallback
}
