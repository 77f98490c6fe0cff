package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	cardsURI      = "cardgrid://cards"
	specURI       = "cardgrid://spec"
	cardURIPrefix = "cardgrid://card/"
)

func (s *Server) registerResources() {
	// ── cardgrid://cards ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		cardsURI,
		"All Cards",
		mcp.WithMIMEType("application/json"),
	), s.handleCardsResource)

	// ── cardgrid://spec ────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		specURI,
		"Grid Spec",
		mcp.WithMIMEType("application/json"),
	), s.handleSpecResource)

	// ── cardgrid://card/{cardId} ───────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			cardURIPrefix+"{cardId}",
			"Rendered Card",
		),
		s.handleCardResource,
	)
}

func (s *Server) handleCardsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	summaries, err := s.listSummaries(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(cardsURI, summaries)
}

func (s *Server) handleSpecResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	spec, err := s.dashboard.Spec(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(specURI, spec)
}

// handleCardResource returns a card's final markup.
func (s *Server) handleCardResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	cardID := strings.TrimPrefix(uri, cardURIPrefix)
	if cardID == "" || cardID == uri {
		return nil, fmt.Errorf("could not extract cardId from URI: %s", uri)
	}
	st, err := s.dashboard.State(ctx)
	if err != nil {
		return nil, err
	}
	for _, rc := range st.Cards {
		if rc.Placement.ID == cardID {
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      uri,
					MIMEType: "text/html",
					Text:     rc.Markup,
				},
			}, nil
		}
	}
	return nil, fmt.Errorf("card %s is not rendered", cardID)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
