package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"cardgrid/internal/domain"
)

// markdownData is the card state for markdown notes.
type markdownData struct {
	Text string `json:"text"`
}

// MarkdownSource renders a note written in GitHub-flavoured markdown.
type MarkdownSource struct {
	md goldmark.Markdown
}

func NewMarkdownSource() *MarkdownSource {
	return &MarkdownSource{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (s *MarkdownSource) Type() string  { return "markdown" }
func (s *MarkdownSource) Title() string { return "Note" }

func (s *MarkdownSource) GetContent(_ context.Context, st State) (domain.CardContent, error) {
	var data markdownData
	if st.Data != "" {
		if err := json.Unmarshal([]byte(st.Data), &data); err != nil {
			return domain.CardContent{}, fmt.Errorf("markdown: parse state: %w", err)
		}
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(data.Text), &buf); err != nil {
		return domain.CardContent{}, fmt.Errorf("markdown: convert: %w", err)
	}
	return domain.CardContent{
		CardID:     st.CardID,
		Title:      titleOr(st, s.Title()),
		BodyMarkup: buf.String(),
	}, nil
}
