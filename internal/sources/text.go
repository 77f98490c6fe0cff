package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"cardgrid/internal/domain"
)

type textData struct {
	Text string `json:"text"`
}

// TextSource shows plain text, one paragraph per blank-line separated block.
type TextSource struct{}

func NewTextSource() *TextSource { return &TextSource{} }

func (s *TextSource) Type() string  { return "text" }
func (s *TextSource) Title() string { return "Text" }

func (s *TextSource) GetContent(_ context.Context, st State) (domain.CardContent, error) {
	var data textData
	if st.Data != "" {
		if err := json.Unmarshal([]byte(st.Data), &data); err != nil {
			return domain.CardContent{}, fmt.Errorf("text: parse state: %w", err)
		}
	}
	var b strings.Builder
	for _, para := range strings.Split(strings.TrimSpace(data.Text), "\n\n") {
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(para))
		b.WriteString("</p>")
	}
	return domain.CardContent{
		CardID:     st.CardID,
		Title:      titleOr(st, s.Title()),
		BodyMarkup: b.String(),
	}, nil
}
