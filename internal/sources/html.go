package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/microcosm-cc/bluemonday"

	"cardgrid/internal/domain"
)

type htmlData struct {
	HTML string `json:"html"`
}

// HTMLSource embeds user-supplied HTML after sanitizing it with the UGC policy.
type HTMLSource struct {
	policy *bluemonday.Policy
}

func NewHTMLSource() *HTMLSource {
	return &HTMLSource{policy: bluemonday.UGCPolicy()}
}

func (s *HTMLSource) Type() string  { return "html" }
func (s *HTMLSource) Title() string { return "Embed" }

func (s *HTMLSource) GetContent(_ context.Context, st State) (domain.CardContent, error) {
	var data htmlData
	if st.Data != "" {
		if err := json.Unmarshal([]byte(st.Data), &data); err != nil {
			return domain.CardContent{}, fmt.Errorf("html: parse state: %w", err)
		}
	}
	return domain.CardContent{
		CardID:     st.CardID,
		Title:      titleOr(st, s.Title()),
		BodyMarkup: s.policy.Sanitize(data.HTML),
	}, nil
}
