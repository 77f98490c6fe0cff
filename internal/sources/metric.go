package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strconv"

	"cardgrid/internal/domain"
)

// metricRanges are the time windows a metric card can show.
var metricRanges = []string{"1h", "24h", "7d", "30d"}

type metricData struct {
	Label  string    `json:"label"`
	Unit   string    `json:"unit"`
	Range  string    `json:"range"`
	Values []float64 `json:"values"`
}

// MetricSource shows the latest value of a series. It produces its title
// and range selector inside a header wrapper, the way the older card widgets
// did, and relies on the render pipeline to unwrap it.
type MetricSource struct {
	// OnRangeChange is attached to the range selector of every card.
	OnRangeChange func(cardID, value string)
}

func NewMetricSource() *MetricSource { return &MetricSource{} }

func (s *MetricSource) Type() string  { return "metric" }
func (s *MetricSource) Title() string { return "Metric" }

func (s *MetricSource) GetContent(_ context.Context, st State) (domain.CardContent, error) {
	var data metricData
	if st.Data != "" {
		if err := json.Unmarshal([]byte(st.Data), &data); err != nil {
			return domain.CardContent{}, fmt.Errorf("metric: parse state: %w", err)
		}
	}
	if data.Range == "" {
		data.Range = metricRanges[1]
	}

	value := "–"
	if n := len(data.Values); n > 0 {
		value = strconv.FormatFloat(data.Values[n-1], 'f', -1, 64)
	}
	body := fmt.Sprintf(`<div class="metric"><span class="metric-value">%s</span><span class="metric-unit">%s</span><span class="metric-label">%s</span></div>`,
		html.EscapeString(value), html.EscapeString(data.Unit), html.EscapeString(data.Label))

	rangeCtl := domain.Control{
		Kind:    domain.ControlSelect,
		ID:      st.CardID + "-range",
		Label:   "Range",
		Value:   data.Range,
		Options: append([]string(nil), metricRanges...),
	}
	if s.OnRangeChange != nil {
		cardID := st.CardID
		rangeCtl.OnChange = func(v string) { s.OnRangeChange(cardID, v) }
	}

	return domain.CardContent{
		CardID:     st.CardID,
		BodyMarkup: body,
		Header: &domain.HeaderBlock{
			Title:    titleOr(st, s.Title()),
			Controls: []domain.Control{rangeCtl},
		},
	}, nil
}
