package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"cardgrid/internal/domain"
)

// ── Feed Source ─────────────────────────────────────────────
// Shows JSON fetched from a REST endpoint or read from a local file: a single
// value as a big number, an array of objects as a table. Cards of this type
// usually carry a refresh schedule.

const defaultFeedRows = 10

type feedData struct {
	URL      string            `json:"url"`
	File     string            `json:"file"`
	Method   string            `json:"method"`
	Headers  map[string]string `json:"headers"`
	Body     string            `json:"body"`
	DataPath string            `json:"dataPath"` // dot-separated path into the document
	Columns  []string          `json:"columns"`  // table columns; default all scalar keys
	Limit    int               `json:"limit"`    // table rows; default 10
}

// FeedSource renders remote or local JSON.
type FeedSource struct {
	Client *http.Client
}

func NewFeedSource() *FeedSource {
	return &FeedSource{Client: &http.Client{Timeout: 30 * time.Second}}
}

func (s *FeedSource) Type() string  { return "feed" }
func (s *FeedSource) Title() string { return "Feed" }

func (s *FeedSource) GetContent(ctx context.Context, st State) (domain.CardContent, error) {
	var data feedData
	if st.Data != "" {
		if err := json.Unmarshal([]byte(st.Data), &data); err != nil {
			return domain.CardContent{}, fmt.Errorf("feed: parse state: %w", err)
		}
	}

	raw, err := s.load(ctx, data)
	if err != nil {
		return domain.CardContent{}, fmt.Errorf("feed: %w", err)
	}
	if data.DataPath != "" {
		if raw, err = navigatePath(raw, data.DataPath); err != nil {
			return domain.CardContent{}, fmt.Errorf("feed: %w", err)
		}
	}

	var body string
	switch v := raw.(type) {
	case []any:
		body = feedTable(v, data.Columns, data.Limit)
	case map[string]any:
		body = feedTable([]any{v}, data.Columns, 1)
	default:
		body = `<div class="metric"><span class="metric-value">` + html.EscapeString(scalarText(v)) + `</span></div>`
	}

	return domain.CardContent{
		CardID:     st.CardID,
		Title:      titleOr(st, s.Title()),
		BodyMarkup: body,
	}, nil
}

func (s *FeedSource) load(ctx context.Context, data feedData) (any, error) {
	var (
		payload []byte
		err     error
	)
	switch {
	case data.URL != "":
		payload, err = s.fetch(ctx, data)
	case data.File != "":
		payload, err = os.ReadFile(data.File)
		if err != nil {
			err = fmt.Errorf("read file: %w", err)
		}
	default:
		return nil, fmt.Errorf("url or file is required")
	}
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return raw, nil
}

func (s *FeedSource) fetch(ctx context.Context, data feedData) ([]byte, error) {
	method := data.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if data.Body != "" {
		body = strings.NewReader(data.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, data.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range data.Headers {
		req.Header.Set(k, v)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return payload, nil
}

// navigatePath walks a dot-separated path into nested objects. Numeric parts
// index into arrays.
func navigatePath(obj any, path string) (any, error) {
	current := obj
	for _, part := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[part]
			if !ok {
				return nil, fmt.Errorf("data path: %q not found", part)
			}
			current = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("data path: bad index %q", part)
			}
			current = v[i]
		default:
			return nil, fmt.Errorf("data path: %q is not inside an object", part)
		}
	}
	return current, nil
}

func feedTable(items []any, columns []string, limit int) string {
	if limit <= 0 {
		limit = defaultFeedRows
	}
	rows := lo.FilterMap(items, func(it any, _ int) (map[string]any, bool) {
		m, ok := it.(map[string]any)
		return m, ok
	})
	if len(rows) == 0 {
		return `<div class="feed-empty">No data</div>`
	}
	if len(columns) == 0 {
		columns = scalarKeys(rows[0])
	}

	var b strings.Builder
	b.WriteString(`<table class="feed"><thead><tr>`)
	for _, c := range columns {
		b.WriteString("<th>" + html.EscapeString(c) + "</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range lo.Slice(rows, 0, limit) {
		b.WriteString("<tr>")
		for _, c := range columns {
			b.WriteString("<td>" + html.EscapeString(scalarText(row[c])) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// scalarKeys returns the sorted keys of m whose values are not objects or arrays.
func scalarKeys(m map[string]any) []string {
	keys := lo.Filter(lo.Keys(m), func(k string, _ int) bool {
		switch m[k].(type) {
		case map[string]any, []any:
			return false
		}
		return true
	})
	sort.Strings(keys)
	return keys
}

func scalarText(v any) string {
	switch x := v.(type) {
	case nil:
		return "–"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}
