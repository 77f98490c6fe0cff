package sources_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardgrid/internal/sources"
)

func feedState(t *testing.T, v map[string]any) sources.State {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return sources.State{CardID: "f1", Data: string(data)}
}

// ─────────────────────────────────────────────────────────────
// Feed source
// ─────────────────────────────────────────────────────────────

func TestFeedSource_HTTPTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer x", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data":{"items":[{"name":"api","p95":120,"tags":["a"]},{"name":"db","p95":8}]}}`))
	}))
	defer srv.Close()

	src := sources.NewFeedSource()
	src.Client = srv.Client()
	c, err := src.GetContent(context.Background(), feedState(t, map[string]any{
		"url":      srv.URL,
		"headers":  map[string]string{"Authorization": "Bearer x"},
		"dataPath": "data.items",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Feed", c.Title)
	assert.Equal(t,
		`<table class="feed"><thead><tr><th>name</th><th>p95</th></tr></thead><tbody>`+
			`<tr><td>api</td><td>120</td></tr><tr><td>db</td><td>8</td></tr></tbody></table>`,
		c.BodyMarkup)
}

func TestFeedSource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	src := sources.NewFeedSource()
	src.Client = srv.Client()
	_, err := src.GetContent(context.Background(), feedState(t, map[string]any{"url": srv.URL}))
	assert.EqualError(t, err, "feed: http 502: nope")
}

func TestFeedSource_FileScalar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"series":[{"v":1},{"v":42.5}]}`), 0o644))

	c, err := sources.NewFeedSource().GetContent(context.Background(), feedState(t, map[string]any{
		"file":     path,
		"dataPath": "series.1.v",
	}))
	require.NoError(t, err)
	assert.Equal(t, `<div class="metric"><span class="metric-value">42.5</span></div>`, c.BodyMarkup)
}

func TestFeedSource_ColumnsAndLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"a":1,"b":"<x>"},{"a":2,"b":"y"},{"a":3,"b":"z"}]`), 0o644))

	c, err := sources.NewFeedSource().GetContent(context.Background(), feedState(t, map[string]any{
		"file":    path,
		"columns": []string{"b"},
		"limit":   2,
	}))
	require.NoError(t, err)
	assert.Equal(t,
		`<table class="feed"><thead><tr><th>b</th></tr></thead><tbody><tr><td>&lt;x&gt;</td></tr><tr><td>y</td></tr></tbody></table>`,
		c.BodyMarkup)
}

func TestFeedSource_Errors(t *testing.T) {
	src := sources.NewFeedSource()

	_, err := src.GetContent(context.Background(), sources.State{CardID: "f1"})
	assert.EqualError(t, err, "feed: url or file is required")

	path := filepath.Join(t.TempDir(), "obj.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o644))
	_, err = src.GetContent(context.Background(), feedState(t, map[string]any{"file": path, "dataPath": "b"}))
	assert.ErrorContains(t, err, `"b" not found`)
}
