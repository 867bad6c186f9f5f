package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTool_Search(t *testing.T) {
	type captured struct {
		auth string
		path string
		body tavilyRequest
	}
	seen := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{auth: r.Header.Get("Authorization"), path: r.URL.Path}
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		seen <- c
		_, _ = w.Write([]byte(`{"query":"Kolkata","results":[
			{"title":"Kolkata","url":"https://en.wikipedia.org/wiki/Kolkata","content":"<p>Kolkata is the <b>capital</b> of West Bengal.</p>","score":0.98},
			{"title":"Visit","url":"https://example.com/kolkata","content":"City of Joy","score":0.91},
			{"title":"Extra","url":"https://example.com/extra","content":"dropped","score":0.5}
		]}`))
	}))
	defer srv.Close()

	tool := NewSearchTool(context.Background(), SearchOptions{
		BaseURL:    srv.URL,
		APIKey:     "tvly-key",
		MaxResults: 2,
		Depth:      "advanced",
		MaxTokens:  1000,
	})

	results, err := tool.Search(context.Background(), "Kolkata")
	require.NoError(t, err)

	c := <-seen
	assert.Equal(t, "/search", c.path)
	assert.Equal(t, "Bearer tvly-key", c.auth)
	assert.Equal(t, tavilyRequest{Query: "Kolkata", MaxResults: 2, SearchDepth: "advanced", MaxTokens: 1000}, c.body)

	require.Len(t, results, 2)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Kolkata", results[0].URL)
	assert.Equal(t, "Kolkata is the capital of West Bengal.", results[0].Content)
	assert.Equal(t, "City of Joy", results[1].Content)
}

func TestSearchTool_ExecuteTrimsContent(t *testing.T) {
	long := strings.Repeat("a", 5000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"url":"https://example.com","content":"` + long + `"}]}`))
	}))
	defer srv.Close()

	tool := NewSearchTool(context.Background(), SearchOptions{BaseURL: srv.URL, APIKey: "k", MaxResults: 2, MaxTokens: 100})

	out, err := tool.Execute(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)

	var results []SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, 100*charsPerToken/2+len("..."), len(results[0].Content))
}

func TestSearchTool_ProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"error":"Unauthorized: missing or invalid API key."}}`))
	}))
	defer srv.Close()

	tool := NewSearchTool(context.Background(), SearchOptions{BaseURL: srv.URL, APIKey: "bad"})
	_, err := tool.Search(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestSearchTool_Defaults(t *testing.T) {
	tool := NewSearchTool(context.Background(), SearchOptions{BaseURL: "https://api.tavily.com/", APIKey: "k"})
	assert.Equal(t, "https://api.tavily.com", tool.opts.BaseURL)
	assert.Equal(t, 2, tool.opts.MaxResults)
	assert.Equal(t, "advanced", tool.opts.Depth)
	assert.Equal(t, "search_web", tool.Name())
}
