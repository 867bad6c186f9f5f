package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	searchTimeout   = 60 * time.Second
	searchLogPrefix = "[search]"

	// charsPerToken approximates provider tokens when trimming result content.
	charsPerToken = 4
)

// SearchResult is one hit returned to the model.
type SearchResult struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchOptions configures the Tavily search tool.
type SearchOptions struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Depth      string
	MaxTokens  int
}

// SearchTool queries the Tavily search API.
type SearchTool struct {
	opts       SearchOptions
	httpClient *http.Client
}

type tavilyRequest struct {
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
	MaxTokens   int    `json:"max_tokens,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// NewSearchTool creates a search tool. The API key is sent as a bearer token
// by an oauth2 client; an *http.Client stored in ctx under oauth2.HTTPClient
// is used as the underlying transport.
func NewSearchTool(ctx context.Context, opts SearchOptions) *SearchTool {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.MaxResults <= 0 {
		opts.MaxResults = 2
	}
	if opts.Depth == "" {
		opts.Depth = "advanced"
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: opts.APIKey,
		TokenType:   "Bearer",
	}))
	client.Timeout = searchTimeout

	return &SearchTool{opts: opts, httpClient: client}
}

func (s *SearchTool) Name() string {
	return "search_web"
}

func (s *SearchTool) Description() string {
	return "Search the web for a query"
}

func (s *SearchTool) Parameters() *jsonschema.Schema {
	return queryParameters("The search query, passed to the search engine unchanged")
}

func (s *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := stringArg(args, "query")
	if !ok {
		return "", fmt.Errorf("query is required")
	}

	results, err := s.Search(ctx, query)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshaling results: %w", err)
	}
	return string(out), nil
}

// Search runs one query and returns at most MaxResults hits.
func (s *SearchTool) Search(ctx context.Context, query string) ([]SearchResult, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:       query,
		MaxResults:  s.opts.MaxResults,
		SearchDepth: s.opts.Depth,
		MaxTokens:   s.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	zap.S().Debugf("%s query %q depth=%s max_results=%d", searchLogPrefix, query, s.opts.Depth, s.opts.MaxResults)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: search: reading response: %w", ErrProviderUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: search: HTTP %d: %s", ErrProviderUnavailable, resp.StatusCode, truncateText(string(raw), 200))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: search: parsing response: %w", ErrProviderUnavailable, err)
	}

	budget := 0
	if s.opts.MaxTokens > 0 {
		budget = s.opts.MaxTokens * charsPerToken / s.opts.MaxResults
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if len(results) == s.opts.MaxResults {
			break
		}
		results = append(results, SearchResult{
			URL:     r.URL,
			Content: truncateText(htmlToText(r.Content), budget),
		})
	}

	zap.S().Debugf("%s %d results for %q", searchLogPrefix, len(results), query)
	return results, nil
}
