package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// googleMaxNum is the largest page size the Custom Search API accepts.
const googleMaxNum = 10

// GoogleSearchTool serves search_web from Google Programmable Search.
type GoogleSearchTool struct {
	service    *customsearch.Service
	cx         string
	maxResults int
}

// NewGoogleSearchTool creates the tool. endpoint may be empty to use the
// public API; extra client options are appended after the defaults.
func NewGoogleSearchTool(ctx context.Context, apiKey, cx, endpoint string, maxResults int, extra ...option.ClientOption) (*GoogleSearchTool, error) {
	if cx == "" {
		return nil, fmt.Errorf("search engine id is required")
	}
	if maxResults <= 0 {
		maxResults = 2
	}
	maxResults = min(maxResults, googleMaxNum)

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	opts = append(opts, extra...)

	service, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating customsearch service: %w", err)
	}

	return &GoogleSearchTool{service: service, cx: cx, maxResults: maxResults}, nil
}

func (g *GoogleSearchTool) Name() string {
	return "search_web"
}

func (g *GoogleSearchTool) Description() string {
	return "Search the web for a query"
}

func (g *GoogleSearchTool) Parameters() *jsonschema.Schema {
	return queryParameters("The search query, passed to the search engine unchanged")
}

func (g *GoogleSearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := stringArg(args, "query")
	if !ok {
		return "", fmt.Errorf("query is required")
	}

	results, err := g.Search(ctx, query)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("marshaling results: %w", err)
	}
	return string(out), nil
}

// Search runs one query against the configured search engine.
func (g *GoogleSearchTool) Search(ctx context.Context, query string) ([]SearchResult, error) {
	resp, err := g.service.Cse.List().
		Cx(g.cx).
		Q(query).
		Num(int64(g.maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: google search: %w", ErrProviderUnavailable, err)
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if len(results) == g.maxResults {
			break
		}
		content := htmlToText(item.HtmlSnippet)
		if content == "" {
			content = item.Snippet
		}
		results = append(results, SearchResult{URL: item.Link, Content: content})
	}

	zap.S().Debugf("%s google returned %d results for %q", searchLogPrefix, len(results), query)
	return results, nil
}
