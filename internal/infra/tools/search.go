package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSerperURL = "https://google.serper.dev/search"

// SerperClient calls the Serper Google search API.
type SerperClient struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client
}

func NewSerperClient(apiKey, endpoint string) *SerperClient {
	if endpoint == "" {
		endpoint = defaultSerperURL
	}
	return &SerperClient{APIKey: apiKey, Endpoint: endpoint, HTTP: &http.Client{Timeout: 20 * time.Second}}
}

type serperResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperResponse struct {
	Organic []serperResult `json:"organic"`
}

func (c *SerperClient) search(ctx context.Context, query string, n int) ([]serperResult, error) {
	payload, err := json.Marshal(map[string]any{"q": query, "num": n})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper status: %s", resp.Status)
	}
	var out serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}
	return out.Organic, nil
}

func formatResults(query string, results []serperResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n   Link: %s\n   Snippet: %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return b.String()
}

// SearchTool is a general internet search.
type SearchTool struct {
	Client *SerperClient
}

func (t *SearchTool) Name() string { return "search_internet" }

func (t *SearchTool) Description() string {
	return "Search the internet for market data, competitors and news about a company"
}

func (t *SearchTool) Parameters() map[string]any {
	return objectSchema("search_query", map[string]string{
		"search_query": "Query to search the internet with",
	})
}

func (t *SearchTool) Call(ctx context.Context, arguments string) string {
	q := stringArg(arguments, "search_query")
	if q == "" {
		return "Error: search_query is required"
	}
	results, err := t.Client.search(ctx, q, 10)
	if err != nil {
		return fmt.Sprintf("Search failed: %v", err)
	}
	return formatResults(q, results)
}

// WebsiteSearchTool searches within a single website.
type WebsiteSearchTool struct {
	Client *SerperClient
}

func (t *WebsiteSearchTool) Name() string { return "search_website" }

func (t *WebsiteSearchTool) Description() string {
	return "Search for content within a specific website"
}

func (t *WebsiteSearchTool) Parameters() map[string]any {
	return objectSchema("search_query", map[string]string{
		"search_query": "What to look for",
		"website":      "Website URL or domain to search in",
	})
}

func (t *WebsiteSearchTool) Call(ctx context.Context, arguments string) string {
	q := stringArg(arguments, "search_query")
	if q == "" {
		return "Error: search_query is required"
	}
	if site := siteHost(stringArg(arguments, "website")); site != "" {
		q = fmt.Sprintf("site:%s %s", site, q)
	}
	results, err := t.Client.search(ctx, q, 10)
	if err != nil {
		return fmt.Sprintf("Website search failed: %v", err)
	}
	return formatResults(q, results)
}

func siteHost(website string) string {
	if website == "" {
		return ""
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
