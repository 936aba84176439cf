// Package websearch provides the web search agent: skills for general web
// and news searches over a pluggable search client, with a DuckDuckGo
// instant answer implementation as the default collaborator.
package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/casualjim/aviary/agent"
	"github.com/casualjim/aviary/skill"
)

// Result is one search hit in the shape every client maps to.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Client is the external search collaborator. Implementations return at
// most max results and surface failures as errors; the agent converts those
// into structured error responses.
type Client interface {
	Search(ctx context.Context, query string, max int) ([]Result, error)
	News(ctx context.Context, query string, max int) ([]Result, error)
}

const (
	defaultResults = 5
	maxResultCount = 10

	searchSnippetLen = 200
	newsSnippetLen   = 250
)

// New assembles the web search agent over client. A nil client gets the
// DuckDuckGo instant answer implementation.
func New(client Client) agent.Agent {
	if client == nil {
		client = NewDuckDuckGo()
	}
	ws := &webSearch{client: client}

	return agent.New(
		agent.Name("web_search_agent"),
		agent.Description("Performs web searches using DuckDuckGo and returns relevant results"),
		agent.Skills(
			skill.Must(ws.searchWeb,
				skill.Name("search_web"),
				skill.Description("Search the web using DuckDuckGo and return relevant results"),
				skill.Parameters("query", "max_results"),
				skill.Optional("max_results"),
			),
			skill.Must(ws.searchNews,
				skill.Name("search_news"),
				skill.Description("Search for recent news articles using DuckDuckGo"),
				skill.Parameters("query", "max_results"),
				skill.Optional("max_results"),
			),
		),
	)
}

type webSearch struct {
	client Client
}

func (w *webSearch) searchWeb(ctx context.Context, query string, maxResults int) (string, error) {
	n := clampResults(maxResults)
	slog.InfoContext(ctx, "searching web",
		slog.String("query", query),
		slog.Int("max_results", n),
	)

	results, err := w.client.Search(ctx, query, n)
	if err != nil {
		return "", fmt.Errorf("could not retrieve search results for %q: %w", query, err)
	}
	return formatSearchResults(query, results, n), nil
}

func (w *webSearch) searchNews(ctx context.Context, query string, maxResults int) (string, error) {
	n := clampResults(maxResults)
	slog.InfoContext(ctx, "searching news",
		slog.String("query", query),
		slog.Int("max_results", n),
	)

	results, err := w.client.News(ctx, query, n)
	if err != nil {
		return "", fmt.Errorf("could not retrieve news results for %q: %w", query, err)
	}
	return formatNewsResults(query, results, n), nil
}

// clampResults bounds the result count to 1..10, treating zero and below as
// the unset default.
func clampResults(n int) int {
	switch {
	case n <= 0:
		return defaultResults
	case n > maxResultCount:
		return maxResultCount
	default:
		return n
	}
}

func formatSearchResults(query string, results []Result, max int) string {
	if len(results) == 0 {
		return fmt.Sprintf("🔍 No search results found for '%s'. Please try a different search term.", query)
	}
	if len(results) > max {
		results = results[:max]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Top %d search results for **%s**:\n\n", len(results), query)
	for _, r := range results {
		fmt.Fprintf(&b, "🔸 **%s**\n", titleOrDefault(r.Title))
		if len(r.Snippet) > 10 {
			fmt.Fprintf(&b, "   📝 %s\n", truncate(r.Snippet, searchSnippetLen))
		}
		fmt.Fprintf(&b, "   🔗 %s\n\n", urlOrDefault(r.URL))
	}
	return b.String()
}

func formatNewsResults(query string, results []Result, max int) string {
	if len(results) == 0 {
		return fmt.Sprintf("📰 No news results found for '%s'. Please try a different search term.", query)
	}
	if len(results) > max {
		results = results[:max]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 Latest news about **%s** (%d articles):\n\n", query, len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "📄 **%s**\n", titleOrDefault(r.Title))
		if len(r.Snippet) > 10 {
			fmt.Fprintf(&b, "   📋 %s\n", truncate(r.Snippet, newsSnippetLen))
		}
		fmt.Fprintf(&b, "   🔗 %s\n\n", urlOrDefault(r.URL))
	}
	return b.String()
}

func titleOrDefault(title string) string {
	if title == "" {
		return "No Title"
	}
	return title
}

func urlOrDefault(u string) string {
	if u == "" {
		return "#"
	}
	return u
}

// truncate shortens s to at most n runes, appending an ellipsis when it cut
// something off.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
