package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fogfish/opts"
	"github.com/goccy/go-json"
)

const instantAnswerURL = "https://api.duckduckgo.com/"

var (
	// WithHTTPClient replaces the HTTP client used for instant answer calls.
	WithHTTPClient = opts.ForName[DuckDuckGo, *http.Client]("httpClient")
	// WithBaseURL points the client at a different endpoint, mostly for tests.
	WithBaseURL = opts.ForName[DuckDuckGo, string]("baseURL")
)

// DuckDuckGo queries the DuckDuckGo instant answer API. It needs no API key;
// answers come from abstracts and related topics rather than full web
// crawls, so result lists are short.
type DuckDuckGo struct {
	httpClient *http.Client
	baseURL    string
}

var _ Client = (*DuckDuckGo)(nil)

func NewDuckDuckGo(options ...opts.Option[DuckDuckGo]) *DuckDuckGo {
	ddg := &DuckDuckGo{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    instantAnswerURL,
	}
	if err := opts.Apply(ddg, options); err != nil {
		panic(err)
	}
	return ddg
}

// instantAnswer is the subset of the API response the client consumes.
// RelatedTopics also carries nested topic groups; those decode with an empty
// Text and are skipped.
type instantAnswer struct {
	Heading       string        `json:"Heading"`
	Abstract      string        `json:"Abstract"`
	AbstractURL   string        `json:"AbstractURL"`
	Results       []answerTopic `json:"Results"`
	RelatedTopics []answerTopic `json:"RelatedTopics"`
}

type answerTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]Result, error) {
	u, err := url.Parse(d.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search endpoint: %w", err)
	}

	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("nohtml", "1")
	q.Set("noredirect", "1")
	q.Set("skip_disambig", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode duckduckgo response: %w", err)
	}

	return answer.results(query, max), nil
}

// News searches the instant answer API with a news-biased query. DuckDuckGo
// has no dedicated news endpoint without an API key.
func (d *DuckDuckGo) News(ctx context.Context, query string, max int) ([]Result, error) {
	return d.Search(ctx, query+" news", max)
}

// results maps the instant answer shape into the common Result form.
// Direct results win; the abstract fills in when there are none; related
// topics pad out the tail.
func (a instantAnswer) results(query string, max int) []Result {
	out := make([]Result, 0, max)

	for _, r := range a.Results {
		out = append(out, Result{Title: r.Text, URL: r.FirstURL, Snippet: r.Text})
	}

	if len(out) == 0 && a.Abstract != "" {
		title := a.Heading
		if title == "" {
			title = query
		}
		link := a.AbstractURL
		if link == "" {
			link = "https://duckduckgo.com/?q=" + url.QueryEscape(query)
		}
		out = append(out, Result{Title: title, URL: link, Snippet: a.Abstract})
	}

	for _, topic := range a.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		out = append(out, Result{Title: topic.Text, URL: topic.FirstURL, Snippet: topic.Text})
	}

	if len(out) > max {
		out = out[:max]
	}
	return out
}
