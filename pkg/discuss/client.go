package discuss

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wanderplan/trip-cli/internal/resilience"
)

// Post is a ranked discussion-forum post. Posts build Evidence only; a
// single post is never treated as verified fact on its own.
type Post struct {
	ID        string  `json:"id"`
	Community string  `json:"community"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	URL       string  `json:"url"`
	Score     float64 `json:"score"`
}

// Client is the discussion-search collaborator.
type Client interface {
	Search(ctx context.Context, query string, communities []string) ([]Post, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a discussion-search client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.pullpush.io",
		http:    &http.Client{Timeout: 20 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Data []struct {
		ID        string  `json:"id"`
		Subreddit string  `json:"subreddit"`
		Title     string  `json:"title"`
		Selftext  string  `json:"selftext"`
		Permalink string  `json:"permalink"`
		Score     float64 `json:"score"`
	} `json:"data"`
}

func (c *httpClient) Search(ctx context.Context, query string, communities []string) ([]Post, error) {
	q := url.Values{
		"q":    {query},
		"size": {"25"},
	}
	if len(communities) > 0 {
		q.Set("subreddit", strings.Join(communities, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reddit/search/submission/?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "discuss: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "discuss: send request")
	}
	defer resp.Body.Close()

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("discuss: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("discuss: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "discuss: read body")
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "discuss: decode body")
	}

	posts := make([]Post, 0, len(sr.Data))
	for _, d := range sr.Data {
		posts = append(posts, Post{
			ID:        d.ID,
			Community: d.Subreddit,
			Title:     d.Title,
			Body:      d.Selftext,
			URL:       d.Permalink,
			Score:     d.Score,
		})
	}

	// Rank best-scored first.
	sort.Slice(posts, func(i, j int) bool { return posts[i].Score > posts[j].Score })
	return posts, nil
}
