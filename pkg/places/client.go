package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"

	"github.com/wanderplan/trip-cli/internal/resilience"
)

// Place is a candidate returned by the place-lookup collaborator. The
// stable ID is one of the three acceptable evidence types.
type Place struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	PhotoRef    string   `json:"photo_ref,omitempty"`
	Types       []string `json:"types,omitempty"`
}

// LocationBias narrows a search to the vicinity of a point.
type LocationBias struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// Client is the place-lookup collaborator.
type Client interface {
	Search(ctx context.Context, query string, bias *LocationBias) ([]Place, error)
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

// WithCacheTTL overrides the default 24h cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *httpClient) {
		c.cache = gocache.New(ttl, ttl)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cache   *gocache.Cache
}

// NewClient creates a place-lookup client with a TTL response cache.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://places.googleapis.com/v1",
		http:    &http.Client{Timeout: 20 * time.Second},
		cache:   gocache.New(24*time.Hour, time.Hour),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchResponse struct {
	Places []Place `json:"places"`
}

func (c *httpClient) Search(ctx context.Context, query string, bias *LocationBias) ([]Place, error) {
	key := cacheKey(query, bias)
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]Place), nil
	}

	q := url.Values{"query": {query}, "key": {c.apiKey}}
	if bias != nil {
		q.Set("bias", fmt.Sprintf("%f,%f,%f", bias.Lat, bias.Lon, bias.RadiusKm))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/places:search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: send request")
	}
	defer resp.Body.Close()

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("places: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read body")
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "places: decode body")
	}

	c.cache.SetDefault(key, sr.Places)
	return sr.Places, nil
}

func cacheKey(query string, bias *LocationBias) string {
	if bias == nil {
		return query
	}
	return fmt.Sprintf("%s@%.3f,%.3f", query, bias.Lat, bias.Lon)
}
