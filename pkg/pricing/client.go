package pricing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/wanderplan/trip-cli/internal/resilience"
)

// VendorPrice is one vendor's quote for a stay. A vendor that returns no
// price is simply omitted; callers must treat a missing quote as unknown,
// never as zero.
type VendorPrice struct {
	Vendor   string  `json:"vendor"`
	Total    float64 `json:"total"`
	PerNight float64 `json:"per_night"`
	Currency string  `json:"currency"`
}

// Client is the hotel-pricing collaborator.
type Client interface {
	Quote(ctx context.Context, entityID string, checkIn time.Time, nights int) ([]VendorPrice, error)
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
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a pricing client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://engine.hotellook.com/api/v2",
		http:    &http.Client{Timeout: 20 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type quoteResponse struct {
	Quotes []VendorPrice `json:"quotes"`
}

func (c *httpClient) Quote(ctx context.Context, entityID string, checkIn time.Time, nights int) ([]VendorPrice, error) {
	q := url.Values{
		"hotelId":  {entityID},
		"checkIn":  {checkIn.Format("2006-01-02")},
		"nights":   {strconv.Itoa(nights)},
		"token":    {c.apiKey},
		"currency": {"usd"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/lookup.json?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pricing: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pricing: send request")
	}
	defer resp.Body.Close()

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("pricing: status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("pricing: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pricing: read body")
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, eris.Wrap(err, "pricing: decode body")
	}

	return qr.Quotes, nil
}
