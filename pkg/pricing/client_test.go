package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "h-42", r.URL.Query().Get("hotelId"))
		assert.Equal(t, "2026-03-14", r.URL.Query().Get("checkIn"))
		assert.Equal(t, "4", r.URL.Query().Get("nights"))
		w.Write([]byte(`{"quotes":[{"vendor":"booking","total":480,"per_night":120,"currency":"usd"}]}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))
	checkIn := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	quotes, err := c.Quote(context.Background(), "h-42", checkIn, 4)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "booking", quotes[0].Vendor)
	assert.InDelta(t, 120, quotes[0].PerNight, 0.001)
}

func TestQuote_NoPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quotes":[]}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))
	quotes, err := c.Quote(context.Background(), "h-1", time.Now(), 2)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
