package discuss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_RanksByScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "samana whale season", r.URL.Query().Get("q"))
		assert.Equal(t, "travel,solotravel", r.URL.Query().Get("subreddit"))
		w.Write([]byte(`{"data":[
			{"id":"p1","subreddit":"travel","title":"low","score":4},
			{"id":"p2","subreddit":"solotravel","title":"high","score":92}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	posts, err := c.Search(context.Background(), "samana whale season", []string{"travel", "solotravel"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID)
	assert.Equal(t, "p1", posts[1].ID)
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "q", nil)
	assert.Error(t, err)
}
