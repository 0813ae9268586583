package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunActorSync_DecodesItems(t *testing.T) {
	var gotPath string
	var gotInput map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotInput))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"abc","caption":"nice nails"},{"id":"def","caption":"book me"}]`))
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL), WithRateLimit(0))

	var items []struct {
		ID      string `json:"id"`
		Caption string `json:"caption"`
	}
	err := client.RunActorSync(context.Background(), "apify~instagram-hashtag-scraper",
		map[string]any{"hashtags": []string{"paznokcie"}}, &items)

	require.NoError(t, err)
	assert.Equal(t, "/acts/apify~instagram-hashtag-scraper/run-sync-get-dataset-items", gotPath)
	assert.Equal(t, []any{"paznokcie"}, gotInput["hashtags"])
	require.Len(t, items, 2)
	assert.Equal(t, "abc", items[0].ID)
	assert.Equal(t, "book me", items[1].Caption)
}

func TestRunActorSync_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"actor-not-found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL), WithRateLimit(0))

	var items []any
	err := client.RunActorSync(context.Background(), "nope~missing", map[string]any{}, &items)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestRunActorSync_MissingToken(t *testing.T) {
	client := NewClient("")

	var items []any
	err := client.RunActorSync(context.Background(), "any~actor", nil, &items)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing API token")
}
