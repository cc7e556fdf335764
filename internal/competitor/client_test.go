package competitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prices" {
			t.Errorf("expected path /prices, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_key"); got != "secret" {
			t.Errorf("expected api_key secret, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "Trail Boots", "price": 4500},
			{"name": "Sun Hat", "price": 899.99}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	snapshot, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot, 2)

	assert.Equal(t, "Trail Boots", snapshot[0].Name)
	assert.Equal(t, int64(4500), snapshot[0].Price)
	// Fractional prices are truncated to minor units.
	assert.Equal(t, int64(899), snapshot[1].Price)
}

func TestFetchSnapshot_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	_, err := client.FetchSnapshot(context.Background())
	assert.Error(t, err)
}

func TestFetchSnapshot_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "secret")
	_, err := client.FetchSnapshot(context.Background())
	assert.Error(t, err)
}

func TestFetchSnapshot_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret")
	snapshot, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}
