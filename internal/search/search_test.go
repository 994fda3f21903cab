package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/stores_api/internal/models"
)

type fakeCluster struct {
	mu      sync.Mutex
	docs    map[string][]byte
	lastReq map[string]any
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)

	case strings.HasPrefix(r.URL.Path, "/items/_doc/") && r.Method == http.MethodPut:
		id := strings.TrimPrefix(r.URL.Path, "/items/_doc/")
		body, _ := io.ReadAll(r.Body)
		f.docs[id] = body
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)

	case strings.HasPrefix(r.URL.Path, "/items/_doc/") && r.Method == http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Path, "/items/_doc/")
		if _, ok := f.docs[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		delete(f.docs, id)
		_, _ = io.WriteString(w, `{"result":"deleted"}`)

	case r.URL.Path == "/items/_search":
		_ = json.NewDecoder(r.Body).Decode(&f.lastReq)
		hits := make([]map[string]any, 0, len(f.docs))
		for _, raw := range f.docs {
			var src map[string]any
			_ = json.Unmarshal(raw, &src)
			hits = append(hits, map[string]any{"_source": src})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": len(hits)},
				"hits":  hits,
			},
		})

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{}`)
	}
}

func newTestIndex(t *testing.T) (*ElasticIndex, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{docs: map[string][]byte{}}
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)
	return NewElasticIndex(client, "items"), cluster
}

func TestElasticIndex_IndexSearchDelete(t *testing.T) {
	x, cluster := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, x.IndexItem(ctx, models.Item{ID: 7, Name: "Model3", Price: 35000, StoreID: 1}))
	assert.Contains(t, string(cluster.docs["7"]), `"name":"Model3"`)

	total, ids, err := x.SearchItems(ctx, "model", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []uint{7}, ids)
	assert.EqualValues(t, 10, cluster.lastReq["size"])

	require.NoError(t, x.DeleteItem(ctx, 7))
	require.NoError(t, x.DeleteItem(ctx, 7), "missing documents are ignored")
	assert.Empty(t, cluster.docs)
}

func TestNewClient_FailsWhenClusterErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"unauthorized"}`)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(context.Background(), Config{URL: srv.URL})
	require.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var x Index = Disabled{}
	ctx := context.Background()

	assert.NoError(t, x.IndexItem(ctx, models.Item{ID: 1}))
	assert.NoError(t, x.DeleteItem(ctx, 1))
	_, _, err := x.SearchItems(ctx, "q", 0, 10)
	assert.ErrorIs(t, err, ErrDisabled)
}
