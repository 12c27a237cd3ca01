package search

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

// fakeES answers the handful of endpoints the indexer touches.
type fakeES struct {
	mu       sync.Mutex
	exists   bool
	calls    []string
	mapping  map[string]any
	docs     map[string]models.Product
	rejectID string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		_, _ = w.Write([]byte(`{"version":{"number":"9.0.0"}}`))
	case r.Method == http.MethodHead && r.URL.Path == "/products":
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/products":
		_ = json.NewDecoder(r.Body).Decode(&f.mapping)
		f.exists = true
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		f.bulk(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeES) bulk(w http.ResponseWriter, r *http.Request) {
	var items []map[string]any
	failed := false
	sc := bufio.NewScanner(r.Body)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var meta map[string]struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(sc.Bytes(), &meta); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !sc.Scan() {
			break
		}
		var p models.Product
		_ = json.Unmarshal(sc.Bytes(), &p)

		id := meta["index"].ID
		if id == f.rejectID {
			failed = true
			items = append(items, map[string]any{"index": map[string]any{
				"_id": id, "status": 400,
				"error": map[string]any{"type": "mapper_parsing_exception", "reason": "bad document"},
			}})
			continue
		}
		f.docs[id] = p
		items = append(items, map[string]any{"index": map[string]any{"_id": id, "status": 201, "result": "created"}})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"took": 1, "errors": failed, "items": items})
}

func (f *fakeES) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func newFakeES(t *testing.T, exists bool) (*fakeES, string) {
	t.Helper()
	f := &fakeES{exists: exists, docs: map[string]models.Product{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func TestNewElastic_CreatesMissingIndex(t *testing.T) {
	f, url := newFakeES(t, false)

	e, err := NewElastic(context.Background(), Config{URL: url, Index: "products"})
	require.NoError(t, err)
	assert.Equal(t, "products", e.Index)
	require.True(t, f.called("PUT /products"))

	props := f.mapping["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, "keyword", props["group_id"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["available"].(map[string]any)["type"])
	assert.Equal(t, "text", props["name"].(map[string]any)["type"])
}

func TestNewElastic_KeepsExistingIndex(t *testing.T) {
	f, url := newFakeES(t, true)

	_, err := NewElastic(context.Background(), Config{URL: url, Index: "products"})
	require.NoError(t, err)
	assert.True(t, f.called("HEAD /products"))
	assert.False(t, f.called("PUT /products"))
}

func TestElastic_Reindex(t *testing.T) {
	f, url := newFakeES(t, true)
	ctx := context.Background()
	e, err := NewElastic(ctx, Config{URL: url, Index: "products"})
	require.NoError(t, err)

	group := uuid.New()
	products := []models.Product{
		{ID: uuid.New(), Name: "Açaí", Price: 1500, Available: true, GroupID: &group},
		{ID: uuid.New(), Name: "Picolé", Price: 400},
	}
	require.NoError(t, e.Reindex(ctx, products))

	f.mu.Lock()
	indexed := len(f.docs)
	first := f.docs[products[0].ID.String()]
	f.mu.Unlock()
	assert.Equal(t, 2, indexed)
	assert.Equal(t, "Açaí", first.Name)
	assert.Equal(t, &group, first.GroupID)

	require.NoError(t, e.Reindex(ctx, nil))

	f.mu.Lock()
	f.rejectID = products[1].ID.String()
	f.mu.Unlock()
	err = e.Reindex(ctx, products)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
}
