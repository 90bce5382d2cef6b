package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aretw0/assetflow/pkg/adapters/api"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type asset struct {
	ID     string  `json:"id"`
	Tag    string  `json:"asset_tag"`
	Status string  `json:"status"`
	Cost   float64 `json:"purchase_cost"`
}

var _ ports.DataAPIClient[asset] = (*api.Client[asset])(nil)

type fakeAPI struct {
	mu       sync.Mutex
	lastBody map[string]any
	lastURL  string
	auth     string
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastURL = r.URL.String()
	f.auth = r.Header.Get("Authorization")
	f.lastBody = nil
	_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
}

func (f *fakeAPI) snapshot() (body map[string]any, url, auth string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody, f.lastURL, f.auth
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newServer(t *testing.T) (*fakeAPI, *httptest.Server) {
	f := &fakeAPI{}
	r := chi.NewRouter()
	r.Route("/api/assets", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
				"assets": []any{
					map[string]any{"id": "a1", "asset_tag": "AST-1001", "status": "active", "purchase_cost": 1200},
					map[string]any{"id": "a2", "asset_tag": "AST-1002", "status": "retired", "purchase_cost": "80.5"},
				},
				"total": 42,
			}})
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			body, _, _ := f.snapshot()
			body["id"] = "new"
			writeJSON(w, http.StatusCreated, map[string]any{"data": body})
		})
		r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			body, _, _ := f.snapshot()
			writeJSON(w, http.StatusOK, map[string]any{"id": chi.URLParam(r, "id"), "status": body["status"]})
		})
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			if chi.URLParam(r, "id") == "locked" {
				writeJSON(w, http.StatusConflict, map[string]any{"error": map[string]any{"message": "asset is checked out"}})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/bulk-update", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/bulk-delete", func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"deleted": 2}})
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestClient_List(t *testing.T) {
	f, srv := newServer(t)
	client := api.New[asset](srv.URL+"/api", "assets", api.WithToken("secret"))

	page, err := client.List(context.Background(), domain.ListQuery{
		Search:   "AST",
		Filters:  map[string][]string{"status": {"active", "retired"}},
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, 42, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, asset{ID: "a2", Tag: "AST-1002", Status: "retired", Cost: 80.5}, page.Items[1])

	_, url, auth := f.snapshot()
	assert.Equal(t, "Bearer secret", auth)
	assert.Contains(t, url, "search=AST")
	assert.Contains(t, url, "page_size=20")
	assert.Contains(t, url, "filter%5Bstatus%5D=active%2Cretired")
}

func TestClient_Mutations(t *testing.T) {
	f, srv := newServer(t)
	client := api.New[asset](srv.URL+"/api/", "assets")
	ctx := context.Background()

	created, err := client.Create(ctx, map[string]any{"asset_tag": "AST-2000", "status": "active"})
	require.NoError(t, err)
	assert.Equal(t, asset{ID: "new", Tag: "AST-2000", Status: "active"}, created)

	updated, err := client.Update(ctx, "a1", map[string]any{"status": "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, "maintenance", updated.Status)

	require.NoError(t, client.Remove(ctx, "a1"))

	err = client.Remove(ctx, "locked")
	var serr *api.StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusConflict, serr.Code)
	assert.Equal(t, "asset is checked out", serr.Message)

	require.NoError(t, client.BulkUpdate(ctx, []string{"a1", "a2"}, map[string]any{"status": "retired"}))
	body, _, _ := f.snapshot()
	assert.Equal(t, []any{"a1", "a2"}, body["ids"])
	assert.Equal(t, map[string]any{"status": "retired"}, body["patch"])

	require.NoError(t, client.BulkRemove(ctx, []string{"a1", "a2"}))
	body, _, _ = f.snapshot()
	assert.Equal(t, []any{"a1", "a2"}, body["ids"])
}
