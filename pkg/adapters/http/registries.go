package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/inventory"
	"github.com/go-chi/chi/v5"
)

var errUnknownRegistry = errors.New("unknown registry")

// ActionRequest names the entities a bulk action applies to.
type ActionRequest struct {
	IDs []string `json:"ids"`
}

type registryInfo struct {
	Name    string   `json:"name"`
	Facets  []string `json:"facets"`
	Actions []string `json:"actions"`
}

func (s *Server) registry(r *http.Request) (inventory.View, error) {
	name := chi.URLParam(r, "registry")
	v, ok := s.registries[name]
	if !ok {
		return nil, &namedError{name: name, err: errUnknownRegistry}
	}
	return v, nil
}

type namedError struct {
	name string
	err  error
}

func (e *namedError) Error() string { return e.err.Error() + ": " + e.name }
func (e *namedError) Unwrap() error { return e.err }

// ListRegistries handles GET /registries.
func (s *Server) ListRegistries(w http.ResponseWriter, r *http.Request) {
	out := make([]registryInfo, 0, len(s.registries))
	for _, v := range s.registries {
		out = append(out, registryInfo{Name: v.Name(), Facets: v.Facets(), Actions: v.Actions()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	s.writeJSON(w, http.StatusOK, out)
}

// parseQuery reads search, page, page_size and facet filters written as
// filter.<facet>=a,b from the URL.
func parseQuery(r *http.Request) (domain.ListQuery, error) {
	params := r.URL.Query()
	q := domain.ListQuery{
		Search:  params.Get("search"),
		Filters: make(map[string][]string),
	}
	for _, key := range []string{"page", "page_size"} {
		raw := params.Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, &badRequestError{msg: key + " must be a non-negative integer"}
		}
		if key == "page" {
			q.Page = n
		} else {
			q.PageSize = n
		}
	}
	for key, values := range params {
		facet, ok := strings.CutPrefix(key, "filter.")
		if !ok || facet == "" {
			continue
		}
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					q.Filters[facet] = append(q.Filters[facet], part)
				}
			}
		}
	}
	return q, nil
}

// QueryRegistry handles GET /registries/{registry}.
func (s *Server) QueryRegistry(w http.ResponseWriter, r *http.Request) {
	view, err := s.registry(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	res, err := view.Query(r.Context(), q)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// RefreshRegistry handles POST /registries/{registry}/refresh.
func (s *Server) RefreshRegistry(w http.ResponseWriter, r *http.Request) {
	view, err := s.registry(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if err := view.Refresh(r.Context()); err != nil {
		s.writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyAction handles POST /registries/{registry}/actions/{action}.
func (s *Server) ApplyAction(w http.ResponseWriter, r *http.Request) {
	view, err := s.registry(r)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	var req ActionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, nil)
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, &badRequestError{msg: "ids are required"}, nil)
		return
	}
	action := chi.URLParam(r, "action")
	if err := view.Apply(r.Context(), action, req.IDs); err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.logger.Info("bulk action applied", "collection", view.Name(), "action", action, "count", len(req.IDs))
	s.writeJSON(w, http.StatusOK, map[string]any{"action": action, "count": len(req.IDs)})
}
