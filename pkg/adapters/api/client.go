// Package api implements ports.DataAPIClient over the asset-management REST
// API. Response envelopes are normalized here and nowhere else.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/assetflow/internal/codec"
	"github.com/aretw0/assetflow/internal/logging"
	"github.com/aretw0/assetflow/pkg/domain"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	URL     string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
}

type settings struct {
	httpClient *http.Client
	token      string
	logger     *slog.Logger
	keys       []string
}

// Option configures a Client.
type Option func(*settings)

// WithHTTPClient sets the transport client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default transport client.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.httpClient = &http.Client{Timeout: d} }
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(s *settings) { s.token = token }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithCollectionKeys adds object keys under which list responses may carry
// their items, besides "items" and "results".
func WithCollectionKeys(keys ...string) Option {
	return func(s *settings) { s.keys = append(s.keys, keys...) }
}

// Client talks to one resource, e.g. {base}/assets.
type Client[T any] struct {
	base     string
	resource string
	s        settings
}

// New creates a client for resource under baseURL. The resource name is also
// accepted as a collection key in list responses.
func New[T any](baseURL, resource string, opts ...Option) *Client[T] {
	s := settings{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	s.keys = append(s.keys, resource)
	s.logger = s.logger.With("resource", resource)
	return &Client[T]{
		base:     strings.TrimRight(baseURL, "/"),
		resource: strings.Trim(resource, "/"),
		s:        s,
	}
}

// List fetches a page. Facet filters are sent as filter[name]=a,b.
func (c *Client[T]) List(ctx context.Context, query domain.ListQuery) (domain.Page[T], error) {
	params := url.Values{}
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.PageSize > 0 {
		params.Set("page", strconv.Itoa(query.Page))
		params.Set("page_size", strconv.Itoa(query.PageSize))
	}
	facets := make([]string, 0, len(query.Filters))
	for k := range query.Filters {
		facets = append(facets, k)
	}
	sort.Strings(facets)
	for _, k := range facets {
		if len(query.Filters[k]) > 0 {
			params.Set("filter["+k+"]", strings.Join(query.Filters[k], ","))
		}
	}

	raw, err := c.do(ctx, http.MethodGet, "", params, nil)
	if err != nil {
		return domain.Page[T]{}, err
	}
	items, total, err := UnwrapList(raw, c.s.keys...)
	if err != nil {
		return domain.Page[T]{}, fmt.Errorf("list %s: %w", c.resource, err)
	}
	decoded, err := codec.DecodeSlice[T](items)
	if err != nil {
		return domain.Page[T]{}, fmt.Errorf("list %s: %w", c.resource, err)
	}
	return domain.Page[T]{Items: decoded, Total: total}, nil
}

// Get fetches one entity.
func (c *Client[T]) Get(ctx context.Context, id string) (T, error) {
	return c.one(ctx, http.MethodGet, "/"+url.PathEscape(id), nil)
}

// Create posts a new entity and returns the server's representation.
func (c *Client[T]) Create(ctx context.Context, payload map[string]any) (T, error) {
	return c.one(ctx, http.MethodPost, "", payload)
}

// Update patches an entity.
func (c *Client[T]) Update(ctx context.Context, id string, payload map[string]any) (T, error) {
	return c.one(ctx, http.MethodPatch, "/"+url.PathEscape(id), payload)
}

// Remove deletes an entity.
func (c *Client[T]) Remove(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, nil)
	return err
}

// BulkUpdate applies patch to every id in one request.
func (c *Client[T]) BulkUpdate(ctx context.Context, ids []string, patch map[string]any) error {
	_, err := c.do(ctx, http.MethodPost, "/bulk-update", nil, map[string]any{"ids": ids, "patch": patch})
	return err
}

// BulkRemove deletes every id in one request.
func (c *Client[T]) BulkRemove(ctx context.Context, ids []string) error {
	_, err := c.do(ctx, http.MethodPost, "/bulk-delete", nil, map[string]any{"ids": ids})
	return err
}

func (c *Client[T]) one(ctx context.Context, method, path string, body any) (T, error) {
	var zero T
	raw, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return zero, err
	}
	v, err := codec.Decode[T](Unwrap(raw))
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, c.resource, err)
	}
	return v, nil
}

func (c *Client[T]) do(ctx context.Context, method, path string, params url.Values, body any) (any, error) {
	target := c.base + "/" + c.resource + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.s.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.s.token)
	}

	start := time.Now()
	resp, err := c.s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.s.logger.Debug("api request", "method", method, "url", target, "status", resp.StatusCode, "duration", time.Since(start))

	var raw any
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("%s %s: invalid JSON response: %w", method, target, err)
		}
	}

	if resp.StatusCode >= 300 {
		msg := errorMessage(raw)
		if msg == "" {
			msg = errorMessage(Unwrap(raw))
		}
		return nil, &StatusError{Method: method, URL: target, Code: resp.StatusCode, Message: msg}
	}
	return raw, nil
}
