package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/aretw0/assetflow/internal/logging"
	"github.com/aretw0/assetflow/internal/presentation/graph"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/inventory"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/aretw0/assetflow/pkg/schema"
	"github.com/aretw0/assetflow/pkg/session"
	"github.com/aretw0/assetflow/pkg/workflows"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Catalogue resolves workflow definitions.
type Catalogue interface {
	Get(id string) (*workflows.Definition, error)
	All() []*workflows.Definition
}

// CommitResolver returns the commit function used when a workflow is submitted.
type CommitResolver func(def *workflows.Definition) ports.CommitFunc

// Server exposes wizard sessions and registries as a JSON API.
type Server struct {
	catalogue  Catalogue
	sessions   *session.Manager
	commit     CommitResolver
	registries map[string]inventory.View
	metrics    http.Handler
	hooks      domain.LifecycleHooks
	notifier   ports.NotificationSink
	streams    *StreamManager
	logger     *slog.Logger
	version    string
}

// Option configures the Server.
type Option func(*Server)

// WithRegistries exposes the given registries under /registries/{name}.
func WithRegistries(views ...inventory.View) Option {
	return func(s *Server) {
		for _, v := range views {
			s.registries[v.Name()] = v
		}
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLifecycleHooks attaches hooks to every wizard the server drives.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Server) { s.hooks = hooks }
}

// WithNotifier sets the sink receiving wizard notifications.
func WithNotifier(sink ports.NotificationSink) Option {
	return func(s *Server) { s.notifier = sink }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a server. commit resolves the commit function of each
// workflow on submit.
func NewServer(catalogue Catalogue, sessions *session.Manager, commit CommitResolver, opts ...Option) *Server {
	s := &Server{
		catalogue:  catalogue,
		sessions:   sessions,
		commit:     commit,
		registries: make(map[string]inventory.View),
		streams:    NewStreamManager(),
		logger:     logging.NewNop(),
		version:    "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger
	return s
}

// Streams returns the manager broadcasting session diffs.
func (s *Server) Streams() *StreamManager { return s.streams }

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/workflows", func(r chi.Router) {
		r.Get("/", s.ListWorkflows)
		r.Get("/{workflowID}", s.GetWorkflow)
		r.Get("/{workflowID}/graph", s.GetWorkflowGraph)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.CancelSession)
			r.Get("/graph", s.GetSessionGraph)
			r.Get("/events", s.SubscribeEvents)
			r.Patch("/fields", s.UpdateFields)
			r.Post("/next", s.Next)
			r.Post("/back", s.Back)
			r.Post("/reset", s.Reset)
			r.Post("/submit", s.Submit)
		})
	})

	r.Route("/registries", func(r chi.Router) {
		r.Get("/", s.ListRegistries)
		r.Get("/{registry}", s.QueryRegistry)
		r.Post("/{registry}/refresh", s.RefreshRegistry)
		r.Post("/{registry}/actions/{action}", s.ApplyAction)
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.registries))
	for name := range s.registries {
		names = append(names, name)
	}
	sort.Strings(names)
	ids := make([]string, 0)
	for _, def := range s.catalogue.All() {
		ids = append(ids, def.ID)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":        "assetflow-http",
		"version":    s.version,
		"workflows":  ids,
		"registries": names,
	})
}

type stepView struct {
	ID          string                `json:"id"`
	Title       string                `json:"title,omitempty"`
	Description string                `json:"description,omitempty"`
	Fields      []workflows.FieldSpec `json:"fields"`
	Schema      schema.Schema         `json:"schema,omitempty"`
}

type workflowView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Collection  string     `json:"collection,omitempty"`
	Steps       []stepView `json:"steps"`
}

func describe(def *workflows.Definition) workflowView {
	out := workflowView{
		ID:          def.ID,
		Title:       def.Title,
		Description: def.Description,
		Collection:  def.Collection,
		Steps:       make([]stepView, 0, len(def.Steps)),
	}
	for _, step := range def.Steps {
		sv := stepView{ID: step.ID, Title: step.Title, Description: step.Description, Schema: def.StepSchema(step.ID)}
		for _, name := range step.Fields {
			f, ok := def.Field(name)
			if !ok {
				f = workflows.FieldSpec{Name: name}
			}
			sv.Fields = append(sv.Fields, f)
		}
		out.Steps = append(out.Steps, sv)
	}
	return out
}

// ListWorkflows handles GET /workflows.
func (s *Server) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	defs := s.catalogue.All()
	out := make([]workflowView, 0, len(defs))
	for _, def := range defs {
		out = append(out, describe(def))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetWorkflow handles GET /workflows/{workflowID}.
func (s *Server) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	def, err := s.catalogue.Get(chi.URLParam(r, "workflowID"))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, describe(def))
}

// GetWorkflowGraph handles GET /workflows/{workflowID}/graph as Mermaid text.
func (s *Server) GetWorkflowGraph(w http.ResponseWriter, r *http.Request) {
	def, err := s.catalogue.Get(chi.URLParam(r, "workflowID"))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeMermaid(w, def, nil)
}

func (s *Server) writeMermaid(w http.ResponseWriter, def *workflows.Definition, overlay *graph.Overlay) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(def.ID, def.Steps, def.Engine().Edges(), overlay)))
}

// errorBody is the JSON payload of every failed request.
type errorBody struct {
	Error  string               `json:"error"`
	Fields domain.FieldErrors   `json:"fields,omitempty"`
	Diff   *domain.InstanceDiff `json:"diff,omitempty"`
}

func statusOf(err error) int {
	var (
		vErr *domain.ValidationError
		cErr *domain.CommitError
		mErr *domain.MutationError
		fErr *domain.FetchError
		bErr *badRequestError
	)
	switch {
	case errors.As(err, &bErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUnknownWorkflow),
		errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, errUnknownRegistry):
		return http.StatusNotFound
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrClosed),
		errors.Is(err, domain.ErrSubmitting),
		errors.Is(err, domain.ErrReentrant),
		errors.Is(err, domain.ErrNotAtLastStep):
		return http.StatusConflict
	case errors.As(err, &cErr), errors.As(err, &mErr), errors.As(err, &fErr):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrDisposed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, diff *domain.InstanceDiff) {
	code := statusOf(err)
	body := errorBody{Error: err.Error(), Diff: diff}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		body.Fields = vErr.Fields
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", code, "err", err)
	} else {
		s.logger.Debug("request rejected", "status", code, "err", err)
	}
	s.writeJSON(w, code, body)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &badRequestError{msg: "invalid request body: " + err.Error()}
	}
	return nil
}
