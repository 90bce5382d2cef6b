package assetflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/assetflow/internal/config"
	"github.com/aretw0/assetflow/internal/logging"
	"github.com/aretw0/assetflow/pkg/adapters/api"
	"github.com/aretw0/assetflow/pkg/adapters/file"
	httpadapter "github.com/aretw0/assetflow/pkg/adapters/http"
	"github.com/aretw0/assetflow/pkg/adapters/memory"
	"github.com/aretw0/assetflow/pkg/adapters/redis"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/inventory"
	"github.com/aretw0/assetflow/pkg/notify"
	"github.com/aretw0/assetflow/pkg/observability"
	"github.com/aretw0/assetflow/pkg/persistence/middleware"
	"github.com/aretw0/assetflow/pkg/ports"
	"github.com/aretw0/assetflow/pkg/reconcile"
	"github.com/aretw0/assetflow/pkg/session"
	"github.com/aretw0/assetflow/pkg/workflows"
	"github.com/prometheus/client_golang/prometheus"
)

// Console wires the workflow catalogue, the registries and the hosted wizard
// sessions of one deployment.
type Console struct {
	cfg      config.Config
	logger   *slog.Logger
	notifier ports.NotificationSink
	registry *prometheus.Registry
	hooks    domain.LifecycleHooks

	backend   *Backend
	catalogue *workflows.Catalogue
	sessions  *session.Manager
	redis     *redis.Store

	assets       *inventory.Binding[inventory.Asset]
	users        *inventory.Binding[inventory.User]
	transactions *inventory.Binding[inventory.Transaction]
	auditLogs    *inventory.Binding[inventory.AuditLog]
	documents    *inventory.Binding[inventory.Document]
}

// Option configures the Console.
type Option func(*Console)

// WithLogger replaces the logger built from the log level setting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) { c.logger = logger }
}

// WithNotifier adds a sink next to the logging one.
func WithNotifier(sink ports.NotificationSink) Option {
	return func(c *Console) { c.notifier = sink }
}

// WithBackend replaces the backend selected from the API settings.
func WithBackend(b *Backend) Option {
	return func(c *Console) { c.backend = b }
}

// WithRegistry registers the metrics on reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *Console) { c.registry = reg }
}

// New builds a console from cfg.
func New(cfg config.Config, opts ...Option) (*Console, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Console{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		format, err := logging.ParseFormat(cfg.Log.Format)
		if err != nil {
			return nil, err
		}
		c.logger = logging.New(level, format)
	}
	sinks := []ports.NotificationSink{notify.NewLogSink(c.logger)}
	if c.notifier != nil {
		sinks = append(sinks, c.notifier)
	}
	c.notifier = notify.Multi(sinks...)

	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	c.hooks = observability.NewMetrics(c.registry).Hooks().Merge(observability.LoggingHooks(c.logger))

	if c.backend == nil {
		c.backend = c.newBackend()
	}
	c.bind()

	env := workflows.Env{
		TaxRate: cfg.Workflows.TaxRate,
		Lookups: map[string]workflows.LookupFunc{
			"assets": c.assets.Lookup,
			"users":  c.users.Lookup,
		},
	}
	var err error
	if cfg.Workflows.File != "" {
		c.catalogue, err = workflows.Load(cfg.Workflows.File, env)
	} else {
		c.catalogue, err = workflows.Default(env)
	}
	if err != nil {
		return nil, fmt.Errorf("load workflows: %w", err)
	}

	if c.sessions, err = c.newSessions(); err != nil {
		return nil, err
	}
	c.logger.Debug("console ready", "workflows", c.catalogue.IDs(), "redis", c.redis != nil, "session_dir", cfg.Session.Dir)
	return c, nil
}

func (c *Console) newBackend() *Backend {
	if c.cfg.API.BaseURL == "" {
		c.logger.Info("no api.base_url set, using the in-memory demo backend")
		return MemoryBackend()
	}
	opts := []api.Option{api.WithTimeout(c.cfg.API.Timeout), api.WithLogger(c.logger)}
	if c.cfg.API.Token != "" {
		opts = append(opts, api.WithToken(c.cfg.API.Token))
	}
	return APIBackend(c.cfg.API.BaseURL, opts...)
}

func (c *Console) coordinatorOptions() []reconcile.Option {
	return []reconcile.Option{
		reconcile.WithNotifier(c.notifier),
		reconcile.WithLifecycleHooks(c.hooks),
		reconcile.WithLogger(c.logger),
	}
}

func (c *Console) bind() {
	opts := c.coordinatorOptions()
	size := c.cfg.List.PageSize
	c.assets = inventory.Bind(inventory.Assets, c.backend.Assets, size, c.logger, opts...)
	c.users = inventory.Bind(inventory.Users, c.backend.Users, size, c.logger, opts...)
	c.transactions = inventory.Bind(inventory.Transactions, c.backend.Transactions, size, c.logger, opts...)
	c.auditLogs = inventory.Bind(inventory.AuditLogs, c.backend.AuditLogs, size, c.logger, opts...)
	c.documents = inventory.Bind(inventory.Documents, c.backend.Documents, size, c.logger, opts...)
}

func (c *Console) newSessions() (*session.Manager, error) {
	opts := []session.Option{
		session.WithLogger(c.logger),
		session.WithLockTTL(c.cfg.Session.LockTTL),
	}
	var store ports.InstanceStore
	if c.cfg.Redis.Addr != "" {
		c.redis = redis.New(c.cfg.Redis.Addr, c.cfg.Redis.Password, c.cfg.Redis.DB, redis.WithTTL(c.cfg.Session.TTL))
		store = c.redis
		opts = append(opts, session.WithLocker(redis.NewLocker(c.redis.Client(), "")))
	} else if c.cfg.Session.Dir != "" {
		store = file.New(c.cfg.Session.Dir)
	} else {
		store = memory.NewStore()
	}

	active, fallback, err := c.cfg.Session.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		store = middleware.Chain(store, seal)
	}
	return session.NewManager(store, opts...), nil
}

// Logger returns the console logger.
func (c *Console) Logger() *slog.Logger { return c.logger }

// Catalogue returns the loaded workflow definitions.
func (c *Console) Catalogue() *workflows.Catalogue { return c.catalogue }

// Sessions returns the hosted wizard session manager.
func (c *Console) Sessions() *session.Manager { return c.sessions }

// Hooks returns the lifecycle hooks feeding metrics and logs.
func (c *Console) Hooks() domain.LifecycleHooks { return c.hooks }

// Notifier returns the sink receiving wizard and registry notifications.
func (c *Console) Notifier() ports.NotificationSink { return c.notifier }

// Views returns the registries in display order.
func (c *Console) Views() []inventory.View {
	return []inventory.View{c.assets, c.users, c.transactions, c.documents, c.auditLogs}
}

// View returns the registry called name.
func (c *Console) View(name string) (inventory.View, bool) {
	for _, v := range c.Views() {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// Warmup loads every registry once, so lookups used by derived fields have
// data before the first wizard starts.
func (c *Console) Warmup(ctx context.Context) error {
	var errs []error
	for _, v := range c.Views() {
		if err := v.Refresh(ctx); err != nil {
			errs = append(errs, fmt.Errorf("warm up %s: %w", v.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Commit returns the commit function of a workflow: the values are created in
// the workflow's collection through that collection's coordinator, which
// refetches it afterwards.
func (c *Console) Commit(def *workflows.Definition) ports.CommitFunc {
	switch def.Collection {
	case inventory.Assets.Name:
		return createThrough(c.backend.Assets, c.assets.Coordinator(), c.logger)
	case inventory.Users.Name:
		return createThrough(c.backend.Users, c.users.Coordinator(), c.logger)
	case inventory.Transactions.Name:
		return createThrough(c.backend.Transactions, c.transactions.Coordinator(), c.logger)
	case inventory.Documents.Name:
		return createThrough(c.backend.Documents, c.documents.Coordinator(), c.logger)
	case "":
		return func(context.Context, domain.Values) error {
			return fmt.Errorf("workflow %s has no collection to commit to", def.ID)
		}
	default:
		client := c.backend.Records(def.Collection)
		coord := reconcile.New[map[string]any](def.Collection, client.List, nil, c.coordinatorOptions()...)
		return createThrough(client, coord, c.logger)
	}
}

// createThrough runs Create as a single mutation of coord. The wizard reports
// the outcome, so the coordinator stays quiet. A failed refresh after a
// successful create only leaves the registry stale and is logged.
func createThrough[T any](client ports.DataAPIClient[T], coord *reconcile.Coordinator[T], logger *slog.Logger) ports.CommitFunc {
	return func(ctx context.Context, values domain.Values) error {
		err := coord.CommitSingle(ctx, "create", func(ctx context.Context) error {
			_, err := client.Create(ctx, values.Clone())
			return err
		}, reconcile.Callbacks{Quiet: true})

		var (
			fErr *domain.FetchError
			mErr *domain.MutationError
		)
		switch {
		case errors.As(err, &fErr):
			logger.Warn("refresh after commit failed", "collection", coord.Collection(), "err", err)
			return nil
		case errors.As(err, &mErr):
			return mErr.Err
		}
		return err
	}
}

// Server builds the JSON API over the console.
func (c *Console) Server() *httpadapter.Server {
	opts := []httpadapter.Option{
		httpadapter.WithRegistries(c.Views()...),
		httpadapter.WithLifecycleHooks(c.hooks),
		httpadapter.WithNotifier(c.notifier),
		httpadapter.WithLogger(c.logger),
		httpadapter.WithVersion(Version),
	}
	if c.cfg.Metrics.Enabled {
		opts = append(opts, httpadapter.WithMetricsHandler(observability.Handler(c.registry)))
	}
	return httpadapter.NewServer(c.catalogue, c.sessions, c.Commit, opts...)
}

// Close stops the registries and releases the session store.
func (c *Console) Close() error {
	for _, v := range c.Views() {
		v.Close()
	}
	if c.redis != nil {
		return c.redis.Client().Close()
	}
	return nil
}

// HTTPHandler is shorthand for Server().Handler().
func (c *Console) HTTPHandler() http.Handler { return c.Server().Handler() }
