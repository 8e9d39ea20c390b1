package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-social-cache/cache"
	"github.com/goliatone/go-social-cache/internal/cacheinfra"
	"github.com/goliatone/go-social-cache/internal/idgen"
	"github.com/goliatone/go-social-cache/internal/logging"
	"github.com/goliatone/go-social-cache/internal/store"
	"github.com/goliatone/go-social-cache/ledger"
	"github.com/goliatone/go-social-cache/model"
	"github.com/goliatone/go-social-cache/notify"
	"github.com/goliatone/go-social-cache/pkg/config"
	"github.com/goliatone/go-social-cache/repositorycache"
	"github.com/goliatone/go-social-cache/social"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Container owns the long-lived components of one process and wires the
// cache ledger, the relational store and the services on top of them.
type Container struct {
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry

	db      *bun.DB
	ownsDB  bool
	adapter *cache.Adapter

	reconciler *ledger.Reconciler
	ledger     *ledger.Ledger
	senders    *ledger.SenderLookup
	unread     *ledger.Unread

	repo     *repositorycache.ReconcilingPosts
	notifier *notify.Notifier
	posts    *social.Posts
	friends  *social.Friends
}

// Option overrides a component the container would otherwise build from
// the configuration.
type Option func(*overrides)

type overrides struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	executor cache.Executor
	db       *bun.DB
	ids      idgen.Generator
}

// WithLogger replaces the logger built from the config.
func WithLogger(logger *zap.Logger) Option {
	return func(o *overrides) { o.logger = logger }
}

// WithRegistry registers the cache metrics on reg instead of a private
// registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *overrides) { o.registry = reg }
}

// WithExecutor drives the cache through exec instead of the configured
// backend. The container closes it.
func WithExecutor(exec cache.Executor) Option {
	return func(o *overrides) { o.executor = exec }
}

// WithDB uses db instead of opening the configured database. The caller
// keeps ownership of db.
func WithDB(db *bun.DB) Option {
	return func(o *overrides) { o.db = db }
}

// WithIDGenerator replaces the snowflake id generator.
func WithIDGenerator(ids idgen.Generator) Option {
	return func(o *overrides) { o.ids = ids }
}

// NewContainer builds every component described by cfg.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var o overrides
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{config: cfg, logger: o.logger, registry: o.registry}
	if c.logger == nil {
		logger, err := logging.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		c.logger = logger
	}
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}

	exec, err := c.executor(ctx, o.executor)
	if err != nil {
		return nil, err
	}
	c.adapter = cache.NewAdapter(
		cacheinfra.NewMetrics(c.registry).Instrument(exec),
		cache.WithLogger(c.logger.Named("cache")),
		cache.WithCommandTimeout(cfg.Cache.CommandTimeout),
		cache.WithKeys(cache.NewKeys(cfg.Cache.Prefix)),
	)

	if err := c.openDB(ctx, o.db); err != nil {
		_ = c.adapter.Close()
		return nil, err
	}

	ids := o.ids
	if ids == nil {
		if ids, err = idgen.NewSnowflake(cfg.IDNode); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	if err := c.wire(ids); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) executor(ctx context.Context, override cache.Executor) (cache.Executor, error) {
	if override != nil {
		return override, nil
	}
	switch c.config.Cache.Backend {
	case config.BackendMemory:
		return cacheinfra.NewMemoryExecutor(), nil
	default:
		exec, err := cacheinfra.NewRedisExecutor(c.config.Cache.Redis.Executor())
		if err != nil {
			return nil, err
		}
		// Not fatal: reads serve relational values until Redis is back.
		if err := exec.Ping(ctx); err != nil {
			c.logger.Warn("redis unreachable at start", zap.Strings("addrs", c.config.Cache.Redis.Addrs), zap.Error(err))
		}
		return exec, nil
	}
}

func (c *Container) openDB(ctx context.Context, db *bun.DB) error {
	if db == nil {
		opened, err := store.Open(ctx, c.config.Database.Store())
		if err != nil {
			return err
		}
		db, c.ownsDB = opened, true
	}
	c.db = db

	if c.config.Database.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) wire(ids idgen.Generator) error {
	cfg := c.config.Cache
	base := store.NewPosts(c.db)

	senderOpts := []ledger.SenderOption{
		ledger.WithSenderTTL(cfg.SenderTTL),
		ledger.WithSenderLogger(c.logger.Named("senders")),
	}
	if cfg.Memo.Enabled {
		memo, err := cacheinfra.NewMemo[model.UserID](cfg.Memo.Memo())
		if err != nil {
			return err
		}
		senderOpts = append(senderOpts, ledger.WithSenderMemo(memo))
	}

	c.reconciler = ledger.NewReconciler(c.adapter,
		ledger.WithReconcileLogger(c.logger.Named("reconcile")),
		ledger.WithReconcileConcurrency(cfg.ReconcileConcurrency),
	)
	c.ledger = ledger.NewLedger(c.adapter, c.logger.Named("ledger"))
	c.senders = ledger.NewSenderLookup(c.adapter, base, senderOpts...)
	c.unread = ledger.NewUnread(c.adapter, c.logger.Named("unread"))

	c.repo = repositorycache.New(base, c.reconciler, c.ledger, c.senders,
		repositorycache.WithLogger(c.logger.Named("posts")),
	)
	c.notifier = notify.New(store.NewNotices(c.db), c.senders, c.unread, ids,
		notify.WithLogger(c.logger.Named("notify")),
	)
	c.posts = social.NewPosts(c.repo, c.ledger, c.notifier, ids, social.WithLogger(c.logger))
	c.friends = social.NewFriends(store.NewFriendships(c.db), c.notifier, social.WithLogger(c.logger))
	return nil
}

// Config returns the validated configuration.
func (c *Container) Config() *config.Config { return c.config }
func (c *Container) Logger() *zap.Logger { return c.logger }
func (c *Container) DB() *bun.DB { return c.db }
// Adapter returns the cache adapter shared by every component.
func (c *Container) Adapter() *cache.Adapter { return c.adapter }
func (c *Container) Reconciler() *ledger.Reconciler { return c.reconciler }
func (c *Container) Ledger() *ledger.Ledger { return c.ledger }
func (c *Container) Senders() *ledger.SenderLookup { return c.senders }
func (c *Container) Unread() *ledger.Unread { return c.unread }
// Repository returns the reconciling post repository.
func (c *Container) Repository() store.PostRepository { return c.repo }
func (c *Container) Notifier() *notify.Notifier { return c.notifier }
func (c *Container) Posts() *social.Posts { return c.posts }
func (c *Container) Friends() *social.Friends { return c.friends }
func (c *Container) Registry() *prometheus.Registry { return c.registry }

// MetricsHandler serves the container's registry in the Prometheus text
// format.
func (c *Container) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Close waits for background cache writes, closes the cache backend and,
// when the container opened it, the database.
func (c *Container) Close() error {
	var errs []error
	if c.adapter != nil {
		errs = append(errs, c.adapter.Close())
	}
	if c.ownsDB && c.db != nil {
		errs = append(errs, c.db.Close())
	}
	_ = c.logger.Sync()
	return errors.Join(errs...)
}
