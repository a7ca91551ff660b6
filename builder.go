package adminAuth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/adminAuth/internal/limiters"
	"github.com/MrEthical07/adminAuth/internal/notify"
	"github.com/MrEthical07/adminAuth/internal/stores"
	"github.com/MrEthical07/adminAuth/jwt"
	"github.com/MrEthical07/adminAuth/password"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine from a Config and its collaborators. A Builder
// builds at most one Engine.
type Builder struct {
	config Config

	directory   UserDirectory
	permissions PermissionStore

	registry *notify.Registry
	sinks    []NotificationSink

	redis   redis.UniversalClient
	idCache IDCache

	logger *slog.Logger
	now    func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The config is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithUserDirectory sets the account store. Required.
func (b *Builder) WithUserDirectory(dir UserDirectory) *Builder {
	b.directory = dir
	return b
}

// WithPermissionStore sets the live permission source. Required.
func (b *Builder) WithPermissionStore(store PermissionStore) *Builder {
	b.permissions = store
	return b
}

// WithNotificationRegistry supplies a registry whose handlers receive login
// notifications. Without one, the engine creates an empty registry.
func (b *Builder) WithNotificationRegistry(r *NotificationRegistry) *Builder {
	b.registry = r
	return b
}

// WithNotificationSink subscribes sink to every login event.
func (b *Builder) WithNotificationSink(sink NotificationSink) *Builder {
	if sink != nil {
		b.sinks = append(b.sinks, sink)
	}
	return b
}

// WithRedis backs the id cache with Redis instead of process memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIDCache installs a custom id cache. It takes precedence over WithRedis.
func (b *Builder) WithIDCache(cache IDCache) *Builder {
	b.idCache = cache
	return b
}

// WithLogger sets the logger for degraded-collaborator warnings. Defaults to
// slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the token clock. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles login and identity latency histograms. They
// stay off while metrics are disabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.directory == nil {
		return nil, errors.New("user directory required")
	}
	if b.permissions == nil {
		return nil, errors.New("permission store required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- CRYPTO --------
	hasher, err := password.NewHasher(password.Config{
		Iterations:       cfg.Password.Iterations,
		KeyLength:        cfg.Password.KeyLength,
		SaltBytes:        cfg.Password.SaltBytes,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	codec, err := jwt.NewCodec(jwt.Config{
		Secret:   cloneBytes(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
		Now:      b.now,
	})
	if err != nil {
		return nil, err
	}

	lockout, err := limiters.NewLockoutPolicy(limiters.LockoutConfig{
		Threshold: cfg.Lockout.Threshold,
	})
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics(cfg.Metrics)

	// -------- ID CACHE --------
	cache, backend := b.idCache, "custom"
	switch {
	case cache != nil:
	case b.redis != nil:
		cache, backend = stores.NewRedisIDCache(b.redis, cfg.Cache.RedisPrefix), "redis"
	default:
		cache, backend = stores.NewMemoryIDCache(), "memory"
	}

	// -------- NOTIFICATIONS --------
	registry := b.registry
	if registry == nil {
		registry = notify.NewRegistry(logger)
	}
	for _, sink := range b.sinks {
		registry.SubscribeAll(notify.SinkHandler(sink), notify.AllEvents()...)
	}

	engine := &Engine{
		config:       cfg,
		directory:    newCachedDirectory(b.directory, cache, metrics, logger),
		permissions:  b.permissions,
		hasher:       hasher,
		codec:        codec,
		lockout:      lockout,
		cacheBackend: backend,
		notifier:     registry,
		metrics:      metrics,
		logger:       logger,
	}

	if cfg.Notifications.Async {
		engine.dispatcher = notify.NewDispatcher(notify.Config{
			Enabled:    true,
			BufferSize: cfg.Notifications.BufferSize,
			DropIfFull: cfg.Notifications.DropIfFull,
		}, registry)
		engine.notifier = engine.dispatcher
	}

	engine.flows = engine.buildFlowDeps()

	b.built = true

	return engine, nil
}
