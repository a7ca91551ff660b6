package adminAuth

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/adminAuth/internal/stores"
)

// IDCache memoizes account uuid to internal id lookups. Entries are written
// once and never invalidated; a deleted account keeps its entry and is then
// rejected when the id lookup finds nothing.
type IDCache = stores.IDCache

// NewMemoryIDCache returns the in-process IDCache used when no Redis client
// is configured.
func NewMemoryIDCache() IDCache {
	return stores.NewMemoryIDCache()
}

// cachedDirectory routes GetByUUID through the id cache. Every other call
// goes straight to the wrapped directory.
//
// Cache failures degrade to a direct lookup and are logged; they never fail
// the request.
type cachedDirectory struct {
	UserDirectory
	cache   IDCache
	metrics *Metrics
	logger  *slog.Logger
}

func newCachedDirectory(dir UserDirectory, cache IDCache, metrics *Metrics, logger *slog.Logger) *cachedDirectory {
	return &cachedDirectory{
		UserDirectory: dir,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
	}
}

func (d *cachedDirectory) GetByUUID(ctx context.Context, uuid string) (UserAccount, error) {
	id, ok, err := d.cache.Get(ctx, uuid)
	if err != nil {
		d.logger.WarnContext(ctx, "id cache read failed",
			"module", "auth",
			"operation", "resolve_identity",
			"error", err,
		)
	}
	if ok && err == nil {
		d.metrics.Inc(MetricIDCacheHit)
		return d.UserDirectory.GetByID(ctx, id)
	}

	d.metrics.Inc(MetricIDCacheMiss)
	account, err := d.UserDirectory.GetByUUID(ctx, uuid)
	if err != nil {
		return UserAccount{}, err
	}

	if err := d.cache.Save(ctx, uuid, account.ID); err != nil {
		d.logger.WarnContext(ctx, "id cache write failed",
			"module", "auth",
			"operation", "resolve_identity",
			"error", err,
		)
	}
	return account, nil
}
