package localcache

import (
	"context"
	"fmt"

	"github.com/mmdatafocus/dispatch_forms/config"
)

// connectAttempts keeps a device from hanging at startup on a dead backend.
const connectAttempts = 3

// Open builds the backend named by cfg. The returned close func releases any
// connection the backend opened.
func Open(ctx context.Context, cfg config.DraftStoreConfig) (Cache, func(), error) {
	noop := func() {}
	switch cfg.Backend {
	case config.DraftStoreMemory:
		return NewMemory(), noop, nil
	case config.DraftStoreFile, "":
		return NewFile(cfg.Dir, cfg.Namespace), noop, nil
	case config.DraftStoreRedis:
		if err := config.ConnectRedisWithRetry(ctx, cfg.RedisAddress, connectAttempts); err != nil {
			return nil, noop, err
		}
		return NewRedis(config.GetRedisDB(), config.GetRedisLock(), cfg.Namespace), config.CloseRedis, nil
	case config.DraftStoreSQL:
		if err := config.ConnectDatabaseWithRetry(ctx, cfg.DBDriver, cfg.DBDSN, connectAttempts); err != nil {
			return nil, noop, err
		}
		store, err := NewSQL(ctx, config.GetDB(), cfg.Namespace)
		if err != nil {
			config.CloseDatabase()
			return nil, noop, err
		}
		return store, config.CloseDatabase, nil
	default:
		return nil, noop, fmt.Errorf("unknown draft store %q", cfg.Backend)
	}
}
