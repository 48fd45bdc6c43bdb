package database

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tomyedwab/smartexpense/config"
	"github.com/tomyedwab/smartexpense/logger"
)

var (
	instance   atomic.Pointer[Database]
	instanceMu sync.Mutex
)

// GetDatabase returns the process-wide database, opening it on first use at
// cfg.DBPath(). Concurrent first calls open the file once and all get the same
// handle. An open failure is returned as is and leaves nothing cached, so a
// later call tries again. The logger is taken from ctx.
func GetDatabase(ctx context.Context, cfg *config.Config) (*Database, error) {
	if db := instance.Load(); db != nil {
		return db, nil
	}

	instanceMu.Lock()
	defer instanceMu.Unlock()

	if db := instance.Load(); db != nil {
		return db, nil
	}

	db, err := Open(ctx, Options{
		Path:                           cfg.DBPath(),
		FallbackToDestructiveMigration: cfg.FallbackToDestructiveMigration,
		Logger:                         logger.FromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	instance.Store(db)
	return db, nil
}
