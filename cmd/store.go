package main

import (
	"context"

	"github.com/sells-group/coldreach/internal/store"
)

// initStore opens the configured ledger. It returns nil when the driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}
