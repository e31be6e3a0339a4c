// Package store persists the dispatch ledger: one row per lead outcome. The
// ledger is an audit log and is never read back to resume a run.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/internal/config"
	"github.com/sells-group/coldreach/internal/model"
)

// DispatchFilter specifies criteria for listing ledger entries.
type DispatchFilter struct {
	RunID  string               `json:"run_id,omitempty"`
	Status model.DispatchStatus `json:"status,omitempty"`
	Limit  int                  `json:"limit,omitempty"`
	Offset int                  `json:"offset,omitempty"`
}

// Store defines the persistence interface for the dispatch ledger.
type Store interface {
	RecordDispatch(ctx context.Context, rec model.DispatchRecord) error
	ListDispatches(ctx context.Context, filter DispatchFilter) ([]model.DispatchRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// DefaultSQLitePath is used when the sqlite driver has no database_url.
const DefaultSQLitePath = "coldreach.db"

// defaultListLimit caps ListDispatches when no limit is given.
const defaultListLimit = 100

// Open creates the configured store and runs migrations. The "none" driver
// returns a nil Store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		s, err = NewSQLite(dsn)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
