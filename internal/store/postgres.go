package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const insertDispatchSQL = `INSERT INTO dispatches (id, run_id, email, company_name, tier, campaign_id, score,
	icebreaker_provider, icebreaker_status, status, reason, error_class, error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS dispatches (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id              TEXT NOT NULL,
	email               TEXT NOT NULL,
	company_name        TEXT NOT NULL,
	tier                TEXT NOT NULL,
	campaign_id         TEXT NOT NULL,
	score               INTEGER NOT NULL,
	icebreaker_provider TEXT NOT NULL,
	icebreaker_status   TEXT NOT NULL,
	status              TEXT NOT NULL,
	reason              TEXT NOT NULL DEFAULT '',
	error_class         TEXT NOT NULL DEFAULT '',
	error               TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_dispatches_run_id ON dispatches(run_id);
CREATE INDEX IF NOT EXISTS idx_dispatches_status ON dispatches(status);
CREATE INDEX IF NOT EXISTS idx_dispatches_email ON dispatches(email);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordDispatch(ctx context.Context, rec model.DispatchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, insertDispatchSQL,
		rec.ID, rec.RunID, rec.Email, rec.CompanyName, string(rec.Tier), rec.CampaignID, rec.Score,
		rec.IcebreakerProvider, rec.IcebreakerStatus, string(rec.Status), string(rec.Reason),
		rec.ErrorClass, rec.Error, rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert dispatch %s", rec.Email)
}

func (s *PostgresStore) ListDispatches(ctx context.Context, filter DispatchFilter) ([]model.DispatchRecord, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE 1=1`
	var args []any
	n := 0
	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	if filter.RunID != "" {
		query += ` AND run_id = ` + next()
		args = append(args, filter.RunID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + next()
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ` + next()
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ` + next()
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list dispatches")
	}
	defer rows.Close()

	var out []model.DispatchRecord
	for rows.Next() {
		rec, err := scanDispatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan dispatch")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list dispatches iterate")
}
