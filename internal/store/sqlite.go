package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/coldreach/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS dispatches (
	id                  TEXT PRIMARY KEY,
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
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_dispatches_run_id ON dispatches(run_id);
CREATE INDEX IF NOT EXISTS idx_dispatches_status ON dispatches(status);
CREATE INDEX IF NOT EXISTS idx_dispatches_email ON dispatches(email);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordDispatch(ctx context.Context, rec model.DispatchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dispatches (id, run_id, email, company_name, tier, campaign_id, score,
			icebreaker_provider, icebreaker_status, status, reason, error_class, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RunID, rec.Email, rec.CompanyName, string(rec.Tier), rec.CampaignID, rec.Score,
		rec.IcebreakerProvider, rec.IcebreakerStatus, string(rec.Status), string(rec.Reason),
		rec.ErrorClass, rec.Error, rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert dispatch %s", rec.Email)
}

func (s *SQLiteStore) ListDispatches(ctx context.Context, filter DispatchFilter) ([]model.DispatchRecord, error) {
	query := `SELECT ` + dispatchColumns + ` FROM dispatches WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list dispatches")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.DispatchRecord
	for rows.Next() {
		rec, err := scanDispatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan dispatch")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list dispatches iterate")
}
