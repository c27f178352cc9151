package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/calib-cli/internal/calib"
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS models (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	threshold_pos INTEGER NOT NULL,
	boundary      TEXT NOT NULL,
	bin_count     INTEGER NOT NULL,
	samples       INTEGER NOT NULL,
	positives     INTEGER NOT NULL,
	model         TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_models_name ON models(name);
CREATE INDEX IF NOT EXISTS idx_models_created_at ON models(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveModel(ctx context.Context, name string, m *calib.Model) (*Record, error) {
	if m == nil || len(m.Bins) == 0 {
		return nil, eris.New("sqlite: cannot save an unfitted model")
	}
	rec := newRecord(name, m)

	modelJSON, err := json.Marshal(m)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal model")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO models (id, name, threshold_pos, boundary, bin_count, samples, positives, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.ThresholdPos, rec.Boundary, rec.BinCount,
		rec.Samples, rec.Positives, string(modelJSON), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert model")
	}
	return rec, nil
}

func (s *SQLiteStore) GetModel(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, threshold_pos, boundary, bin_count, samples, positives, model, created_at
		 FROM models WHERE id = ?`,
		id,
	)
	rec, err := scanModel(row.Scan)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrModelNotFound, "sqlite: get model %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get model %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) LatestModel(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, threshold_pos, boundary, bin_count, samples, positives, model, created_at
		 FROM models ORDER BY created_at DESC, id DESC LIMIT 1`,
	)
	rec, err := scanModel(row.Scan)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrap(ErrModelNotFound, "sqlite: latest model")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest model")
	}
	return rec, nil
}

func (s *SQLiteStore) ListModels(ctx context.Context, filter ModelFilter) ([]Record, error) {
	query := `SELECT id, name, threshold_pos, boundary, bin_count, samples, positives, model, created_at
		 FROM models WHERE 1=1`
	var args []any

	if filter.Name != "" {
		query += ` AND name = ?`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list models")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanModel(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan model")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list models")
}

func (s *SQLiteStore) DeleteModel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete model %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrModelNotFound, "sqlite: delete model %s", id)
	}
	return nil
}

// newRecord builds the registry row for a fitted model.
func newRecord(name string, m *calib.Model) *Record {
	return &Record{
		ID:           uuid.New().String(),
		Name:         name,
		ThresholdPos: m.Options.ThresholdPos,
		Boundary:     m.Options.Boundary.String(),
		BinCount:     len(m.Bins),
		Samples:      m.Samples,
		Positives:    m.Positives,
		CreatedAt:    time.Now().UTC(),
		Model:        m,
	}
}

// scanModel reads one registry row; the scan argument abstracts over
// sql.Row and sql.Rows.
func scanModel(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	var modelJSON string
	err := scan(&rec.ID, &rec.Name, &rec.ThresholdPos, &rec.Boundary,
		&rec.BinCount, &rec.Samples, &rec.Positives, &modelJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	var m calib.Model
	if err := json.Unmarshal([]byte(modelJSON), &m); err != nil {
		return nil, eris.Wrap(err, "unmarshal model payload")
	}
	rec.Model = &m
	return &rec, nil
}
