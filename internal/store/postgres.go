package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/calib-cli/internal/calib"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
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
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS calibration_models (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	threshold_pos INTEGER NOT NULL,
	boundary      TEXT NOT NULL,
	bin_count     INTEGER NOT NULL,
	samples       INTEGER NOT NULL,
	positives     INTEGER NOT NULL,
	model         JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_calibration_models_name ON calibration_models(name);
CREATE INDEX IF NOT EXISTS idx_calibration_models_created_at ON calibration_models(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const postgresModelColumns = `id, name, threshold_pos, boundary, bin_count, samples, positives, model, created_at`

func (s *PostgresStore) SaveModel(ctx context.Context, name string, m *calib.Model) (*Record, error) {
	if m == nil || len(m.Bins) == 0 {
		return nil, eris.New("postgres: cannot save an unfitted model")
	}
	rec := newRecord(name, m)

	modelJSON, err := json.Marshal(m)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal model")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO calibration_models (`+postgresModelColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.Name, rec.ThresholdPos, rec.Boundary, rec.BinCount,
		rec.Samples, rec.Positives, modelJSON, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert model")
	}
	return rec, nil
}

func (s *PostgresStore) GetModel(ctx context.Context, id string) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresModelColumns+` FROM calibration_models WHERE id = $1`, id)
	rec, err := scanPostgresModel(row.Scan)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrModelNotFound, "postgres: get model %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get model %s", id)
	}
	return rec, nil
}

func (s *PostgresStore) LatestModel(ctx context.Context) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresModelColumns+` FROM calibration_models ORDER BY created_at DESC, id DESC LIMIT 1`)
	rec, err := scanPostgresModel(row.Scan)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(ErrModelNotFound, "postgres: latest model")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest model")
	}
	return rec, nil
}

func (s *PostgresStore) ListModels(ctx context.Context, filter ModelFilter) ([]Record, error) {
	query := `SELECT ` + postgresModelColumns + ` FROM calibration_models WHERE 1=1`
	var args []any

	if filter.Name != "" {
		args = append(args, filter.Name)
		query += ` AND name = $1`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list models")
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanPostgresModel(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan model")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list models")
}

func (s *PostgresStore) DeleteModel(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM calibration_models WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete model %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrModelNotFound, "postgres: delete model %s", id)
	}
	return nil
}

func scanPostgresModel(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	var modelJSON []byte
	err := scan(&rec.ID, &rec.Name, &rec.ThresholdPos, &rec.Boundary,
		&rec.BinCount, &rec.Samples, &rec.Positives, &modelJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	var m calib.Model
	if err := json.Unmarshal(modelJSON, &m); err != nil {
		return nil, eris.Wrap(err, "unmarshal model payload")
	}
	rec.Model = &m
	return &rec, nil
}
