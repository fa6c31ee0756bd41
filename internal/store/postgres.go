package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/neon-guide/guide-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
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
CREATE TABLE IF NOT EXISTS discovery_runs (
	id         UUID PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	stats      JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS finds (
	id             UUID PRIMARY KEY,
	run_id         UUID NOT NULL REFERENCES discovery_runs(id),
	neighborhood   TEXT NOT NULL,
	keyword        TEXT NOT NULL,
	name           TEXT NOT NULL,
	score          INTEGER NOT NULL,
	award_level    TEXT NOT NULL,
	justification  TEXT,
	description_en TEXT,
	description_ko TEXT,
	kakao_id       TEXT NOT NULL,
	kakao_url      TEXT,
	latitude       TEXT,
	longitude      TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON discovery_runs(status);
CREATE INDEX IF NOT EXISTS idx_finds_run_id ON finds(run_id);
CREATE INDEX IF NOT EXISTS idx_finds_kakao_id ON finds(kakao_id);
CREATE INDEX IF NOT EXISTS idx_finds_score ON finds(score);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.DiscoveryRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO discovery_runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.DiscoveryRun{
		ID:        id,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE discovery_runs SET status = $1, stats = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusComplete), statsJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE discovery_runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.DiscoveryRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, error, stats, created_at, updated_at FROM discovery_runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.DiscoveryRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, error, stats, created_at, updated_at FROM discovery_runs
		 ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.DiscoveryRun
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) StageFind(ctx context.Context, f *model.Find) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO finds (id, run_id, neighborhood, keyword, name, score, award_level,
		                    justification, description_en, description_ko, kakao_id, kakao_url,
		                    latitude, longitude, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		f.ID, f.RunID, f.Neighborhood, f.Keyword, f.Name, f.Score, f.AwardLevel,
		f.Justification, f.DescriptionEN, f.DescriptionKO, f.KakaoID, f.KakaoURL,
		f.Latitude, f.Longitude, f.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: stage find %q", f.Name)
}

func (s *PostgresStore) ListFinds(ctx context.Context, filter FindFilter) ([]model.Find, error) {
	query := `SELECT id, run_id, neighborhood, keyword, name, score, award_level,
	                 justification, description_en, description_ko, kakao_id, kakao_url,
	                 latitude, longitude, created_at
	          FROM finds WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		args = append(args, filter.RunID)
		query += ` AND run_id = $1`
	}
	if filter.MinScore > 0 {
		args = append(args, filter.MinScore)
		query += ` AND score >= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY score DESC, created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list finds")
	}
	defer rows.Close()

	var finds []model.Find
	for rows.Next() {
		var f model.Find
		if err := rows.Scan(&f.ID, &f.RunID, &f.Neighborhood, &f.Keyword, &f.Name, &f.Score,
			&f.AwardLevel, &f.Justification, &f.DescriptionEN, &f.DescriptionKO,
			&f.KakaoID, &f.KakaoURL, &f.Latitude, &f.Longitude, &f.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan find")
		}
		finds = append(finds, f)
	}
	return finds, eris.Wrap(rows.Err(), "postgres: list finds iterate")
}

func (s *PostgresStore) SeenKakaoIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT kakao_id FROM finds`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: seen kakao ids")
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan kakao id")
		}
		seen[id] = true
	}
	return seen, eris.Wrap(rows.Err(), "postgres: seen kakao ids iterate")
}

func scanPgRun(row pgx.Row) (*model.DiscoveryRun, error) {
	var r model.DiscoveryRun
	var errMsg *string
	var statsJSON []byte

	err := row.Scan(&r.ID, &r.Status, &errMsg, &statsJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, err
	}

	if errMsg != nil {
		r.Error = *errMsg
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &r.Stats); err != nil {
			return nil, eris.Wrap(err, "unmarshal stats")
		}
	}
	return &r, nil
}
