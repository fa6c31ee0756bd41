package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/neon-guide/guide-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS discovery_runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	error      TEXT,
	stats      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS finds (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES discovery_runs(id),
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
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON discovery_runs(status);
CREATE INDEX IF NOT EXISTS idx_finds_run_id ON finds(run_id);
CREATE INDEX IF NOT EXISTS idx_finds_kakao_id ON finds(kakao_id);
CREATE INDEX IF NOT EXISTS idx_finds_score ON finds(score);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.DiscoveryRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO discovery_runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.DiscoveryRun{
		ID:        id,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats model.RunStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE discovery_runs SET status = ?, stats = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(statsJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE discovery_runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.DiscoveryRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, error, stats, created_at, updated_at FROM discovery_runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.DiscoveryRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, error, stats, created_at, updated_at FROM discovery_runs
		 ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.DiscoveryRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) StageFind(ctx context.Context, f *model.Find) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO finds (id, run_id, neighborhood, keyword, name, score, award_level,
		                    justification, description_en, description_ko, kakao_id, kakao_url,
		                    latitude, longitude, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.RunID, f.Neighborhood, f.Keyword, f.Name, f.Score, f.AwardLevel,
		f.Justification, f.DescriptionEN, f.DescriptionKO, f.KakaoID, f.KakaoURL,
		f.Latitude, f.Longitude, f.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: stage find %q", f.Name)
}

func (s *SQLiteStore) ListFinds(ctx context.Context, filter FindFilter) ([]model.Find, error) {
	query := `SELECT id, run_id, neighborhood, keyword, name, score, award_level,
	                 justification, description_en, description_ko, kakao_id, kakao_url,
	                 latitude, longitude, created_at
	          FROM finds WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.MinScore > 0 {
		query += ` AND score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY score DESC, created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list finds")
	}
	defer rows.Close()

	var finds []model.Find
	for rows.Next() {
		var f model.Find
		if err := rows.Scan(&f.ID, &f.RunID, &f.Neighborhood, &f.Keyword, &f.Name, &f.Score,
			&f.AwardLevel, &f.Justification, &f.DescriptionEN, &f.DescriptionKO,
			&f.KakaoID, &f.KakaoURL, &f.Latitude, &f.Longitude, &f.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan find")
		}
		finds = append(finds, f)
	}
	return finds, eris.Wrap(rows.Err(), "sqlite: list finds iterate")
}

func (s *SQLiteStore) SeenKakaoIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT kakao_id FROM finds`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: seen kakao ids")
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan kakao id")
		}
		seen[id] = true
	}
	return seen, eris.Wrap(rows.Err(), "sqlite: seen kakao ids iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.DiscoveryRun, error) {
	var r model.DiscoveryRun
	var errMsg, statsJSON sql.NullString

	err := row.Scan(&r.ID, &r.Status, &errMsg, &statsJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.Error = errMsg.String
	if statsJSON.Valid && statsJSON.String != "" {
		if err := json.Unmarshal([]byte(statsJSON.String), &r.Stats); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal stats")
		}
	}
	return &r, nil
}
