// Package store persists discovery runs and their staged finds.
// Two backends exist: SQLite for single-machine use and Postgres for a
// shared review queue.
package store

import (
	"context"

	"github.com/neon-guide/guide-cli/internal/model"
)

// FindFilter specifies criteria for listing staged finds.
type FindFilter struct {
	RunID    string `json:"run_id,omitempty"`
	MinScore int    `json:"min_score,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the discovery pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.DiscoveryRun, error)
	CompleteRun(ctx context.Context, runID string, stats model.RunStats) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.DiscoveryRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.DiscoveryRun, error)

	// Finds
	StageFind(ctx context.Context, f *model.Find) error
	ListFinds(ctx context.Context, filter FindFilter) ([]model.Find, error)
	// SeenKakaoIDs returns every Kakao place ID already staged, across
	// all runs, so rescans skip places a reviewer has already seen.
	SeenKakaoIDs(ctx context.Context) (map[string]bool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
