// Package storage persists run bookkeeping: run configuration, per
// generation diagnostics and the final expression archive. Backends share
// the Store interface; the in-memory store is the default and a SQLite
// backend is available behind the sqlite build tag.
package storage

import (
	"context"

	"symreg/internal/model"
)

// Store defines persistence operations for run artifacts.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveGenerationStats(ctx context.Context, runID string, stats []model.GenerationStats) error
	GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error)
	SaveExpressions(ctx context.Context, runID string, expressions []model.ExpressionRecord) error
	GetExpressions(ctx context.Context, runID string) ([]model.ExpressionRecord, bool, error)
}

// CloseIfSupported closes stores that hold external resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
