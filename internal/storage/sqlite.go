//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"symreg/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			dataset TEXT NOT NULL,
			target TEXT NOT NULL,
			metric TEXT NOT NULL,
			creator TEXT NOT NULL,
			selector TEXT NOT NULL,
			population_size INTEGER NOT NULL,
			generations INTEGER NOT NULL,
			target_length INTEGER NOT NULL,
			max_depth INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			budget INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			started_at TEXT
		);
		CREATE TABLE IF NOT EXISTS generation_stats (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS expressions (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, dataset, target, metric, creator, selector,
			population_size, generations, target_length, max_depth, seed,
			budget, best_fitness, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			best_fitness = excluded.best_fitness
	`, run.ID, run.Dataset, run.Target, run.Metric, run.Creator, run.Selector,
		run.PopulationSize, run.Generations, run.TargetLength, run.MaxDepth,
		int64(run.Seed), run.Budget, run.BestFitness, run.StartedAt)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	var seed int64
	err = db.QueryRowContext(ctx, `
		SELECT id, dataset, target, metric, creator, selector, population_size,
			generations, target_length, max_depth, seed, budget, best_fitness,
			COALESCE(started_at, '')
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Dataset, &run.Target, &run.Metric, &run.Creator,
		&run.Selector, &run.PopulationSize, &run.Generations, &run.TargetLength,
		&run.MaxDepth, &seed, &run.Budget, &run.BestFitness, &run.StartedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	run.Seed = uint64(seed)
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, dataset, target, metric, creator, selector, population_size,
			generations, target_length, max_depth, seed, budget, best_fitness,
			COALESCE(started_at, '')
		FROM runs ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		var seed int64
		if err := rows.Scan(&run.ID, &run.Dataset, &run.Target, &run.Metric,
			&run.Creator, &run.Selector, &run.PopulationSize, &run.Generations,
			&run.TargetLength, &run.MaxDepth, &seed, &run.Budget,
			&run.BestFitness, &run.StartedAt); err != nil {
			return nil, err
		}
		run.Seed = uint64(seed)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) SaveGenerationStats(ctx context.Context, runID string, stats []model.GenerationStats) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeGenerationStats(stats)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO generation_stats (run_id, payload) VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) GetGenerationStats(ctx context.Context, runID string) ([]model.GenerationStats, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM generation_stats WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	stats, err := DecodeGenerationStats(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode generation stats %s: %w", runID, err)
	}
	return stats, true, nil
}

func (s *SQLiteStore) SaveExpressions(ctx context.Context, runID string, expressions []model.ExpressionRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeExpressions(expressions)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO expressions (run_id, payload) VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) GetExpressions(ctx context.Context, runID string) ([]model.ExpressionRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM expressions WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	expressions, err := DecodeExpressions(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode expressions %s: %w", runID, err)
	}
	return expressions, true, nil
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}
