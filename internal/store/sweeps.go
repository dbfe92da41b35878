package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"cotfaith/internal/llm"
	"cotfaith/internal/sweep"
)

// Sweep describes a registered sweep.
type Sweep struct {
	Key      string
	Variant  string
	Features []llm.Feature
}

// SaveSweep registers the variant and features behind a sweep key.
func (s *Store) SaveSweep(ctx context.Context, info Sweep) error {
	features, err := json.Marshal(info.Features)
	if err != nil {
		return fmt.Errorf("encode sweep features: %w", err)
	}
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sweeps (sweep_key, variant, features, run_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (sweep_key) DO NOTHING`,
		info.Key,
		info.Variant,
		string(features),
		s.runID,
	); err != nil {
		return fmt.Errorf("insert sweep: %w", err)
	}
	return nil
}

// Sweeps lists registered sweeps, oldest first.
func (s *Store) Sweeps(ctx context.Context) ([]Sweep, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sweep_key, variant, features FROM sweeps ORDER BY created_at, sweep_key`)
	if err != nil {
		return nil, fmt.Errorf("query sweeps: %w", err)
	}
	defer rows.Close()
	var sweeps []Sweep
	for rows.Next() {
		var (
			info     Sweep
			features string
		)
		if err := rows.Scan(&info.Key, &info.Variant, &features); err != nil {
			return nil, fmt.Errorf("scan sweep: %w", err)
		}
		if err := json.Unmarshal([]byte(features), &info.Features); err != nil {
			return nil, fmt.Errorf("decode sweep features: %w", err)
		}
		sweeps = append(sweeps, info)
	}
	return sweeps, rows.Err()
}

// SweepResult loads the row for (key, strength) if present.
func (s *Store) SweepResult(ctx context.Context, key string, strength float64) (sweep.Result, bool, error) {
	row := s.db.QueryRowContext(ctx, sweepSelect+` WHERE sweep_key = ? AND feature_value = ?`, key, strength)
	result, err := scanSweepResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sweep.Result{}, false, nil
	}
	if err != nil {
		return sweep.Result{}, false, err
	}
	return result, true, nil
}

// SaveSweepResult inserts one strength row. An existing row is left untouched.
func (s *Store) SaveSweepResult(ctx context.Context, result sweep.Result) error {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sweep_results (
		   sweep_key, feature_value, num_correct, num_wrong_faithful, num_wrong_unfaithful,
		   num_invalid, num_error, answers, run_id
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (sweep_key, feature_value) DO NOTHING`,
		result.SweepKey,
		result.FeatureValue,
		result.Counts.Correct,
		result.Counts.WrongFaithful,
		result.Counts.WrongUnfaithful,
		result.Counts.Invalid,
		result.Counts.Error,
		string(answers),
		s.runID,
	); err != nil {
		return fmt.Errorf("insert sweep result %v: %w", result.FeatureValue, err)
	}
	return nil
}

// SweepResults returns every row of a sweep ordered by strength.
func (s *Store) SweepResults(ctx context.Context, key string) ([]sweep.Result, error) {
	rows, err := s.db.QueryContext(ctx, sweepSelect+` WHERE sweep_key = ? ORDER BY feature_value`, key)
	if err != nil {
		return nil, fmt.Errorf("query sweep results: %w", err)
	}
	defer rows.Close()
	var results []sweep.Result
	for rows.Next() {
		result, err := scanSweepResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

const sweepSelect = `SELECT sweep_key, feature_value, num_correct, num_wrong_faithful,
       num_wrong_unfaithful, num_invalid, num_error, answers
  FROM sweep_results`

type scanner interface {
	Scan(dest ...any) error
}

func scanSweepResult(row scanner) (sweep.Result, error) {
	var (
		result  sweep.Result
		answers string
	)
	if err := row.Scan(
		&result.SweepKey,
		&result.FeatureValue,
		&result.Counts.Correct,
		&result.Counts.WrongFaithful,
		&result.Counts.WrongUnfaithful,
		&result.Counts.Invalid,
		&result.Counts.Error,
		&answers,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sweep.Result{}, err
		}
		return sweep.Result{}, fmt.Errorf("scan sweep result: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &result.Answers); err != nil {
		return sweep.Result{}, fmt.Errorf("decode answers: %w", err)
	}
	return result, nil
}
