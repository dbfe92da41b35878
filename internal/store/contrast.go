package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cotfaith/internal/contrast"
	"cotfaith/internal/llm"
)

// ExperimentIDs returns the ids of stored contrast experiments.
func (s *Store) ExperimentIDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := s.ids(ctx, `SELECT experiment_id FROM contrast_experiments`)
	if err != nil {
		return nil, fmt.Errorf("list experiment ids: %w", err)
	}
	return ids, nil
}

// SaveExperiment stores the experiment and its ranked features together.
func (s *Store) SaveExperiment(ctx context.Context, experiment contrast.Experiment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO contrast_experiments (
			   experiment_id, question, correct_response, incorrect_response, incorrect_reasoning, run_id
			 ) VALUES (?, ?, ?, ?, ?, ?)`,
			experiment.ID,
			experiment.Question,
			experiment.CorrectResponse,
			experiment.IncorrectResponse,
			experiment.IncorrectReasoning,
			s.runID,
		); err != nil {
			return fmt.Errorf("insert experiment %s: %w", experiment.ID, err)
		}
		for rank, feature := range experiment.Features {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO contrast_features (experiment_id, ordinal, feature_id, label, index_in_sae)
				 VALUES (?, ?, ?, ?, ?)`,
				experiment.ID,
				rank,
				feature.ID,
				feature.Label,
				feature.IndexInSAE,
			); err != nil {
				return fmt.Errorf("insert experiment feature %s: %w", feature.ID, err)
			}
		}
		return nil
	})
}

// ExperimentFeatures returns an experiment's features in rank order.
func (s *Store) ExperimentFeatures(ctx context.Context, experimentID string) ([]llm.Feature, error) {
	return s.features(ctx,
		`SELECT feature_id, label, index_in_sae FROM contrast_features WHERE experiment_id = ? ORDER BY ordinal`,
		experimentID)
}

// HasNeighbors reports whether neighbors were already fetched for a feature.
func (s *Store) HasNeighbors(ctx context.Context, featureID string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM neighbor_lookups WHERE feature_id = ?`, featureID).Scan(&count); err != nil {
		return false, fmt.Errorf("check neighbors: %w", err)
	}
	return count > 0, nil
}

// SaveNeighbors caches the neighbor list of a feature. An empty list is still cached.
func (s *Store) SaveNeighbors(ctx context.Context, feature llm.Feature, neighbors []llm.Feature) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO neighbor_lookups (feature_id, label, index_in_sae) VALUES (?, ?, ?)
			 ON CONFLICT (feature_id) DO NOTHING`,
			feature.ID,
			feature.Label,
			feature.IndexInSAE,
		); err != nil {
			return fmt.Errorf("insert neighbor lookup %s: %w", feature.ID, err)
		}
		for rank, neighbor := range neighbors {
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO feature_neighbors (feature_id, ordinal, neighbor_id, neighbor_label, neighbor_index_in_sae)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT (feature_id, ordinal) DO NOTHING`,
				feature.ID,
				rank,
				neighbor.ID,
				neighbor.Label,
				neighbor.IndexInSAE,
			); err != nil {
				return fmt.Errorf("insert neighbor %s: %w", neighbor.ID, err)
			}
		}
		return nil
	})
}

// NeighborSet is a cached feature with its neighbors.
type NeighborSet struct {
	Feature   llm.Feature
	Neighbors []llm.Feature
}

// NeighborsMatching returns cached neighbor sets whose feature label contains
// substr, ignoring case. An empty substr matches everything.
func (s *Store) NeighborsMatching(ctx context.Context, substr string) ([]NeighborSet, error) {
	pattern := "%" + strings.ToLower(substr) + "%"
	lookups, err := s.features(ctx,
		`SELECT feature_id, label, index_in_sae FROM neighbor_lookups
		  WHERE lower(label) LIKE ? ORDER BY label, feature_id`,
		pattern)
	if err != nil {
		return nil, err
	}
	sets := make([]NeighborSet, 0, len(lookups))
	for _, feature := range lookups {
		neighbors, err := s.features(ctx,
			`SELECT neighbor_id, neighbor_label, neighbor_index_in_sae FROM feature_neighbors
			  WHERE feature_id = ? ORDER BY ordinal`,
			feature.ID)
		if err != nil {
			return nil, err
		}
		sets = append(sets, NeighborSet{Feature: feature, Neighbors: neighbors})
	}
	return sets, nil
}

func (s *Store) features(ctx context.Context, query string, args ...any) ([]llm.Feature, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()
	var features []llm.Feature
	for rows.Next() {
		var feature llm.Feature
		if err := rows.Scan(&feature.ID, &feature.Label, &feature.IndexInSAE); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		features = append(features, feature)
	}
	return features, rows.Err()
}
