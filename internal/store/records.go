package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"cotfaith/internal/curate"
)

// RecordIDs returns the ids of stored records that finished every stage. Failed
// records are left out so a rerun retries them.
func (s *Store) RecordIDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := s.ids(ctx, `SELECT record_id FROM reasoning_records WHERE failed_stage = ''`)
	if err != nil {
		return nil, fmt.Errorf("list record ids: %w", err)
	}
	return ids, nil
}

// SaveRecords inserts a batch. A stored record is replaced only if it had
// failed; finished records keep their original row and position.
func (s *Store) SaveRecords(ctx context.Context, records []curate.Record) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, record := range records {
			choices, err := json.Marshal(record.Choices)
			if err != nil {
				return fmt.Errorf("encode choices %s: %w", record.ID, err)
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO reasoning_records (
				   record_id, question, choices, formatted_question, answer,
				   correct_reasoning, correct_answer, incorrect_reasoning, incorrect_answer,
				   failed_stage, failure, run_id
				 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT (record_id) DO UPDATE SET
				   question = excluded.question,
				   choices = excluded.choices,
				   formatted_question = excluded.formatted_question,
				   answer = excluded.answer,
				   correct_reasoning = excluded.correct_reasoning,
				   correct_answer = excluded.correct_answer,
				   incorrect_reasoning = excluded.incorrect_reasoning,
				   incorrect_answer = excluded.incorrect_answer,
				   failed_stage = excluded.failed_stage,
				   failure = excluded.failure,
				   run_id = excluded.run_id
				 WHERE reasoning_records.failed_stage <> ''`,
				record.ID,
				record.Question,
				string(choices),
				record.FormattedQuestion,
				record.Answer,
				record.CorrectReasoning,
				record.CorrectAnswer,
				record.IncorrectReasoning,
				record.IncorrectAnswer,
				string(record.FailedStage),
				record.Failure,
				s.runID,
			); err != nil {
				return fmt.Errorf("insert record %s: %w", record.ID, err)
			}
		}
		return nil
	})
}

// Records returns every stored record in insertion order.
func (s *Store) Records(ctx context.Context) ([]curate.Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT record_id, question, choices, formatted_question, answer,
		        correct_reasoning, correct_answer, incorrect_reasoning, incorrect_answer,
		        failed_stage, failure
		   FROM reasoning_records
		  ORDER BY seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []curate.Record
	for rows.Next() {
		var (
			record  curate.Record
			choices string
			stage   string
		)
		if err := rows.Scan(
			&record.ID,
			&record.Question,
			&choices,
			&record.FormattedQuestion,
			&record.Answer,
			&record.CorrectReasoning,
			&record.CorrectAnswer,
			&record.IncorrectReasoning,
			&record.IncorrectAnswer,
			&stage,
			&record.Failure,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(choices), &record.Choices); err != nil {
			return nil, fmt.Errorf("decode choices %s: %w", record.ID, err)
		}
		record.FailedStage = curate.Stage(stage)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
