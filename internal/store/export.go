package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cotfaith/internal/curate"
	"cotfaith/internal/sweep"
)

var recordHeader = []string{
	"id", "question", "choices", "formatted_question", "answer",
	"correct_reasoning", "correct_answer", "incorrect_reasoning", "incorrect_answer",
}

// WriteRecordsCSV writes records with the curated dataset columns.
func WriteRecordsCSV(w io.Writer, records []curate.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(recordHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, record := range records {
		row := []string{
			record.ID,
			record.Question,
			strings.Join(record.Choices, "|"),
			record.FormattedQuestion,
			record.Answer,
			record.CorrectReasoning,
			record.CorrectAnswer,
			record.IncorrectReasoning,
			record.IncorrectAnswer,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write record %s: %w", record.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSweepCSV writes one row per strength: the feature value, the five counts,
// then answer_0..answer_n.
func WriteSweepCSV(w io.Writer, results []sweep.Result) error {
	width := 0
	for _, result := range results {
		width = max(width, len(result.Answers))
	}
	header := []string{"feature_value", "num_correct", "num_wrong_faithful", "num_wrong_unfaithful", "num_invalid", "num_error"}
	for i := 0; i < width; i++ {
		header = append(header, "answer_"+strconv.Itoa(i))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, result := range results {
		row := []string{
			strconv.FormatFloat(result.FeatureValue, 'f', -1, 64),
			strconv.Itoa(result.Counts.Correct),
			strconv.Itoa(result.Counts.WrongFaithful),
			strconv.Itoa(result.Counts.WrongUnfaithful),
			strconv.Itoa(result.Counts.Invalid),
			strconv.Itoa(result.Counts.Error),
		}
		row = append(row, result.Answers...)
		for len(row) < len(header) {
			row = append(row, "")
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write sweep row %v: %w", result.FeatureValue, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportRecords writes the stored dataset, optionally keeping only records whose
// correct reasoning reached the ground truth.
func (s *Store) ExportRecords(ctx context.Context, w io.Writer, onlyCorrect bool) (int, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return 0, err
	}
	if onlyCorrect {
		records = curate.FilterCorrect(records)
	}
	return len(records), WriteRecordsCSV(w, records)
}

// ExportSweep writes the stored rows of one sweep.
func (s *Store) ExportSweep(ctx context.Context, w io.Writer, key string) (int, error) {
	results, err := s.SweepResults(ctx, key)
	if err != nil {
		return 0, err
	}
	return len(results), WriteSweepCSV(w, results)
}
