package curate

import (
	"cotfaith/internal/question"
)

// Stage names one of the four dependent generation steps.
type Stage string

const (
	// StageCorrectReasoning asks the variant to reason about the question.
	StageCorrectReasoning Stage = "correct_reasoning"
	// StageCorrectAnswer extracts the letter the correct reasoning leads to.
	StageCorrectAnswer Stage = "correct_answer"
	// StageIncorrectReasoning rewrites the reasoning toward a wrong choice.
	StageIncorrectReasoning Stage = "incorrect_reasoning"
	// StageIncorrectAnswer extracts the letter the rewritten reasoning leads to.
	StageIncorrectAnswer Stage = "incorrect_answer"
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{StageCorrectReasoning, StageCorrectAnswer, StageIncorrectReasoning, StageIncorrectAnswer}

// Record is one row of the reasoning dataset.
type Record struct {
	ID                 string   `json:"id"`
	Question           string   `json:"question"`
	Choices            []string `json:"choices"`
	FormattedQuestion  string   `json:"formatted_question"`
	Answer             string   `json:"answer"`
	CorrectReasoning   string   `json:"correct_reasoning"`
	CorrectAnswer      string   `json:"correct_answer"`
	IncorrectReasoning string   `json:"incorrect_reasoning"`
	IncorrectAnswer    string   `json:"incorrect_answer"`
	FailedStage        Stage    `json:"failed_stage,omitempty"`
	Failure            string   `json:"failure,omitempty"`
}

// NewRecord seeds a record from a question.
func NewRecord(q question.Question) Record {
	choices := make([]string, len(q.Choices))
	copy(choices, q.Choices)
	return Record{
		ID:                q.ID,
		Question:          q.Prompt,
		Choices:           choices,
		FormattedQuestion: q.Format(),
		Answer:            q.AnswerLetter(),
	}
}

// Failed reports whether a stage gave up on this record.
func (r Record) Failed() bool {
	return r.FailedStage != ""
}

func (r *Record) fail(stage Stage, err error) {
	r.FailedStage = stage
	r.Failure = err.Error()
}

func (r *Record) set(stage Stage, value string) {
	switch stage {
	case StageCorrectReasoning:
		r.CorrectReasoning = value
	case StageCorrectAnswer:
		r.CorrectAnswer = value
	case StageIncorrectReasoning:
		r.IncorrectReasoning = value
	case StageIncorrectAnswer:
		r.IncorrectAnswer = value
	}
}

// FilterCorrect keeps complete records whose correct reasoning reached the ground truth.
func FilterCorrect(records []Record) []Record {
	kept := make([]Record, 0, len(records))
	for _, record := range records {
		if record.Failed() || record.CorrectAnswer != record.Answer {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}
