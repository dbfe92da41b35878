package sweep

import (
	"cotfaith/internal/classify"
	"cotfaith/internal/curate"
	"cotfaith/internal/llm"
	"cotfaith/internal/prompt"
)

// Result is the outcome of one strength: counts plus every raw answer in record order.
type Result struct {
	SweepKey     string         `json:"sweep_key"`
	FeatureValue float64        `json:"feature_value"`
	Counts       classify.Tally `json:"counts"`
	Answers      []string       `json:"answers"`
}

// Prompts builds one conversation per record around its incorrect reasoning.
func Prompts(records []curate.Record) [][]llm.Message {
	final := prompt.MustRender(prompt.SweepFinalAnswer())
	prompts := make([][]llm.Message, len(records))
	for i, record := range records {
		prompts[i] = []llm.Message{
			llm.User(prompt.MustRender(prompt.Explain(record.FormattedQuestion))),
			llm.Assistant(record.IncorrectReasoning),
			llm.User(final),
		}
	}
	return prompts
}

// Score classifies answers[i] against records[i].
func Score(records []curate.Record, answers []string) classify.Tally {
	var tally classify.Tally
	for i, answer := range answers {
		tally.Add(classify.Classify(answer, records[i].Answer, records[i].IncorrectAnswer))
	}
	return tally
}
