package question

import (
	"fmt"
	"strings"
)

// Letters are the choice labels, in order.
const Letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Letter returns the label for a choice index, or "" when out of range.
func Letter(index int) string {
	if index < 0 || index >= len(Letters) {
		return ""
	}
	return Letters[index : index+1]
}

// AnswerLetter returns the ground-truth letter.
func (q Question) AnswerLetter() string {
	return Letter(q.Answer)
}

// Format renders the question and its lettered choices on one line, e.g.
// " What continent is Wales in? A Europe, B Africa".
func (q Question) Format() string {
	parts := make([]string, 0, len(q.Choices))
	for i, choice := range q.Choices {
		parts = append(parts, fmt.Sprintf("%s %s", Letter(i), choice))
	}
	return fmt.Sprintf(" %s %s", q.Prompt, strings.Join(parts, ", "))
}
