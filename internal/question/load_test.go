package question

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadSetYAML verifies YAML sets load and normalize properly.
func TestLoadSetYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yml")
	payload := `version: 1
questions:
  - id: wales
    question: "  What continent is Wales in? "
    choices: [" Europe ", "Africa", "Asia", "Australia"]
    answer: 0
  - question: "What is 2+2?"
    choices: ["3", "4"]
    answer: 1
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("load set: %v", err)
	}
	if len(set.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(set.Questions))
	}
	q := set.Questions[0]
	if q.Prompt != "What continent is Wales in?" || q.Choices[0] != "Europe" {
		t.Fatalf("expected trimmed question, got %+v", q)
	}
	if set.Questions[1].ID != "q0002" {
		t.Fatalf("expected positional id, got %q", set.Questions[1].ID)
	}
	if set.Questions[1].AnswerLetter() != "B" {
		t.Fatalf("expected answer B, got %q", set.Questions[1].AnswerLetter())
	}
}

// TestLoadSetJSON verifies JSON sets are parsed and validated.
func TestLoadSetJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.json")
	payload := `{
  "version": 1,
  "questions": [
    {"id": "q2", "question": "Which color?", "choices": ["red", "blue"], "answer": 1}
  ]
}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	set, err := LoadSet(path)
	if err != nil {
		t.Fatalf("load set: %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].ID != "q2" {
		t.Fatalf("unexpected set: %+v", set.Questions)
	}
}

// TestLoadSetRejectsUnknownFields verifies strict decoding.
func TestLoadSetRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yml")
	payload := "version: 1\nquestions:\n  - question: q\n    choices: [a, b]\n    correct: 1\n"
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	if _, err := LoadSet(path); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

// TestLoadSetValidationErrors verifies invalid sets return validation errors.
func TestLoadSetValidationErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yml")
	payload := `version: 1
questions:
  - id: dup
    question: "Q1"
    choices: ["yes", "no"]
    answer: 4
  - id: dup
    question: ""
    choices: ["a"]
    answer: 0
`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write set: %v", err)
	}
	_, err := LoadSet(path)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(validationErr.Issues) != 4 {
		t.Fatalf("expected 4 issues, got %+v", validationErr.Issues)
	}
}
