package domain

import (
	"fmt"
	"strings"
)

// QuestionKind tags the variant a Question belongs to.
type QuestionKind int

const (
	MultipleChoice QuestionKind = iota + 1
	FillBlank
)

// Labels written to reports, kept identical to the exported CSV history.
const (
	multipleChoiceLabel = "MCQ"
	fillBlankLabel      = "Fill in the blank"
)

// NoSelection is recorded when a multiple choice question was left without a
// selected option. It evaluates like a missing answer.
const NoSelection = ""

func (k QuestionKind) String() string {
	switch k {
	case MultipleChoice:
		return multipleChoiceLabel
	case FillBlank:
		return fillBlankLabel
	default:
		return fmt.Sprintf("QuestionKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported kinds.
func (k QuestionKind) Valid() bool {
	return k == MultipleChoice || k == FillBlank
}

// ParseQuestionKind accepts the labels used by the UI, the API and reports.
func ParseQuestionKind(s string) (QuestionKind, error) {
	switch normalizeLabel(s) {
	case "mcq", "multiple choice", "multiple_choice", "multiplechoice", "multiple-choice":
		return MultipleChoice, nil
	case "fill in the blank", "fill_blank", "fill blank", "fillblank", "fill", "fill-in-the-blank", "fill_in_the_blank":
		return FillBlank, nil
	default:
		return 0, NewInvalidInputError(fmt.Sprintf("unsupported question type: %q", s))
	}
}

// MarshalText lets QuestionKind travel as its report label in JSON. The
// zero kind encodes as an empty string.
func (k QuestionKind) MarshalText() ([]byte, error) {
	if k == 0 {
		return []byte{}, nil
	}
	if !k.Valid() {
		return nil, fmt.Errorf("invalid question kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *QuestionKind) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = 0
		return nil
	}
	parsed, err := ParseQuestionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Difficulty is forwarded to the question source as a lower-case word.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(normalizeLabel(s)); d {
	case Easy, Medium, Hard:
		return d, nil
	default:
		return "", NewInvalidInputError(fmt.Sprintf("unsupported difficulty: %q", s))
	}
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Question is one generated item. Options is set only for MultipleChoice.
type Question struct {
	Kind          QuestionKind `json:"kind"`
	Prompt        string       `json:"prompt"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
}

// NewMultipleChoiceQuestion copies options so the question cannot be changed
// through the caller's slice.
func NewMultipleChoiceQuestion(prompt string, options []string, correctAnswer string) (Question, error) {
	q := Question{
		Kind:          MultipleChoice,
		Prompt:        prompt,
		Options:       append([]string(nil), options...),
		CorrectAnswer: correctAnswer,
	}
	return q, q.Validate()
}

func NewFillBlankQuestion(prompt string, answer string) (Question, error) {
	q := Question{
		Kind:          FillBlank,
		Prompt:        prompt,
		CorrectAnswer: answer,
	}
	return q, q.Validate()
}

// Validate checks the kind-specific required fields.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return NewValidationError("question text is required")
	}
	switch q.Kind {
	case MultipleChoice:
		if len(q.Options) < 2 {
			return NewValidationError("multiple choice question needs at least two options")
		}
		seen := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			if _, dup := seen[opt]; dup {
				return NewValidationError(fmt.Sprintf("duplicate option %q", opt))
			}
			seen[opt] = struct{}{}
		}
		if _, ok := seen[q.CorrectAnswer]; !ok {
			return NewValidationError("correct answer must be one of the options")
		}
	case FillBlank:
		if len(q.Options) != 0 {
			return NewValidationError("fill in the blank question cannot have options")
		}
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			return NewValidationError("fill in the blank question needs an answer")
		}
	default:
		return NewValidationError(fmt.Sprintf("unsupported question kind %d", int(q.Kind)))
	}
	return nil
}

// HasOption reports whether value is one of the question's options.
func (q Question) HasOption(value string) bool {
	for _, opt := range q.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// IsCorrect applies the kind's comparison rule. Multiple choice answers come
// from the same option set as the correct answer, so they compare exactly;
// free text is trimmed and lower-cased on both sides.
func (q Question) IsCorrect(userAnswer string) bool {
	switch q.Kind {
	case MultipleChoice:
		return userAnswer == q.CorrectAnswer
	case FillBlank:
		return normalizeAnswer(userAnswer) == normalizeAnswer(q.CorrectAnswer)
	default:
		return false
	}
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
