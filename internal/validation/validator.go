package validation

import (
	"regexp"
	"strings"

	"study-buddy/internal/domain"
	"study-buddy/internal/dto"
	"study-buddy/internal/util"
)

const (
	maxTopicLength  = 200
	maxAnswerLength = 2000
	maxPrefixLength = 64
)

var validPrefix = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validator checks requests at the API and terminal boundaries.
type Validator struct {
	maxQuestions int
}

// NewValidator creates a validator. maxQuestions <= 0 means
// domain.MaxQuestionsPerQuiz, and larger values are capped to it.
func NewValidator(maxQuestions int) *Validator {
	if maxQuestions <= 0 || maxQuestions > domain.MaxQuestionsPerQuiz {
		maxQuestions = domain.MaxQuestionsPerQuiz
	}
	return &Validator{maxQuestions: maxQuestions}
}

func (v *Validator) MaxQuestions() int {
	return v.maxQuestions
}

// ValidateSessionID checks that id is a ULID.
func (v *Validator) ValidateSessionID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("session_id"))
	} else if !util.IsULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("session_id", id))
	}
	return errors
}

// ValidateGenerateRequest parses and checks a generate request.
func (v *Validator) ValidateGenerateRequest(req dto.GenerateQuizRequest) (domain.GenerationRequest, domain.ValidationErrors) {
	var errors domain.ValidationErrors

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		errors = append(errors, domain.NewMissingFieldError("topic"))
	} else if len(topic) > maxTopicLength {
		errors = append(errors, domain.NewOutOfRangeError("topic", len(topic), 1, maxTopicLength))
	}

	kind, err := domain.ParseQuestionKind(req.QuestionType)
	if err != nil {
		errors = append(errors, domain.NewInvalidFormatError("question_type", req.QuestionType))
	}

	difficulty := domain.Medium
	if strings.TrimSpace(req.Difficulty) != "" {
		d, err := domain.ParseDifficulty(req.Difficulty)
		if err != nil {
			errors = append(errors, domain.NewInvalidFormatError("difficulty", req.Difficulty))
		}
		difficulty = d
	}

	if req.NumQuestions < domain.MinQuestionsPerQuiz || req.NumQuestions > v.maxQuestions {
		errors = append(errors, domain.NewOutOfRangeError("num_questions", req.NumQuestions, domain.MinQuestionsPerQuiz, v.maxQuestions))
	}

	if len(errors) > 0 {
		return domain.GenerationRequest{}, errors
	}
	return domain.GenerationRequest{
		Topic:      topic,
		Kind:       kind,
		Difficulty: difficulty,
		Count:      req.NumQuestions,
	}, nil
}

// ValidateAnswer checks an answer against the question it is for. Multiple
// choice answers must be one of the options or domain.NoSelection.
func (v *Validator) ValidateAnswer(q domain.Question, answer string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	switch q.Kind {
	case domain.MultipleChoice:
		if answer != domain.NoSelection && !q.HasOption(answer) {
			errors = append(errors, domain.NewInvalidFormatError("answer", answer))
		}
	default:
		if len(answer) > maxAnswerLength {
			errors = append(errors, domain.NewOutOfRangeError("answer", len(answer), 0, maxAnswerLength))
		}
	}
	return errors
}

// ValidatePrefix checks a results file prefix. Only letters, digits, '_'
// and '-' are allowed so the prefix cannot leave the results directory.
func (v *Validator) ValidatePrefix(prefix string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if len(prefix) > maxPrefixLength {
		errors = append(errors, domain.NewOutOfRangeError("prefix", len(prefix), 1, maxPrefixLength))
	} else if !validPrefix.MatchString(prefix) {
		errors = append(errors, domain.NewInvalidFormatError("prefix", prefix))
	}
	return errors
}
