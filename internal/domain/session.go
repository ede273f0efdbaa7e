package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	MinQuestionsPerQuiz = 1
	MaxQuestionsPerQuiz = 10
)

// GenerationRequest describes the quiz to generate.
type GenerationRequest struct {
	Topic      string       `json:"topic"`
	Kind       QuestionKind `json:"kind"`
	Difficulty Difficulty   `json:"difficulty"`
	Count      int          `json:"count"`
}

// Validate enforces the product limits on a generation request. It belongs
// to the input boundary; QuizSession.Generate does not repeat it. A
// maxQuestions of zero or less means MaxQuestionsPerQuiz.
func (r GenerationRequest) Validate(maxQuestions int) error {
	if maxQuestions <= 0 {
		maxQuestions = MaxQuestionsPerQuiz
	}

	var errs ValidationErrors
	if strings.TrimSpace(r.Topic) == "" {
		errs = append(errs, NewMissingFieldError("topic"))
	}
	if !r.Kind.Valid() {
		errs = append(errs, NewInvalidFormatError("question_type", r.Kind.String()))
	}
	if _, err := ParseDifficulty(string(r.Difficulty)); err != nil {
		errs = append(errs, NewInvalidFormatError("difficulty", string(r.Difficulty)))
	}
	if r.Count < MinQuestionsPerQuiz || r.Count > maxQuestions {
		errs = append(errs, NewOutOfRangeError("num_questions", r.Count, MinQuestionsPerQuiz, maxQuestions))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// QuizSession holds one attempt: the generated questions, the answers
// recorded so far and, once evaluated, one scored result per question.
//
// len(results) is either 0 or len(questions), and every answer key is a
// valid question index. A QuizSession is not safe for concurrent use.
type QuizSession struct {
	request   GenerationRequest
	questions []Question
	answers   map[int]string
	results   []ScoredResult
}

func NewQuizSession() *QuizSession {
	return &QuizSession{answers: make(map[int]string)}
}

// Generate replaces the quiz with req.Count questions fetched one at a time
// from source. Prior answers and results are discarded first. If any fetch
// fails, panics or yields an invalid question, the session is left with no
// questions and a GENERATION_FAILED error is returned. A count below one is
// rejected with INVALID_INPUT before the source is called.
func (s *QuizSession) Generate(ctx context.Context, source QuestionSource, req GenerationRequest) error {
	s.request = GenerationRequest{}
	s.questions = nil
	s.answers = make(map[int]string)
	s.results = nil

	if req.Count < MinQuestionsPerQuiz {
		return NewInvalidInputError(fmt.Sprintf("question count must be at least %d, got %d", MinQuestionsPerQuiz, req.Count))
	}
	if source == nil {
		return NewGenerationError("no question source configured", nil)
	}

	generated := make([]Question, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		if err := ctx.Err(); err != nil {
			return NewGenerationError("question generation cancelled", err)
		}
		q, err := fetchQuestion(ctx, source, req)
		if err != nil {
			return NewGenerationError(fmt.Sprintf("failed to generate question %d of %d", i+1, req.Count), err)
		}
		generated = append(generated, q)
	}

	s.questions = generated
	s.request = req
	return nil
}

func fetchQuestion(ctx context.Context, source QuestionSource, req GenerationRequest) (q Question, err error) {
	defer func() {
		if r := recover(); r != nil {
			q, err = Question{}, fmt.Errorf("question source panicked: %v", r)
		}
	}()

	switch req.Kind {
	case MultipleChoice:
		g, err := source.GenerateMultipleChoice(ctx, req.Topic, req.Difficulty)
		if err != nil {
			return Question{}, err
		}
		if g == nil {
			return Question{}, errors.New("question source returned no question")
		}
		return NewMultipleChoiceQuestion(g.Question, g.Options, g.CorrectAnswer)
	case FillBlank:
		g, err := source.GenerateFillBlank(ctx, req.Topic, req.Difficulty)
		if err != nil {
			return Question{}, err
		}
		if g == nil {
			return Question{}, errors.New("question source returned no question")
		}
		return NewFillBlankQuestion(g.Question, g.Answer)
	default:
		return Question{}, NewInvalidInputError(fmt.Sprintf("unsupported question kind %d", int(req.Kind)))
	}
}

// RecordAnswer stores value as the answer to the question at index,
// replacing any earlier answer. Correctness is not checked here.
func (s *QuizSession) RecordAnswer(index int, value string) error {
	if index < 0 || index >= len(s.questions) {
		return NewInvalidInputError(fmt.Sprintf("question index %d out of range [0, %d)", index, len(s.questions)))
	}
	if s.answers == nil {
		s.answers = make(map[int]string)
	}
	s.answers[index] = value
	return nil
}

// Evaluate scores every question against the current answers, replacing any
// previous results. Missing answers count as the empty string. With no
// questions it does nothing and returns an EMPTY_STATE error.
func (s *QuizSession) Evaluate() error {
	if len(s.questions) == 0 {
		return NewEmptyStateError("no questions to evaluate")
	}

	results := make([]ScoredResult, 0, len(s.questions))
	for i, q := range s.questions {
		userAnswer := s.answers[i]
		results = append(results, ScoredResult{
			QuestionNumber: i + 1,
			QuestionText:   q.Prompt,
			Kind:           q.Kind,
			UserAnswer:     userAnswer,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      q.IsCorrect(userAnswer),
		})
	}
	s.results = results
	return nil
}

func (s *QuizSession) Request() GenerationRequest {
	return s.request
}

func (s *QuizSession) Questions() []Question {
	out := make([]Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = cloneQuestion(q)
	}
	return out
}

func (s *QuizSession) Question(index int) (Question, bool) {
	if index < 0 || index >= len(s.questions) {
		return Question{}, false
	}
	return cloneQuestion(s.questions[index]), true
}

func (s *QuizSession) Answers() map[int]string {
	out := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

func (s *QuizSession) Results() []ScoredResult {
	return append([]ScoredResult(nil), s.results...)
}

// Evaluated reports whether results are available.
func (s *QuizSession) Evaluated() bool {
	return len(s.results) > 0
}

// Summary aggregates the current results.
func (s *QuizSession) Summary() Summary {
	return Summarize(s.results)
}

// ToReport flattens the current results into report rows. Before Evaluate
// the report is empty.
func (s *QuizSession) ToReport() []ReportRow {
	rows := make([]ReportRow, 0, len(s.results))
	for _, r := range s.results {
		rows = append(rows, r.ReportRow())
	}
	return rows
}

func cloneQuestion(q Question) Question {
	q.Options = append([]string(nil), q.Options...)
	if len(q.Options) == 0 {
		q.Options = nil
	}
	return q
}

// SessionSnapshot is the serializable state of a QuizSession.
type SessionSnapshot struct {
	Request   GenerationRequest `json:"request"`
	Questions []Question        `json:"questions"`
	Answers   map[int]string    `json:"answers"`
	Results   []ScoredResult    `json:"results"`
}

func (s *QuizSession) Snapshot() SessionSnapshot {
	return SessionSnapshot{
		Request:   s.request,
		Questions: s.Questions(),
		Answers:   s.Answers(),
		Results:   s.Results(),
	}
}

// RestoreSession rebuilds a session from a snapshot, rejecting snapshots that
// break the session invariants.
func RestoreSession(snap SessionSnapshot) (*QuizSession, error) {
	for i, q := range snap.Questions {
		if err := q.Validate(); err != nil {
			return nil, NewInternalError(fmt.Sprintf("snapshot question %d is invalid", i), err)
		}
	}
	for idx := range snap.Answers {
		if idx < 0 || idx >= len(snap.Questions) {
			return nil, NewInternalError(fmt.Sprintf("snapshot answer index %d out of range", idx), nil)
		}
	}
	if len(snap.Results) != 0 && len(snap.Results) != len(snap.Questions) {
		return nil, NewInternalError("snapshot results do not match questions", nil)
	}

	s := NewQuizSession()
	s.request = snap.Request
	for _, q := range snap.Questions {
		s.questions = append(s.questions, cloneQuestion(q))
	}
	for k, v := range snap.Answers {
		s.answers[k] = v
	}
	s.results = append([]ScoredResult(nil), snap.Results...)
	return s, nil
}
