package domain

import "context"

// GeneratedMultipleChoice is what a QuestionSource returns for a multiple
// choice request. CorrectAnswer must equal one of Options.
type GeneratedMultipleChoice struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// GeneratedFillBlank is what a QuestionSource returns for a fill in the
// blank request.
type GeneratedFillBlank struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionSource produces one question per call for a topic and difficulty.
// Implementations may block on a remote service; cancellation and timeouts
// are theirs to honour through ctx.
type QuestionSource interface {
	GenerateMultipleChoice(ctx context.Context, topic string, difficulty Difficulty) (*GeneratedMultipleChoice, error)
	GenerateFillBlank(ctx context.Context, topic string, difficulty Difficulty) (*GeneratedFillBlank, error)
}

// ResultSink durably stores a report and returns where it went (a file
// path, a record ID). An empty report is rejected with ErrEmptyState and
// write failures come back as ErrPersistenceFailed.
type ResultSink interface {
	Persist(ctx context.Context, report []ReportRow, prefix string) (string, error)
}
