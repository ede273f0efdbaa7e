package dto

// CreateSessionResponse is returned when a new quiz session is opened.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// GenerateQuizRequest asks for a fresh quiz in an existing session.
type GenerateQuizRequest struct {
	Topic        string `json:"topic"`
	QuestionType string `json:"question_type"` // "mcq" or "fill"; report labels are accepted too
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"num_questions"`
}

// QuestionResponse is a question as shown to the quiz taker. The correct
// answer is never included.
type QuestionResponse struct {
	Index        int      `json:"index"`
	Number       int      `json:"number"`
	QuestionType string   `json:"question_type"`
	Question     string   `json:"question"`
	Options      []string `json:"options,omitempty"`
}

// SessionResponse describes the current state of a session.
type SessionResponse struct {
	SessionID    string             `json:"session_id"`
	Topic        string             `json:"topic,omitempty"`
	QuestionType string             `json:"question_type,omitempty"`
	Difficulty   string             `json:"difficulty,omitempty"`
	Questions    []QuestionResponse `json:"questions"`
	Answers      map[int]string     `json:"answers"`
	Submitted    bool               `json:"submitted"`
}

type RecordAnswerRequest struct {
	Answer string `json:"answer"`
}

// ResultRow mirrors one line of the saved report.
type ResultRow struct {
	QuestionNumber int    `json:"question_number"`
	Question       string `json:"question"`
	QuestionType   string `json:"question_type"`
	UserAnswer     string `json:"user_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

type SummaryResponse struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ResultsResponse is empty (no rows, zero summary) until the quiz is submitted.
type ResultsResponse struct {
	SessionID string          `json:"session_id"`
	Results   []ResultRow     `json:"results"`
	Summary   SummaryResponse `json:"summary"`
}

type SaveResultsRequest struct {
	Prefix string `json:"prefix"`
}

// SaveResultsResponse reports where the results went. ArchiveID is set only
// when the database archive accepted them.
type SaveResultsResponse struct {
	Location  string `json:"location"`
	ArchiveID string `json:"archive_id,omitempty"`
}

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
