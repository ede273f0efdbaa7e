package models

import (
	"database/sql"
	"time"
)

// QuizAttempt is the header row of an archived quiz attempt.
type QuizAttempt struct {
	ID             string    `db:"ID"`    // ULID
	Label          string    `db:"LABEL"` // save prefix chosen by the user
	TotalQuestions int       `db:"TOTAL_QUESTIONS"`
	CorrectAnswers int       `db:"CORRECT_ANSWERS"`
	ScorePercent   float64   `db:"SCORE_PERCENT"`
	CreatedAt      time.Time `db:"CREATED_AT"`
}

// QuizAttemptAnswer is one scored question of an archived attempt.
type QuizAttemptAnswer struct {
	AttemptID      string         `db:"ATTEMPT_ID"`
	QuestionNumber int            `db:"QUESTION_NUMBER"`
	Question       string         `db:"QUESTION"`
	QuestionType   string         `db:"QUESTION_TYPE"`
	UserAnswer     sql.NullString `db:"USER_ANSWER"` // NULL when unanswered
	CorrectAnswer  string         `db:"CORRECT_ANSWER"`
	IsCorrect      int            `db:"IS_CORRECT"` // NUMBER(1)
}
