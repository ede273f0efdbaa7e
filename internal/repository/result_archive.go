package repository

import (
	"context"
	"fmt"
	"time"

	"study-buddy/internal/domain"
	"study-buddy/internal/repository/models"
	"study-buddy/internal/util"

	"github.com/jmoiron/sqlx"
)

const (
	insertAttemptQuery = `INSERT INTO quiz_attempts (ID, LABEL, TOTAL_QUESTIONS, CORRECT_ANSWERS, SCORE_PERCENT, CREATED_AT)
	          VALUES (:1, :2, :3, :4, :5, :6)`
	insertAnswerQuery = `INSERT INTO quiz_attempt_answers (ATTEMPT_ID, QUESTION_NUMBER, QUESTION, QUESTION_TYPE, USER_ANSWER, CORRECT_ANSWER, IS_CORRECT)
	          VALUES (:1, :2, :3, :4, :5, :6, :7)`
)

// ResultArchive stores reports in Oracle. It implements domain.ResultSink;
// the returned location is the attempt ID.
type ResultArchive struct {
	db    *sqlx.DB
	newID func() string
	now   func() time.Time
}

func NewResultArchive(db *sqlx.DB) *ResultArchive {
	return &ResultArchive{
		db:    db,
		newID: util.NewULID,
		now:   time.Now,
	}
}

// Persist writes the attempt header and one row per question in a single
// transaction.
func (r *ResultArchive) Persist(ctx context.Context, report []domain.ReportRow, prefix string) (string, error) {
	if len(report) == 0 {
		return "", domain.NewEmptyStateError("no results to archive")
	}

	attempt := toModelAttempt(r.newID(), prefix, report, r.now())
	answers := toModelAnswers(attempt.ID, report)

	err := withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, insertAttemptQuery,
			attempt.ID,
			attempt.Label,
			attempt.TotalQuestions,
			attempt.CorrectAnswers,
			attempt.ScorePercent,
			attempt.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert quiz attempt: %w", err)
		}

		for _, a := range answers {
			if _, err := tx.ExecContext(ctx, insertAnswerQuery,
				a.AttemptID,
				a.QuestionNumber,
				a.Question,
				a.QuestionType,
				a.UserAnswer,
				a.CorrectAnswer,
				a.IsCorrect,
			); err != nil {
				return fmt.Errorf("failed to insert answer %d: %w", a.QuestionNumber, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", domain.NewPersistenceError("failed to archive quiz results", err)
	}
	return attempt.ID, nil
}

func toModelAttempt(id, label string, report []domain.ReportRow, createdAt time.Time) *models.QuizAttempt {
	summary := domain.SummarizeReport(report)
	return &models.QuizAttempt{
		ID:             id,
		Label:          label,
		TotalQuestions: summary.Total,
		CorrectAnswers: summary.Correct,
		ScorePercent:   summary.Percentage,
		CreatedAt:      createdAt,
	}
}

func toModelAnswers(attemptID string, report []domain.ReportRow) []models.QuizAttemptAnswer {
	answers := make([]models.QuizAttemptAnswer, 0, len(report))
	for _, row := range report {
		answers = append(answers, models.QuizAttemptAnswer{
			AttemptID:      attemptID,
			QuestionNumber: row.QuestionNumber,
			Question:       row.Question,
			QuestionType:   row.QuestionType,
			UserAnswer:     util.StringToNullString(row.UserAnswer),
			CorrectAnswer:  row.CorrectAnswer,
			IsCorrect:      util.BoolToNumber(row.IsCorrect),
		})
	}
	return answers
}
