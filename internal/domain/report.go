package domain

import "strconv"

// ScoredResult is the outcome for one question.
type ScoredResult struct {
	QuestionNumber int          `json:"question_number"`
	QuestionText   string       `json:"question_text"`
	Kind           QuestionKind `json:"kind"`
	UserAnswer     string       `json:"user_answer"`
	CorrectAnswer  string       `json:"correct_answer"`
	IsCorrect      bool         `json:"is_correct"`
}

func (r ScoredResult) ReportRow() ReportRow {
	return ReportRow{
		QuestionNumber: r.QuestionNumber,
		Question:       r.QuestionText,
		QuestionType:   r.Kind.String(),
		UserAnswer:     r.UserAnswer,
		CorrectAnswer:  r.CorrectAnswer,
		IsCorrect:      r.IsCorrect,
	}
}

// ReportColumns is the header of a tabular report.
var ReportColumns = []string{
	"question_number",
	"question",
	"question_type",
	"user_answer",
	"correct_answer",
	"is_correct",
}

// ReportRow is one question of a report in serialization-ready form.
type ReportRow struct {
	QuestionNumber int    `json:"question_number"`
	Question       string `json:"question"`
	QuestionType   string `json:"question_type"`
	UserAnswer     string `json:"user_answer"`
	CorrectAnswer  string `json:"correct_answer"`
	IsCorrect      bool   `json:"is_correct"`
}

// Record returns the row's fields in ReportColumns order.
func (r ReportRow) Record() []string {
	return []string{
		strconv.Itoa(r.QuestionNumber),
		r.Question,
		r.QuestionType,
		r.UserAnswer,
		r.CorrectAnswer,
		strconv.FormatBool(r.IsCorrect),
	}
}

// Summary is the score of an attempt. Percentage is 0 when Total is 0.
type Summary struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Empty reports the "no results" state.
func (s Summary) Empty() bool {
	return s.Total == 0
}

func Summarize(results []ScoredResult) Summary {
	correct := 0
	for _, r := range results {
		if r.IsCorrect {
			correct++
		}
	}
	return newSummary(correct, len(results))
}

// SummarizeReport computes the same summary from flattened rows.
func SummarizeReport(rows []ReportRow) Summary {
	correct := 0
	for _, r := range rows {
		if r.IsCorrect {
			correct++
		}
	}
	return newSummary(correct, len(rows))
}

func newSummary(correct, total int) Summary {
	s := Summary{Correct: correct, Total: total}
	if total > 0 {
		s.Percentage = 100 * float64(correct) / float64(total)
	}
	return s
}
