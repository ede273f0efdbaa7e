package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"study-buddy/internal/domain"
	"study-buddy/internal/dto"
	"study-buddy/internal/validation"
)

type quizOptions struct {
	Topic        string
	QuestionType string
	Difficulty   string
	NumQuestions int
	Save         bool
	Prefix       string
}

// quizRunner drives one quiz attempt over a line-oriented terminal.
type quizRunner struct {
	source    domain.QuestionSource
	sink      domain.ResultSink
	validator *validation.Validator
	in        io.Reader
	out       io.Writer
}

// Run generates the quiz, collects one answer per question, prints the
// score and optionally saves the report.
func (r *quizRunner) Run(ctx context.Context, opts quizOptions) error {
	req, verrs := r.validator.ValidateGenerateRequest(dto.GenerateQuizRequest{
		Topic:        opts.Topic,
		QuestionType: opts.QuestionType,
		Difficulty:   opts.Difficulty,
		NumQuestions: opts.NumQuestions,
	})
	if len(verrs) > 0 {
		return verrs
	}
	if opts.Save {
		// checked before generation so a bad prefix does not cost a quiz
		if verrs := r.validator.ValidatePrefix(opts.Prefix); len(verrs) > 0 {
			return verrs
		}
	}

	session := domain.NewQuizSession()
	fmt.Fprintf(r.out, "Generating %d %s question(s) about %q...\n", req.Count, req.Kind, req.Topic)
	if err := session.Generate(ctx, r.source, req); err != nil {
		return err
	}

	scanner := bufio.NewScanner(r.in)
	questions := session.Questions()
	for i, q := range questions {
		fmt.Fprintf(r.out, "\nQuestion %d/%d: %s\n", i+1, len(questions), q.Prompt)
		answer, ok := r.ask(scanner, q)
		if !ok {
			// input closed, remaining questions stay unanswered
			break
		}
		if err := session.RecordAnswer(i, answer); err != nil {
			return err
		}
	}

	if err := session.Evaluate(); err != nil {
		return err
	}
	r.printResults(session)

	if !opts.Save {
		return nil
	}
	location, err := r.sink.Persist(ctx, session.ToReport(), opts.Prefix)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "\nResults saved to %s\n", location)
	return nil
}

// ask reads one answer. Multiple choice answers are entered as the option
// number; a blank line leaves the question without a selection.
func (r *quizRunner) ask(scanner *bufio.Scanner, q domain.Question) (string, bool) {
	if q.Kind != domain.MultipleChoice {
		fmt.Fprint(r.out, "Your answer: ")
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}

	for i, opt := range q.Options {
		fmt.Fprintf(r.out, "  %d) %s\n", i+1, opt)
	}
	for {
		fmt.Fprintf(r.out, "Your choice (1-%d, blank to skip): ", len(q.Options))
		if !scanner.Scan() {
			return "", false
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return domain.NoSelection, true
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(q.Options) {
			return q.Options[n-1], true
		}
		fmt.Fprintf(r.out, "Please enter a number between 1 and %d.\n", len(q.Options))
	}
}

func (r *quizRunner) printResults(session *domain.QuizSession) {
	summary := session.Summary()
	fmt.Fprintf(r.out, "\nYour Score: %.2f%% (%d/%d)\n", summary.Percentage, summary.Correct, summary.Total)

	for _, res := range session.Results() {
		verdict := "Incorrect"
		if res.IsCorrect {
			verdict = "Correct"
		}
		userAnswer := res.UserAnswer
		if userAnswer == "" {
			userAnswer = "(no answer)"
		}
		fmt.Fprintf(r.out, "\n%d. %s\n   Your answer: %s\n   Correct answer: %s\n   %s\n",
			res.QuestionNumber, res.QuestionText, userAnswer, res.CorrectAnswer, verdict)
	}
}
