package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"study-buddy/internal/adapter/questiongen"
	"study-buddy/internal/adapter/resultsink"
	"study-buddy/internal/config"
	"study-buddy/internal/logger"
	"study-buddy/internal/validation"

	"go.uber.org/zap"
)

func main() {
	var opts quizOptions
	flag.StringVar(&opts.Topic, "topic", "", "quiz topic (required)")
	flag.StringVar(&opts.QuestionType, "type", "mcq", "question type: mcq or fill")
	flag.StringVar(&opts.Difficulty, "difficulty", "medium", "difficulty: easy, medium or hard")
	flag.IntVar(&opts.NumQuestions, "n", 5, "number of questions (1-10)")
	flag.BoolVar(&opts.Save, "save", false, "save the results as CSV when the quiz is done")
	flag.StringVar(&opts.Prefix, "prefix", "", "results file prefix (defaults to results.default_prefix)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		exit(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		exit(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	if opts.Prefix == "" {
		opts.Prefix = cfg.Results.DefaultPrefix
	}

	llm, err := questiongen.NewLLM(cfg.LLM)
	if err != nil {
		exit(fmt.Sprintf("Failed to create LLM client: %v", err))
	}
	source, err := questiongen.NewLLMQuestionSource(llm, cfg.LLM.Temperature, cfg.LLM.Timeout, logger.Get())
	if err != nil {
		exit(fmt.Sprintf("Failed to create question source: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &quizRunner{
		source:    source,
		sink:      resultsink.NewCSVSink(cfg.Results.Dir, resultsink.WithLogger(logger.Get())),
		validator: validation.NewValidator(cfg.Quiz.MaxQuestions),
		in:        os.Stdin,
		out:       os.Stdout,
	}
	if err := runner.Run(ctx, opts); err != nil {
		logger.Get().Debug("Quiz ended with error", zap.Error(err))
		exit(err.Error())
	}
}

func exit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
