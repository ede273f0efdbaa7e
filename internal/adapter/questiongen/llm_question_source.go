package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"study-buddy/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const multipleChoicePrompt = `You are a quiz author. Write ONE %s multiple choice question about "%s".
Respond with ONLY a JSON object in the following format:
{
    "question": "the question text",
    "options": ["option 1", "option 2", "option 3", "option 4"],
    "correct_answer": "the option that is correct, copied exactly"
}

Rules:
1. Provide exactly four distinct options
2. correct_answer must be identical to one of the options
3. Do not number or letter the options`

const fillBlankPrompt = `You are a quiz author. Write ONE %s fill in the blank question about "%s".
Respond with ONLY a JSON object in the following format:
{
    "question": "a sentence with the missing word shown as _____",
    "answer": "the missing word or short phrase"
}

Rules:
1. The question must contain exactly one blank written as _____
2. The answer must be a single word or a short phrase`

// LLMQuestionSource implements domain.QuestionSource on top of a langchaingo
// model. Each call issues one completion and parses a JSON object from it.
type LLMQuestionSource struct {
	model       llms.Model
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewLLMQuestionSource creates a question source. A zero timeout leaves the
// caller's context deadline in charge.
func NewLLMQuestionSource(model llms.Model, temperature float64, timeout time.Duration, logger *zap.Logger) (*LLMQuestionSource, error) {
	if model == nil {
		return nil, errors.New("llm model cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMQuestionSource{
		model:       model,
		temperature: temperature,
		timeout:     timeout,
		logger:      logger,
	}, nil
}

func (s *LLMQuestionSource) GenerateMultipleChoice(ctx context.Context, topic string, difficulty domain.Difficulty) (*domain.GeneratedMultipleChoice, error) {
	prompt := fmt.Sprintf(multipleChoicePrompt, difficulty, topic)

	var resp domain.GeneratedMultipleChoice
	if err := s.complete(ctx, prompt, &resp); err != nil {
		return nil, err
	}

	resp.Question = strings.TrimSpace(resp.Question)
	for i, opt := range resp.Options {
		resp.Options[i] = strings.TrimSpace(opt)
	}
	answer, err := matchOption(resp.Options, resp.CorrectAnswer)
	if err != nil {
		s.logger.Warn("LLM returned an unusable correct answer",
			zap.String("topic", topic),
			zap.Strings("options", resp.Options),
			zap.String("correct_answer", resp.CorrectAnswer))
		return nil, err
	}
	resp.CorrectAnswer = answer
	return &resp, nil
}

func (s *LLMQuestionSource) GenerateFillBlank(ctx context.Context, topic string, difficulty domain.Difficulty) (*domain.GeneratedFillBlank, error) {
	prompt := fmt.Sprintf(fillBlankPrompt, difficulty, topic)

	var resp domain.GeneratedFillBlank
	if err := s.complete(ctx, prompt, &resp); err != nil {
		return nil, err
	}

	resp.Question = strings.TrimSpace(resp.Question)
	resp.Answer = strings.TrimSpace(resp.Answer)
	if resp.Question == "" || resp.Answer == "" {
		return nil, fmt.Errorf("incomplete fill in the blank question in LLM response")
	}
	return &resp, nil
}

func (s *LLMQuestionSource) complete(ctx context.Context, prompt string, out interface{}) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt, llms.WithTemperature(s.temperature))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("LLM request timed out", zap.Error(err))
			return fmt.Errorf("LLM request timed out: %w", err)
		}
		s.logger.Error("Failed to get response from LLM", zap.Error(err))
		return fmt.Errorf("LLM call failed: %w", err)
	}
	s.logger.Debug("Raw LLM response received", zap.String("raw_response", raw))

	payload, err := extractJSONObject(raw)
	if err != nil {
		s.logger.Error("Could not find a JSON object in LLM response", zap.String("raw_response", raw))
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		s.logger.Error("Failed to unmarshal extracted JSON from LLM response",
			zap.Error(err),
			zap.String("extracted_json", payload))
		return fmt.Errorf("failed to unmarshal JSON from LLM: %w", err)
	}
	return nil
}

// extractJSONObject drops a leading <think> block and returns the text
// between the first '{' and the last '}'.
func extractJSONObject(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd > thinkStart {
			cleaned = strings.TrimSpace(cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):])
		}
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in LLM response")
	}
	return cleaned[start : end+1], nil
}

// matchOption resolves the model's correct answer to one of the options:
// an exact match, a letter label such as "B" or "b)", or a unique
// case-insensitive match.
func matchOption(options []string, answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	for _, opt := range options {
		if opt == answer {
			return opt, nil
		}
	}

	label := strings.TrimRight(answer, ").: ")
	if len(label) == 1 {
		idx := int(strings.ToUpper(label)[0]) - 'A'
		if idx >= 0 && idx < len(options) {
			return options[idx], nil
		}
	}

	found := ""
	for _, opt := range options {
		if strings.EqualFold(opt, answer) {
			if found != "" {
				return "", fmt.Errorf("correct answer %q matches more than one option", answer)
			}
			found = opt
		}
	}
	if found == "" {
		return "", fmt.Errorf("correct answer %q is not one of the options", answer)
	}
	return found, nil
}
