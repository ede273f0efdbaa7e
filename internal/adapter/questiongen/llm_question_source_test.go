package questiongen

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"study-buddy/internal/config"
	"study-buddy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

// fakeModel answers every prompt with the next canned response.
type fakeModel struct {
	responses []string
	err       error
	prompts   []string
	delay     time.Duration
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return nil, errors.New("no canned response left")
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: next}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func newSource(t *testing.T, model llms.Model) *LLMQuestionSource {
	t.Helper()
	src, err := NewLLMQuestionSource(model, 0.2, time.Second, zap.NewNop())
	require.NoError(t, err)
	return src
}

func TestNewLLMQuestionSource_NilModel(t *testing.T) {
	_, err := NewLLMQuestionSource(nil, 0.2, 0, nil)
	assert.Error(t, err)
}

func TestGenerateMultipleChoice_Success(t *testing.T) {
	model := &fakeModel{responses: []string{`<think>pick something about Go</think>
Here is your question:
{"question": " Which keyword starts a goroutine? ", "options": ["go", "defer", "chan", "select"], "correct_answer": "go"}`}}
	src := newSource(t, model)

	q, err := src.GenerateMultipleChoice(context.Background(), "Go concurrency", domain.Hard)
	require.NoError(t, err)

	assert.Equal(t, "Which keyword starts a goroutine?", q.Question)
	assert.Equal(t, []string{"go", "defer", "chan", "select"}, q.Options)
	assert.Equal(t, "go", q.CorrectAnswer)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], `hard multiple choice question about "Go concurrency"`)
}

func TestGenerateMultipleChoice_ResolvesAnswer(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		want    string
		wantErr string
	}{
		{"letter label", `"C"`, "Lyon", ""},
		{"letter with paren", `"b)"`, "Paris", ""},
		{"case difference", `"paris"`, "Paris", ""},
		{"padded", `" Nice "`, "Nice", ""},
		{"unknown", `"Berlin"`, "", "not one of the options"},
		{"letter out of range", `"F"`, "", "not one of the options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := `{"question":"Capital of France?","options":["Marseille","Paris","Lyon","Nice"],"correct_answer":` + tt.answer + `}`
			src := newSource(t, &fakeModel{responses: []string{resp}})

			q, err := src.GenerateMultipleChoice(context.Background(), "geography", domain.Easy)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.CorrectAnswer)
		})
	}
}

func TestGenerateFillBlank(t *testing.T) {
	src := newSource(t, &fakeModel{responses: []string{
		"```json\n{\"question\": \"The capital of France is _____.\", \"answer\": \" Paris \"}\n```",
		`{"question": "", "answer": "x"}`,
	}})

	q, err := src.GenerateFillBlank(context.Background(), "geography", domain.Medium)
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is _____.", q.Question)
	assert.Equal(t, "Paris", q.Answer)

	_, err = src.GenerateFillBlank(context.Background(), "geography", domain.Medium)
	assert.Error(t, err)
}

func TestGenerate_MalformedResponses(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"no json", "I cannot help with that.", "no JSON object found"},
		{"broken json", `{"question": "x", "options": [}`, "failed to unmarshal"},
		{"only think block", "<think>{}</think>", "no JSON object found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource(t, &fakeModel{responses: []string{tt.raw}})
			_, err := src.GenerateMultipleChoice(context.Background(), "anything", domain.Easy)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerate_ModelErrors(t *testing.T) {
	src := newSource(t, &fakeModel{err: errors.New("connection refused")})
	_, err := src.GenerateFillBlank(context.Background(), "anything", domain.Easy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM call failed")

	slow, err := NewLLMQuestionSource(&fakeModel{delay: time.Second}, 0, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	_, err = slow.GenerateFillBlank(context.Background(), "anything", domain.Easy)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timed out"), err.Error())
}

func TestExtractJSONObject(t *testing.T) {
	got, err := extractJSONObject("  <think>hmm {not this}</think> prefix {\"a\": {\"b\": 1}} suffix ")
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 1}}`, got)

	_, err = extractJSONObject("} backwards {")
	assert.Error(t, err)
}

func TestNewLLM(t *testing.T) {
	model, err := NewLLM(config.LLMConfig{Provider: "ollama", ServerURL: "http://localhost:11434", Model: "qwen3:0.6b", Timeout: time.Second})
	require.NoError(t, err)
	assert.NotNil(t, model)

	_, err = NewLLM(config.LLMConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewLLM(config.LLMConfig{Provider: "gemini"})
	assert.Error(t, err)
}
