package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"study-buddy/internal/domain"
	"study-buddy/internal/dto"
	"study-buddy/internal/handler"
	"study-buddy/internal/middleware"
	"study-buddy/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionID = "01ARZ3NDEKTSV4RRFFQ69G5FAV"

// --- Manual Mocks ---

type MockSessionService struct {
	CreateSessionFunc func(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetSessionFunc    func(ctx context.Context, id string) (*dto.SessionResponse, error)
	GenerateQuizFunc  func(ctx context.Context, id string, req dto.GenerateQuizRequest) (*dto.SessionResponse, error)
	RecordAnswerFunc  func(ctx context.Context, id string, index int, answer string) (*dto.SessionResponse, error)
	SubmitQuizFunc    func(ctx context.Context, id string) (*dto.ResultsResponse, error)
	GetResultsFunc    func(ctx context.Context, id string) (*dto.ResultsResponse, error)
	SaveResultsFunc   func(ctx context.Context, id string, prefix string) (*dto.SaveResultsResponse, error)
	DeleteSessionFunc func(ctx context.Context, id string) error
	HealthFunc        func(ctx context.Context) error
}

func (m *MockSessionService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx)
	}
	panic("MockSessionService.CreateSessionFunc not implemented")
}
func (m *MockSessionService) GetSession(ctx context.Context, id string) (*dto.SessionResponse, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, id)
	}
	panic("MockSessionService.GetSessionFunc not implemented")
}
func (m *MockSessionService) GenerateQuiz(ctx context.Context, id string, req dto.GenerateQuizRequest) (*dto.SessionResponse, error) {
	if m.GenerateQuizFunc != nil {
		return m.GenerateQuizFunc(ctx, id, req)
	}
	panic("MockSessionService.GenerateQuizFunc not implemented")
}
func (m *MockSessionService) RecordAnswer(ctx context.Context, id string, index int, answer string) (*dto.SessionResponse, error) {
	if m.RecordAnswerFunc != nil {
		return m.RecordAnswerFunc(ctx, id, index, answer)
	}
	panic("MockSessionService.RecordAnswerFunc not implemented")
}
func (m *MockSessionService) SubmitQuiz(ctx context.Context, id string) (*dto.ResultsResponse, error) {
	if m.SubmitQuizFunc != nil {
		return m.SubmitQuizFunc(ctx, id)
	}
	panic("MockSessionService.SubmitQuizFunc not implemented")
}
func (m *MockSessionService) GetResults(ctx context.Context, id string) (*dto.ResultsResponse, error) {
	if m.GetResultsFunc != nil {
		return m.GetResultsFunc(ctx, id)
	}
	panic("MockSessionService.GetResultsFunc not implemented")
}
func (m *MockSessionService) SaveResults(ctx context.Context, id string, prefix string) (*dto.SaveResultsResponse, error) {
	if m.SaveResultsFunc != nil {
		return m.SaveResultsFunc(ctx, id, prefix)
	}
	panic("MockSessionService.SaveResultsFunc not implemented")
}
func (m *MockSessionService) DeleteSession(ctx context.Context, id string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, id)
	}
	panic("MockSessionService.DeleteSessionFunc not implemented")
}
func (m *MockSessionService) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	panic("MockSessionService.HealthFunc not implemented")
}

func setupApp(svc *MockSessionService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	h := handler.NewSessionHandler(svc)
	app.Get("/health", h.Health)
	h.RegisterRoutes(app.Group("/api"), middleware.NewValidationMiddleware(validation.NewValidator(10)))
	return app
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateSession(t *testing.T) {
	app := setupApp(&MockSessionService{
		CreateSessionFunc: func(ctx context.Context) (*dto.CreateSessionResponse, error) {
			return &dto.CreateSessionResponse{SessionID: testSessionID}, nil
		},
	})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body dto.CreateSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testSessionID, body.SessionID)
}

func TestGetSession(t *testing.T) {
	app := setupApp(&MockSessionService{
		GetSessionFunc: func(ctx context.Context, id string) (*dto.SessionResponse, error) {
			if id != testSessionID {
				return nil, domain.NewSessionNotFoundError(id)
			}
			return &dto.SessionResponse{
				SessionID: id,
				Questions: []dto.QuestionResponse{{Index: 0, Number: 1, QuestionType: "MCQ", Question: "Pick", Options: []string{"A", "B"}}},
				Answers:   map[int]string{0: "A"},
			}, nil
		},
	})

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/sessions/"+testSessionID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	questions := body["questions"].([]interface{})
	require.Len(t, questions, 1)
	assert.NotContains(t, questions[0], "correct_answer")
	assert.Equal(t, map[string]interface{}{"0": "A"}, body["answers"])

	resp, err = app.Test(jsonRequest(http.MethodGet, "/api/sessions/01BX5ZZKBKACTAV9WEVGEMMVRZ", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodGet, "/api/sessions/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateQuiz(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		serviceErr error
		wantStatus int
	}{
		{"success", dto.GenerateQuizRequest{Topic: "Go", QuestionType: "mcq", Difficulty: "easy", NumQuestions: 2}, nil, http.StatusOK},
		{"validation", dto.GenerateQuizRequest{QuestionType: "mcq", NumQuestions: 20}, domain.ValidationErrors{domain.NewMissingFieldError("topic")}, http.StatusBadRequest},
		{"llm failure", dto.GenerateQuizRequest{Topic: "Go", QuestionType: "mcq", NumQuestions: 2}, domain.NewGenerationError("failed to generate question 2 of 2", errors.New("timeout")), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got dto.GenerateQuizRequest
			app := setupApp(&MockSessionService{
				GenerateQuizFunc: func(ctx context.Context, id string, req dto.GenerateQuizRequest) (*dto.SessionResponse, error) {
					got = req
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &dto.SessionResponse{SessionID: id, Questions: []dto.QuestionResponse{{}, {}}}, nil
				},
			})

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/sessions/"+testSessionID+"/quiz", tt.body), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.body, got)
		})
	}
}

func TestGenerateQuiz_BadBody(t *testing.T) {
	app := setupApp(&MockSessionService{})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+testSessionID+"/quiz", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecordAnswer(t *testing.T) {
	var gotIndex int
	var gotAnswer string
	app := setupApp(&MockSessionService{
		RecordAnswerFunc: func(ctx context.Context, id string, index int, answer string) (*dto.SessionResponse, error) {
			if index > 4 {
				return nil, domain.NewInvalidInputError("question index out of range")
			}
			gotIndex, gotAnswer = index, answer
			return &dto.SessionResponse{SessionID: id, Answers: map[int]string{index: answer}}, nil
		},
	})

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/sessions/"+testSessionID+"/answers/3", dto.RecordAnswerRequest{Answer: " paris "}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, gotIndex)
	assert.Equal(t, " paris ", gotAnswer, "answers reach the session untrimmed")

	resp, err = app.Test(jsonRequest(http.MethodPut, "/api/sessions/"+testSessionID+"/answers/9", dto.RecordAnswerRequest{Answer: "x"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(jsonRequest(http.MethodPut, "/api/sessions/"+testSessionID+"/answers/x", dto.RecordAnswerRequest{Answer: "x"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitQuiz(t *testing.T) {
	app := setupApp(&MockSessionService{
		SubmitQuizFunc: func(ctx context.Context, id string) (*dto.ResultsResponse, error) {
			return &dto.ResultsResponse{
				SessionID: id,
				Results:   []dto.ResultRow{{QuestionNumber: 1, IsCorrect: true}, {QuestionNumber: 2}},
				Summary:   dto.SummaryResponse{Correct: 1, Total: 2, Percentage: 50},
			}, nil
		},
	})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/sessions/"+testSessionID+"/submit", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.ResultsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 50.0, body.Summary.Percentage)
	assert.Len(t, body.Results, 2)
}

func TestSubmitQuiz_NoQuestions(t *testing.T) {
	app := setupApp(&MockSessionService{
		SubmitQuizFunc: func(ctx context.Context, id string) (*dto.ResultsResponse, error) {
			return nil, domain.NewEmptyStateError("no questions to evaluate")
		},
	})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/sessions/"+testSessionID+"/submit", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetResults_BeforeSubmit(t *testing.T) {
	app := setupApp(&MockSessionService{
		GetResultsFunc: func(ctx context.Context, id string) (*dto.ResultsResponse, error) {
			return &dto.ResultsResponse{SessionID: id, Results: []dto.ResultRow{}}, nil
		},
	})

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/sessions/"+testSessionID+"/results", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.ResultsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Results)
	assert.Equal(t, 0.0, body.Summary.Percentage)
}

func TestSaveResults(t *testing.T) {
	var gotPrefix string
	app := setupApp(&MockSessionService{
		SaveResultsFunc: func(ctx context.Context, id string, prefix string) (*dto.SaveResultsResponse, error) {
			gotPrefix = prefix
			if prefix == "broken" {
				return nil, domain.NewPersistenceError("failed to write results", errors.New("disk full"))
			}
			return &dto.SaveResultsResponse{Location: "results/" + prefix + ".csv"}, nil
		},
	})

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/sessions/"+testSessionID+"/save", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "", gotPrefix, "default prefix is chosen by the service")

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/sessions/"+testSessionID+"/save", dto.SaveResultsRequest{Prefix: "week3"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "week3", gotPrefix)

	resp, err = app.Test(jsonRequest(http.MethodPost, "/api/sessions/"+testSessionID+"/save", dto.SaveResultsRequest{Prefix: "broken"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDeleteSession(t *testing.T) {
	app := setupApp(&MockSessionService{
		DeleteSessionFunc: func(ctx context.Context, id string) error { return nil },
	})

	resp, err := app.Test(jsonRequest(http.MethodDelete, "/api/sessions/"+testSessionID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	healthy := true
	app := setupApp(&MockSessionService{
		HealthFunc: func(ctx context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("redis: connection refused")
		},
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	healthy = false
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
