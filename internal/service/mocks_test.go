package service

import (
	"context"
	"os"
	"testing"
	"time"

	"study-buddy/internal/config"
	"study-buddy/internal/domain"
	"study-buddy/internal/logger"

	"github.com/stretchr/testify/mock"
)

// TestMain initializes the logger for all tests in this package
func TestMain(m *testing.M) {
	if err := logger.Initialize(config.LoggerConfig{Env: "development", Level: "error"}); err != nil {
		panic("Failed to initialize logger for tests: " + err.Error())
	}
	exitVal := m.Run()
	_ = logger.Sync()
	os.Exit(exitVal)
}

// --- MockQuestionSource ---
type MockQuestionSource struct {
	mock.Mock
}

func (m *MockQuestionSource) GenerateMultipleChoice(ctx context.Context, topic string, difficulty domain.Difficulty) (*domain.GeneratedMultipleChoice, error) {
	args := m.Called(ctx, topic, difficulty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneratedMultipleChoice), args.Error(1)
}

func (m *MockQuestionSource) GenerateFillBlank(ctx context.Context, topic string, difficulty domain.Difficulty) (*domain.GeneratedFillBlank, error) {
	args := m.Called(ctx, topic, difficulty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneratedFillBlank), args.Error(1)
}

// --- MockResultSink ---
type MockResultSink struct {
	mock.Mock
}

func (m *MockResultSink) Persist(ctx context.Context, report []domain.ReportRow, prefix string) (string, error) {
	args := m.Called(ctx, report, prefix)
	return args.String(0), args.Error(1)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
