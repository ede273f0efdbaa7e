package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"study-buddy/internal/domain"
	"study-buddy/internal/dto"
	"study-buddy/internal/util"
	"study-buddy/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const sessionLockStripes = 64

// SessionService drives quiz sessions for the HTTP API.
type SessionService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	GetSession(ctx context.Context, id string) (*dto.SessionResponse, error)
	GenerateQuiz(ctx context.Context, id string, req dto.GenerateQuizRequest) (*dto.SessionResponse, error)
	RecordAnswer(ctx context.Context, id string, index int, answer string) (*dto.SessionResponse, error)
	SubmitQuiz(ctx context.Context, id string) (*dto.ResultsResponse, error)
	GetResults(ctx context.Context, id string) (*dto.ResultsResponse, error)
	SaveResults(ctx context.Context, id string, prefix string) (*dto.SaveResultsResponse, error)
	DeleteSession(ctx context.Context, id string) error
	Health(ctx context.Context) error
}

type sessionService struct {
	store         SessionStore
	source        domain.QuestionSource
	sink          domain.ResultSink
	archive       domain.ResultSink // optional
	validator     *validation.Validator
	defaultPrefix string
	logger        *zap.Logger

	sfGroup singleflight.Group
	locks   [sessionLockStripes]sync.Mutex
}

// NewSessionService wires the session flow. archive may be nil.
func NewSessionService(
	store SessionStore,
	source domain.QuestionSource,
	sink domain.ResultSink,
	archive domain.ResultSink,
	validator *validation.Validator,
	defaultPrefix string,
	logger *zap.Logger,
) SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPrefix == "" {
		defaultPrefix = "quiz_results"
	}
	return &sessionService{
		store:         store,
		source:        source,
		sink:          sink,
		archive:       archive,
		validator:     validator,
		defaultPrefix: defaultPrefix,
		logger:        logger,
	}
}

// lock serializes writers of one session within this process.
func (s *sessionService) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	m := &s.locks[h.Sum32()%sessionLockStripes]
	m.Lock()
	return m.Unlock
}

func (s *sessionService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	id := util.NewULID()
	if err := s.store.Save(ctx, id, domain.NewQuizSession()); err != nil {
		return nil, err
	}
	s.logger.Info("Quiz session created", zap.String("session_id", id))
	return &dto.CreateSessionResponse{SessionID: id}, nil
}

func (s *sessionService) GetSession(ctx context.Context, id string) (*dto.SessionResponse, error) {
	session, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(id, session), nil
}

// GenerateQuiz replaces the session's quiz. Identical concurrent requests
// for the same session share one generation. The shared call is detached
// from the first caller's cancellation so a dropped request cannot fail the
// callers waiting on it; the question source's own timeout still bounds it.
func (s *sessionService) GenerateQuiz(ctx context.Context, id string, req dto.GenerateQuizRequest) (*dto.SessionResponse, error) {
	genReq, verrs := s.validator.ValidateGenerateRequest(req)
	if len(verrs) > 0 {
		return nil, verrs
	}

	key := fmt.Sprintf("%s:%d:%s:%d:%s", id, genReq.Kind, genReq.Difficulty, genReq.Count, strings.ToLower(genReq.Topic))
	v, err, shared := s.sfGroup.Do(key, func() (interface{}, error) {
		return s.generate(context.WithoutCancel(ctx), id, genReq)
	})
	if shared {
		s.logger.Debug("Generate request shared with a concurrent caller", zap.String("session_id", id))
	}
	if err != nil {
		return nil, err
	}
	return v.(*dto.SessionResponse), nil
}

func (s *sessionService) generate(ctx context.Context, id string, req domain.GenerationRequest) (*dto.SessionResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generating quiz",
		zap.String("session_id", id),
		zap.String("topic", req.Topic),
		zap.String("question_type", req.Kind.String()),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("num_questions", req.Count))

	genErr := session.Generate(ctx, s.source, req)
	if genErr != nil {
		s.logger.Warn("Quiz generation failed", zap.String("session_id", id), zap.Error(genErr))
	}
	// The session was reset either way; keep the store in step with it.
	if err := s.store.Save(ctx, id, session); err != nil {
		return nil, err
	}
	if genErr != nil {
		return nil, genErr
	}
	return toSessionResponse(id, session), nil
}

func (s *sessionService) RecordAnswer(ctx context.Context, id string, index int, answer string) (*dto.SessionResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	q, ok := session.Question(index)
	if !ok {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("question index %d out of range [0, %d)", index, len(session.Questions())))
	}
	if verrs := s.validator.ValidateAnswer(q, answer); len(verrs) > 0 {
		return nil, verrs
	}
	if err := session.RecordAnswer(index, answer); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, id, session); err != nil {
		return nil, err
	}
	return toSessionResponse(id, session), nil
}

func (s *sessionService) SubmitQuiz(ctx context.Context, id string) (*dto.ResultsResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.Evaluate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, id, session); err != nil {
		return nil, err
	}

	summary := session.Summary()
	s.logger.Info("Quiz submitted",
		zap.String("session_id", id),
		zap.Int("correct", summary.Correct),
		zap.Int("total", summary.Total))
	return toResultsResponse(id, session.ToReport(), summary), nil
}

// GetResults never fails on an unsubmitted session; it returns an empty report.
func (s *sessionService) GetResults(ctx context.Context, id string) (*dto.ResultsResponse, error) {
	session, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResultsResponse(id, session.ToReport(), session.Summary()), nil
}

// SaveResults writes the report through the CSV sink and, when configured,
// the archive. An archive failure is logged and does not fail the save.
func (s *sessionService) SaveResults(ctx context.Context, id string, prefix string) (*dto.SaveResultsResponse, error) {
	if prefix == "" {
		prefix = s.defaultPrefix
	}
	if verrs := s.validator.ValidatePrefix(prefix); len(verrs) > 0 {
		return nil, verrs
	}

	session, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	report := session.ToReport()
	if len(report) == 0 {
		return nil, domain.NewEmptyStateError("no results to save")
	}

	location, err := s.sink.Persist(ctx, report, prefix)
	if err != nil {
		s.logger.Error("Failed to save quiz results", zap.String("session_id", id), zap.Error(err))
		return nil, err
	}
	resp := &dto.SaveResultsResponse{Location: location}

	if s.archive != nil {
		archiveID, err := s.archive.Persist(ctx, report, prefix)
		if err != nil {
			s.logger.Warn("Failed to archive quiz results", zap.String("session_id", id), zap.Error(err))
		} else {
			resp.ArchiveID = archiveID
		}
	}
	return resp, nil
}

func (s *sessionService) DeleteSession(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	if _, err := s.store.Load(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *sessionService) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func toSessionResponse(id string, session *domain.QuizSession) *dto.SessionResponse {
	req := session.Request()
	questions := session.Questions()

	resp := &dto.SessionResponse{
		SessionID: id,
		Questions: make([]dto.QuestionResponse, 0, len(questions)),
		Answers:   session.Answers(),
		Submitted: session.Evaluated(),
	}
	if len(questions) > 0 {
		resp.Topic = req.Topic
		resp.QuestionType = req.Kind.String()
		resp.Difficulty = string(req.Difficulty)
	}
	for i, q := range questions {
		resp.Questions = append(resp.Questions, dto.QuestionResponse{
			Index:        i,
			Number:       i + 1,
			QuestionType: q.Kind.String(),
			Question:     q.Prompt,
			Options:      q.Options,
		})
	}
	return resp
}

func toResultsResponse(id string, report []domain.ReportRow, summary domain.Summary) *dto.ResultsResponse {
	rows := make([]dto.ResultRow, 0, len(report))
	for _, r := range report {
		rows = append(rows, dto.ResultRow{
			QuestionNumber: r.QuestionNumber,
			Question:       r.Question,
			QuestionType:   r.QuestionType,
			UserAnswer:     r.UserAnswer,
			CorrectAnswer:  r.CorrectAnswer,
			IsCorrect:      r.IsCorrect,
		})
	}
	return &dto.ResultsResponse{
		SessionID: id,
		Results:   rows,
		Summary: dto.SummaryResponse{
			Correct:    summary.Correct,
			Total:      summary.Total,
			Percentage: summary.Percentage,
		},
	}
}
