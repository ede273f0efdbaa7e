package resultsink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"study-buddy/internal/domain"

	"go.uber.org/zap"
)

const (
	timestampLayout = "20060102_150405"
	// maxNameAttempts bounds the _N suffix search for one timestamp.
	maxNameAttempts = 100
)

// CSVSink writes each report to its own file under dir.
type CSVSink struct {
	dir    string
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*CSVSink)

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(s *CSVSink) {
		s.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *CSVSink) {
		s.logger = logger
	}
}

func NewCSVSink(dir string, opts ...Option) *CSVSink {
	s := &CSVSink{
		dir:    dir,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist writes report as <dir>/<prefix>_<YYYYMMDD_HHMMSS>.csv and returns
// the file path. Existing files are never overwritten; a second save in the
// same second gets a _2, _3, ... suffix.
func (s *CSVSink) Persist(ctx context.Context, report []domain.ReportRow, prefix string) (string, error) {
	if len(report) == 0 {
		return "", domain.NewEmptyStateError("no results to save")
	}
	if err := checkPrefix(prefix); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", domain.NewPersistenceError("save cancelled", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", domain.NewPersistenceError(fmt.Sprintf("failed to create results directory %s", s.dir), err)
	}

	f, path, err := s.create(prefix)
	if err != nil {
		return "", err
	}

	if err := writeReport(f, report); err != nil {
		f.Close()
		os.Remove(path)
		return "", domain.NewPersistenceError(fmt.Sprintf("failed to write %s", path), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", domain.NewPersistenceError(fmt.Sprintf("failed to close %s", path), err)
	}

	s.logger.Info("Saved quiz results", zap.String("path", path), zap.Int("rows", len(report)))
	return path, nil
}

// checkPrefix keeps result files inside dir: the prefix must be a plain
// file name fragment.
func checkPrefix(prefix string) error {
	if strings.TrimSpace(prefix) == "" {
		return domain.NewInvalidInputError("results prefix is required")
	}
	if strings.ContainsAny(prefix, `/\`) || strings.Contains(prefix, "..") || filepath.Base(prefix) != prefix {
		return domain.NewInvalidInputError(fmt.Sprintf("invalid results prefix %q", prefix))
	}
	return nil
}

func (s *CSVSink) create(prefix string) (*os.File, string, error) {
	base := fmt.Sprintf("%s_%s", prefix, s.now().Format(timestampLayout))

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		name := base + ".csv"
		if attempt > 1 {
			name = fmt.Sprintf("%s_%d.csv", base, attempt)
		}
		path := filepath.Join(s.dir, name)
		if filepath.Dir(path) != filepath.Clean(s.dir) {
			return nil, "", domain.NewInvalidInputError(fmt.Sprintf("invalid results prefix %q", prefix))
		}

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", domain.NewPersistenceError(fmt.Sprintf("failed to create %s", path), err)
		}
	}
	return nil, "", domain.NewPersistenceError(fmt.Sprintf("too many result files named %s", base), nil)
}

func writeReport(f *os.File, report []domain.ReportRow) error {
	w := csv.NewWriter(f)
	if err := w.Write(domain.ReportColumns); err != nil {
		return err
	}
	for _, row := range report {
		if err := w.Write(row.Record()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
