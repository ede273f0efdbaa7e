package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"study-buddy/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// RunMigrations executes every *.up.sql file in dir in name order. Oracle
// runs one statement per call, so files are split on ';'.
func RunMigrations(ctx context.Context, db *sqlx.DB, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("could not list migrations in %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %s", dir)
	}
	sort.Strings(files)

	l := logger.Get()
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", file, err)
		}
		for _, stmt := range SplitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("could not execute migration %s: %w", filepath.Base(file), err)
			}
		}
		l.Info("Executed migration", zap.String("file", filepath.Base(file)))
	}

	l.Info("Migrations completed successfully", zap.Int("files", len(files)))
	return nil
}

// SplitStatements breaks a SQL script into statements without their
// trailing ';'. Blank statements and "--" comment lines are dropped.
func SplitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
