// Package importer loads Alpha Progression exports into a gymlog server.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/claude/gymlog/internal/importer/alpha"
	"github.com/claude/gymlog/internal/models"
)

// Sender delivers one converted log. *Client is the production implementation.
type Sender interface {
	SendLog(ctx context.Context, log *models.WorkoutLog) (bool, error)
}

// Stats tracks import progress.
type Stats struct {
	FilesTotal    int
	FilesImported int
	FilesSkipped  int
	FilesErrored  int

	SessionsParsed  int
	LogsInserted    int
	LogsDuplicate   int
	SessionsErrored int
}

// Importer walks export files and sends each session as a workout log.
type Importer struct {
	sender Sender
	state  *StateDB
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates an Importer. sender may be nil in dry-run mode.
func New(sender Sender, state *StateDB, dryRun bool, log *slog.Logger) *Importer {
	return &Importer{sender: sender, state: state, dryRun: dryRun, log: log}
}

// Run imports path, which is a single .csv file or a directory searched recursively.
// A file is recorded as imported only when every session in it was delivered, so a
// partially failed file is retried in full next time. Server-side dedupe by log ID
// makes that safe.
func (imp *Importer) Run(ctx context.Context, path string) (*Stats, error) {
	files, err := findExports(path)
	if err != nil {
		return &imp.stats, err
	}
	imp.stats.FilesTotal = len(files)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, f); err != nil {
			imp.stats.FilesErrored++
			imp.log.Error("import failed", "file", f, "error", err)
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hashing: %w", err)
	}
	done, err := imp.state.IsImported(path, hash)
	if err != nil {
		return err
	}
	if done {
		imp.stats.FilesSkipped++
		imp.log.Debug("already imported", "file", path)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	sessions, err := alpha.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	imp.stats.SessionsParsed += len(sessions)

	failed := 0
	for _, s := range sessions {
		if err := imp.importSession(ctx, s); err != nil {
			failed++
			imp.stats.SessionsErrored++
			imp.log.Warn("session not imported", "file", path, "session", s.Name, "date", s.Date, "error", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", failed, len(sessions))
	}

	if imp.dryRun {
		return nil
	}
	if err := imp.state.MarkImported(path, hash, len(sessions)); err != nil {
		return err
	}
	imp.stats.FilesImported++
	imp.log.Info("imported", "file", path, "sessions", len(sessions))
	return nil
}

func (imp *Importer) importSession(ctx context.Context, s alpha.Session) error {
	log, err := alpha.ToWorkoutLog(s)
	if err != nil {
		return err
	}
	if err := log.Validate(); err != nil {
		return err
	}
	if imp.dryRun {
		imp.log.Info("would send", "session", s.Name, "date", s.Date, "exercises", len(log.Exercises), "sets", log.SetCount())
		return nil
	}

	inserted, err := imp.sender.SendLog(ctx, log)
	if err != nil {
		return err
	}
	if inserted {
		imp.stats.LogsInserted++
	} else {
		imp.stats.LogsDuplicate++
	}
	return nil
}

// findExports returns the absolute paths of the .csv files under path, sorted.
func findExports(path string) ([]string, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".csv") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
