// Package logging builds the run logger.
//
// Every record is written twice: to the terminal through charmbracelet/log
// with colored levels, and to a timestamped run log file as plain text at
// DEBUG. The logger travels in the context via clog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/charmbracelet/lipgloss"
	charmlog "github.com/charmbracelet/log"
	slogmulti "github.com/samber/slog-multi"
)

// FilePrefix is the run log file name prefix.
const FilePrefix = "vsbootstrap"

// Options configures Setup.
type Options struct {
	// Dir is where the run log file is created. Empty means the working directory.
	Dir string
	// Verbose shows DEBUG lines on the terminal. The file always gets them.
	Verbose bool
	// Terminal receives the colored output. Defaults to os.Stderr.
	Terminal io.Writer
	// Now is used for the file name timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Run is an active run logger.
type Run struct {
	Logger *clog.Logger
	Path   string
	file   *os.File
}

// FileName returns the run log file name for t.
func FileName(t time.Time) string {
	return fmt.Sprintf("%s-%s.log", FilePrefix, t.Format("20060102-150405"))
}

// Setup creates the run log file and returns a context carrying the logger.
func Setup(ctx context.Context, opts Options) (context.Context, *Run, error) {
	if opts.Terminal == nil {
		opts.Terminal = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	path := filepath.Join(opts.Dir, FileName(opts.Now()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to create log file %s: %w", path, err)
	}

	logger := clog.New(slogmulti.Fanout(
		NewTerminalHandler(opts.Terminal, opts.Verbose),
		slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}),
	))

	run := &Run{Logger: logger, Path: path, file: f}
	return clog.WithLogger(ctx, logger), run, nil
}

// Close flushes and closes the run log file.
func (r *Run) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	if err := r.file.Sync(); err != nil {
		_ = r.file.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return r.file.Close()
}

// NewTerminalHandler returns the colored terminal handler.
// INFO is green, WARN yellow, ERROR red and DEBUG dim.
func NewTerminalHandler(w io.Writer, verbose bool) slog.Handler {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}

	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	logger.SetStyles(levelStyles())
	return logger
}

func levelStyles() *charmlog.Styles {
	styles := charmlog.DefaultStyles()
	styles.Levels[charmlog.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Foreground(lipgloss.Color("#6b7280"))
	styles.Levels[charmlog.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Bold(true).
		Foreground(lipgloss.Color("#22c55e"))
	styles.Levels[charmlog.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Bold(true).
		Foreground(lipgloss.Color("#eab308"))
	styles.Levels[charmlog.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Bold(true).
		Foreground(lipgloss.Color("#ef4444"))
	return styles
}

// Discard returns a context whose logger drops everything. Used by read-only
// commands before a run log exists, and by tests.
func Discard(ctx context.Context) context.Context {
	return clog.WithLogger(ctx, clog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Writer returns a context whose logger writes plain text to w at DEBUG.
func Writer(ctx context.Context, w io.Writer) context.Context {
	return clog.WithLogger(ctx, clog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}
