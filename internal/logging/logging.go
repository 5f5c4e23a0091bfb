// Package logging configures the process-wide logrus logger and hands out
// per-component entries.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// EnvLevel overrides the configured level when set.
const EnvLevel = "HARBOR_LOG_LEVEL"

// Options control where log output goes.
type Options struct {
	Level string // debug, info, warn, error; empty means info
	File  string // when set, logs are appended here instead of stderr
	JSON  bool
}

var (
	mu   sync.Mutex
	base = newBase()
	sink io.Closer
)

func newBase() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(textFormatter(os.Stderr))
	return logger
}

// NewLogger returns an entry tagged with component. Entries share the base
// logger, so Configure applies to entries created before it ran.
func NewLogger(component string) *logrus.Entry {
	return base.WithField("component", component)
}

// Configure applies opts to the base logger. Calling it again replaces the
// previous output and closes the previous log file.
func Configure(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	levelStr := strings.TrimSpace(opts.Level)
	if env := strings.TrimSpace(os.Getenv(EnvLevel)); env != "" {
		levelStr = env
	}
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	var out io.Writer = os.Stderr
	var closer io.Closer
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = file
		closer = file
	}

	base.SetOutput(out)
	if opts.JSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(textFormatter(out))
	}

	if sink != nil {
		_ = sink.Close()
	}
	sink = closer
	return nil
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base.SetOutput(w)
	base.SetFormatter(textFormatter(w))
}

// Close releases the log file opened by Configure, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	base.SetOutput(os.Stderr)
	return err
}

func textFormatter(w io.Writer) *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: !isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
