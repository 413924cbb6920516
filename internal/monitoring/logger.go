// Package monitoring owns the process-wide logger.
//
// Packages do not hold their own *logrus.Logger. They log through
// Component, which tags every entry with the emitting package so the
// three conventional streams (ops, diag, trace) stay filterable in a
// single output.
package monitoring

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields is re-exported so callers do not need to import logrus directly.
type Fields = logrus.Fields

// Options controls Configure.
type Options struct {
	// Level is a logrus level name ("trace", "debug", "info", "warn", ...).
	// Empty means "info".
	Level string

	// Dir, when non-empty, adds a rotating log file under Dir.
	Dir string

	// Env is the application environment. File output is never enabled
	// when Env is "test".
	Env string

	// Stderr disables the stderr writer when false and Dir is set.
	Stderr bool
}

var (
	mu     sync.RWMutex
	logger = newBaseLogger(os.Stderr)
)

func newBaseLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&formatter.Formatter{
		NoColors:        true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		HideKeys:        false,
		FieldsOrder:     []string{"component", "session"},
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})
	return l
}

// Configure builds the process logger from opts and installs it.
func Configure(opts Options) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var writers []io.Writer
	if opts.Stderr || opts.Dir == "" {
		writers = append(writers, os.Stderr)
	}
	if opts.Dir != "" && opts.Env != "test" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, fmt.Sprintf("overlay-%s.log", time.Now().Format("2006-01-02"))),
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	l := newBaseLogger(io.MultiWriter(writers...))
	l.SetLevel(level)
	l.SetReportCaller(level >= logrus.DebugLevel)
	SetLogger(l)
	return l, nil
}

// Logger returns the installed logger.
func Logger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the process logger. Passing nil installs a logger
// that discards everything, which is what most tests want.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newBaseLogger(io.Discard)
		l.SetLevel(logrus.PanicLevel)
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// Component returns an entry tagged with the emitting package name.
func Component(name string) *logrus.Entry {
	return Logger().WithField("component", name)
}
