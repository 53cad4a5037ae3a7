// Package log configures the process logger. Output goes to stderr because
// stdout carries the MCP protocol; an optional file sink is rotated.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = logrus.New()
)

// Fields is an alias for logrus.Fields.
type Fields = logrus.Fields

// Options configures NewLogger.
type Options struct {
	// Level is a logrus level name ("debug", "info", ...). Empty means info.
	Level string

	// File, when set, receives a copy of the log rotated by size.
	File string

	// Colors enables ANSI colours on stderr.
	Colors bool

	// Output overrides stderr, mainly for tests.
	Output io.Writer
}

// NewLogger builds the process logger and installs it as the package logger.
func NewLogger(opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	l.SetLevel(level)

	l.SetFormatter(&formatter.Formatter{
		NoColors:        !opts.Colors,
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	var out io.Writer = os.Stderr
	if opts.Output != nil {
		out = opts.Output
	}
	writers := []io.Writer{out}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    20,
			MaxAge:     30,
			MaxBackups: 5,
		})
	}
	l.SetOutput(io.MultiWriter(writers...))
	l.SetReportCaller(level >= logrus.DebugLevel)

	mu.Lock()
	logger = l
	mu.Unlock()
	return l, nil
}

// Logger returns the package logger.
func Logger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func entry(fields Fields) *logrus.Entry {
	if fields == nil {
		fields = Fields{}
	}
	return Logger().WithFields(fields)
}

// Debug logs msg with fields at debug level. fields may be nil.
func Debug(fields Fields, msg string) { entry(fields).Debug(msg) }

// Info logs msg with fields at info level.
func Info(fields Fields, msg string) { entry(fields).Info(msg) }

// Warn logs msg with fields at warn level.
func Warn(fields Fields, msg string) { entry(fields).Warn(msg) }

// Error logs msg with fields at error level.
func Error(fields Fields, msg string) { entry(fields).Error(msg) }
