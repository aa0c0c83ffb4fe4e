// Package logger defines the logging interface used across surrealdir and
// provides slog and zerolog backed implementations of it.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

// Logger is the structured logger accepted by the stores and engines.
// Arguments after msg are alternating key/value pairs.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// New returns a Logger that writes through the given slog handler.
func New(h slog.Handler) Logger {
	return slogLogger{logger: slog.New(h)}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return New(slog.NewTextHandler(io.Discard, nil))
}

// LogBuild configures a zerolog backed logger writing JSON lines.
type LogBuild struct {
	writer io.Writer
	path   string
	level  zerolog.Level
}

// LogData is the result of LogBuild.Make. LogFile is set when the
// logger writes to a file and must be closed by the caller.
type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

func NewBuilder() *LogBuild {
	return &LogBuild{level: zerolog.InfoLevel}
}

func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromBuffer(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level sets the minimum level, parsed with zerolog.ParseLevel.
// Unknown names leave the level unchanged.
func (build *LogBuild) Level(name string) *LogBuild {
	if lvl, err := zerolog.ParseLevel(name); err == nil && name != "" {
		build.level = lvl
	}
	return build
}

func (build *LogBuild) Make() (logData *LogData, err error) {
	logData = new(LogData)
	writer := build.writer
	if writer == nil {
		writer = os.Stderr
	}
	if build.path != "" {
		logData.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		writer = zerolog.SyncWriter(logData.LogFile)
	}
	logData.Logger = zerolog.New(writer).Level(build.level).With().Timestamp().Logger()
	return logData, nil
}

// Sugar adapts the zerolog logger to the Logger interface.
func (logData *LogData) Sugar() Logger {
	return zeroLogger{zl: logData.Logger}
}

// Close closes the log file, if any.
func (logData *LogData) Close() error {
	if logData.LogFile == nil {
		return nil
	}
	return logData.LogFile.Close()
}

type zeroLogger struct {
	zl zerolog.Logger
}

func (z zeroLogger) Error(msg string, args ...any) {
	z.zl.Error().Fields(args).Msg(msg)
}

func (z zeroLogger) Warn(msg string, args ...any) {
	z.zl.Warn().Fields(args).Msg(msg)
}

func (z zeroLogger) Info(msg string, args ...any) {
	z.zl.Info().Fields(args).Msg(msg)
}

func (z zeroLogger) Debug(msg string, args ...any) {
	z.zl.Debug().Fields(args).Msg(msg)
}

type slogLogger struct {
	logger *slog.Logger
}

func (s slogLogger) Error(msg string, args ...any) { s.logger.Error(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s slogLogger) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
