package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options select the log level and sinks.
type Options struct {
	Debug   bool
	Verbose bool
	Quiet   bool

	// File is an optional path of a JSON log file rotated by size.
	File       string
	MaxSize    int // megabytes
	MaxBackups int

	// Console defaults to stderr.
	Console io.Writer
}

// Level returns the minimum level for the options. Debug wins over Quiet.
func (o Options) Level() zapcore.Level {
	switch {
	case o.Debug:
		return zapcore.DebugLevel
	case o.Quiet:
		return zapcore.WarnLevel
	case o.Verbose:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// New builds the logger used by all commands.
func New(o Options) *zap.Logger {
	level := o.Level()
	console := o.Console
	if console == nil {
		console = os.Stderr
	}

	consoleConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(console), level),
	}

	if o.File != "" {
		fileConfig := zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
		maxSize := o.MaxSize
		if maxSize == 0 {
			maxSize = 10
		}
		maxBackups := o.MaxBackups
		if maxBackups == 0 {
			maxBackups = 3
		}
		rotator := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
		}
		// the file always records debug output
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(rotator), zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
