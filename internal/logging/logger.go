package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the application logger
type Options struct {
	Verbose bool

	// File, when set, receives a size-rotated copy of the log
	File string

	// Console receives log output; nil means stderr. Use io.Discard to keep
	// logs off a terminal that is used for drawing.
	Console io.Writer
}

// NewLogger builds the application logger. The returned closer flushes and
// closes the log file and is never nil.
func NewLogger(opts Options) (*logrus.Logger, io.Closer) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	if opts.File == "" {
		logger.SetOutput(console)
		return logger, nopCloser{}
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		logger.SetOutput(console)
		logger.WithError(err).WithField("file", opts.File).Warn("Cannot create log directory, logging to console only")
		return logger, nopCloser{}
	}

	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    32, // MB
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}
	if console == io.Discard {
		logger.SetOutput(file)
	} else {
		logger.SetOutput(io.MultiWriter(console, file))
	}
	return logger, file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
