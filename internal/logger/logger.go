package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/forPelevin/hookscan/internal/config"
)

// New builds the process logger. When cfg.File is set, output goes to both
// stdout and a rotating file.
func New(cfg config.LogConfig) (*logrus.Logger, io.Closer, error) {
	return NewWithOutput(cfg, os.Stdout)
}

// NewWithOutput is New with stdout replaced by w.
func NewWithOutput(cfg config.LogConfig, stdout io.Writer) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if s := strings.TrimSpace(cfg.Level); s != "" {
		l, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = l
	}
	log.SetLevel(level)

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	default:
		return nil, nil, fmt.Errorf("invalid log format %q (want text or json)", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	out := stdout
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, nil, err
		}
		logFile := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(stdout, logFile)
		closer = logFile
	}
	log.SetOutput(out)
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
