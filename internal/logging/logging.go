// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"wingetbridge/internal/config"
)

// New returns a logger configured from cfg. Verbose forces debug level. The
// returned closer releases the log file, if one was opened.
func New(cfg *config.Config, verbose bool) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	level := logrus.InfoLevel
	if cfg.General.LogLevel != "" {
		parsed, err := logrus.ParseLevel(cfg.General.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log_level: %w", err)
		}
		level = parsed
	}
	if verbose || cfg.Output.Verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if cfg.General.LogFile == "" {
		return logger, nopCloser{}, nil
	}
	file, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger.SetOutput(file)
	return logger, file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
