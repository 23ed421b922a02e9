// Package logging builds the application logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/portfolio-analytics/internal/config"
)

// New creates a logrus logger from the logging configuration.
// Unknown levels fall back to info so a typo never silences the service.
func New(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
