package utils

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger membuat logger logrus yang dipakai bersama oleh semua komponen.
// format "json" untuk deployment, selain itu text dengan timestamp penuh.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level, falling back to info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}
