package logging

import (
	"io"
	"os"
	"strings"

	"github.com/Domenick1991/flightshop/config"
	"github.com/sirupsen/logrus"
)

// New builds the process logger from config. Unknown levels fall back to info.
func New(cfg config.LogConfig, service string) *logrus.Logger {
	return newWithOutput(cfg, service, os.Stdout)
}

func newWithOutput(cfg config.LogConfig, service string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if service != "" {
		logger.AddHook(serviceHook{service: service})
	}
	return logger
}

type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h serviceHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["service"]; !ok {
		entry.Data["service"] = h.service
	}
	return nil
}
