package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the service logger. format is "json" or "text"; unknown levels fall back to info.
func New(level, format string) *logrus.Logger {
	return newWithOutput(level, format, os.Stdout)
}

func newWithOutput(level, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
