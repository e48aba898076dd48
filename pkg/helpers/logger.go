package helpers

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// appHook stamps every entry with the service name and environment.
type appHook struct {
	app, env string
}

func (h appHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h appHook) Fire(e *logrus.Entry) error {
	if _, ok := e.Data["app"]; !ok {
		e.Data["app"] = h.app
	}
	if _, ok := e.Data["env"]; !ok {
		e.Data["env"] = h.env
	}
	return nil
}

// NewLogger returns a text logger at debug level in development and a JSON
// logger at info level everywhere else.
func NewLogger(appName, env string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.AddHook(appHook{app: appName, env: env})
	if env == "development" {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// NewNopLogger returns a logger that discards everything; used by tests and tools.
func NewNopLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func withErr(logger logrus.FieldLogger, err error, fields logrus.Fields) *logrus.Entry {
	entry := logger.WithFields(fields)
	if err != nil {
		entry = entry.WithField("error", err.Error())
	}
	return entry
}

func LogError(logger logrus.FieldLogger, msg string, err error, fields logrus.Fields) {
	withErr(logger, err, fields).Error(msg)
}

func LogWarn(logger logrus.FieldLogger, msg string, err error, fields logrus.Fields) {
	withErr(logger, err, fields).Warn(msg)
}

func LogInfo(logger logrus.FieldLogger, msg string, fields logrus.Fields) {
	logger.WithFields(fields).Info(msg)
}
