// Package rlog provides the injected logger handle used across the RAID
// core. The teacher CLI configures the process-wide logrus default logger
// (InitLogger, mirroring the teacher's cmd/main.go call site); components
// that need a logger take a *logrus.Logger explicitly instead of reaching
// for a package-level singleton, per the "injected logger handle" design
// note — a nil handle falls back to logrus.StandardLogger() rather than
// a separately maintained global.
package rlog

import (
	"os"

	"github.com/Anthya1104/zoneraid/internal/config"
	"github.com/sirupsen/logrus"
)

// InitLogger configures the process-wide logrus default logger's level and
// formatter. Callers that don't want a dedicated *logrus.Logger instance can
// keep passing nil to constructors across the RAID core and rely on this.
func InitLogger(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stderr)
	return nil
}

// Or returns handle if non-nil, else the logrus standard logger. Every
// constructor in this repo that accepts a *logrus.Logger calls this once
// at construction time rather than re-resolving a global on every log line.
func Or(handle *logrus.Logger) *logrus.Logger {
	if handle != nil {
		return handle
	}
	return logrus.StandardLogger()
}

// LevelFromConfig maps the config package's string constants to logrus
// levels, so the CLI flag vocabulary doesn't leak logrus-specific names
// into internal/config. Nothing in this repo calls it; InitLogger
// parses level strings with logrus.ParseLevel directly.
func LevelFromConfig(level string) (logrus.Level, error) {
	switch level {
	case config.LogLevelDebug:
		return logrus.DebugLevel, nil
	case config.LogLevelInfo:
		return logrus.InfoLevel, nil
	case config.LogLevelWarning:
		return logrus.WarnLevel, nil
	case config.LogLevelError:
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, errUnknownLevel(level)
	}
}

type errUnknownLevel string

func (e errUnknownLevel) Error() string { return "rlog: unknown log level " + string(e) }
