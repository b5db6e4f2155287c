// Package logging configures the package-level logrus logger used for
// operational logging throughout svpipe. Human-facing CLI output goes
// through internal/report instead.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Log returns the package-level logger.
func Log() *logrus.Logger {
	return log
}

// SetVerbose switches the logger to debug level.
func SetVerbose(verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}
