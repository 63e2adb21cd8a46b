package remap

import "github.com/sirupsen/logrus"

var logger = logrus.StandardLogger()

// SetLogger replaces the package logger. Fatal diagnostics and debug traces
// go through it; replacing its exit behavior is also how tests observe the
// fatal paths.
func SetLogger(l *logrus.Logger) {
	logger = l
}

// fatalf reports an unrecoverable condition and terminates the process.
// There are no recoverable errors in this package.
func fatalf(format string, args ...any) {
	logger.Fatalf(format, args...)
}
