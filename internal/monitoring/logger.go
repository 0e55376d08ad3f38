// Package monitoring holds the diagnostic logger shared by the library
// packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger used by the ssp projector
// estimation and the render package. It defaults to log.Printf; SetLogger
// redirects or mutes it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that prepends prefix to every message before
// forwarding it to the current Logf.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
