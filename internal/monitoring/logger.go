// Package monitoring carries the diagnostic log stream shared by the
// pipeline stages. Components tag their lines so interleaved output
// from a run stays attributable to the stage that wrote it.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Tagged returns a logger that prefixes every line with a component tag,
// so Tagged("Runner") writes "[Runner] ..." lines. The returned function
// reads Logf at call time, so SetLogger affects tagged loggers already
// handed out.
func Tagged(component string) func(format string, v ...interface{}) {
	prefix := "[" + component + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
