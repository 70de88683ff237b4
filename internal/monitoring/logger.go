package monitoring

import (
	"log"
	"sync/atomic"
)

type logFunc = func(format string, v ...interface{})

var current atomic.Pointer[logFunc]

func init() {
	SetLogger(log.Printf)
}

// Logf writes through the process-wide command logger. It defaults to
// log.Printf; SetLogger redirects or mutes it.
func Logf(format string, v ...interface{}) {
	(*current.Load())(format, v...)
}

// SetLogger replaces the command logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	current.Store(&f)
}

// Tagged returns a logger that prefixes every line with "[tag] " and writes
// through whichever logger is installed at call time.
func Tagged(tag string) func(format string, v ...interface{}) {
	prefix := "[" + tag + "] "
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
