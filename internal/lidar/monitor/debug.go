package monitor

import (
	"io"
	"log"
	"sync"
)

var (
	logMu      sync.RWMutex
	opsLogger  *log.Logger
	diagLogger *log.Logger
)

// SetLogWriters configures the ops and diag streams. Pass nil to disable.
func SetLogWriters(ops, diag io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	opsLogger = nil
	diagLogger = nil
	if ops != nil {
		opsLogger = log.New(ops, "[monitor] ", log.LstdFlags|log.Lmicroseconds)
	}
	if diag != nil {
		diagLogger = log.New(diag, "[monitor] ", log.LstdFlags|log.Lmicroseconds)
	}
}

func opsf(format string, args ...interface{}) {
	logMu.RLock()
	l := opsLogger
	logMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

func diagf(format string, args ...interface{}) {
	logMu.RLock()
	l := diagLogger
	logMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
