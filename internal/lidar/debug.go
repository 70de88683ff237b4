package lidar

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
//
//	Ops   startup rejections, bad poses
//	Diag  scan start/stop, one line per pulse, clear and close
//	Trace one line per frame
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

type logStream int

const (
	streamOps logStream = iota
	streamDiag
	streamTrace
)

var (
	logMu   sync.RWMutex
	loggers [3]*log.Logger
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	logMu.Lock()
	defer logMu.Unlock()
	loggers[streamOps] = newLogger("[lidar] ", w.Ops)
	loggers[streamDiag] = newLogger("[lidar] ", w.Diag)
	loggers[streamTrace] = newLogger("[lidar] ", w.Trace)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

func streamLogger(s logStream) *log.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return loggers[s]
}

func logTo(s logStream, format string, args ...interface{}) {
	if l := streamLogger(s); l != nil {
		l.Printf(format, args...)
	}
}

func opsf(format string, args ...interface{})  { logTo(streamOps, format, args...) }
func diagf(format string, args ...interface{}) { logTo(streamDiag, format, args...) }

// logTick routes one frame's events: trigger edges and pulses to diag, the
// frame summary to trace.
func (s *Scanner) logTick(dt float64, res TickResult) {
	if diag := streamLogger(streamDiag); diag != nil {
		if res.Started {
			diag.Printf("scan started at hue=%.3f resident=%d", res.Hue, s.dots.Len())
		}
		if res.Pulsed {
			diag.Printf("pulse %d: accepted=%d rejected=%d missed=%d resident=%d rotation=%.1f",
				s.fan.Pulses(), res.Accepted, res.Rejected, res.Missed, s.dots.Len(), s.fan.Rotation())
		}
		if res.Stopped {
			diag.Printf("scan stopped: resident=%d pulses=%d", s.dots.Len(), s.fan.Pulses())
		}
	}
	if trace := streamLogger(streamTrace); trace != nil {
		trace.Printf("frame %d dt=%.4f decision=%s beams=%d dots=%d",
			s.frames, dt, res.Decision, s.fan.EnabledCount(), s.dots.Len())
	}
}
