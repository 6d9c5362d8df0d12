package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Frames from these packages are never reported as the caller.
var skippedCallerPackages = []string{
	"sirupsen/logrus",
	"cotreport/logger.",
}

// callerHook rewrites the caller recorded by logrus so that entries point at
// the code that called the wrapper instead of the wrapper itself.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 24)
	n := runtime.Callers(6, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isLoggingFrame(frame.Function) && frame.Function != "" {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}

func isLoggingFrame(fn string) bool {
	for _, pkg := range skippedCallerPackages {
		if strings.Contains(fn, pkg) {
			return true
		}
	}
	return false
}
