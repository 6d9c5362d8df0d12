package logger

import (
	"sync"
	"sync/atomic"
)

type componentStat struct {
	warns  int64
	errors int64
}

var components sync.Map // map[string]*componentStat

func statFor(component string) *componentStat {
	v, _ := components.LoadOrStore(component, &componentStat{})
	return v.(*componentStat)
}

func recordWarn(component string) {
	atomic.AddInt64(&statFor(component).warns, 1)
}

func recordError(component string) {
	atomic.AddInt64(&statFor(component).errors, 1)
}

// Counts returns the number of warnings and errors logged so far, summed
// over all components.
func Counts() (warns, errors int64) {
	components.Range(func(_, v any) bool {
		cs := v.(*componentStat)
		warns += atomic.LoadInt64(&cs.warns)
		errors += atomic.LoadInt64(&cs.errors)
		return true
	})
	return warns, errors
}

// ComponentCounts returns warnings and errors logged by one component.
func ComponentCounts(component string) (warns, errors int64) {
	v, ok := components.Load(component)
	if !ok {
		return 0, 0
	}
	cs := v.(*componentStat)
	return atomic.LoadInt64(&cs.warns), atomic.LoadInt64(&cs.errors)
}

// LogSummary writes a one-line summary of the warning and error counters.
func LogSummary(log *Log) {
	perComponent := map[string]map[string]int64{}
	components.Range(func(k, v any) bool {
		cs := v.(*componentStat)
		perComponent[k.(string)] = map[string]int64{
			"warns":  atomic.LoadInt64(&cs.warns),
			"errors": atomic.LoadInt64(&cs.errors),
		}
		return true
	})
	warns, errs := Counts()
	log.WithComponent("report").WithFields(Fields{
		"warns":      warns,
		"errors":     errs,
		"components": perComponent,
	}).Info("run log summary")
}
