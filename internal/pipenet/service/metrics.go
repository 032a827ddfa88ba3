package service

import (
	"sync/atomic"
	"time"
)

// Metrics tracks sizing pipeline counters.
type Metrics struct {
	solverCalls     int64
	solverErrors    int64
	solverLatency   int64 // total latency in nanoseconds
	sizingRuns      int64
	sizingFailures  int64
	resizeIters     int64
	bestEffortTerms int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the current metrics snapshot.
func GetMetrics() Metrics {
	return Metrics{
		solverCalls:     atomic.LoadInt64(&globalMetrics.solverCalls),
		solverErrors:    atomic.LoadInt64(&globalMetrics.solverErrors),
		solverLatency:   atomic.LoadInt64(&globalMetrics.solverLatency),
		sizingRuns:      atomic.LoadInt64(&globalMetrics.sizingRuns),
		sizingFailures:  atomic.LoadInt64(&globalMetrics.sizingFailures),
		resizeIters:     atomic.LoadInt64(&globalMetrics.resizeIters),
		bestEffortTerms: atomic.LoadInt64(&globalMetrics.bestEffortTerms),
	}
}

// ResetMetrics resets all metrics (useful for testing).
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.solverCalls, 0)
	atomic.StoreInt64(&globalMetrics.solverErrors, 0)
	atomic.StoreInt64(&globalMetrics.solverLatency, 0)
	atomic.StoreInt64(&globalMetrics.sizingRuns, 0)
	atomic.StoreInt64(&globalMetrics.sizingFailures, 0)
	atomic.StoreInt64(&globalMetrics.resizeIters, 0)
	atomic.StoreInt64(&globalMetrics.bestEffortTerms, 0)
}

func recordSolverCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.solverCalls, 1)
	atomic.AddInt64(&globalMetrics.solverLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.solverErrors, 1)
	}
}

func recordSizingRun(failed, bestEffort bool, iterations int) {
	atomic.AddInt64(&globalMetrics.sizingRuns, 1)
	atomic.AddInt64(&globalMetrics.resizeIters, int64(iterations))
	if failed {
		atomic.AddInt64(&globalMetrics.sizingFailures, 1)
	}
	if bestEffort {
		atomic.AddInt64(&globalMetrics.bestEffortTerms, 1)
	}
}

// SolverCalls exposes the call counter for handlers and tests.
func (m Metrics) SolverCalls() int64 { return m.solverCalls }

// SizingRuns exposes the run counter.
func (m Metrics) SizingRuns() int64 { return m.sizingRuns }

// AverageSolverLatency returns the average latency in milliseconds.
func (m Metrics) AverageSolverLatency() float64 {
	if m.solverCalls == 0 {
		return 0
	}
	avgNs := float64(m.solverLatency) / float64(m.solverCalls)
	return avgNs / 1e6
}

// SizingFailures exposes the failed-run counter.
func (m Metrics) SizingFailures() int64 { return m.sizingFailures }

// ResizeIterations exposes the cumulative resize iteration counter.
func (m Metrics) ResizeIterations() int64 { return m.resizeIters }

// BestEffortTerminations exposes the budget-exhausted termination counter.
func (m Metrics) BestEffortTerminations() int64 { return m.bestEffortTerms }

// SolverErrorRate returns the error rate as a percentage.
func (m Metrics) SolverErrorRate() float64 {
	if m.solverCalls == 0 {
		return 0
	}
	return float64(m.solverErrors) / float64(m.solverCalls) * 100
}
