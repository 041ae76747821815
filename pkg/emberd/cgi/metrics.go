package cgi

import "sync/atomic"

// counters tracks CGI invocation outcomes with plain atomics rather than
// pushing into Prometheus directly, so the hot path never imports the
// metrics package; the metrics package's CGI collector pulls a Snapshot
// on scrape instead, the same split bufpool uses between its own atomics
// and the buffer-pool collector.
var counters struct {
	invocations atomic.Uint64
	failures    atomic.Uint64
}

// Stats is a point-in-time snapshot of CGI invocation counters.
type Stats struct {
	Invocations uint64
	Failures    uint64
}

// Snapshot returns the current CGI invocation counters.
func Snapshot() Stats {
	return Stats{
		Invocations: counters.invocations.Load(),
		Failures:    counters.failures.Load(),
	}
}

func recordInvocation() { counters.invocations.Add(1) }
func recordFailure()    { counters.failures.Add(1) }
