package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourusername/emberd/pkg/emberd/bufpool"
)

// bufferPoolCollector exposes the buffer pool's atomic counters as
// Prometheus metrics, sampling a fresh snapshot on every scrape. The pool
// itself stays metrics-agnostic: its hot path touches only its own
// atomics, and this collector reads them from the outside.
type bufferPoolCollector struct {
	gets     *prometheus.Desc
	puts     *prometheus.Desc
	hits     *prometheus.Desc
	misses   *prometheus.Desc
	discards *prometheus.Desc
	hitRatio *prometheus.Desc

	globalHitRatio *prometheus.Desc
	bytesAllocated *prometheus.Desc
	bytesReused    *prometheus.Desc
}

// NewBufferPoolCollector returns a collector over the package buffer pool.
func NewBufferPoolCollector() prometheus.Collector {
	ns, sub := "emberd", "buffer_pool"
	sized := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, name), help, []string{"size"}, nil)
	}
	global := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(
			prometheus.BuildFQName(ns, sub, name), help, nil, nil)
	}
	return &bufferPoolCollector{
		gets:     sized("gets_total", "Buffer Get operations per size class"),
		puts:     sized("puts_total", "Buffer Put operations per size class"),
		hits:     sized("hits_total", "Gets served by a pooled buffer"),
		misses:   sized("misses_total", "Gets served by a fresh allocation"),
		discards: sized("discards_total", "Puts dropped for being undersized"),
		hitRatio: sized("hit_ratio", "Per-class hit ratio (0-1)"),

		globalHitRatio: global("global_hit_ratio", "Hit ratio across all size classes (0-1)"),
		bytesAllocated: global("bytes_allocated", "Bytes freshly allocated across all classes"),
		bytesReused:    global("bytes_reused", "Bytes served from pooled buffers"),
	}
}

func (c *bufferPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.gets, c.puts, c.hits, c.misses, c.discards, c.hitRatio,
		c.globalHitRatio, c.bytesAllocated, c.bytesReused,
	} {
		ch <- d
	}
}

func (c *bufferPoolCollector) Collect(ch chan<- prometheus.Metric) {
	st := bufpool.Snapshot()

	for _, cs := range st.Classes {
		label := strconv.Itoa(cs.Size)
		counter := func(d *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), label)
		}
		counter(c.gets, cs.Gets)
		counter(c.puts, cs.Puts)
		counter(c.hits, cs.Hits)
		counter(c.misses, cs.Misses)
		counter(c.discards, cs.Discards)
		ch <- prometheus.MustNewConstMetric(c.hitRatio, prometheus.GaugeValue, cs.HitRate, label)
	}

	ch <- prometheus.MustNewConstMetric(c.globalHitRatio, prometheus.GaugeValue, st.HitRate)
	ch <- prometheus.MustNewConstMetric(c.bytesAllocated, prometheus.GaugeValue, float64(st.BytesAllocated))
	ch <- prometheus.MustNewConstMetric(c.bytesReused, prometheus.GaugeValue, float64(st.BytesReused))
}
