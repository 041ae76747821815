// Package bufpool pools the reactor's per-connection read buffers in a
// handful of fixed size classes, backed by sync.Pool. Each class keeps
// atomic counters on its own; the metrics package samples them at scrape
// time, so the Get/Put hot path never touches a Prometheus type.
package bufpool

import (
	"sync"
	"sync/atomic"
)

// Class sizes, smallest first. A Get larger than the biggest class is
// allocated directly and never pooled.
var classSizes = []int{
	2 << 10,
	4 << 10,
	8 << 10,
	16 << 10,
	32 << 10,
	64 << 10,
}

// class pools buffers of exactly one size.
type class struct {
	size int
	pool sync.Pool

	gets     atomic.Uint64
	puts     atomic.Uint64
	misses   atomic.Uint64 // Gets served by a fresh allocation
	discards atomic.Uint64 // Puts dropped because the buffer was undersized
}

func newClass(size int) *class {
	c := &class{size: size}
	c.pool.New = func() interface{} {
		c.misses.Add(1)
		buf := make([]byte, size)
		return &buf
	}
	return c
}

func (c *class) get() []byte {
	c.gets.Add(1)
	buf := *(c.pool.Get().(*[]byte))
	return buf[:c.size]
}

func (c *class) put(buf []byte) {
	if cap(buf) < c.size {
		c.discards.Add(1)
		return
	}
	c.puts.Add(1)
	buf = buf[:c.size]
	c.pool.Put(&buf)
}

// Pool is an ordered set of size classes. Get hands out a buffer from the
// smallest class that fits the request; Put routes a buffer back to the
// largest class its capacity can serve.
type Pool struct {
	classes []*class
}

// New returns a Pool with one class per entry in classSizes.
func New() *Pool {
	p := &Pool{classes: make([]*class, len(classSizes))}
	for i, size := range classSizes {
		p.classes[i] = newClass(size)
	}
	return p
}

// Get returns a buffer of at least size bytes, sliced to its class size.
// Requests beyond the largest class bypass the pool entirely.
func (p *Pool) Get(size int) []byte {
	for _, c := range p.classes {
		if size <= c.size {
			return c.get()
		}
	}
	return make([]byte, size)
}

// Put returns buf to the pool. The buffer must not be used afterward.
// Buffers smaller than the smallest class are dropped for the GC and
// counted as discards of the smallest class.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for i := len(p.classes) - 1; i >= 0; i-- {
		if cap(buf) >= p.classes[i].size {
			p.classes[i].put(buf)
			return
		}
	}
	p.classes[0].discards.Add(1)
}

// ClassStats is one size class's counters at a point in time. Hits are
// derived as gets minus misses: sync.Pool's New callback is the only place
// a miss can happen, so every other Get was a reuse.
type ClassStats struct {
	Size     int
	Gets     uint64
	Puts     uint64
	Hits     uint64
	Misses   uint64
	Discards uint64
	HitRate  float64 // hits / gets, 0..1
}

// Stats is a snapshot of every class plus totals derived from them.
type Stats struct {
	Classes []ClassStats

	Hits           uint64
	Misses         uint64
	HitRate        float64 // 0..1 across all classes
	BytesAllocated uint64  // misses weighted by class size
	BytesReused    uint64  // hits weighted by class size
}

// Stats samples every class's counters. Counters are read individually,
// not under a lock, so a snapshot taken during heavy traffic may be
// slightly torn across classes; each counter is itself consistent.
func (p *Pool) Stats() Stats {
	st := Stats{Classes: make([]ClassStats, len(p.classes))}
	for i, c := range p.classes {
		gets := c.gets.Load()
		misses := c.misses.Load()
		var hits uint64
		if gets > misses {
			hits = gets - misses
		}
		cs := ClassStats{
			Size:     c.size,
			Gets:     gets,
			Puts:     c.puts.Load(),
			Hits:     hits,
			Misses:   misses,
			Discards: c.discards.Load(),
		}
		if gets > 0 {
			cs.HitRate = float64(hits) / float64(gets)
		}
		st.Classes[i] = cs
		st.Hits += hits
		st.Misses += misses
		st.BytesAllocated += misses * uint64(c.size)
		st.BytesReused += hits * uint64(c.size)
	}
	if total := st.Hits + st.Misses; total > 0 {
		st.HitRate = float64(st.Hits) / float64(total)
	}
	return st
}

// connBufferSize is the per-connection read buffer the reactor asks for:
// large enough for a typical request line and header block in one
// readiness event.
const connBufferSize = 16 << 10

var defaultPool = New()

// Get returns a connection-sized read buffer from the package pool.
func Get() []byte {
	return defaultPool.Get(connBufferSize)
}

// Put returns a buffer obtained from Get. The buffer must not be used
// afterward.
func Put(buf []byte) {
	defaultPool.Put(buf)
}

// Snapshot samples the package pool's counters for the metrics collector.
func Snapshot() Stats {
	return defaultPool.Stats()
}
