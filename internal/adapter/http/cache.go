package http

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/nhs-trust-dashboard/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// ChartSource builds a trust's smoothed chart series.
type ChartSource interface {
	Chart(trust string, w domain.Window) (domain.TrustChart, error)
}

// CachedCharts wraps a ChartSource with an in-memory LRU cache keyed by
// trust and window.
type CachedCharts struct {
	inner   ChartSource
	cache   *lruCache[domain.TrustChart]
	lookups *prometheus.CounterVec
}

// NewCachedCharts creates a cache decorator around a chart source. lookups may
// be nil; otherwise it is incremented with result=hit|miss.
func NewCachedCharts(inner ChartSource, maxEntries int, lookups *prometheus.CounterVec) *CachedCharts {
	return &CachedCharts{
		inner:   inner,
		cache:   newLRUCache[domain.TrustChart](maxEntries),
		lookups: lookups,
	}
}

func (c *CachedCharts) Chart(trust string, w domain.Window) (domain.TrustChart, error) {
	key := fmt.Sprintf("%s|%d", trust, w.Days())
	if chart, ok := c.cache.get(key); ok {
		c.observe("hit")
		return chart, nil
	}
	c.observe("miss")

	chart, err := c.inner.Chart(trust, w)
	if err != nil {
		return chart, err
	}
	c.cache.put(key, chart)
	return chart, nil
}

func (c *CachedCharts) observe(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}

// lruCache is a small thread-safe LRU cache. Cached chart values share their
// slices with every caller and must not be modified.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
