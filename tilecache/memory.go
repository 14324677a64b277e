package tilecache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
)

var _ Store = (*Memory)(nil)

// Memory is an in-memory least-recently-used Store bounded by entry count
type Memory struct {
	cache *lru.Cache[string, []byte]
	// putMu makes the size accounting of a replaced value atomic with the
	// replacement
	putMu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
	bytes  atomic.Int64
}

// Stats is a snapshot of cache usage
type Stats struct {
	Entries int    `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Bytes   int64  `json:"bytes"`
	Size    string `json:"size"`
}

// NewMemory creates a Memory cache holding at most size entries
func NewMemory(size int) (*Memory, error) {
	m := &Memory{}
	cache, err := lru.NewWithEvict[string, []byte](size, func(_ string, v []byte) {
		m.bytes.Add(-int64(len(v)))
	})
	if err != nil {
		return nil, err
	}
	m.cache = cache
	return m, nil
}

func (m *Memory) Get(_ context.Context, key Key) ([]byte, bool, error) {
	v, ok := m.cache.Get(key.String())
	if ok {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	return v, ok, nil
}

func (m *Memory) Put(_ context.Context, key Key, data []byte) error {
	k := key.String()
	m.putMu.Lock()
	defer m.putMu.Unlock()
	if old, ok := m.cache.Peek(k); ok {
		// Replacing a value does not fire the eviction callback.
		m.bytes.Add(-int64(len(old)))
	}
	m.cache.Add(k, data)
	m.bytes.Add(int64(len(data)))
	return nil
}

// Purge removes every entry
func (m *Memory) Purge() {
	m.cache.Purge()
}

// Len returns the number of cached entries
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Stats returns the current usage counters
func (m *Memory) Stats() Stats {
	b := m.bytes.Load()
	return Stats{
		Entries: m.cache.Len(),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Bytes:   b,
		Size:    humanize.IBytes(uint64(max(b, 0))),
	}
}
