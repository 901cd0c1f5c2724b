package view

import (
	"bytes"
	"container/list"
	"encoding/binary"
	"sync"

	"github.com/propgrid/propgrid/pkg/types"
	"github.com/spaolacci/murmur3"
)

// DefaultMemoCapacity is used when NewMemo is given a non-positive capacity.
const DefaultMemoCapacity = 256

// Memo is an LRU cache of resolved views. Entries are keyed on the dataset
// version, the definition and the view state, so a hit is observably
// identical to calling ResolveView again.
//
// Cached results are shared: callers must treat Result.Rows as read-only.
type Memo struct {
	mu       sync.Mutex
	capacity int

	// items maps key → list element (whose value is *memoEntry)
	items map[uint64]*list.Element
	order *list.List // front = most recently used

	// hash buckets canonical keys; entries are matched on the full key.
	hash func([]byte) uint64

	hits   int64
	misses int64
}

type memoEntry struct {
	hash   uint64
	key    []byte
	result *Result
}

// MemoStats reports cache effectiveness.
type MemoStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewMemo creates a memo holding at most capacity results.
func NewMemo(capacity int) *Memo {
	if capacity <= 0 {
		capacity = DefaultMemoCapacity
	}
	return &Memo{
		capacity: capacity,
		items:    make(map[uint64]*list.Element),
		order:    list.New(),
		hash:     murmur3.Sum64,
	}
}

// Resolve returns the memoised result for (version, def, state), computing
// it with ResolveView on a miss. version must change whenever rows change.
// Invalid configurations are never cached.
func (m *Memo) Resolve(version string, rows []types.Row, def Definition, state types.ViewState) (*Result, error) {
	if err := def.Validate(state); err != nil {
		return nil, err
	}

	key := canonicalKey(version, def, state)
	if res := m.get(key); res != nil {
		return res, nil
	}

	res := resolve(rows, def, state)
	m.put(key, res)
	return res, nil
}

// Stats returns a snapshot of the cache counters.
func (m *Memo) Stats() MemoStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MemoStats{Entries: len(m.items), Hits: m.hits, Misses: m.misses}
}

// Len returns the number of cached results.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memo) get(key []byte) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[m.hash(key)]
	if !ok || !bytes.Equal(elem.Value.(*memoEntry).key, key) {
		m.misses++
		return nil
	}
	m.hits++
	m.order.MoveToFront(elem)
	return elem.Value.(*memoEntry).result
}

// put stores res under key. A different key with the same hash replaces
// the older entry.
func (m *Memo) put(key []byte, res *Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.hash(key)
	if elem, ok := m.items[h]; ok {
		entry := elem.Value.(*memoEntry)
		entry.key = key
		entry.result = res
		m.order.MoveToFront(elem)
		return
	}

	m.items[h] = m.order.PushFront(&memoEntry{hash: h, key: key, result: res})

	for m.order.Len() > m.capacity {
		back := m.order.Back()
		m.order.Remove(back)
		delete(m.items, back.Value.(*memoEntry).hash)
	}
}

// canonicalKey encodes everything ResolveView reads besides the rows
// themselves. Strings are length-prefixed so adjacent values cannot run
// together.
func canonicalKey(version string, def Definition, state types.ViewState) []byte {
	var buf []byte
	writeInt := func(n int) {
		buf = binary.AppendVarint(buf, int64(n))
	}
	write := func(s string) {
		writeInt(len(s))
		buf = append(buf, s...)
	}

	write(version)
	writeInt(len(def.Columns))
	for _, c := range def.Columns {
		write(c.Field)
		write(string(c.Type))
		if c.Sortable {
			buf = append(buf, 's')
		} else {
			buf = append(buf, '-')
		}
	}
	writeInt(len(def.SearchFields))
	for _, f := range def.SearchFields {
		write(f)
	}
	write(state.SearchQuery)
	write(state.SortField)
	write(string(state.SortDirection))
	writeInt(state.PageSize)
	writeInt(state.CurrentPage)
	return buf
}
