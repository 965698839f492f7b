package text

import (
	"hash/maphash"
	"math"
	"sync"
)

// lruCache is a thread-safe LRU map with a soft limit: exceeding it
// evicts least-recently-used entries.
type lruCache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*lruEntry[V]
	softLimit int
	tick      int64
}

type lruEntry[V any] struct {
	value V
	atime int64
}

func newLRUCache[K comparable, V any](softLimit int) *lruCache[K, V] {
	return &lruCache[K, V]{
		entries:   make(map[K]*lruEntry[V]),
		softLimit: softLimit,
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.tick++
	e.atime = c.tick
	return e.value, true
}

func (c *lruCache[K, V]) set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	c.entries[key] = &lruEntry[V]{value: value, atime: c.tick}
	if c.softLimit > 0 && len(c.entries) > c.softLimit {
		c.evictOldest()
	}
}

func (c *lruCache[K, V]) evictOldest() {
	var oldestKey K
	oldest := int64(math.MaxInt64)
	for k, e := range c.entries {
		if e.atime < oldest {
			oldest = e.atime
			oldestKey = k
		}
	}
	delete(c.entries, oldestKey)
}

func (c *lruCache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// LayoutCache memoizes Layout results keyed by the content and every
// constraint that affects the outcome. Any change to item text, run
// styles or options produces a different key, so stale entries are
// never served; they age out by LRU.
type LayoutCache struct {
	seed  maphash.Seed
	cache *lruCache[uint64, *Result]
}

// NewLayoutCache returns a cache evicting beyond softLimit entries
// (0 = unlimited).
func NewLayoutCache(softLimit int) *LayoutCache {
	return &LayoutCache{
		seed:  maphash.MakeSeed(),
		cache: newLRUCache[uint64, *Result](softLimit),
	}
}

// Layout returns the cached result for (items, opts) or computes and
// stores it. Results are shared; callers must not mutate them.
func (lc *LayoutCache) Layout(items []InlineItem, p Provider, opts Options) (*Result, error) {
	key := lc.key(items, &opts)
	if res, ok := lc.cache.get(key); ok {
		return res, nil
	}
	res, err := Layout(items, p, opts)
	if err != nil {
		return nil, err
	}
	lc.cache.set(key, res)
	return res, nil
}

// Len returns the number of cached layouts.
func (lc *LayoutCache) Len() int { return lc.cache.len() }

func (lc *LayoutCache) key(items []InlineItem, opts *Options) uint64 {
	var h maphash.Hash
	h.SetSeed(lc.seed)

	f := func(v float64) { writeU64(&h, math.Float64bits(v)) }
	b := func(v uint8) { _ = h.WriteByte(v) }

	for i := range items {
		it := &items[i]
		b(uint8(it.Type))
		_, _ = h.WriteString(it.Text)
		for _, fam := range it.Style.Families {
			_, _ = h.WriteString(fam)
			b(0)
		}
		f(it.Style.Size)
		writeU64(&h, uint64(it.Style.Weight)) //nolint:gosec // weights are small positives
		b(uint8(it.Style.Style))
		b(uint8(it.Style.Stretch))
		_, _ = h.WriteString(it.Style.Lang)
		f(it.Style.LetterSpacing)
		f(it.Style.WordSpacing)
		b(uint8(it.Style.CombineDigits))
		f(it.Size.Width)
		f(it.Size.Height)
		f(it.Baseline)
		f(it.Width)
		b(boolByte(it.Breaking))
		b(boolByte(it.Stretchy))
	}

	f(opts.MaxWidth)
	f(opts.MaxHeight)
	for _, ex := range opts.Exclusions {
		f(ex.X)
		f(ex.Y)
		f(ex.W)
		f(ex.H)
	}
	b(uint8(opts.Overflow))
	b(uint8(opts.Direction))
	b(uint8(opts.WritingMode))
	b(uint8(opts.TextOrientation))
	b(uint8(opts.Align))
	b(uint8(opts.Justify))
	b(uint8(opts.WhiteSpace))
	b(uint8(opts.WordBreak))
	b(uint8(opts.Hyphens))
	_, _ = h.WriteString(opts.Lang)
	f(opts.LineHeight)
	writeU64(&h, uint64(opts.LineClamp)) //nolint:gosec // clamp is a small positive
	return h.Sum64()
}

func writeU64(h *maphash.Hash, v uint64) {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	_, _ = h.Write(buf[:])
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
