package llm

import (
	"sync"

	"github.com/Veraticus/spicewatch/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// classificationCache holds successful classifications keyed by category and
// amount bucket. When full it is cleared wholesale rather than evicting
// entry by entry.
type classificationCache struct {
	entries  map[string]model.Classification
	capacity int
	mu       sync.Mutex
}

func newClassificationCache(capacity int) *classificationCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &classificationCache{
		entries:  make(map[string]model.Classification),
		capacity: capacity,
	}
}

// cacheKey buckets the amount to the hundred below it, so 520 and 560 in
// the same category share an entry.
func cacheKey(txn model.Transaction) string {
	bucket := txn.Amount.Div(hundred).Floor().Mul(hundred)
	return string(txn.Category) + ":" + bucket.StringFixed(0)
}

func (c *classificationCache) get(key string) (model.Classification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *classificationCache) set(key string, v model.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.entries = make(map[string]model.Classification)
	}
	c.entries[key] = v
}

func (c *classificationCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *classificationCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]model.Classification)
}
