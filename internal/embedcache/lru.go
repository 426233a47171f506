package embedcache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// NewLRUCache keeps recent embeddings in process memory. Returns nil (no
// cache) for a non-positive size or ttl.
func NewLRUCache(size int, ttl time.Duration) Cache {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return &lruCache{cache: expirable.NewLRU[string, []float32](size, nil, ttl)}
}

type lruCache struct {
	cache *expirable.LRU[string, []float32]
}

func (l *lruCache) Get(ctx context.Context, modelName, taskType, hash string) ([]float32, bool) {
	return l.cache.Get(lruKey(modelName, taskType, hash))
}

func (l *lruCache) Save(ctx context.Context, modelName, taskType, hash string, values []float32) {
	l.cache.Add(lruKey(modelName, taskType, hash), cloneValues(values))
}

func lruKey(modelName, taskType, hash string) string {
	return strings.Join([]string{"embed", modelName, taskType, hash}, ":")
}
