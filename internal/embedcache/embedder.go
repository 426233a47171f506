package embedcache

import (
	"context"
	"fmt"

	"github.com/quillhq/kbase/internal/ai"
)

// Wrap decorates next with caches consulted in order. With no caches the
// embedder is returned unchanged.
func Wrap(next ai.IEmbedder, caches ...Cache) ai.IEmbedder {
	active := make([]Cache, 0, len(caches))
	for _, cache := range caches {
		if cache != nil {
			active = append(active, cache)
		}
	}
	if next == nil || len(active) == 0 {
		return next
	}
	return &cachedEmbedder{next: next, caches: active}
}

type cachedEmbedder struct {
	next   ai.IEmbedder
	caches []Cache
}

func (c *cachedEmbedder) ModelName() string {
	return c.next.ModelName()
}

func (c *cachedEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	modelName := normalizeModel(c.next.ModelName())
	hash := contentHash(text)
	if values, ok := c.lookup(ctx, modelName, taskType, hash); ok {
		return values, nil
	}
	values, err := c.next.EmbedOne(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	c.store(ctx, modelName, taskType, hash, values)
	return values, nil
}

func (c *cachedEmbedder) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	modelName := normalizeModel(c.next.ModelName())
	results := make([][]float32, len(texts))
	hashes := make([]string, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		hashes[i] = contentHash(text)
		if values, ok := c.lookup(ctx, modelName, taskType, hashes[i]); ok {
			results[i] = values
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return results, nil
	}
	fresh, err := c.next.EmbedMany(ctx, missTexts, taskType)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(fresh), len(missTexts))
	}
	for j, idx := range missIdx {
		results[idx] = fresh[j]
		c.store(ctx, modelName, taskType, hashes[idx], fresh[j])
	}
	return results, nil
}

func (c *cachedEmbedder) lookup(ctx context.Context, modelName, taskType, hash string) ([]float32, bool) {
	for _, cache := range c.caches {
		if values, ok := cache.Get(ctx, modelName, taskType, hash); ok {
			return cloneValues(values), true
		}
	}
	return nil, false
}

func (c *cachedEmbedder) store(ctx context.Context, modelName, taskType, hash string, values []float32) {
	for _, cache := range c.caches {
		cache.Save(ctx, modelName, taskType, hash, values)
	}
}
