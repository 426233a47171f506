package embedcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	entries map[string][]float32
	saves   int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]float32)}
}

func (m *mapCache) Get(ctx context.Context, modelName, taskType, hash string) ([]float32, bool) {
	values, ok := m.entries[modelName+"|"+taskType+"|"+hash]
	return values, ok
}

func (m *mapCache) Save(ctx context.Context, modelName, taskType, hash string, values []float32) {
	m.saves++
	m.entries[modelName+"|"+taskType+"|"+hash] = cloneValues(values)
}

type countingEmbedder struct {
	oneCalls  int
	manyCalls int
	manyTexts []string
}

func (e *countingEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.oneCalls++
	return []float32{float32(len(text))}, nil
}

func (e *countingEmbedder) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	e.manyCalls++
	e.manyTexts = append([]string(nil), texts...)
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, []float32{float32(len(text))})
	}
	return out, nil
}

func (e *countingEmbedder) ModelName() string { return "test-model" }

func TestCachedEmbedderHitSkipsProvider(t *testing.T) {
	inner := &countingEmbedder{}
	cache := newMapCache()
	embedder := Wrap(inner, cache)

	first, err := embedder.EmbedOne(context.Background(), "hello", "q")
	require.NoError(t, err)
	second, err := embedder.EmbedOne(context.Background(), "hello", "q")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.oneCalls)
	assert.Equal(t, 1, cache.saves)
}

func TestCachedEmbedderEmbedsOnlyMisses(t *testing.T) {
	inner := &countingEmbedder{}
	cache := newMapCache()
	embedder := Wrap(inner, cache)

	_, err := embedder.EmbedOne(context.Background(), "aa", "d")
	require.NoError(t, err)

	vectors, err := embedder.EmbedMany(context.Background(), []string{"aa", "bbb", "aa"}, "d")
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{2}, vectors[0])
	assert.Equal(t, []float32{3}, vectors[1])
	assert.Equal(t, []float32{2}, vectors[2])
	assert.Equal(t, 1, inner.manyCalls)
	assert.Equal(t, []string{"bbb"}, inner.manyTexts)
}

func TestCachedEmbedderTaskTypesAreDistinct(t *testing.T) {
	inner := &countingEmbedder{}
	embedder := Wrap(inner, newMapCache())

	_, err := embedder.EmbedOne(context.Background(), "hello", "d")
	require.NoError(t, err)
	_, err = embedder.EmbedOne(context.Background(), "hello", "q")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.oneCalls)
}

type truncatingEmbedder struct{}

func (e *truncatingEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1}, nil
}

func (e *truncatingEmbedder) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}

func (e *truncatingEmbedder) ModelName() string { return "truncating-model" }

func TestCachedEmbedderShortProviderResponse(t *testing.T) {
	embedder := Wrap(&truncatingEmbedder{}, newMapCache())

	vectors, err := embedder.EmbedMany(context.Background(), []string{"a", "b", "c"}, "d")
	require.Error(t, err)
	assert.Nil(t, vectors)
}

func TestWrapWithoutCaches(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Equal(t, inner, Wrap(inner))
	assert.Equal(t, inner, Wrap(inner, nil))
}
