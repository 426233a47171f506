// Package embedcache layers content-hash caches in front of an ai.IEmbedder
// so repeated ingestions and repeated queries skip the provider call.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache lookups are keyed by (model, task type, sha256 of the input text).
// Implementations must be best-effort: a broken cache degrades to a miss,
// it never fails the embedding.
type Cache interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool)
	Save(ctx context.Context, modelName, taskType, contentHash string, values []float32)
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func normalizeModel(modelName string) string {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return "unknown"
	}
	return modelName
}

func cloneValues(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
