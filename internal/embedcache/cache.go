package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache is the best-effort embedding cache: lookups return whatever was
// found, writes may be dropped. A broken cache degrades to always-miss
// and must never fail an embed call.
type Cache interface {
	GetBatch(ctx context.Context, modelName string, hashes []string) map[string][]float32
	PutBatch(ctx context.Context, modelName string, entries map[string][]float32)
}

// ContentHash is the cache identity of a text: stable across processes,
// scoped per model by the cache implementations.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cacheKey(modelName, hash string) string {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	return "embed:" + modelName + ":" + hash
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
