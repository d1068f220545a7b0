package embed

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsrag/internal/ai"
	"github.com/xxxsen/newsrag/internal/embedcache"
)

const normEpsilon = 1e-12

// Embedder turns texts into unit-length vectors, memoizing by content
// hash. Misses are embedded in a single batched provider call; cache
// write-back is best-effort.
type Embedder struct {
	provider ai.IEmbedder
	cache    embedcache.Cache

	dimOnce sync.Once
	dim     int
	dimErr  error
}

func New(provider ai.IEmbedder, cache embedcache.Cache) *Embedder {
	return &Embedder{provider: provider, cache: cache}
}

func (e *Embedder) ModelName() string {
	return e.provider.ModelName()
}

// Embed returns one unit-length vector per input text, in input order.
// Provider failure is a hard error; cache failure is not.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	hashes := make([]string, len(texts))
	for i, text := range texts {
		hashes[i] = embedcache.ContentHash(text)
	}

	var cached map[string][]float32
	if e.cache != nil {
		cached = e.cache.GetBatch(ctx, e.ModelName(), hashes)
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i := range texts {
		if values, ok := cached[hashes[i]]; ok {
			out[i] = values
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, texts[i])
	}
	if len(missIdx) == 0 {
		return out, nil
	}
	logutil.GetLogger(ctx).Debug("embedding batch",
		zap.Int("total", len(texts)),
		zap.Int("cache_hits", len(texts)-len(missIdx)),
		zap.Int("misses", len(missIdx)),
	)

	vectors, err := e.provider.BatchEmbed(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("embed batch of %d: %w", len(missTexts), err)
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(missTexts), len(vectors))
	}

	fresh := make(map[string][]float32, len(missIdx))
	for j, i := range missIdx {
		normalized := normalize(vectors[j])
		out[i] = normalized
		fresh[hashes[i]] = normalized
	}
	if e.cache != nil {
		e.cache.PutBatch(ctx, e.ModelName(), fresh)
	}
	return out, nil
}

// Dim probes the provider once and memoizes the answer for the process.
// Callers use it to size and validate indexes without hardcoding the
// model's dimensionality.
func (e *Embedder) Dim(ctx context.Context) (int, error) {
	e.dimOnce.Do(func() {
		vectors, err := e.Embed(ctx, []string{"probe"})
		if err != nil {
			e.dimErr = fmt.Errorf("probe embedding dim: %w", err)
			return
		}
		e.dim = len(vectors[0])
	})
	return e.dim, e.dimErr
}

// normalize scales v to unit L2 length. The epsilon keeps a zero vector
// from dividing by zero; the result is then simply near-zero.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEpsilon
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
