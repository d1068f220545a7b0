package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsrag/internal/embed"
	"github.com/xxxsen/newsrag/internal/index"
	"github.com/xxxsen/newsrag/internal/model"
)

// Retriever ranks corpus chunks against a question. The vector and
// hybrid paths share the embedding step; only the scoring differs.
type Retriever struct {
	embedder *embed.Embedder
}

func New(embedder *embed.Embedder) *Retriever {
	return &Retriever{embedder: embedder}
}

// RetrieveVector returns the top k chunks by raw inner product.
func (r *Retriever) RetrieveVector(ctx context.Context, question string, idx *index.Index, k int) ([]model.Hit, error) {
	query, err := r.embedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}
	return idx.Search(query, k)
}

// Retrieve fuses vector and lexical evidence. Vector scores come from
// an overfetched candidate set; lexical scores cover the full corpus.
// Both sets are min-max normalized to [0,1] before mixing, so alpha
// weighs rank shape rather than raw magnitudes. Candidates keep their
// vector-rank order on fusion ties.
func (r *Retriever) Retrieve(ctx context.Context, question string, idx *index.Index, k int, alpha float64) ([]model.Hit, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha must be in [0,1], got %v", alpha)
	}
	query, err := r.embedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	overfetch := 3 * k
	if overfetch < k {
		overfetch = k
	}
	candidates, err := idx.Search(query, overfetch)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	vectorScores := make([]float64, len(candidates))
	for i, h := range candidates {
		vectorScores[i] = float64(h.Score)
	}
	normalize(vectorScores)

	lexical := newLexicalScorer(idx.Chunks()).Score(question)
	normalize(lexical)

	fused := make([]model.Hit, len(candidates))
	for i, h := range candidates {
		h.Score = float32(alpha*vectorScores[i] + (1-alpha)*lexical[h.Row])
		fused[i] = h
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	if k < len(fused) {
		fused = fused[:k]
	}
	logutil.GetLogger(ctx).Debug("hybrid retrieval done",
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(fused)),
		zap.Float64("alpha", alpha),
	)
	return fused, nil
}

func (r *Retriever) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	return vectors[0], nil
}

// normalize rescales in place to [0,1]. A batch with no spread carries
// no ranking signal and collapses to zeros.
func normalize(scores []float64) {
	if len(scores) == 0 {
		return
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if hi == lo {
		for i := range scores {
			scores[i] = 0
		}
		return
	}
	for i := range scores {
		scores[i] = (scores[i] - lo) / (hi - lo)
	}
}
