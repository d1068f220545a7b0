package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsrag/internal/config"
	"github.com/xxxsen/newsrag/internal/embed"
	"github.com/xxxsen/newsrag/internal/filestore"
	"github.com/xxxsen/newsrag/internal/index"
	"github.com/xxxsen/newsrag/internal/model"
	appErr "github.com/xxxsen/newsrag/internal/pkg/errors"
	"github.com/xxxsen/newsrag/internal/retrieval"
	"github.com/xxxsen/newsrag/internal/synthesis"
)

const (
	RetrieverHybrid = "hybrid"
	RetrieverVector = "vector"
)

// AnswerRequest carries one question against one corpus. Zero values
// fall back to the configured query defaults; Alpha is a pointer because
// zero is a meaningful weight (pure lexical).
type AnswerRequest struct {
	CorpusID     string
	Question     string
	Retriever    string
	K            int
	MaxPerSource int
	Alpha        *float64
}

// AnswerService loads a corpus index, retrieves evidence and runs the
// grounded synthesis and verification passes.
type AnswerService struct {
	embedder    *embed.Embedder
	retriever   *retrieval.Retriever
	synthesizer *synthesis.Synthesizer
	verifier    *synthesis.Verifier
	store       filestore.Store
	defaults    config.QueryConfig
}

func NewAnswerService(embedder *embed.Embedder, retriever *retrieval.Retriever, synthesizer *synthesis.Synthesizer, verifier *synthesis.Verifier, store filestore.Store, defaults config.QueryConfig) *AnswerService {
	return &AnswerService{
		embedder:    embedder,
		retriever:   retriever,
		synthesizer: synthesizer,
		verifier:    verifier,
		store:       store,
		defaults:    defaults,
	}
}

func (s *AnswerService) Answer(ctx context.Context, req *AnswerRequest, progress Progress) (*model.AnswerResult, error) {
	if req.CorpusID == "" {
		return nil, fmt.Errorf("corpus id is required")
	}
	if req.Question == "" {
		return nil, fmt.Errorf("question is required")
	}
	retrieverName := req.Retriever
	if retrieverName == "" {
		retrieverName = RetrieverHybrid
	}
	if retrieverName != RetrieverHybrid && retrieverName != RetrieverVector {
		return nil, fmt.Errorf("unknown retriever %q", retrieverName)
	}
	k := req.K
	if k <= 0 {
		k = s.defaults.K
	}
	maxPerSource := req.MaxPerSource
	if maxPerSource <= 0 {
		maxPerSource = s.defaults.MaxPerSource
	}
	alpha := s.defaults.Alpha
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("corpus_id", req.CorpusID),
		zap.String("retriever", retrieverName),
	)

	dim, err := s.embedder.Dim(ctx)
	if err != nil {
		return nil, err
	}
	idx, manifest, err := index.Load(ctx, s.store, req.CorpusID, dim)
	if err != nil {
		return nil, err
	}
	if manifest.EmbedModel != s.embedder.ModelName() {
		logger.Warn("corpus was embedded with a different model",
			zap.String("corpus_model", manifest.EmbedModel),
			zap.String("runtime_model", s.embedder.ModelName()),
		)
	}

	report(progress, StageRetrieve)
	// Overfetch so the per-source cap still has enough candidates to
	// fill k slots.
	overfetch := 3 * k
	if overfetch < k {
		overfetch = k
	}
	var hits []model.Hit
	switch retrieverName {
	case RetrieverVector:
		hits, err = s.retriever.RetrieveVector(ctx, req.Question, idx, overfetch)
	default:
		hits, err = s.retriever.Retrieve(ctx, req.Question, idx, overfetch, alpha)
	}
	if err != nil {
		return nil, err
	}
	hits = retrieval.Diversify(hits, k, maxPerSource)
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: corpus %s", appErr.ErrEmptyRetrieval, req.CorpusID)
	}
	logger.Info("evidence selected", zap.Int("hits", len(hits)))

	result := &model.AnswerResult{
		CorpusID:  req.CorpusID,
		Retriever: retrieverName,
		Sources:   buildSources(hits),
	}

	report(progress, StageSynthesize)
	answer, failure, err := s.synthesizer.Synthesize(ctx, req.Question, hits)
	if err != nil {
		return nil, err
	}
	if failure != nil {
		result.Failure = failure
		report(progress, StageDone)
		return result, nil
	}
	result.TLDR = answer.TLDR
	result.Bullets = answer.Bullets

	report(progress, StageVerify)
	verification, vfailure, err := s.verifier.Verify(ctx, answer.Bullets, hits)
	if err != nil {
		return nil, err
	}
	if vfailure != nil {
		result.VerifyFailure = vfailure
	} else {
		result.Verification = verification
	}

	report(progress, StageDone)
	return result, nil
}

func buildSources(hits []model.Hit) []model.SourceItem {
	sources := make([]model.SourceItem, 0, len(hits))
	for i, h := range hits {
		sources = append(sources, model.SourceItem{
			ID:    i + 1,
			URL:   h.Chunk.URL,
			Chunk: h.Chunk.Seq,
			Score: h.Score,
		})
	}
	return sources
}
