package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsrag/internal/chunker"
	"github.com/xxxsen/newsrag/internal/embed"
	"github.com/xxxsen/newsrag/internal/filestore"
	"github.com/xxxsen/newsrag/internal/index"
	"github.com/xxxsen/newsrag/internal/model"
	appErr "github.com/xxxsen/newsrag/internal/pkg/errors"
)

// PageFetcher is what ingestion needs from the fetch layer.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CacheJanitor expires old rows from the shared embedding cache.
type CacheJanitor interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// IngestService fetches pages, chunks and embeds them, and appends the
// result to the corpus index. Individual page failures are skipped; a
// batch only fails when it produces nothing at all.
type IngestService struct {
	fetcher      PageFetcher
	chunker      *chunker.Chunker
	embedder     *embed.Embedder
	store        filestore.Store
	janitor      CacheJanitor
	embedTTLDays int
	parallelism  int
}

func NewIngestService(fetcher PageFetcher, ck *chunker.Chunker, embedder *embed.Embedder, store filestore.Store, janitor CacheJanitor, embedTTLDays, parallelism int) *IngestService {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &IngestService{
		fetcher:      fetcher,
		chunker:      ck,
		embedder:     embedder,
		store:        store,
		janitor:      janitor,
		embedTTLDays: embedTTLDays,
		parallelism:  parallelism,
	}
}

func (s *IngestService) Ingest(ctx context.Context, corpusID string, urls []string, progress Progress) (*model.IngestResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("corpus_id", corpusID))
	if corpusID == "" {
		return nil, fmt.Errorf("corpus id is required")
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("at least one url is required")
	}

	report(progress, StageFetch)
	texts, failed := s.fetchAll(ctx, urls)

	report(progress, StageChunk)
	var chunks []model.Chunk
	var chunkTexts []string
	for i, url := range urls {
		if texts[i] == "" {
			continue
		}
		for seq, piece := range s.chunker.Split(texts[i]) {
			chunks = append(chunks, model.Chunk{URL: url, Seq: seq, Text: piece})
			chunkTexts = append(chunkTexts, piece)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced from %d urls (%d failed)", len(urls), len(failed))
	}
	logger.Info("fetched and chunked",
		zap.Int("urls", len(urls)),
		zap.Int("failed", len(failed)),
		zap.Int("chunks", len(chunks)),
	)

	report(progress, StageEmbed)
	vectors, err := s.embedder.Embed(ctx, chunkTexts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	dim := len(vectors[0])

	report(progress, StageIndex)
	idx, _, err := index.Load(ctx, s.store, corpusID, dim)
	if err != nil {
		if !appErr.IsIndexMissing(err) {
			return nil, err
		}
		idx, err = index.New(dim)
		if err != nil {
			return nil, err
		}
	}
	if err := idx.Add(vectors, chunks); err != nil {
		return nil, fmt.Errorf("append to index: %w", err)
	}

	report(progress, StagePersist)
	if err := index.Save(ctx, s.store, corpusID, idx, s.embedder.ModelName()); err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}
	s.cleanupCache(ctx)

	report(progress, StageDone)
	return &model.IngestResult{
		CorpusID:      corpusID,
		ChunksIndexed: len(chunks),
		Dim:           dim,
		FailedURLs:    failed,
	}, nil
}

// fetchAll downloads every url through a bounded worker pool. Results
// land at their input position so corpus row order never depends on
// completion order.
func (s *IngestService) fetchAll(ctx context.Context, urls []string) (texts []string, failed []string) {
	logger := logutil.GetLogger(ctx)
	texts = make([]string, len(urls))
	errs := make([]error, len(urls))

	pool, err := ants.NewPool(s.parallelism)
	if err != nil {
		// Pool creation only fails on bad sizing; fall back to serial.
		for i, url := range urls {
			texts[i], errs[i] = s.fetcher.Fetch(ctx, url)
		}
	} else {
		defer pool.Release()
		var wg sync.WaitGroup
		for i, url := range urls {
			i, url := i, url
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				texts[i], errs[i] = s.fetcher.Fetch(ctx, url)
			}); err != nil {
				errs[i] = err
				wg.Done()
			}
		}
		wg.Wait()
	}

	for i, url := range urls {
		if errs[i] != nil {
			logger.Warn("skipping url", zap.String("url", url), zap.Error(errs[i]))
			texts[i] = ""
			failed = append(failed, url)
		}
	}
	return texts, failed
}

// cleanupCache opportunistically expires stale shared-cache rows after a
// successful ingest. Best-effort only.
func (s *IngestService) cleanupCache(ctx context.Context) {
	if s.janitor == nil || s.embedTTLDays <= 0 {
		return
	}
	cutoff := time.Now().Add(-time.Duration(s.embedTTLDays) * 24 * time.Hour).Unix()
	removed, err := s.janitor.DeleteBefore(ctx, cutoff)
	if err != nil {
		logutil.GetLogger(ctx).Warn("embedding cache cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired embedding cache rows", zap.Int64("removed", removed))
	}
}
