package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsrag/internal/ai"
	"github.com/xxxsen/newsrag/internal/chunker"
	"github.com/xxxsen/newsrag/internal/config"
	"github.com/xxxsen/newsrag/internal/db"
	"github.com/xxxsen/newsrag/internal/embed"
	"github.com/xxxsen/newsrag/internal/embedcache"
	"github.com/xxxsen/newsrag/internal/fetcher"
	"github.com/xxxsen/newsrag/internal/filestore"
	"github.com/xxxsen/newsrag/internal/model"
	"github.com/xxxsen/newsrag/internal/repo"
	"github.com/xxxsen/newsrag/internal/retrieval"
	"github.com/xxxsen/newsrag/internal/service"
	"github.com/xxxsen/newsrag/internal/synthesis"
)

type deps struct {
	ingest *service.IngestService
	answer *service.AnswerService
}

func buildDeps(configPath string) (*deps, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	ctx := context.Background()
	logutil.GetLogger(ctx).Info("config loaded", zap.String("config", configPath))

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	provider = ai.WrapBreaker(provider)

	var cacheRepo *repo.EmbeddingCacheRepo
	if cfg.Cache.DSN != "" {
		conn, err := db.Open(cfg.Cache.DSN)
		if err != nil {
			return nil, fmt.Errorf("open cache db: %w", err)
		}
		if err := db.ApplyMigrations(conn); err != nil {
			return nil, fmt.Errorf("cache migrations: %w", err)
		}
		cacheRepo = repo.NewEmbeddingCacheRepo(conn)
	}
	cache := embedcache.NewTiered(
		embedcache.NewLRU(cfg.Cache.LRUSize, time.Duration(cfg.Cache.LRUTTLMinutes)*time.Minute),
		embedcache.NewDBCache(cacheRepo),
	)
	embedder := embed.New(ai.NewEmbedder(provider, cfg.AI.EmbedModel), cache)
	generator := ai.NewGenerator(provider, cfg.AI.GenerateModel)

	store, err := filestore.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}

	var janitor service.CacheJanitor
	if cacheRepo != nil {
		janitor = cacheRepo
	}
	ingestSvc := service.NewIngestService(
		fetcher.New(cfg.Fetch),
		chunker.Default(),
		embedder,
		store,
		janitor,
		cfg.Cache.EmbedTTLDays,
		cfg.Fetch.Parallelism,
	)
	answerSvc := service.NewAnswerService(
		embedder,
		retrieval.New(embedder),
		synthesis.NewSynthesizer(generator),
		synthesis.NewVerifier(generator),
		store,
		cfg.Query,
	)
	return &deps{ingest: ingestSvc, answer: answerSvc}, nil
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "newsrag",
		Short: "ingest web pages and answer questions grounded in them",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	var corpusID string

	ingestCmd := &cobra.Command{
		Use:   "ingest [urls...]",
		Short: "fetch, chunk, embed and index pages into a corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(configPath)
			if err != nil {
				return err
			}
			result, err := d.ingest.Ingest(cmd.Context(), corpusID, args, printStage)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d chunks (dim=%d) into corpus %s\n",
				result.ChunksIndexed, result.Dim, result.CorpusID)
			for _, url := range result.FailedURLs {
				fmt.Printf("skipped: %s\n", url)
			}
			return nil
		},
	}
	ingestCmd.Flags().StringVar(&corpusID, "corpus", "default", "corpus to index into")

	var (
		retrieverName string
		k             int
		maxPerSource  int
		alpha         float64
		asJSON        bool
	)
	answerCmd := &cobra.Command{
		Use:   "answer [question...]",
		Short: "answer a question using a previously ingested corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(configPath)
			if err != nil {
				return err
			}
			req := &service.AnswerRequest{
				CorpusID:     corpusID,
				Question:     strings.Join(args, " "),
				Retriever:    retrieverName,
				K:            k,
				MaxPerSource: maxPerSource,
			}
			if cmd.Flags().Changed("alpha") {
				req.Alpha = &alpha
			}
			result, err := d.answer.Answer(cmd.Context(), req, printStage)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(result)
			}
			printAnswer(result)
			return nil
		},
	}
	answerCmd.Flags().StringVar(&corpusID, "corpus", "default", "corpus to query")
	answerCmd.Flags().StringVar(&retrieverName, "retriever", service.RetrieverHybrid, "hybrid or vector")
	answerCmd.Flags().IntVar(&k, "k", 0, "number of evidence chunks (0 uses config default)")
	answerCmd.Flags().IntVar(&maxPerSource, "max-per-source", 0, "per-url evidence cap (0 uses config default)")
	answerCmd.Flags().Float64Var(&alpha, "alpha", 0, "vector weight for hybrid fusion, 0..1")
	answerCmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw result as JSON")

	rootCmd.AddCommand(ingestCmd, answerCmd)
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func printStage(stage string) {
	fmt.Fprintf(os.Stderr, "... %s\n", stage)
}

func printAnswer(result *model.AnswerResult) {
	if result.Failure != nil {
		fmt.Printf("GENERATION FAILED: %s\n", result.Failure.Reason)
		fmt.Printf("RAW OUTPUT:\n%s\n", result.Failure.Raw)
		return
	}
	fmt.Printf("ANSWER (%s)\n", result.Retriever)
	fmt.Printf("  %s\n", result.TLDR)
	for _, b := range result.Bullets {
		fmt.Printf("  - %s\n", b)
	}
	fmt.Println("VERIFICATION")
	if result.VerifyFailure != nil {
		fmt.Printf("  failed: %s\n", result.VerifyFailure.Reason)
	}
	for _, v := range result.Verification {
		ids := make([]string, 0, len(v.EvidenceIDs))
		for _, id := range v.EvidenceIDs {
			ids = append(ids, fmt.Sprintf("%d", id))
		}
		fmt.Printf("  [%s] %s (evidence: %s)\n", v.Status, v.Claim, strings.Join(ids, ","))
	}
	fmt.Println("SOURCES")
	for _, s := range result.Sources {
		fmt.Printf("  [%d] %s#chunk%d score=%.3f\n", s.ID, s.URL, s.Chunk, s.Score)
	}
}
