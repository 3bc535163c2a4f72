package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prasetyo/lapak-ai/analysis"
	"github.com/prasetyo/lapak-ai/config"
	"github.com/prasetyo/lapak-ai/llm"
	"github.com/prasetyo/lapak-ai/marketplace"
	"github.com/prasetyo/lapak-ai/search"
	"github.com/prasetyo/lapak-ai/server"
	"github.com/prasetyo/lapak-ai/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const mockPublishDelay = 500 * time.Millisecond

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLiteStore(cfg.DBPath, storage.DeriveKey(cfg.CredentialKey))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("store initialized")

	gemini, err := llm.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize gemini backend")
	}
	backend := llm.NewBreakerBackend(gemini)
	log.Info().Msg("gemini backend initialized")

	var searcher analysis.Searcher
	var trendSource server.TrendSource
	if cfg.SearchEnabled() {
		searchClient := search.NewClient(search.ClientOpts{
			APIKey:   cfg.SearchAPIKey,
			EngineID: cfg.SearchEngineID,
		})
		searcher = searchClient
		trendSource = searchClient
		log.Info().Msg("market grounding enabled")
	} else {
		log.Warn().Msg("search credentials missing, analysis runs without market grounding")
	}

	analyzer := analysis.NewAnalyzer(backend, searcher, analysis.AnalyzerOpts{
		LLMTimeout:    cfg.LLMTimeout,
		SearchTimeout: cfg.SearchTimeout,
	})

	registry := marketplace.NewRegistry(map[marketplace.Platform]marketplace.Publisher{
		marketplace.Shopee:     newPublisher(marketplace.Shopee, cfg.ShopeeBaseURL),
		marketplace.Tokopedia:  newPublisher(marketplace.Tokopedia, cfg.TokopediaBaseURL),
		marketplace.TikTokShop: newPublisher(marketplace.TikTokShop, cfg.TikTokBaseURL),
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(analyzer, store, registry, trendSource).Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// newPublisher returns an HTTP publisher when a base URL is configured for
// the platform, and the in-process mock otherwise.
func newPublisher(platform marketplace.Platform, baseURL string) marketplace.Publisher {
	if baseURL != "" {
		return marketplace.NewAPIClient(platform, marketplace.ClientOpts{BaseURL: baseURL})
	}
	return marketplace.NewMockPublisher(platform, mockPublishDelay)
}
