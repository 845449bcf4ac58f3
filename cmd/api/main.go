package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clipforge/internal/assemble"
	"clipforge/internal/cliplib"
	"clipforge/internal/generate"
	"clipforge/internal/http/handlers"
	"clipforge/internal/http/httpapi"
	"clipforge/internal/infra"
	"clipforge/internal/infra/geoip"
	"clipforge/internal/providers/aiml"
	"clipforge/internal/providers/prompt"
	"clipforge/internal/quota"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	providerClient, err := aiml.NewClient(aiml.Options{
		BaseURL:           cfg.ProviderBaseURL,
		APIKey:            cfg.ProviderAPIKey,
		GeneratePath:      cfg.ProviderGeneratePath,
		StatusPath:        cfg.ProviderStatusPath,
		StatusQueryParam:  cfg.ProviderStatusQueryParam,
		DefaultModel:      cfg.ProviderDefaultModel,
		ConnectTimeout:    cfg.ProviderConnectTimeout,
		ReadTimeout:       cfg.ProviderReadTimeout,
		StatusReadTimeout: cfg.ProviderStatusReadTimeout,
		SubmitAttempts:    cfg.ProviderSubmitAttempts,
		StatusAttempts:    cfg.ProviderStatusAttempts,
		Logger:            &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build provider client")
	}

	assembler, err := assemble.New(assemble.Options{
		OutputDir:  cfg.StoragePath,
		FFmpegBin:  cfg.FFmpegBin,
		FFprobeBin: cfg.FFprobeBin,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize assembler")
	}

	var planner generate.TextPlanner
	var transcriber handlers.Transcriber
	if cfg.OpenAIAPIKey != "" {
		openai, err := prompt.NewOpenAIClient(prompt.Options{
			BaseURL:         cfg.OpenAIBaseURL,
			APIKey:          cfg.OpenAIAPIKey,
			ChatModel:       cfg.OpenAIChatModel,
			TranscribeModel: cfg.OpenAITranscribeModel,
			Logger:          &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build planning client")
		}
		planner = openai
		transcriber = openai
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, scene planning degrades to single scenes")
	}

	// Stores fall back to memory when no database is configured.
	var quotaStore quota.Store = quota.NewMemoryStore(cfg.FreeGenerationLimit)
	var clipStore cliplib.Store = cliplib.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		quotaStore = quota.NewPostgresStore(dbpool, cfg.FreeGenerationLimit)
		clipStore = cliplib.NewPostgresStore(dbpool)
	}

	countryResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country resolution disabled")
	}

	orchestrator := &generate.Orchestrator{
		Submitter: providerClient,
		Waiter: &generate.Poller{
			Client:   providerClient,
			Interval: cfg.PollInterval,
			MaxWait:  cfg.PollMaxWait,
			Logger:   &logger,
		},
		Planner:  &generate.ScenePlanner{Planner: planner, Logger: &logger},
		Stitcher: assembler,
		Quota:    quotaStore,
		Mode:     assemble.Mode(cfg.StitchMode),
		Logger:   &logger,
	}

	app := &handlers.App{
		Logger:               logger,
		Generator:            orchestrator,
		Stitcher:             assembler,
		Clips:                clipStore,
		Quota:                quotaStore,
		Transcriber:          transcriber,
		ProxyClient:          &http.Client{Timeout: 5 * time.Minute},
		StitchMode:           assemble.Mode(cfg.StitchMode),
		ProviderConfigured:   cfg.ProviderAPIKey != "",
		TranscribeConfigured: transcriber != nil,
		DefaultModel:         cfg.ProviderDefaultModel,
		FreeLimit:            cfg.FreeGenerationLimit,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryResolver: countryResolver,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
