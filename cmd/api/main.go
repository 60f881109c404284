package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"imagerelay/internal/http/handlers"
	httpapi "imagerelay/internal/http/httpapi"
	"imagerelay/internal/infra"
	"imagerelay/internal/infra/credentials"
	"imagerelay/internal/poller"
	"imagerelay/internal/prompts"
	"imagerelay/internal/relay"
	"imagerelay/internal/storage"
	"imagerelay/internal/upstream"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()
	apiKey, err := resolveAPIKey(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve upstream api key")
	}

	catalog, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load prompts")
	}

	store, err := storage.NewFileStore(cfg.MediaRoot)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare media root")
	}
	var uploader storage.Uploader = storage.NewMediaUploader(store, cfg.PublicBaseURL)
	if cfg.UploadMode == infra.UploadModeInline {
		uploader = storage.InlineUploader{MaxBytes: cfg.MaxUploadBytes}
	}

	client := upstream.NewClient(upstream.Options{
		HTTPClient:    &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		Logger:        &logger,
		SubmitTimeout: cfg.SubmitTimeout,
		FetchTimeout:  cfg.FetchTimeout,
	})
	service := relay.NewService(relay.Options{
		Endpoint:    cfg.APIURL,
		Credential:  apiKey,
		Prompts:     catalog,
		Client:      client,
		Poller:      poller.New(client, &logger),
		PollOptions: poller.Options{Timeout: cfg.PollTimeout, Interval: cfg.PollInterval},
		Logger:      &logger,
	})

	app := handlers.NewApp(service, catalog, uploader, &logger, cfg.MaxUploadBytes)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:      logger,
		MediaRoot:   store.BasePath(),
		CORSOrigins: cfg.CORSAllowedOrigins,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Str("upload_mode", cfg.UploadMode).
			Int("features", len(catalog.Features())).
			Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// in-flight generations may still be polling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.PollTimeout+10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// resolveAPIKey prefers API_KEY and falls back to the key stored in the database.
func resolveAPIKey(ctx context.Context, cfg *infra.Config, logger infra.Logger) (string, error) {
	if cfg.APIKey != "" {
		return cfg.APIKey, nil
	}
	pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return "", err
	}
	defer pool.Close()

	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))
	lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	key, err := store.UpstreamAPIKey(lookupCtx)
	if err != nil {
		return "", err
	}
	if key == "" {
		logger.Warn().Msg("no upstream api key stored; requests will be sent without credentials")
	} else {
		logger.Info().Msg("upstream api key loaded from database")
	}
	return key, nil
}
