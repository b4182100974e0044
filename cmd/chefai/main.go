package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chefai/internal/analysis"
	"chefai/internal/api"
	"chefai/internal/config"
	"chefai/internal/logger"
	"chefai/internal/platform/gemini"
	"chefai/internal/platform/localllm"
	"chefai/internal/session"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Errorf("failed to load config: %w", err))
	}

	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer logger.Sync(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	gen := newGenerator(cfg)
	if closer, ok := gen.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	if !cfg.APIKeyPresent() {
		log.Warn("no API key configured, analyses will fail until GEMINI_API_KEY is set", zap.String("provider", cfg.Provider))
	}

	sessions := session.NewStore()
	go sessions.Janitor(ctx, time.Minute, cfg.SessionIdle(), func(n int) {
		log.Debug("expired idle sessions", zap.Int("removed", n))
	})

	handler := api.NewHandler(
		analysis.NewService(gen, cfg.MaxImageWidth, log),
		sessions,
		log,
		cfg.AnalysisTimeout(),
		cfg.MaxUploadBytes,
	)
	handler.SecureCookie = cfg.IsProduction()
	handler.BaseContext = ctx

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(handler, cfg.AllowOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("provider", gen.Name()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newGenerator picks the model backend named by cfg.Provider.
func newGenerator(cfg config.Config) analysis.Generator {
	switch cfg.Provider {
	case config.ProviderLocal:
		return localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMModel)
	case config.ProviderGeminiSDK:
		return gemini.NewSDKClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		var opts []gemini.Option
		if cfg.GeminiBaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.GeminiBaseURL))
		}
		return gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, opts...)
	}
}
