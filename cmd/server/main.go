package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comics-blog/cmd"
	"comics-blog/internal/api"
	"comics-blog/internal/blog"
	"comics-blog/internal/chat"
	"comics-blog/internal/config"
	"comics-blog/internal/database"
	"comics-blog/internal/logging"
	"comics-blog/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

func createGroundedBackend(ctx context.Context, cfg *config.Config) (*chat.GroundedBackend, error) {
	source, err := storage.ParseSource(cfg.DatasetSource)
	if err != nil {
		return nil, &config.ConfigError{Field: "DATASET_SOURCE", Reason: err.Error()}
	}

	provider, err := cmd.NewProvider(ctx, cfg, source)
	if err != nil {
		return nil, fmt.Errorf("error creating storage provider: %w", err)
	}

	store, err := database.OpenStore(cfg.DatasetStore)
	if err != nil {
		return nil, err
	}

	loader, err := chat.NewDatasetLoader(store, provider, cfg.DatasetTable)
	if err != nil {
		_ = database.Close(store)
		return nil, &config.ConfigError{Field: "DATASET_TABLE", Reason: err.Error()}
	}

	backend := chat.NewGroundedBackend(loader, source, func(ctx context.Context) (chat.Agent, error) {
		llm, err := chat.NewOpenAIModel(chat.AgentModelConfig{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.AgentModel,
		})
		if err != nil {
			return nil, err
		}
		return chat.NewSQLAgent(llm, cfg.DatasetStore, cfg.AgentTopK)
	})

	if sqlDB, err := store.DB(); err == nil {
		backend.CloseWith(sqlDB)
	}

	return backend, nil
}

func createServer(cfg *config.Config, db *gorm.DB, gateway *chat.Gateway) (*http.Server, error) {
	renderer, err := api.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Leave room past the chat timeout so the gateway reports its own error.
	r.Use(middleware.Timeout(cfg.ChatTimeout + 10*time.Second))

	store := blog.NewStore(db)

	api.NewPageService(store.Posts(), store.Categories(), renderer).AddRoutes(r)
	api.NewChatService(gateway, renderer).AddRoutes(r)

	r.Route("/api/v1", func(r chi.Router) {
		api.NewBlogService(store.Posts(), store.Categories()).AddRoutes(r)
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func main() {
	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "configuration error: %s: %s\n", cfgErr.Field, cfgErr.Reason)
			os.Exit(2)
		}
		log.Fatalf("error loading config: %v", err)
	}

	_, logCloser, err := logging.Init(cfg)
	if err != nil {
		log.Fatalf("error initializing logging: %v", err)
	}
	defer logCloser.Close()

	slog.Info("starting server", "port", cfg.Port, "dataset_source", cfg.DatasetSource, "dataset_store", cfg.DatasetStore, "default_mode", cfg.DefaultChatMode)

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error opening database: %v", err)
	}
	defer database.Close(db)

	ctx := context.Background()

	grounded, err := createGroundedBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("error creating grounded backend: %v", err)
	}
	defer grounded.Close()

	// A failed load only disables grounded mode, direct mode keeps working.
	if err := grounded.Init(ctx); err != nil {
		slog.Warn("grounded mode unavailable", "error", err)
	}

	completion := chat.NewOpenAICompletion(chat.OpenAICompletionConfig{
		APIKey:     cfg.OpenAIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.CompletionModel,
		Timeout:    cfg.ChatTimeout,
		MaxRetries: cfg.ChatMaxRetries,
	})

	defaultMode, err := chat.ParseMode(cfg.DefaultChatMode)
	if err != nil {
		log.Fatalf("%v", err)
	}

	gateway := chat.NewGateway(completion, grounded, chat.GatewayOptions{
		DefaultMode: defaultMode,
		Timeout:     cfg.ChatTimeout,
	})

	server, err := createServer(cfg, db, gateway)
	if err != nil {
		log.Fatalf("error creating server: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("could not listen on %d: %v", cfg.Port, err)
	}

	<-done
	slog.Info("server stopped")
}
