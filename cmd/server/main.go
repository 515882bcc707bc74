package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"siteforge/internal/auth"
	"siteforge/internal/config"
	"siteforge/internal/handler"
	"siteforge/internal/llm"
	"siteforge/internal/middleware"
	"siteforge/internal/policy"
	"siteforge/internal/repository/postgres"
	chatSvc "siteforge/internal/service/chat"
	imageSvc "siteforge/internal/service/image"
	siteSvc "siteforge/internal/service/site"
	"siteforge/internal/service/sitefile"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	siteRepo := postgres.NewSiteRepository(repoConfig)
	msgRepo := postgres.NewMessageRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	imageRepo := postgres.NewImageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	policyRegistry, err := policy.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load file policy: %v", err)
	}
	logger.Info("file policy loaded")

	gateway := llm.NewGateway(cfg.LLMEndpoint, cfg.LLMAPIKey, logger)

	// Services
	fileService := sitefile.NewService(siteRepo, fileRepo, txManager, policyRegistry, logger)
	siteService := siteSvc.NewService(siteRepo, msgRepo, fileRepo, txManager, logger)
	imageService := imageSvc.NewService(siteRepo, imageRepo, logger)

	builder := chatSvc.NewContextBuilder(siteRepo, fileRepo, msgRepo, logger)
	gate := chatSvc.NewGate(policyRegistry, logger)
	executor := chatSvc.NewExecutor(fileRepo, logger)
	chatService := chatSvc.NewService(
		siteRepo,
		msgRepo,
		fileRepo,
		imageRepo,
		txManager,
		builder,
		gateway,
		gate,
		executor,
		cfg.DefaultModel,
		cfg.SystemPrompt,
		logger,
	)
	restoreService := chatSvc.NewRestoreService(siteRepo, msgRepo, fileRepo, txManager, logger)

	// Handlers
	siteHandler := handler.NewSiteHandler(siteService, logger)
	chatHandler := handler.NewChatHandler(chatService, restoreService, logger)
	fileHandler := handler.NewFileHandler(fileService, logger)
	previewHandler := handler.NewPreviewHandler(fileService, logger)
	imageHandler := handler.NewImageHandler(imageService, logger)

	logger.Info("services initialized")

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", siteHandler.HealthCheck)

	// Site routes
	mux.HandleFunc("GET /api/sites", siteHandler.ListSites)
	mux.HandleFunc("POST /api/sites", siteHandler.CreateSite)
	mux.HandleFunc("GET /api/sites/{id}", siteHandler.GetSite)
	mux.HandleFunc("PATCH /api/sites/{id}", siteHandler.UpdateSite)
	mux.HandleFunc("DELETE /api/sites/{id}", siteHandler.DeleteSite)

	// Chat routes
	mux.HandleFunc("POST /api/sites/{id}/chat", chatHandler.ProcessTurn)
	mux.HandleFunc("GET /api/sites/{id}/messages", chatHandler.ListMessages)
	mux.HandleFunc("POST /api/sites/{id}/restore", chatHandler.RestoreLastTurn)

	// File routes
	mux.HandleFunc("GET /api/sites/{id}/files", fileHandler.ListFiles)
	mux.HandleFunc("PUT /api/sites/{id}/files", fileHandler.SaveFile)

	// Image routes
	mux.HandleFunc("POST /api/sites/{id}/images", imageHandler.Upload)
	mux.HandleFunc("GET /api/images/{id}", imageHandler.Serve)

	// Public preview routes
	mux.HandleFunc("GET /preview/{slug}", previewHandler.ServeFile)
	mux.HandleFunc("GET /preview/{slug}/{path...}", previewHandler.ServeFile)

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	httpHandler = middleware.AuthMiddleware(jwtVerifier)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     httpHandler,
		ReadTimeout: 15 * time.Second,
		// Chat turns block on the model for minutes; keep the write timeout
		// above the gateway's own deadline.
		WriteTimeout: llm.DefaultTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
