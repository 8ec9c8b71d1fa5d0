package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/johnquangdev/lecture-assistant/internal/adapter/handler"
	"github.com/johnquangdev/lecture-assistant/internal/bootstrap"
	httpmw "github.com/johnquangdev/lecture-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/lecture-assistant/pkg/config"
	"github.com/johnquangdev/lecture-assistant/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/lecture-assistant/pkg/validator"
)

// @title           Lecture Assistant API
// @version         1.0
// @description     API for uploading lecture recordings, reading transcripts and asking questions about them

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	logger.Info("🔧 Initializing dependencies...")
	app, err := bootstrap.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("❌ Failed to initialize dependencies", zap.Error(err))
	}
	defer app.Close()

	// Background processing
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if err := app.Queue.Start(workerCtx); err != nil {
		logger.Fatal("❌ Failed to start processing queue", zap.Error(err))
	}

	if cfg.Processing.RecoverOnStartup {
		go func() {
			report, err := app.Recovery.Run(workerCtx)
			if err != nil {
				logger.Error("❌ Recovery scan failed", zap.Error(err))
				return
			}
			logger.Info("🔁 Recovery scan finished",
				zap.Int("resubmitted", report.Resubmitted),
				zap.Int("failed", report.Failed),
				zap.Int("skipped", report.Skipped),
			)
		}()
	}

	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	logger.Info("🛣️  Setting up routes...")
	router := handler.NewRouter(
		cfg,
		handler.NewLectureHandler(app.Lecture, logger),
		handler.NewChatHandler(app.Chat, logger),
		handler.NewSummaryHandler(app.Summary, logger),
		httpmw.EchoAuth(jwtManager),
	)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}

	// In-flight lectures stay in processing and are requeued by the next recovery scan
	stopWorkers()
	if err := app.Queue.Stop(); err != nil {
		logger.Warn("⚠️ Processing queue did not stop cleanly", zap.Error(err))
	}

	logger.Info("✅ Server stopped gracefully")
}
