// Package bootstrap wires configuration into the running services shared by
// the API server and the maintenance CLI.
package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/johnquangdev/lecture-assistant/internal/adapter/repository"
	"github.com/johnquangdev/lecture-assistant/internal/domain/repositories"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/cache"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/database"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/external/asrworker"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/external/assemblyai"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/external/ffprobe"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/external/whisper"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/storage"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/vectordb"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/chat"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/chunking"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/embedding"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/index"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/lecture"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/llm"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/summary"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/transcription"
	pkgai "github.com/johnquangdev/lecture-assistant/pkg/ai"
	"github.com/johnquangdev/lecture-assistant/pkg/config"
)

// App holds every long lived dependency
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB       *gorm.DB
	Redis    *redis.Client
	Lectures repositories.LectureRepository
	Blobs    repositories.BlobStore
	Progress repositories.ProgressCache

	Index    *index.Index
	Queue    *lecture.Queue
	Recovery *lecture.Recovery
	LLM      *llm.Chain
	Lecture  *lecture.Service
	Chat     *chat.Service
	Summary  *summary.Service

	memoryProgress *cache.MemoryProgressCache
}

// NewLogger returns a development logger outside production
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// New connects storage, migrates the schema and builds the services.
// The queue is created but not started.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	logger.Info("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	if _, err := database.Migrate(db, database.DefaultMigrationsDir, migrate.Up, logger); err != nil {
		app.Close()
		return nil, err
	}
	app.Lectures = repository.NewLectureRepository(db)

	if err := app.initStorage(ctx); err != nil {
		app.Close()
		return nil, err
	}

	idx, err := app.initIndex(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Index = idx

	transcriber := app.initTranscription()
	processor := lecture.NewProcessor(
		app.Lectures,
		app.Blobs,
		app.Progress,
		transcriber,
		idx,
		ffprobe.NewProber(cfg.ASR.FFprobeBinary),
		lecture.ProcessorConfig{
			TranscribeTimeout:    cfg.Processing.TranscribeTimeout,
			IndexRetryMaxElapsed: cfg.Processing.IndexMaxElapsed,
		},
		logger,
	)
	app.Queue = lecture.NewQueue(processor, cfg.Processing.Workers, cfg.Processing.QueueSize, logger)
	app.Recovery = lecture.NewRecovery(app.Lectures, app.Queue, logger)

	app.LLM = llm.NewChain(llmProviders(cfg), logger)
	if !app.LLM.Available() {
		logger.Warn("⚠️ No LLM provider configured, chat and summaries are disabled")
	}

	app.Lecture = lecture.NewService(app.Lectures, app.Blobs, app.Progress, app.Queue, idx, lecture.ServiceConfig{
		AudioDir:      cfg.Storage.AudioDir,
		UploadTempDir: cfg.Storage.UploadTempDir,
	}, logger)
	app.Chat = chat.NewService(app.Lectures, idx, app.LLM, chat.Config{
		TopK:           cfg.Index.TopK,
		MinScore:       cfg.Index.MinScore,
		GlobalTopK:     cfg.Index.GlobalTopK,
		GlobalMinScore: cfg.Index.GlobalMinScore,
	}, logger)
	app.Summary = summary.NewService(app.Lectures, app.Blobs, app.LLM, cfg.Processing.SummaryMaxChars, logger)

	return app, nil
}

func (a *App) initStorage(ctx context.Context) error {
	cfg := a.Config

	switch cfg.Storage.Type {
	case "minio":
		a.Logger.Info("🪣 Connecting to MinIO...", zap.String("endpoint", cfg.Storage.Endpoint))
		blobs, err := storage.NewMinIOBlobStore(ctx, &cfg.Storage, a.Logger)
		if err != nil {
			return err
		}
		a.Blobs = blobs
	default:
		blobs, err := storage.NewLocalBlobStore(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		a.Blobs = blobs
	}

	if cfg.Redis.Enabled {
		a.Logger.Info("📦 Connecting to Redis...", zap.String("addr", cfg.GetRedisAddr()))
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		a.Redis = client
		a.Progress = cache.NewRedisProgressCache(client, cfg.Redis.ProgressTTL)
		return nil
	}
	a.memoryProgress = cache.NewMemoryProgressCache(cfg.Redis.ProgressTTL)
	a.Progress = a.memoryProgress
	return nil
}

func (a *App) initIndex(ctx context.Context) (*index.Index, error) {
	cfg := a.Config

	var factory embedding.ModelFactory
	switch cfg.Embedding.Provider {
	case "openai":
		factory = func() (embedding.Model, error) {
			return embedding.NewOpenAIModel(pkgai.NewOpenAIEmbeddingClient(&cfg.Embedding), cfg.Embedding.Dimension)
		}
	default:
		factory = func() (embedding.Model, error) {
			return embedding.NewHashModel(cfg.Embedding.Dimension), nil
		}
	}
	embedder := embedding.NewEmbedder(factory, cfg.Embedding.Normalize, a.Logger)

	var store repositories.VectorStore
	switch cfg.Index.Backend {
	case "pgvector":
		pg, err := vectordb.NewPGVectorStore(ctx, a.DB, a.Logger)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		store = vectordb.NewMemoryStore()
	}

	chunker, err := chunking.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}
	return index.NewIndex(store, embedder, chunker, cfg.Embedding.BatchSize, a.Logger), nil
}

func (a *App) initTranscription() *transcription.Client {
	cfg := a.Config

	var providers []transcription.RemoteProvider
	for _, url := range cfg.ASR.WorkerURLs {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		providers = append(providers, asrworker.NewClient(url, cfg.ASR.WorkerTimeout, cfg.ASR.HealthTimeout, a.Logger))
	}
	if cfg.Assembly.Enabled && cfg.Assembly.APIKey != "" {
		providers = append(providers, assemblyai.NewProvider(&cfg.Assembly, a.Logger))
	}

	factory := func() (transcription.Engine, error) {
		return whisper.NewCLIEngine(&cfg.ASR, a.Logger)
	}
	return transcription.NewClient(providers, factory, transcription.ClientConfig{
		LocalConcurrency: cfg.ASR.LocalConcurrency,
		HealthTimeout:    cfg.ASR.HealthTimeout,
	}, a.Logger)
}

// llmProviders orders the chat backends as listed in LLM_PROVIDERS
func llmProviders(cfg *config.Config) []llm.Provider {
	var providers []llm.Provider
	for _, name := range cfg.LLM.Providers {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "openai":
			providers = append(providers, pkgai.NewOpenAIChatClient(&cfg.LLM))
		case "groq":
			providers = append(providers, pkgai.NewGroqClient(&cfg.Groq, &cfg.LLM))
		}
	}
	return providers
}

// Close releases connections; the queue must be stopped first
func (a *App) Close() {
	if a.memoryProgress != nil {
		a.memoryProgress.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("⚠️ Failed to close Redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := database.CloseDB(a.DB); err != nil {
			a.Logger.Warn("⚠️ Failed to close database", zap.Error(err))
		}
	}
}
