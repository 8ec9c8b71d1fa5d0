package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Storage    StorageConfig
	ASR        ASRConfig
	Assembly   AssemblyAIConfig
	Embedding  EmbeddingConfig
	Index      IndexConfig
	Chunking   ChunkingConfig
	LLM        LLMConfig
	Groq       GroqConfig
	Processing ProcessingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"lecture_assistant"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns int    `envconfig:"DB_MIN_CONNS" default:"5"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled     bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host        string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port        string        `envconfig:"REDIS_PORT" default:"6379"`
	Password    string        `envconfig:"REDIS_PASSWORD"`
	DB          int           `envconfig:"REDIS_DB" default:"0"`
	ProgressTTL time.Duration `envconfig:"REDIS_PROGRESS_TTL" default:"6h"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"24h"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type            string `envconfig:"STORAGE_TYPE" default:"local"` // "minio" or "local"
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"lecture-assistant"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	DataDir         string `envconfig:"DATA_DIR" default:"./data"`
	AudioDir        string `envconfig:"AUDIO_DIR" default:"./data/audio"`
	UploadTempDir   string `envconfig:"UPLOAD_TEMP_DIR" default:"./data/uploads"`
}

// ASRConfig holds speech recognition configuration
type ASRConfig struct {
	DefaultLanguage  string        `envconfig:"ASR_LANGUAGE"`
	WhisperBinary    string        `envconfig:"WHISPER_BIN" default:"whisper-cli"`
	WhisperModel     string        `envconfig:"WHISPER_MODEL" default:"models/ggml-large-v3.bin"`
	WhisperThreads   int           `envconfig:"WHISPER_THREADS" default:"4"`
	LocalConcurrency int           `envconfig:"LOCAL_ASR_CONCURRENCY" default:"1"`
	WorkerURLs       []string      `envconfig:"ASR_WORKER_URLS"`
	WorkerTimeout    time.Duration `envconfig:"ASR_WORKER_TIMEOUT" default:"3h"`
	HealthTimeout    time.Duration `envconfig:"ASR_HEALTH_TIMEOUT" default:"5s"`
	FFprobeBinary    string        `envconfig:"FFPROBE_BIN" default:"ffprobe"`
}

// AssemblyAIConfig holds AssemblyAI configuration
type AssemblyAIConfig struct {
	APIKey  string `envconfig:"ASSEMBLYAI_API_KEY"`
	Enabled bool   `envconfig:"ASSEMBLYAI_ENABLED" default:"false"`
}

// EmbeddingConfig holds embedding model configuration
type EmbeddingConfig struct {
	Provider  string `envconfig:"EMBEDDING_PROVIDER" default:"hash"` // "openai" or "hash"
	Model     string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	APIKey    string `envconfig:"EMBEDDING_API_KEY"`
	BaseURL   string `envconfig:"EMBEDDING_BASE_URL"`
	Dimension int    `envconfig:"EMBEDDING_DIMENSION" default:"384"`
	BatchSize int    `envconfig:"EMBEDDING_BATCH_SIZE" default:"32"`
	Normalize bool   `envconfig:"EMBEDDING_NORMALIZE" default:"true"`
}

// IndexConfig holds vector index configuration
type IndexConfig struct {
	Backend        string  `envconfig:"VECTOR_BACKEND" default:"memory"` // "memory" or "pgvector"
	TopK           int     `envconfig:"SEARCH_TOP_K" default:"5"`
	MinScore       float64 `envconfig:"SEARCH_MIN_SCORE" default:"0.3"`
	GlobalTopK     int     `envconfig:"GLOBAL_SEARCH_TOP_K" default:"3"`
	GlobalMinScore float64 `envconfig:"GLOBAL_SEARCH_MIN_SCORE" default:"0.25"`
}

// ChunkingConfig holds transcript chunking configuration
type ChunkingConfig struct {
	Size    int `envconfig:"CHUNK_SIZE" default:"400"`
	Overlap int `envconfig:"CHUNK_OVERLAP" default:"50"`
}

// LLMConfig holds answer/summary generation configuration
type LLMConfig struct {
	Providers     []string `envconfig:"LLM_PROVIDERS" default:"openai,groq"`
	OpenAIKey     string   `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string   `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string   `envconfig:"OPENAI_BASE_URL"`
	Temperature   float32  `envconfig:"LLM_TEMPERATURE" default:"0.3"`
	MaxTokens     int      `envconfig:"LLM_MAX_TOKENS" default:"2048"`
}

// GroqConfig holds Groq configuration
type GroqConfig struct {
	APIKey  string `envconfig:"GROQ_API_KEY"`
	BaseURL string `envconfig:"GROQ_API_URL" default:"https://api.groq.com"`
	Model   string `envconfig:"GROQ_MODEL" default:"llama-3.1-70b-versatile"`
}

// ProcessingConfig holds background pipeline configuration
type ProcessingConfig struct {
	Workers           int           `envconfig:"PROCESSING_WORKERS" default:"2"`
	QueueSize         int           `envconfig:"PROCESSING_QUEUE_SIZE" default:"100"`
	TranscribeTimeout time.Duration `envconfig:"TRANSCRIBE_TIMEOUT" default:"3h"`
	IndexMaxElapsed   time.Duration `envconfig:"INDEX_RETRY_MAX_ELAPSED" default:"2m"`
	SummaryMaxChars   int           `envconfig:"SUMMARY_MAX_CHARS" default:"30000"`
	RecoverOnStartup  bool          `envconfig:"RECOVER_ON_STARTUP" default:"true"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{}
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if c.Index.MinScore < 0 || c.Index.MinScore > 1 {
		return fmt.Errorf("SEARCH_MIN_SCORE must be between 0 and 1")
	}
	if c.Index.GlobalMinScore < 0 || c.Index.GlobalMinScore > 1 {
		return fmt.Errorf("GLOBAL_SEARCH_MIN_SCORE must be between 0 and 1")
	}
	switch c.Index.Backend {
	case "memory", "pgvector":
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.Index.Backend)
	}
	switch c.Embedding.Provider {
	case "openai", "hash":
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.Embedding.Provider)
	}
	switch c.Storage.Type {
	case "minio", "local":
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive")
	}
	if c.ASR.LocalConcurrency <= 0 {
		return fmt.Errorf("LOCAL_ASR_CONCURRENCY must be positive")
	}
	if c.Processing.Workers <= 0 {
		return fmt.Errorf("PROCESSING_WORKERS must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
