package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the Remixer server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	AI       AIConfig
	Presets  PresetConfig
	Upload   UploadConfig
	Export   ExportConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	AccessTokenHash string
	SessionIdleTTL  time.Duration
	ResultStore     string
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL                string
	RateLimitPerMinute int
}

type AIConfig struct {
	Provider         string
	InferenceTimeout time.Duration
	Gemini           GeminiConfig
	Vertex           VertexConfig
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type VertexConfig struct {
	Project         string
	Location        string
	Model           string
	CredentialsJSON string
	CredentialsPath string
}

type PresetConfig struct {
	File string
}

type UploadConfig struct {
	MaxBytes     int64
	MaxDimension int
}

type ExportConfig struct {
	Format      string
	ArchiveName string
}

const (
	ResultStoreMemory   = "memory"
	ResultStorePostgres = "postgres"

	ExportFormatPNG  = "png"
	ExportFormatWebP = "webp"
)

var validProviders = map[string]bool{
	"gemini": true,
	"vertex": true,
	"mock":   true,
}

// LoadAI reads only the image provider settings. Used by the command-line
// remixer, which needs neither Redis nor a database.
func LoadAI() (AIConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not loaded, using process environment", "error", err)
	}
	ai := aiFromEnv()
	if err := ai.validate(); err != nil {
		return AIConfig{}, err
	}
	return ai, nil
}

// Load reads configuration from the environment (and an optional .env file)
// and returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not loaded, using process environment", "error", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("REMIXER_PORT", 8080),
			Env:             envString("REMIXER_ENV", "development"),
			AccessTokenHash: os.Getenv("ACCESS_TOKEN_HASH"),
			SessionIdleTTL:  envDuration("SESSION_IDLE_TTL", 2*time.Hour),
			ResultStore:     envString("RESULT_STORE", ResultStoreMemory),
			AllowedOrigins:  envList("ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:                os.Getenv("REDIS_URL"),
			RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 30),
		},
		AI: aiFromEnv(),
		Presets: PresetConfig{
			File: os.Getenv("PRESETS_FILE"),
		},
		Upload: UploadConfig{
			MaxBytes:     int64(envInt("UPLOAD_MAX_BYTES", 20<<20)),
			MaxDimension: envInt("UPLOAD_MAX_DIMENSION", 2048),
		},
		Export: ExportConfig{
			Format:      strings.ToLower(envString("EXPORT_FORMAT", ExportFormatPNG)),
			ArchiveName: envString("EXPORT_ARCHIVE_NAME", "nano-banana-remixes.zip"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.ResultStore != ResultStoreMemory && c.Server.ResultStore != ResultStorePostgres {
		return fmt.Errorf("RESULT_STORE must be one of memory, postgres; got %q", c.Server.ResultStore)
	}
	if c.Server.ResultStore == ResultStorePostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when RESULT_STORE is postgres")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if !strings.HasPrefix(c.Redis.URL, "redis://") && !strings.HasPrefix(c.Redis.URL, "rediss://") {
		return fmt.Errorf("REDIS_URL must start with redis:// or rediss://, got %q", c.Redis.URL)
	}

	if err := c.AI.validate(); err != nil {
		return err
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}

	if c.Export.Format != ExportFormatPNG && c.Export.Format != ExportFormatWebP {
		return fmt.Errorf("EXPORT_FORMAT must be one of png, webp; got %q", c.Export.Format)
	}
	if !strings.HasSuffix(c.Export.ArchiveName, ".zip") {
		return fmt.Errorf("EXPORT_ARCHIVE_NAME must end in .zip, got %q", c.Export.ArchiveName)
	}

	return nil
}

func aiFromEnv() AIConfig {
	return AIConfig{
		Provider:         envString("AI_PROVIDER", "gemini"),
		InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 0),
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  envString("GEMINI_MODEL", "gemini-2.5-flash-image"),
		},
		Vertex: VertexConfig{
			Project:         os.Getenv("VERTEX_PROJECT"),
			Location:        envString("VERTEX_LOCATION", "us-central1"),
			Model:           envString("VERTEX_MODEL", "gemini-2.5-flash-image"),
			CredentialsJSON: os.Getenv("VERTEX_CREDENTIALS_JSON"),
			CredentialsPath: os.Getenv("VERTEX_CREDENTIALS_PATH"),
		},
	}
}

func (a AIConfig) validate() error {
	if !validProviders[a.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of gemini, vertex, mock; got %q", a.Provider)
	}
	if a.Provider == "gemini" && a.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required when AI_PROVIDER is gemini")
	}
	if a.Provider == "vertex" && a.Vertex.Project == "" {
		return fmt.Errorf("VERTEX_PROJECT is required when AI_PROVIDER is vertex")
	}
	if a.InferenceTimeout < 0 {
		return fmt.Errorf("AI_INFERENCE_TIMEOUT_SECS must not be negative")
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
