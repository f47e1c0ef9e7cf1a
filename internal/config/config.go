package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"sentiscope/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Intake   IntakeConfig
	Analysis AnalysisConfig
	Storage  StorageConfig
	S3       S3Config
	MinIO    MinIOConfig
	Session  SessionConfig
	Log      LogConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	Locale       string        `mapstructure:"locale"`
}

// IntakeConfig holds screenshot validation limits.
type IntakeConfig struct {
	MaxFiles       int      `mapstructure:"max_files"`
	MaxFilesSingle int      `mapstructure:"max_files_single"`
	MaxFileSizeMB  int64    `mapstructure:"max_file_size_mb"`
	AllowedTypes   []string `mapstructure:"allowed_types"`
}

// MaxBytes returns the per-file limit in bytes.
func (i *IntakeConfig) MaxBytes() int64 {
	return i.MaxFileSizeMB * 1024 * 1024
}

// MaxCount returns the selection capacity for mode.
func (i *IntakeConfig) MaxCount(mode domain.SelectionMode) int {
	if mode == domain.SelectionModeSingle {
		return i.MaxFilesSingle
	}
	return i.MaxFiles
}

// AnalysisConfig holds settings for the remote analysis service.
type AnalysisConfig struct {
	BaseURL      string   `mapstructure:"base_url"`
	APIKey       string   `mapstructure:"api_key"`
	TimeoutSecs  int      `mapstructure:"timeout_secs"`
	StageDelayMS int      `mapstructure:"stage_delay_ms"`
	// FallbackURLs are tried in order when the primary is unreachable.
	FallbackURLs []string `mapstructure:"fallback_urls"`
	CooldownSecs int      `mapstructure:"cooldown_secs"`
}

// StageDelay returns the pause between Uploading and the analysis call.
func (a *AnalysisConfig) StageDelay() time.Duration {
	return time.Duration(a.StageDelayMS) * time.Millisecond
}

// StorageConfig selects where preview objects live.
type StorageConfig struct {
	Provider      string `mapstructure:"provider"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// MinIOConfig holds self-hosted MinIO settings.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// SessionConfig holds session registry settings.
type SessionConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from a .env file (if present) and environment
// variables with the SENTISCOPE_ prefix.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SENTISCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "200s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.locale", "zh-CN")

	// Intake defaults
	v.SetDefault("intake.max_files", 20)
	v.SetDefault("intake.max_files_single", 1)
	v.SetDefault("intake.max_file_size_mb", 10)
	v.SetDefault("intake.allowed_types", strings.Join(domain.DefaultAllowedTypes, ","))

	// Analysis service defaults
	v.SetDefault("analysis.base_url", "http://localhost:8000")
	v.SetDefault("analysis.api_key", "")
	v.SetDefault("analysis.timeout_secs", 180)
	v.SetDefault("analysis.stage_delay_ms", 800)
	v.SetDefault("analysis.fallback_urls", "")
	v.SetDefault("analysis.cooldown_secs", 30)

	// Storage defaults
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.presign_expiry", 3600)
	v.SetDefault("storage.key_prefix", "previews")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "sentiscope-previews")
	v.SetDefault("s3.endpoint", "")

	// MinIO defaults
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.region", "us-east-1")
	v.SetDefault("minio.bucket", "sentiscope-previews")
	v.SetDefault("minio.use_ssl", false)

	// Session defaults
	v.SetDefault("session.cache_size", 256)

	// Log defaults
	v.SetDefault("log.level", "info")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":             "SENTISCOPE_SERVER_PORT",
		"server.read_timeout":     "SENTISCOPE_SERVER_READ_TIMEOUT",
		"server.write_timeout":    "SENTISCOPE_SERVER_WRITE_TIMEOUT",
		"server.environment":      "SENTISCOPE_SERVER_ENVIRONMENT",
		"server.locale":           "SENTISCOPE_SERVER_LOCALE",
		"intake.max_files":        "SENTISCOPE_INTAKE_MAX_FILES",
		"intake.max_files_single": "SENTISCOPE_INTAKE_MAX_FILES_SINGLE",
		"intake.max_file_size_mb": "SENTISCOPE_INTAKE_MAX_FILE_SIZE_MB",
		"intake.allowed_types":    "SENTISCOPE_INTAKE_ALLOWED_TYPES",
		"analysis.base_url":       "SENTISCOPE_ANALYSIS_BASE_URL",
		"analysis.api_key":        "SENTISCOPE_ANALYSIS_API_KEY",
		"analysis.timeout_secs":   "SENTISCOPE_ANALYSIS_TIMEOUT_SECS",
		"analysis.stage_delay_ms": "SENTISCOPE_ANALYSIS_STAGE_DELAY_MS",
		"analysis.fallback_urls":  "SENTISCOPE_ANALYSIS_FALLBACK_URLS",
		"analysis.cooldown_secs":  "SENTISCOPE_ANALYSIS_COOLDOWN_SECS",
		"storage.provider":        "SENTISCOPE_STORAGE_PROVIDER",
		"storage.presign_expiry":  "SENTISCOPE_STORAGE_PRESIGN_EXPIRY",
		"storage.key_prefix":      "SENTISCOPE_STORAGE_KEY_PREFIX",
		"s3.region":               "SENTISCOPE_S3_REGION",
		"s3.bucket":               "SENTISCOPE_S3_BUCKET",
		"s3.endpoint":             "SENTISCOPE_S3_ENDPOINT",
		"s3.access_key":           "SENTISCOPE_S3_ACCESS_KEY",
		"s3.secret_key":           "SENTISCOPE_S3_SECRET_KEY",
		"minio.endpoint":          "SENTISCOPE_MINIO_ENDPOINT",
		"minio.region":            "SENTISCOPE_MINIO_REGION",
		"minio.bucket":            "SENTISCOPE_MINIO_BUCKET",
		"minio.access_key":        "SENTISCOPE_MINIO_ACCESS_KEY",
		"minio.secret_key":        "SENTISCOPE_MINIO_SECRET_KEY",
		"minio.use_ssl":           "SENTISCOPE_MINIO_USE_SSL",
		"session.cache_size":      "SENTISCOPE_SESSION_CACHE_SIZE",
		"log.level":               "SENTISCOPE_LOG_LEVEL",
		"cors.allowed_origins":    "SENTISCOPE_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set PORT. Use it if SENTISCOPE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SENTISCOPE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		Locale:       v.GetString("server.locale"),
	}
	cfg.Intake = IntakeConfig{
		MaxFiles:       v.GetInt("intake.max_files"),
		MaxFilesSingle: v.GetInt("intake.max_files_single"),
		MaxFileSizeMB:  v.GetInt64("intake.max_file_size_mb"),
		AllowedTypes:   splitList(v.GetString("intake.allowed_types")),
	}
	cfg.Analysis = AnalysisConfig{
		BaseURL:      v.GetString("analysis.base_url"),
		APIKey:       v.GetString("analysis.api_key"),
		TimeoutSecs:  v.GetInt("analysis.timeout_secs"),
		StageDelayMS: v.GetInt("analysis.stage_delay_ms"),
		FallbackURLs: splitList(v.GetString("analysis.fallback_urls")),
		CooldownSecs: v.GetInt("analysis.cooldown_secs"),
	}
	cfg.Storage = StorageConfig{
		Provider:      strings.ToLower(v.GetString("storage.provider")),
		PresignExpiry: v.GetInt64("storage.presign_expiry"),
		KeyPrefix:     v.GetString("storage.key_prefix"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.MinIO = MinIOConfig{
		Endpoint:  v.GetString("minio.endpoint"),
		Region:    v.GetString("minio.region"),
		Bucket:    v.GetString("minio.bucket"),
		AccessKey: v.GetString("minio.access_key"),
		SecretKey: v.GetString("minio.secret_key"),
		UseSSL:    v.GetBool("minio.use_ssl"),
	}
	cfg.Session = SessionConfig{
		CacheSize: v.GetInt("session.cache_size"),
	}
	cfg.Log = LogConfig{
		Level: v.GetString("log.level"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	return cfg, nil
}

// splitList parses a comma-separated setting, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
