package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Crew      CrewConfig      `yaml:"crew"`
	Tools     ToolsConfig     `yaml:"tools"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Minio     MinioConfig     `yaml:"minio"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Auth      AuthConfig      `yaml:"auth"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai | gemini
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"baseURL"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
	APIKey      string  `yaml:"-"`

	// Breaker guards the provider; RetryMaxAttempts stays at 1 so a failed
	// analysis is never replayed.
	Breaker BreakerConfig `yaml:"breaker"`
}

type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	RetryMaxAttempts int           `yaml:"retryMaxAttempts"`
	MinRequests      uint32        `yaml:"minRequests"`
	FailureRatio     float64       `yaml:"failureRatio"`
	OpenTimeout      time.Duration `yaml:"openTimeout"`
}

type CrewConfig struct {
	ConfigDir     string `yaml:"configDir"`
	AgentsFile    string `yaml:"agentsFile"`
	TasksFile     string `yaml:"tasksFile"`
	MaxIterations int    `yaml:"maxIterations"`
}

type ToolsConfig struct {
	SerperAPIKey string         `yaml:"-"`
	SerperURL    string         `yaml:"serperURL"`
	AuditTimeout time.Duration  `yaml:"auditTimeout"`
	Document     DocumentConfig `yaml:"document"`
}

type DocumentConfig struct {
	ExtractText bool `yaml:"extractText"`
	MaxChars    int  `yaml:"maxChars"`
}

type StorageConfig struct {
	UploadDir string `yaml:"uploadDir"`
	ReportDir string `yaml:"reportDir"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "" | mysql | postgres
	DSN    string `yaml:"dsn"`
}

type MinioConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	BucketName string `yaml:"bucketName"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"useSSL"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AuthConfig struct {
	// APIKeys maps a client name to its key. Empty disables auth.
	APIKeys map[string]string `yaml:"apiKeys"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           8000,
			MaxUploadBytes: 50 << 20,
			ReadTimeout:    60 * time.Second,
			WriteTimeout:   15 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4-turbo-preview",
			Temperature: 0.1,
			MaxTokens:   2000,
			Breaker: BreakerConfig{
				Enabled:          true,
				RetryMaxAttempts: 1,
				MinRequests:      5,
				FailureRatio:     0.6,
				OpenTimeout:      30 * time.Second,
			},
		},
		Crew: CrewConfig{
			ConfigDir:     "configs",
			AgentsFile:    "agents.yaml",
			TasksFile:     "tasks.yaml",
			MaxIterations: 6,
		},
		Tools: ToolsConfig{
			SerperURL:    "https://google.serper.dev/search",
			AuditTimeout: 10 * time.Second,
			Document:     DocumentConfig{MaxChars: 20000},
		},
		Storage: StorageConfig{
			UploadDir: "uploads",
			ReportDir: "reports",
		},
		Minio: MinioConfig{
			BucketName: "pitch-reports",
			Region:     "us-east-1",
		},
		Log: LogConfig{
			Level: "info",
			File:  "pitch_deck_analyzer.log",
		},
		RateLimit: RateLimitConfig{
			RPS:   0.5,
			Burst: 3,
		},
	}
}

// Load reads .env, the YAML file at path (a missing file keeps defaults) and
// environment overrides, in that order.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.normalize()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.LLM.Provider = envOr("LLM_PROVIDER", c.LLM.Provider)
	if strings.EqualFold(strings.TrimSpace(c.LLM.Provider), "gemini") {
		c.LLM.APIKey = envOr("GEMINI_API_KEY", c.LLM.APIKey)
	} else {
		c.LLM.APIKey = envOr("OPENAI_API_KEY", c.LLM.APIKey)
	}
	c.LLM.Model = envOr("LLM_MODEL", c.LLM.Model)
	c.LLM.BaseURL = envOr("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.Tools.SerperAPIKey = envOr("SERPER_API_KEY", c.Tools.SerperAPIKey)

	c.Server.Port = envInt("PORT", c.Server.Port)
	c.Log.Level = envOr("LOG_LEVEL", c.Log.Level)

	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		c.Database.Driver, c.Database.DSN = "mysql", dsn
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Database.Driver, c.Database.DSN = "postgres", dsn
	}

	c.Minio.Endpoint = envOr("MINIO_ENDPOINT", c.Minio.Endpoint)
	c.Minio.AccessKey = envOr("MINIO_ACCESS_KEY", c.Minio.AccessKey)
	c.Minio.SecretKey = envOr("MINIO_SECRET_KEY", c.Minio.SecretKey)
}

func (c *Config) normalize() {
	def := Default()
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.Breaker.RetryMaxAttempts <= 0 {
		c.LLM.Breaker.RetryMaxAttempts = 1
	}
	if c.Crew.MaxIterations <= 0 {
		c.Crew.MaxIterations = def.Crew.MaxIterations
	}
	if c.Tools.AuditTimeout <= 0 {
		c.Tools.AuditTimeout = def.Tools.AuditTimeout
	}
	if c.Tools.Document.MaxChars <= 0 {
		c.Tools.Document.MaxChars = def.Tools.Document.MaxChars
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = def.Storage.UploadDir
	}
	if c.Storage.ReportDir == "" {
		c.Storage.ReportDir = def.Storage.ReportDir
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = def.Server.MaxUploadBytes
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
}

// APIKeyEnv names the environment variable holding the key for the
// configured provider.
func (c *Config) APIKeyEnv() string {
	if c.LLM.Provider == "gemini" {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
