package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".graph-sitter.yaml"

// StateDir holds the local database, artifacts and last-run outputs.
const StateDir = ".graph-sitter"

type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"GS_SERVER_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"GS_DB_"`
	Storage   StorageConfig   `yaml:"storage" envPrefix:"GS_STORAGE_"`
	Analysis  AnalysisConfig  `yaml:"analysis" envPrefix:"GS_ANALYSIS_"`
	AI        AIConfig        `yaml:"ai" envPrefix:"GS_AI_"`
	GitHub    GitHubConfig    `yaml:"github" envPrefix:"GS_GITHUB_"`
	Workspace WorkspaceConfig `yaml:"workspace" envPrefix:"GS_WORKSPACE_"`
	Logger    LoggerConfig    `yaml:"logger" envPrefix:"GS_LOG_"`
}

// ServerConfig configures the API. APIKeys maps tenant to API key; empty disables authentication.
type ServerConfig struct {
	Port              int               `yaml:"port" env:"PORT"`
	ReadTimeout       time.Duration     `yaml:"readTimeout" env:"READ_TIMEOUT"`
	WriteTimeout      time.Duration     `yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
	IdleTimeout       time.Duration     `yaml:"idleTimeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout   time.Duration     `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
	CORSOrigins       []string          `yaml:"corsOrigins" env:"CORS_ORIGINS"`
	APIKeys           map[string]string `yaml:"apiKeys" env:"API_KEYS"`
	AllowLocalSources bool              `yaml:"allowLocalSources" env:"ALLOW_LOCAL_SOURCES"`
	RateLimit         RateLimitConfig   `yaml:"rateLimit" envPrefix:"RATE_LIMIT_"`
}

// RateLimitConfig is a token bucket per tenant and client ip; Capacity 0 disables it.
type RateLimitConfig struct {
	Capacity int `yaml:"capacity" env:"CAPACITY"`
	Refill   int `yaml:"refillPerSecond" env:"REFILL"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	// Path is the SQLite database file.
	Path string `yaml:"path" env:"PATH"`
	// DSN overrides the host/port/user fields for mysql and postgres.
	DSN      string `yaml:"dsn" env:"DSN"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	SSLMode  string `yaml:"sslMode" env:"SSLMODE"`
}

type StorageConfig struct {
	Driver string      `yaml:"driver" env:"DRIVER"`
	Dir    string      `yaml:"dir" env:"DIR"`
	Minio  MinioConfig `yaml:"minio" envPrefix:"MINIO_"`
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey  string `yaml:"accessKey" env:"ACCESS_KEY"`
	SecretKey  string `yaml:"secretKey" env:"SECRET_KEY"`
	BucketName string `yaml:"bucketName" env:"BUCKET"`
	Region     string `yaml:"region" env:"REGION"`
	UseSSL     bool   `yaml:"useSSL" env:"USE_SSL"`
}

type AnalysisConfig struct {
	IncludeTests       bool     `yaml:"includeTests" env:"INCLUDE_TESTS"`
	Exclude            []string `yaml:"exclude" env:"EXCLUDE"`
	Jobs               int      `yaml:"jobs" env:"JOBS"`
	StdlibImporter     string   `yaml:"stdlibImporter" env:"STDLIB_IMPORTER"`
	ExportedIsLive     bool     `yaml:"exportedIsLive" env:"EXPORTED_IS_LIVE"`
	TransitiveDeadCode bool     `yaml:"transitiveDeadCode" env:"TRANSITIVE_DEAD_CODE"`
	MaxComplexity      int      `yaml:"maxComplexity" env:"MAX_COMPLEXITY"`
	MaxFunctionLines   int      `yaml:"maxFunctionLines" env:"MAX_FUNCTION_LINES"`
	MaxParams          int      `yaml:"maxParams" env:"MAX_PARAMS"`
	RequireDocComments bool     `yaml:"requireDocComments" env:"REQUIRE_DOC_COMMENTS"`
	SecretScan         bool     `yaml:"secretScan" env:"SECRET_SCAN"`
	CacheSize          int      `yaml:"cacheSize" env:"CACHE_SIZE"`
}

type AIConfig struct {
	// Provider is openai, heuristic or none.
	Provider string `yaml:"provider" env:"PROVIDER"`
	APIKey   string `yaml:"apiKey" env:"API_KEY"`
	Model    string `yaml:"model" env:"MODEL"`
	BaseURL  string `yaml:"baseURL" env:"BASE_URL"`
}

type GitHubConfig struct {
	Token   string `yaml:"token" env:"TOKEN"`
	BaseURL string `yaml:"baseURL" env:"BASE_URL"`
}

type WorkspaceConfig struct {
	Dir          string        `yaml:"dir" env:"DIR"`
	CloneDepth   int           `yaml:"cloneDepth" env:"CLONE_DEPTH"`
	CloneTimeout time.Duration `yaml:"cloneTimeout" env:"CLONE_TIMEOUT"`
}

type LoggerConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	JSON  bool   `yaml:"json" env:"JSON"`
}

// Default returns a config that runs fully offline: SQLite, local artifacts, heuristic AI.
func Default() Config {
	opts := analysis.DefaultOptions()
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit:       RateLimitConfig{Capacity: 60, Refill: 1},
		},
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    filepath.Join(StateDir, "graph-sitter.db"),
			SSLMode: "disable",
		},
		Storage: StorageConfig{
			Driver: "local",
			Dir:    filepath.Join(StateDir, "artifacts"),
			Minio:  MinioConfig{BucketName: "graph-sitter", Region: "us-east-1"},
		},
		Analysis: AnalysisConfig{
			IncludeTests:       opts.IncludeTests,
			StdlibImporter:     opts.StdlibImporter,
			ExportedIsLive:     opts.ExportedIsLive,
			MaxComplexity:      opts.MaxComplexity,
			MaxFunctionLines:   opts.MaxFunctionLines,
			MaxParams:          opts.MaxParams,
			RequireDocComments: opts.RequireDocComments,
			SecretScan:         opts.SecretScan,
			CacheSize:          16,
		},
		AI:        AIConfig{Provider: "heuristic", Model: "o3-2025-04-16"},
		Workspace: WorkspaceConfig{CloneDepth: 1, CloneTimeout: 5 * time.Minute},
		Logger:    LoggerConfig{Level: "info"},
	}
}

// Load baca file config (yaml) on top of the defaults, then applies GS_* environment overrides.
// A missing file is not an error when path is the default path.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write serialises cfg to path, creating its directory.
func Write(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not one of sqlite, mysql, postgres", c.Database.Driver))
	}
	switch c.Storage.Driver {
	case "local":
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.BucketName == "" {
			errs = append(errs, errors.New("storage.minio needs endpoint and bucketName"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of local, minio", c.Storage.Driver))
	}
	switch c.Analysis.StdlibImporter {
	case analysis.ImporterSource, analysis.ImporterNone:
	default:
		errs = append(errs, fmt.Errorf("analysis.stdlibImporter %q is not one of source, none", c.Analysis.StdlibImporter))
	}
	switch strings.ToLower(c.AI.Provider) {
	case "openai", "heuristic", "none", "":
	default:
		errs = append(errs, fmt.Errorf("ai.provider %q is not one of openai, heuristic, none", c.AI.Provider))
	}
	if c.AI.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.AI.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("ai.baseURL: %w", err))
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Analysis.MaxComplexity <= 0 || c.Analysis.MaxFunctionLines <= 0 || c.Analysis.MaxParams <= 0 {
		errs = append(errs, errors.New("analysis thresholds must be positive"))
	}
	if c.Server.RateLimit.Capacity < 0 || c.Server.RateLimit.Refill < 0 {
		errs = append(errs, errors.New("server.rateLimit values must not be negative"))
	}
	return errors.Join(errs...)
}

// Options maps the analysis section onto loader options.
func (c *Config) Options() analysis.Options {
	a := c.Analysis
	return analysis.Options{
		IncludeTests:       a.IncludeTests,
		Exclude:            a.Exclude,
		Jobs:               a.Jobs,
		StdlibImporter:     a.StdlibImporter,
		ExportedIsLive:     a.ExportedIsLive,
		TransitiveDeadCode: a.TransitiveDeadCode,
		MaxComplexity:      a.MaxComplexity,
		MaxFunctionLines:   a.MaxFunctionLines,
		MaxParams:          a.MaxParams,
		RequireDocComments: a.RequireDocComments,
		SecretScan:         a.SecretScan,
	}
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + c.Database.SSLMode,
	}
	return u.String()
}
