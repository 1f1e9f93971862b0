// Package bootstrap wires configuration into the running services.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/application"
	appai "github.com/Zeeeepa/graph-sitter-sub004/internal/application/ai"
	appanalyses "github.com/Zeeeepa/graph-sitter-sub004/internal/application/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/config"
	domainai "github.com/Zeeeepa/graph-sitter-sub004/internal/domain/ai"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/tracker"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/ai/heuristic"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/ai/openai"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/ai/prompt"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/mysql"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/postgres"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/sqlite"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/db/sqlstore"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/httpserver"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/report"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/storage"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/vcs"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/infra/vcs/github"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/middleware"
)

// Store is an artifact store that can report its own health.
type Store interface {
	analyses.ArtifactStore
	middleware.HealthChecker
}

// App holds every long-lived dependency of the process.
type App struct {
	Config    *config.Config
	Logger    hclog.Logger
	DB        *sql.DB
	Store     Store
	Loader    *analysis.Loader
	Analyses  *appanalyses.Service
	AI        *appai.Service
	Metrics   *middleware.Metrics
	Readiness *middleware.Readiness
	Limiter   *middleware.RateLimiter
	Health    map[string]middleware.HealthChecker
}

// New opens the database and artifact store and builds the services on top of them.
func New(ctx context.Context, cfg *config.Config, logger hclog.Logger) (*App, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	db, dialect, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := sqlstore.Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	store, err := openStorage(ctx, cfg.Storage, logger.Named("storage"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	issueTracker, err := openTracker(ctx, cfg.GitHub)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	client, err := openAI(cfg.AI)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	metrics := middleware.NewMetrics()
	loader := analysis.NewLoader(cfg.Options(), logger.Named("loader"))
	svc := &appanalyses.Service{
		Repo:      sqlstore.NewAnalysisRepository(db, dialect),
		IssueRepo: sqlstore.NewIssueRepository(db, dialect),
		Fetcher: vcs.NewFetcher(vcs.FetcherConfig{
			Workspace: cfg.Workspace.Dir,
			Token:     cfg.GitHub.Token,
			Depth:     cfg.Workspace.CloneDepth,
			Timeout:   cfg.Workspace.CloneTimeout,
		}, logger.Named("fetcher")),
		Loader:    loader,
		Artifacts: store,
		Codec:     report.Codec{},
		Observer:  metrics,
		Clock:     application.SystemClock{},
		Logger:    logger.Named("analyses"),
		CacheSize: cfg.Analysis.CacheSize,
	}
	if issueTracker != nil {
		svc.Tracker = issueTracker
	}
	validate := func(raw string) error {
		_, err := prompt.ParseSuggestion(raw)
		return err
	}
	aiSvc := appai.NewService(client, svc, prompt.Builder{},
		sqlstore.NewInsightRepository(db, dialect), validate, logger.Named("ai"))

	app := &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Store:     store,
		Loader:    loader,
		Analyses:  svc,
		AI:        aiSvc,
		Metrics:   metrics,
		Readiness: &middleware.Readiness{},
		Health: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
			"storage":  store,
		},
	}
	if rl := cfg.Server.RateLimit; rl.Capacity > 0 {
		app.Limiter = middleware.NewRateLimiter(rl.Capacity, rl.Refill)
	}
	logger.Info("services ready",
		"database", cfg.Database.Driver,
		"storage", cfg.Storage.Driver,
		"ai", aiProvider(client),
		"tracker", issueTracker != nil)
	return app, nil
}

// Handler builds the HTTP API.
func (a *App) Handler() http.Handler {
	return httpserver.NewRouter(a.Analyses, a.AI, httpserver.Options{
		APIKeys:           a.Config.Server.APIKeys,
		CORSOrigins:       a.Config.Server.CORSOrigins,
		AllowLocalSources: a.Config.Server.AllowLocalSources,
		Limiter:           a.Limiter,
		Metrics:           a.Metrics,
		Health:            a.Health,
		Readiness:         a.Readiness,
		Logger:            a.Logger,
	})
}

// Close waits for background analyses and closes the database.
func (a *App) Close() error {
	a.Analyses.Wait()
	return a.DB.Close()
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, sqlstore.Dialect, error) {
	var (
		db      *sql.DB
		dialect sqlstore.Dialect
		err     error
	)
	c := config.Config{Database: cfg}
	switch cfg.Driver {
	case "sqlite", "":
		db, err = sqlite.Connect(ctx, cfg.Path)
		dialect = sqlite.Dialect
	case "mysql":
		db, err = mysql.Connect(ctx, c.MySQLDSN())
		dialect = mysql.Dialect
	case "postgres":
		db, err = postgres.Connect(ctx, c.PostgresDSN())
		dialect = postgres.Dialect
	default:
		return nil, dialect, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, dialect, fmt.Errorf("%s connect: %w", cfg.Driver, err)
	}
	return db, dialect, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger hclog.Logger) (Store, error) {
	switch cfg.Driver {
	case "local", "":
		store, err := storage.NewLocal(cfg.Dir, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "minio":
		m := cfg.Minio
		store, err := storage.NewMinio(ctx, storage.MinioConfig{
			Endpoint:  m.Endpoint,
			Region:    m.Region,
			Bucket:    m.BucketName,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			UseSSL:    m.UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// openTracker returns nil when no GitHub token is configured.
func openTracker(ctx context.Context, cfg config.GitHubConfig) (*github.Tracker, error) {
	t, err := github.New(ctx, cfg.Token, cfg.BaseURL)
	if errors.Is(err, tracker.ErrNotConfigured) {
		return nil, nil
	}
	return t, err
}

func openAI(cfg config.AIConfig) (domainai.Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.New("ai.apiKey is required for the openai provider")
		}
		return openai.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "heuristic", "":
		return heuristic.New(), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}

func aiProvider(c domainai.Client) string {
	if c == nil {
		return "none"
	}
	return c.Provider()
}
