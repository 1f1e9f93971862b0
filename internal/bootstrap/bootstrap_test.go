package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/application/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/config"
	domain "github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/tracker"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(dir, "gs.db")
	cfg.Storage.Dir = filepath.Join(dir, "artifacts")
	cfg.Workspace.Dir = filepath.Join(dir, "work")
	cfg.Analysis.StdlibImporter = analysis.ImporterNone
	return &cfg
}

func TestNewWiresOfflineStack(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Nil(t, app.Analyses.Tracker)
	assert.NotNil(t, app.Limiter)
	assert.Contains(t, app.Health, "database")
	assert.Contains(t, app.Health, "storage")

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "go.mod"), []byte("module example.com/app\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.go"), []byte("package main\n\nfunc main() {}\n\nfunc idle() {}\n"), 0o644))

	a, err := app.Analyses.Trigger(ctx, analyses.TriggerCommand{TenantID: "acme", Source: src})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, a.Status)
	assert.Equal(t, 1, a.DeadCode)

	in, err := app.AI.Explain(ctx, "acme", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", in.Provider)

	_, err = app.Analyses.Publish(ctx, "acme", a.ID, "acme/app")
	assert.ErrorIs(t, err, tracker.ErrNotConfigured)
}

func TestHandlerServesHealth(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	h := app.Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	app.Readiness.SetReady(true)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsBadProviders(t *testing.T) {
	cfg := testConfig(t)
	cfg.AI.Provider = "openai"
	_, err := New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "apiKey")

	cfg = testConfig(t)
	cfg.AI.Provider = "none"
	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	assert.Equal(t, "none", aiProvider(nil))
}
