package analyses

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/analysis"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/application"
	domain "github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/diagnostics"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/tracker"
)

const (
	sarifName    = "report.sarif"
	snapshotName = "snapshot.msgpack"
)

// Loader turns a checked-out tree into a Codebase.
type Loader interface {
	Load(ctx context.Context, dir string) (*analysis.Codebase, error)
}

// Codec writes and reads the analysis artifacts.
type Codec interface {
	WriteSARIF(w io.Writer, r analysis.Report) error
	EncodeSnapshot(w io.Writer, s *analysis.Snapshot) error
	DecodeSnapshot(r io.Reader) (*analysis.Snapshot, error)
}

// Observer is told about every analysis run.
type Observer interface {
	AnalysisStarted()
	AnalysisFinished(err error)
}

// Service implements use-cases untuk Analysis; Tracker and Observer are optional.
type Service struct {
	Repo      domain.Repository
	IssueRepo issues.Repository
	Fetcher   domain.Fetcher
	Loader    Loader
	Artifacts domain.ArtifactStore
	Codec     Codec
	Tracker   tracker.Tracker
	Observer  Observer
	Clock     application.Clock
	Logger    hclog.Logger
	TempDir   string
	CacheSize int

	once  sync.Once
	cache *snapshotCache
	wg    sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
}

// Command untuk trigger analysis
type TriggerCommand struct {
	TenantID  string
	Source    string
	Branch    string
	CommitSHA string
	Metadata  map[string]any
}

func (s *Service) snapshots() *snapshotCache {
	s.once.Do(func() { s.cache = newSnapshotCache(s.CacheSize) })
	return s.cache
}

func (s *Service) log() hclog.Logger {
	if s.Logger == nil {
		return hclog.NewNullLogger()
	}
	return s.Logger
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) newAnalysis(cmd TriggerCommand) (*domain.Analysis, error) {
	if strings.TrimSpace(cmd.TenantID) == "" || strings.TrimSpace(cmd.Source) == "" {
		return nil, fmt.Errorf("%w: tenant and source are required", domain.ErrInvalidRequest)
	}
	return &domain.Analysis{
		ID:          domain.ID(uuid.New().String()),
		TenantID:    cmd.TenantID,
		Source:      cmd.Source,
		Branch:      cmd.Branch,
		CommitSHA:   cmd.CommitSHA,
		Status:      domain.StatusQueued,
		TriggeredAt: s.clock().Now(),
		Metadata:    cmd.Metadata,
	}, nil
}

// Trigger jalankan analysis sampai selesai: fetch → load → artifacts → simpan ke repo
func (s *Service) Trigger(ctx context.Context, cmd TriggerCommand) (*domain.Analysis, error) {
	a, err := s.newAnalysis(cmd)
	if err != nil {
		return nil, err
	}
	key := cacheKey(a.TenantID, a.ID)
	s.claim(key)
	defer s.release(key)
	return s.run(ctx, a)
}

// Enqueue saves a queued analysis and runs it in the background.
func (s *Service) Enqueue(ctx context.Context, cmd TriggerCommand) (*domain.Analysis, error) {
	a, err := s.newAnalysis(cmd)
	if err != nil {
		return nil, err
	}
	key := cacheKey(a.TenantID, a.ID)
	s.claim(key)
	if err := s.Repo.Save(ctx, a); err != nil {
		s.release(key)
		return nil, fmt.Errorf("save queued analysis: %w", err)
	}
	queued := *a
	s.background(a)
	return &queued, nil
}

// background runs a with context.Background() so request cancellation does not abort it.
// The caller has claimed a; the claim is released when the run ends.
func (s *Service) background(a *domain.Analysis) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(cacheKey(a.TenantID, a.ID))
		if _, err := s.run(context.Background(), a); err != nil {
			s.log().Error("background analysis failed", "tenant", a.TenantID, "id", a.ID, "error", err)
		}
	}()
}

// Wait blocks until every background analysis has finished.
func (s *Service) Wait() { s.wg.Wait() }

// claim marks key in flight. It reports false when a run for key is already queued or running.
func (s *Service) claim(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	if s.inflight == nil {
		s.inflight = make(map[string]struct{})
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

// claimExisting loads an analysis for a re-run and claims it.
// The caller must release the key once the run ends.
func (s *Service) claimExisting(ctx context.Context, tenant string, id domain.ID) (*domain.Analysis, string, error) {
	key := cacheKey(tenant, id)
	if !s.claim(key) {
		return nil, "", fmt.Errorf("%w: analysis %s is already queued or running", domain.ErrInvalidRequest, id)
	}
	existing, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		s.release(key)
		return nil, "", err
	}
	if existing.Status == domain.StatusQueued || existing.Status == domain.StatusRunning {
		s.release(key)
		return nil, "", fmt.Errorf("%w: analysis %s is already %s", domain.ErrInvalidRequest, id, existing.Status)
	}
	return existing, key, nil
}

// Retry re-runs an existing analysis under the same id.
func (s *Service) Retry(ctx context.Context, tenant string, id domain.ID) (*domain.Analysis, error) {
	existing, key, err := s.claimExisting(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	defer s.release(key)
	return s.run(ctx, existing)
}

// EnqueueRetry marks an existing analysis queued and re-runs it in the background.
func (s *Service) EnqueueRetry(ctx context.Context, tenant string, id domain.ID) (*domain.Analysis, error) {
	existing, key, err := s.claimExisting(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	existing.Status = domain.StatusQueued
	existing.Error = ""
	if err := s.Repo.Save(ctx, existing); err != nil {
		s.release(key)
		return nil, fmt.Errorf("save queued analysis: %w", err)
	}
	queued := *existing
	s.background(existing)
	return &queued, nil
}

func (s *Service) run(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	if s.Observer == nil {
		return s.execute(ctx, a)
	}
	s.Observer.AnalysisStarted()
	out, err := s.execute(ctx, a)
	s.Observer.AnalysisFinished(err)
	return out, err
}

func (s *Service) execute(ctx context.Context, a *domain.Analysis) (*domain.Analysis, error) {
	start := s.clock().Now()
	s.snapshots().evict(cacheKey(a.TenantID, a.ID))
	a.Status = domain.StatusRunning
	a.Error = ""
	clearResults(a)
	if err := s.Repo.Save(ctx, a); err != nil {
		return a, fmt.Errorf("save running analysis: %w", err)
	}
	logger := s.log().With("tenant", a.TenantID, "id", a.ID, "source", a.Source)
	logger.Info("analysis started")

	co, err := s.Fetcher.Fetch(ctx, domain.FetchRequest{Source: a.Source, Branch: a.Branch})
	if err != nil {
		return s.fail(a, start, fmt.Errorf("fetch source: %w", err))
	}
	if co.Cleanup != nil {
		defer co.Cleanup()
	}
	if a.CommitSHA == "" {
		a.CommitSHA = co.CommitSHA
	}
	if a.Branch == "" {
		a.Branch = co.Branch
	}

	cb, err := s.Loader.Load(ctx, co.Dir)
	if err != nil {
		return s.fail(a, start, fmt.Errorf("load codebase: %w", err))
	}
	rep := cb.Report()
	snap := cb.Snapshot()

	if err := s.storeArtifacts(ctx, a, rep, snap); err != nil {
		return s.fail(a, start, err)
	}
	if err := s.replaceIssues(ctx, a, rep.Issues); err != nil {
		return s.fail(a, start, err)
	}

	a.Counts = rep.Counts
	a.Health = rep.Health
	a.Files = rep.Metrics.Files
	a.LOC = rep.Metrics.LOC
	a.Symbols = rep.Metrics.Symbols
	a.DeadCode = len(rep.DeadCode)
	a.Status = domain.StatusSuccess
	a.DurationMS = application.Since(s.clock(), start).Milliseconds()
	if err := s.Repo.Save(ctx, a); err != nil {
		return a, fmt.Errorf("save analysis result: %w", err)
	}
	s.snapshots().put(cacheKey(a.TenantID, a.ID), snap)
	logger.Info("analysis finished", "grade", a.Health.Grade, "score", a.Health.Score, "issues", a.Counts.Total, "duration_ms", a.DurationMS)
	return a, nil
}

// clearResults drops what a previous run left on a so a failed re-run reports nothing stale.
func clearResults(a *domain.Analysis) {
	a.Counts = issues.SeverityCounts{}
	a.Health = domain.Health{}
	a.Files, a.LOC, a.Symbols, a.DeadCode = 0, 0, 0, 0
	a.ArtifactURL = ""
	a.SarifKey = ""
	a.SnapshotKey = ""
}

// fail records the error on a and returns it.
func (s *Service) fail(a *domain.Analysis, start time.Time, cause error) (*domain.Analysis, error) {
	a.Status = domain.StatusFailed
	a.Error = cause.Error()
	a.DurationMS = application.Since(s.clock(), start).Milliseconds()
	if err := s.Repo.Save(context.Background(), a); err != nil {
		s.log().Error("failed to record analysis failure", "id", a.ID, "error", err)
	}
	return a, cause
}

func cacheKey(tenant string, id domain.ID) string {
	return tenant + "/" + string(id)
}

func artifactKey(a *domain.Analysis, name string) string {
	return fmt.Sprintf("%s/%s/%s", a.TenantID, a.ID, name)
}

// storeArtifacts writes SARIF and snapshot files and uploads them with cleanup.
func (s *Service) storeArtifacts(ctx context.Context, a *domain.Analysis, rep analysis.Report, snap *analysis.Snapshot) error {
	dir, err := os.MkdirTemp(s.TempDir, "gs-artifacts-")
	if err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	defer os.RemoveAll(dir)

	sarifPath := filepath.Join(dir, sarifName)
	if err := writeFile(sarifPath, func(w io.Writer) error { return s.Codec.WriteSARIF(w, rep) }); err != nil {
		return err
	}
	snapPath := filepath.Join(dir, snapshotName)
	if err := writeFile(snapPath, func(w io.Writer) error { return s.Codec.EncodeSnapshot(w, snap) }); err != nil {
		return err
	}

	url, err := s.Artifacts.UploadAndCleanup(ctx, sarifPath, artifactKey(a, sarifName))
	if err != nil {
		return fmt.Errorf("upload sarif: %w", err)
	}
	if _, err := s.Artifacts.UploadAndCleanup(ctx, snapPath, artifactKey(a, snapshotName)); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	a.ArtifactURL = url
	a.SarifKey = artifactKey(a, sarifName)
	a.SnapshotKey = artifactKey(a, snapshotName)
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Service) replaceIssues(ctx context.Context, a *domain.Analysis, list []issues.Issue) error {
	now := s.clock().Now()
	batch := make([]*issues.Issue, 0, len(list))
	for i := range list {
		is := list[i]
		is.ID = uuid.New().String()
		is.TenantID = a.TenantID
		is.AnalysisID = string(a.ID)
		is.CreatedAt = now
		batch = append(batch, &is)
	}
	if err := s.IssueRepo.ReplaceByAnalysis(ctx, a.TenantID, string(a.ID), batch); err != nil {
		return fmt.Errorf("replace issues: %w", err)
	}
	return nil
}

// Latest ambil N analysis terakhir
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Analysis, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.Repo.Latest(ctx, tenant, limit)
}

// Get ambil 1 analysis by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.ID) (*domain.Analysis, error) {
	return s.Repo.Get(ctx, tenant, id)
}

func (s *Service) List(ctx context.Context, tenant string, f domain.Filter, page, pageSize int) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, tenant, f, page, pageSize)
}

// Summary rekap hasil analysis N hari terakhir
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	since := s.clock().Now().AddDate(0, 0, -sinceDays)
	sum, err := s.Repo.Summary(ctx, tenant, since)
	if err != nil {
		return domain.Summary{}, err
	}
	sum.SinceDays = sinceDays
	return sum, nil
}

func (s *Service) Issues(ctx context.Context, tenant string, id domain.ID, f issues.Filter, page, pageSize int) (issues.Page, error) {
	if _, err := s.Repo.Get(ctx, tenant, id); err != nil {
		return issues.Page{}, err
	}
	if f.Severity != "" {
		sev, err := issues.ParseSeverity(f.Severity)
		if err != nil {
			return issues.Page{}, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		f.Severity = string(sev)
	}
	return s.IssueRepo.Paginate(ctx, tenant, string(id), f, page, pageSize)
}

// Snapshot returns the graph snapshot of a finished analysis from cache or artifact storage.
func (s *Service) Snapshot(ctx context.Context, tenant string, id domain.ID) (*analysis.Snapshot, error) {
	a, err := s.Repo.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if a.Status != domain.StatusSuccess || a.SnapshotKey == "" {
		return nil, fmt.Errorf("%w: analysis %s is %s", domain.ErrSnapshotUnavailable, id, a.Status)
	}
	key := cacheKey(tenant, id)
	if snap, ok := s.snapshots().get(key); ok {
		return snap, nil
	}
	rc, err := s.Artifacts.Open(ctx, a.SnapshotKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotUnavailable, err)
	}
	defer rc.Close()
	snap, err := s.Codec.DecodeSnapshot(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSnapshotUnavailable, err)
	}
	s.snapshots().put(key, snap)
	return snap, nil
}

func (s *Service) ErrorSummary(ctx context.Context, tenant string, id domain.ID) (diagnostics.Summary, error) {
	snap, err := s.Snapshot(ctx, tenant, id)
	if err != nil {
		return diagnostics.Summary{}, err
	}
	return snap.ErrorSummary(), nil
}

func (s *Service) DeadCode(ctx context.Context, tenant string, id domain.ID) ([]*codebase.Symbol, error) {
	snap, err := s.Snapshot(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	return snap.DeadCodeSymbols(), nil
}

func (s *Service) BlastRadius(ctx context.Context, tenant string, id domain.ID, symbol string, depth int) (codebase.BlastRadius, error) {
	if strings.TrimSpace(symbol) == "" {
		return codebase.BlastRadius{}, fmt.Errorf("%w: symbol is required", domain.ErrInvalidRequest)
	}
	snap, err := s.Snapshot(ctx, tenant, id)
	if err != nil {
		return codebase.BlastRadius{}, err
	}
	return snap.BlastRadius(symbol, depth)
}

// IsNotFound reports whether err means the requested record or symbol does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, codebase.ErrSymbolNotFound)
}
