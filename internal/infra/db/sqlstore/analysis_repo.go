package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

const analysisColumns = `id, tenant_id, source, branch, commit_sha, status, triggered_at, duration_ms,
       critical, high, medium, low, info, findings_total, health_score, health_grade,
       files, loc, symbols, dead_code, artifact_url, sarif_key, snapshot_key, error_message, metadata`

// columns refreshed when an existing analysis is saved again
var analysisUpdates = []string{
	"status", "commit_sha", "branch", "duration_ms",
	"critical", "high", "medium", "low", "info", "findings_total",
	"health_score", "health_grade", "files", "loc", "symbols", "dead_code",
	"artifact_url", "sarif_key", "snapshot_key", "error_message", "metadata",
}

type AnalysisRepository struct {
	db *sql.DB
	d  Dialect
}

func NewAnalysisRepository(db *sql.DB, d Dialect) *AnalysisRepository {
	return &AnalysisRepository{db: db, d: d}
}

// Save insert/update Analysis record
func (r *AnalysisRepository) Save(ctx context.Context, a *analyses.Analysis) error {
	q := `
INSERT INTO analyses
(` + analysisColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
` + r.d.Upsert(analysisUpdates)

	meta := "{}"
	if len(a.Metadata) > 0 {
		b, err := json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(b)
	}
	triggered := a.TriggeredAt
	if triggered.IsZero() {
		triggered = time.Now()
	}

	_, err := r.db.ExecContext(ctx, r.d.rebind(q),
		a.ID, stringOrDash(a.TenantID), stringOrDash(a.Source), a.Branch, a.CommitSHA,
		stringOrDash(string(a.Status)), millis(triggered), a.DurationMS,
		a.Counts.Critical, a.Counts.High, a.Counts.Medium, a.Counts.Low, a.Counts.Info, a.Counts.Total,
		a.Health.Score, a.Health.Grade,
		a.Files, a.LOC, a.Symbols, a.DeadCode,
		a.ArtifactURL, a.SarifKey, a.SnapshotKey, a.Error, meta,
	)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", a.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*analyses.Analysis, error) {
	var (
		a         analyses.Analysis
		triggered int64
		c         issues.SeverityCounts
		artifact  sql.NullString
		errMsg    sql.NullString
		meta      sql.NullString
	)
	if err := row.Scan(
		&a.ID, &a.TenantID, &a.Source, &a.Branch, &a.CommitSHA, &a.Status, &triggered, &a.DurationMS,
		&c.Critical, &c.High, &c.Medium, &c.Low, &c.Info, &c.Total, &a.Health.Score, &a.Health.Grade,
		&a.Files, &a.LOC, &a.Symbols, &a.DeadCode, &artifact, &a.SarifKey, &a.SnapshotKey, &errMsg, &meta,
	); err != nil {
		return nil, err
	}
	a.TriggeredAt = fromMillis(triggered)
	a.Counts = c
	a.ArtifactURL = artifact.String
	a.Error = errMsg.String
	if meta.Valid && meta.String != "" && meta.String != "{}" {
		if err := json.Unmarshal([]byte(meta.String), &a.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", a.ID, err)
		}
	}
	return &a, nil
}

// Get by ID + Tenant
func (r *AnalysisRepository) Get(ctx context.Context, tenant string, id analyses.ID) (*analyses.Analysis, error) {
	q := `SELECT ` + analysisColumns + `
FROM analyses
WHERE tenant_id=? AND id=? LIMIT 1`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, r.d.rebind(q), tenant, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", analyses.ErrNotFound, id)
	}
	return a, err
}

// Latest analyses per tenant
func (r *AnalysisRepository) Latest(ctx context.Context, tenant string, limit int) ([]*analyses.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + analysisColumns + `
FROM analyses
WHERE tenant_id=? ORDER BY triggered_at DESC, id DESC LIMIT ?`
	return r.query(ctx, q, tenant, limit)
}

func (r *AnalysisRepository) query(ctx context.Context, q string, args ...any) ([]*analyses.Analysis, error) {
	rows, err := r.db.QueryContext(ctx, r.d.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("querying analyses: %w", err)
	}
	defer rows.Close()

	var out []*analyses.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnalysisRepository) where(tenant string, f analyses.Filter) (string, []any) {
	clause := " WHERE tenant_id=?"
	args := []any{tenant}
	if f.Status != "" {
		clause += " AND status=?"
		args = append(args, f.Status)
	}
	if f.Branch != "" {
		clause += " AND branch=?"
		args = append(args, f.Branch)
	}
	if s := strings.TrimSpace(f.Source); s != "" {
		clause += " AND source" + r.d.like()
		args = append(args, "%"+escapeLikePattern(s)+"%")
	}
	return clause, args
}

// Paginate with offset + limit (classic pagination)
func (r *AnalysisRepository) Paginate(ctx context.Context, tenant string, f analyses.Filter, page, pageSize int) (analyses.PaginatedResult, error) {
	page, pageSize, offset := pageBounds(page, pageSize)
	clause, args := r.where(tenant, f)

	var total int64
	if err := r.db.QueryRowContext(ctx, r.d.rebind("SELECT COUNT(*) FROM analyses"+clause), args...).Scan(&total); err != nil {
		return analyses.PaginatedResult{}, fmt.Errorf("getting total count: %w", err)
	}

	q := `SELECT ` + analysisColumns + `
FROM analyses` + clause + `
ORDER BY triggered_at DESC, id DESC
LIMIT ? OFFSET ?`
	data, err := r.query(ctx, q, append(args, pageSize, offset)...)
	if err != nil {
		return analyses.PaginatedResult{}, err
	}
	if data == nil {
		data = []*analyses.Analysis{}
	}
	return analyses.PaginatedResult{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// Summary aggregates analyses triggered since the cut-off
func (r *AnalysisRepository) Summary(ctx context.Context, tenant string, since time.Time) (analyses.Summary, error) {
	const q = `
SELECT COUNT(*) AS total_analyses,
       COALESCE(SUM(critical),0) AS critical,
       COALESCE(SUM(high),0)     AS high,
       COALESCE(SUM(medium),0)   AS medium,
       COALESCE(AVG(CASE WHEN status='success' THEN health_score END),0) AS average_health
FROM analyses
WHERE tenant_id=? AND triggered_at >= ?`
	var s analyses.Summary
	if err := r.db.QueryRowContext(ctx, r.d.rebind(q), tenant, millis(since)).Scan(
		&s.TotalAnalyses, &s.Critical, &s.High, &s.Medium, &s.AverageHealth,
	); err != nil {
		return analyses.Summary{}, fmt.Errorf("summarise analyses: %w", err)
	}
	s.AverageHealth = math.Round(s.AverageHealth*10) / 10
	return s, nil
}
