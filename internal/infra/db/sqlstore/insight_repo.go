package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
)

type InsightRepository struct {
	db *sql.DB
	d  Dialect
}

func NewInsightRepository(db *sql.DB, d Dialect) *InsightRepository {
	return &InsightRepository{db: db, d: d}
}

// Save inserts or updates an insight record
func (r *InsightRepository) Save(ctx context.Context, in *insights.Insight) error {
	q := `
INSERT INTO analysis_insights
  (id, tenant_id, analysis_id, provider, result_json, created_at)
VALUES (?,?,?,?,?,?)
` + r.d.Upsert([]string{"tenant_id", "analysis_id", "provider", "result_json"})

	result := in.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, r.d.rebind(q),
		in.ID, stringOrDash(in.TenantID), in.AnalysisID, stringOrDash(in.Provider), result, millis(createdAt))
	if err != nil {
		return fmt.Errorf("save insight %s: %w", in.ID, err)
	}
	return nil
}

// Paginate returns a page of insights ordered by created_at desc
func (r *InsightRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*insights.Insight, error) {
	_, pageSize, offset := pageBounds(page, pageSize)
	const q = `
SELECT id, tenant_id, analysis_id, provider, result_json, created_at
FROM analysis_insights
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, r.d.rebind(q), tenant, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("querying insights: %w", err)
	}
	defer rows.Close()

	out := []*insights.Insight{}
	for rows.Next() {
		in, err := scanInsight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// LatestByAnalysis returns the newest insight produced for an analysis
func (r *InsightRepository) LatestByAnalysis(ctx context.Context, tenant string, analysisID string) (*insights.Insight, error) {
	const q = `
SELECT id, tenant_id, analysis_id, provider, result_json, created_at
FROM analysis_insights
WHERE tenant_id=? AND analysis_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1`
	in, err := scanInsight(r.db.QueryRowContext(ctx, r.d.rebind(q), tenant, analysisID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: analysis %s", insights.ErrNotFound, analysisID)
	}
	return in, err
}

func scanInsight(row rowScanner) (*insights.Insight, error) {
	var (
		in      insights.Insight
		result  sql.NullString
		created int64
	)
	if err := row.Scan(&in.ID, &in.TenantID, &in.AnalysisID, &in.Provider, &result, &created); err != nil {
		return nil, err
	}
	in.Result = result.String
	in.CreatedAt = fromMillis(created)
	return &in, nil
}
