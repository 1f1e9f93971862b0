package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

const issueColumns = `id, tenant_id, analysis_id, rule_id, category, severity, severity_rank, message,
       file_path, line_start, col_start, line_end, col_end, symbol, created_at`

type IssueRepository struct {
	db *sql.DB
	d  Dialect
}

func NewIssueRepository(db *sql.DB, d Dialect) *IssueRepository {
	return &IssueRepository{db: db, d: d}
}

// SaveBatch inserts issues in a single transaction
func (r *IssueRepository) SaveBatch(ctx context.Context, list []*issues.Issue) error {
	if len(list) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issue batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := r.insert(ctx, tx, list); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceByAnalysis swaps the findings of one run for list in a single transaction.
// On error the previous findings stay in place.
func (r *IssueRepository) ReplaceByAnalysis(ctx context.Context, tenant, analysisID string, list []*issues.Issue) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issue replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, r.d.rebind(`DELETE FROM analysis_issues WHERE tenant_id=? AND analysis_id=?`), tenant, analysisID); err != nil {
		return fmt.Errorf("delete issues of %s: %w", analysisID, err)
	}
	if err := r.insert(ctx, tx, list); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *IssueRepository) insert(ctx context.Context, tx *sql.Tx, list []*issues.Issue) error {
	if len(list) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, r.d.rebind(`INSERT INTO analysis_issues (`+issueColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`))
	if err != nil {
		return fmt.Errorf("prepare issue insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, is := range list {
		if is.ID == "" {
			is.ID = uuid.NewString()
		}
		if is.CreatedAt.IsZero() {
			is.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			is.ID, stringOrDash(is.TenantID), is.AnalysisID, stringOrDash(is.Rule), stringOrDash(is.Category),
			string(is.Severity), is.Severity.Weight(), is.Message,
			is.File, is.Line, is.Column, is.EndLine, is.EndColumn, is.Symbol, millis(is.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert issue %s: %w", is.ID, err)
		}
	}
	return nil
}

func (r *IssueRepository) where(tenant, analysisID string, f issues.Filter) (string, []any) {
	clause := " WHERE tenant_id=? AND analysis_id=?"
	args := []any{tenant, analysisID}
	if f.Severity != "" {
		clause += " AND severity=?"
		args = append(args, f.Severity)
	}
	if f.Category != "" {
		clause += " AND category=?"
		args = append(args, f.Category)
	}
	if f.File != "" {
		clause += " AND file_path=?"
		args = append(args, f.File)
	}
	return clause, args
}

// Paginate lists issues worst first
func (r *IssueRepository) Paginate(ctx context.Context, tenant, analysisID string, f issues.Filter, page, pageSize int) (issues.Page, error) {
	page, pageSize, offset := pageBounds(page, pageSize)
	clause, args := r.where(tenant, analysisID, f)

	var total int64
	if err := r.db.QueryRowContext(ctx, r.d.rebind("SELECT COUNT(*) FROM analysis_issues"+clause), args...).Scan(&total); err != nil {
		return issues.Page{}, fmt.Errorf("getting total count: %w", err)
	}

	q := `SELECT ` + issueColumns + `
FROM analysis_issues` + clause + `
ORDER BY severity_rank DESC, file_path, line_start, id
LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, r.d.rebind(q), append(args, pageSize, offset)...)
	if err != nil {
		return issues.Page{}, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()

	data := []*issues.Issue{}
	for rows.Next() {
		var (
			is      issues.Issue
			rank    int
			msg     sql.NullString
			created int64
		)
		if err := rows.Scan(
			&is.ID, &is.TenantID, &is.AnalysisID, &is.Rule, &is.Category, &is.Severity, &rank, &msg,
			&is.File, &is.Line, &is.Column, &is.EndLine, &is.EndColumn, &is.Symbol, &created,
		); err != nil {
			return issues.Page{}, fmt.Errorf("scanning row: %w", err)
		}
		is.Message = msg.String
		is.CreatedAt = fromMillis(created)
		data = append(data, &is)
	}
	if err := rows.Err(); err != nil {
		return issues.Page{}, fmt.Errorf("iterating rows: %w", err)
	}
	return issues.Page{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// TopFiles ranks files by issue count
func (r *IssueRepository) TopFiles(ctx context.Context, tenant, analysisID string, limit int) ([]issues.FileCount, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
SELECT file_path, COUNT(*) AS n
FROM analysis_issues
WHERE tenant_id=? AND analysis_id=? AND file_path <> ''
GROUP BY file_path
ORDER BY n DESC, file_path
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.d.rebind(q), tenant, analysisID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top files: %w", err)
	}
	defer rows.Close()

	out := []issues.FileCount{}
	for rows.Next() {
		var fc issues.FileCount
		if err := rows.Scan(&fc.File, &fc.Count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, fc)
	}
	return out, rows.Err()
}
