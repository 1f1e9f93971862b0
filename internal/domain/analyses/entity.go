package analyses

import (
	"errors"
	"time"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
)

var (
	// ErrNotFound is returned when an analysis does not exist for the tenant.
	ErrNotFound = errors.New("analysis not found")
	// ErrSnapshotUnavailable means the graph snapshot is neither cached nor downloadable.
	ErrSnapshotUnavailable = errors.New("analysis snapshot unavailable")
	// ErrInvalidRequest marks caller input the service refuses to act on.
	ErrInvalidRequest = errors.New("invalid request")
)

// ID tipe untuk Analysis
type ID string

// Status enum
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Aggregate Root: Analysis
type Analysis struct {
	ID          ID                    `json:"id"`
	TenantID    string                `json:"tenant_id"`
	Source      string                `json:"source"`
	Branch      string                `json:"branch,omitempty"`
	CommitSHA   string                `json:"commit_sha,omitempty"`
	Status      Status                `json:"status"`
	TriggeredAt time.Time             `json:"triggered_at"`
	DurationMS  int64                 `json:"duration_ms"`
	Counts      issues.SeverityCounts `json:"counts"`
	Health      Health                `json:"health"`
	Files       int                   `json:"files"`
	LOC         int                   `json:"loc"`
	Symbols     int                   `json:"symbols"`
	DeadCode    int                   `json:"dead_code"`
	ArtifactURL string                `json:"artifact_url,omitempty"`
	SarifKey    string                `json:"sarif_key,omitempty"`
	SnapshotKey string                `json:"snapshot_key,omitempty"`
	Error       string                `json:"error_message,omitempty"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
}

// Filter narrows an analysis listing. Empty fields match everything.
type Filter struct {
	Status string
	Source string
	Branch string
}

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Analysis `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	Total      int64       `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// Summary rekap analyses of the last N days
type Summary struct {
	TotalAnalyses int     `json:"total_analyses"`
	Critical      int     `json:"critical"`
	High          int     `json:"high"`
	Medium        int     `json:"medium"`
	AverageHealth float64 `json:"average_health"`
	SinceDays     int     `json:"since_days"`
}
