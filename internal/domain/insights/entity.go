package insights

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no insight exists for the analysis.
var ErrNotFound = errors.New("insight not found")

// ID identifier type
type ID string

// Insight represents an AI analysis result stored for auditing and retrieval
type Insight struct {
	ID         ID        `json:"id"`
	TenantID   string    `json:"tenant_id"`
	AnalysisID string    `json:"analysis_id"`
	Provider   string    `json:"provider"`
	Result     string    `json:"result"` // JSON string from AI
	CreatedAt  time.Time `json:"created_at"`
}
