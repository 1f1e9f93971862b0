package tracker

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no issue tracker credentials are set.
var ErrNotConfigured = errors.New("issue tracker not configured")

// Tracker publishes findings to an external issue tracker.
type Tracker interface {
	// CreateIssue opens an issue in repo ("owner/name") and returns its URL.
	CreateIssue(ctx context.Context, repo, title, body string, labels []string) (string, error)
}
