package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v47/github"
	"golang.org/x/oauth2"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/tracker"
)

// Tracker opens GitHub issues for analysis findings.
type Tracker struct {
	client *github.Client
}

// New builds a tracker authenticated with token. baseURL targets GitHub Enterprise or a test server.
func New(ctx context.Context, token, baseURL string) (*Tracker, error) {
	if strings.TrimSpace(token) == "" {
		return nil, tracker.ErrNotConfigured
	}
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	client := github.NewClient(hc)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		client.BaseURL = u
	}
	return &Tracker{client: client}, nil
}

// CreateIssue implements tracker.Tracker.
func (t *Tracker) CreateIssue(ctx context.Context, repo, title, body string, labels []string) (string, error) {
	owner, name, ok := strings.Cut(strings.Trim(repo, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("repository must be owner/name, got %q", repo)
	}
	req := &github.IssueRequest{Title: &title, Body: &body}
	if len(labels) > 0 {
		req.Labels = &labels
	}
	issue, _, err := t.client.Issues.Create(ctx, owner, name, req)
	if err != nil {
		return "", fmt.Errorf("create issue in %s: %w", repo, err)
	}
	return issue.GetHTMLURL(), nil
}
