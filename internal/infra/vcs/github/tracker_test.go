package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/tracker"
)

func TestCreateIssue(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/api/issues", r.URL.Path)
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number":7,"html_url":"https://github.com/acme/api/issues/7"}`))
	}))
	defer srv.Close()

	tr, err := New(context.Background(), "s3cret", srv.URL)
	require.NoError(t, err)
	url, err := tr.CreateIssue(context.Background(), "acme/api", "graph-sitter: 2 critical", "body", []string{"graph-sitter"})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/api/issues/7", url)
	assert.Equal(t, "graph-sitter: 2 critical", got["title"])
	assert.Equal(t, []any{"graph-sitter"}, got["labels"])
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(context.Background(), "", "")
	assert.ErrorIs(t, err, tracker.ErrNotConfigured)
}

func TestCreateIssueValidatesRepo(t *testing.T) {
	tr, err := New(context.Background(), "x", "")
	require.NoError(t, err)
	_, err = tr.CreateIssue(context.Background(), "not-a-repo", "t", "b", nil)
	assert.ErrorContains(t, err, "owner/name")
}
