package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
)

func TestFetchLocalRepository(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)

	co, err := NewFetcher(FetcherConfig{}, nil).Fetch(context.Background(), analyses.FetchRequest{Source: dir})
	require.NoError(t, err)
	assert.Equal(t, hash.String(), co.CommitSHA)
	assert.Equal(t, "master", co.Branch)
	assert.Nil(t, co.Cleanup)
}

func TestFetchPlainDirectory(t *testing.T) {
	dir := t.TempDir()
	co, err := NewFetcher(FetcherConfig{}, nil).Fetch(context.Background(), analyses.FetchRequest{Source: dir})
	require.NoError(t, err)
	assert.Empty(t, co.CommitSHA)
	assert.Equal(t, dir, co.Dir)
}

func TestFetchRejectsUnknownSource(t *testing.T) {
	_, err := NewFetcher(FetcherConfig{}, nil).Fetch(context.Background(), analyses.FetchRequest{Source: "no/such/dir"})
	assert.ErrorContains(t, err, "neither a directory nor a git URL")
}

func TestIsRemoteAndCheckoutName(t *testing.T) {
	assert.True(t, IsRemote("https://github.com/acme/api"))
	assert.True(t, IsRemote("git@github.com:acme/api.git"))
	assert.False(t, IsRemote("./local/path"))

	info, err := vcsurl.Parse("https://github.com/acme/api")
	require.NoError(t, err)
	name := CheckoutName(info)
	assert.Contains(t, name, "api")
	assert.NotContains(t, name, "/")
}
