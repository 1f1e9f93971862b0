package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/hashicorp/go-hclog"

	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
)

// FetcherConfig controls where and how remote repositories are cloned.
type FetcherConfig struct {
	Workspace string
	// Token authenticates HTTPS clones.
	Token   string
	Depth   int
	Timeout time.Duration
}

// Fetcher resolves analysis sources to directories: local paths are used in place, git URLs are cloned.
type Fetcher struct {
	workspace string
	auth      transport.AuthMethod
	depth     int
	timeout   time.Duration
	logger    hclog.Logger
}

func NewFetcher(cfg FetcherConfig, logger hclog.Logger) *Fetcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	f := &Fetcher{
		workspace: cfg.Workspace,
		depth:     cfg.Depth,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
	if f.workspace == "" {
		f.workspace = os.TempDir()
	}
	if f.depth <= 0 {
		f.depth = 1
	}
	if f.timeout <= 0 {
		f.timeout = 5 * time.Minute
	}
	if cfg.Token != "" {
		f.auth = &http.BasicAuth{Username: "x-access-token", Password: cfg.Token}
	}
	return f
}

// Fetch implements analyses.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, req analyses.FetchRequest) (analyses.Checkout, error) {
	src := strings.TrimSpace(req.Source)
	if src == "" {
		return analyses.Checkout{}, errors.New("empty source")
	}
	if st, err := os.Stat(src); err == nil {
		if !st.IsDir() {
			return analyses.Checkout{}, fmt.Errorf("source %s is not a directory", src)
		}
		return f.local(src)
	}
	if !IsRemote(src) {
		return analyses.Checkout{}, fmt.Errorf("source %q is neither a directory nor a git URL", src)
	}
	return f.clone(ctx, src, req.Branch)
}

func (f *Fetcher) local(dir string) (analyses.Checkout, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return analyses.Checkout{}, err
	}
	co := analyses.Checkout{Dir: abs}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		// not a repository; analysed as a plain tree
		return co, nil
	}
	co.CommitSHA, co.Branch = headOf(repo)
	return co, nil
}

func (f *Fetcher) clone(ctx context.Context, url, branch string) (analyses.Checkout, error) {
	info, err := vcsurl.Parse(url)
	if err != nil {
		f.logger.Error("failed to parse VCS URL", "VCSURL", url, "error", err)
		return analyses.Checkout{}, fmt.Errorf("failed to parse VCS URL: %w", err)
	}
	if err := os.MkdirAll(f.workspace, 0o755); err != nil {
		return analyses.Checkout{}, fmt.Errorf("create workspace: %w", err)
	}
	target, err := os.MkdirTemp(f.workspace, CheckoutName(info)+"-")
	if err != nil {
		return analyses.Checkout{}, fmt.Errorf("create checkout dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(target); err != nil {
			f.logger.Warn("failed to remove checkout", "targetFolder", target, "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	opts := &git.CloneOptions{
		URL:          url,
		Auth:         f.auth,
		Depth:        f.depth,
		SingleBranch: true,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}
	f.logger.Debug("starting repository fetch", "repository", info.Name, "branch", branch, "targetFolder", target)
	repo, err := git.PlainCloneContext(ctx, target, false, opts)
	if err != nil {
		cleanup()
		f.logger.Error("error occurred during clone", "error", err, "cloneURL", url)
		return analyses.Checkout{}, fmt.Errorf("clone %s: %w", url, err)
	}

	co := analyses.Checkout{Dir: target, Cleanup: cleanup}
	co.CommitSHA, co.Branch = headOf(repo)
	f.logger.Info("repository fetched", "repository", info.FullName, "commit", co.CommitSHA, "targetFolder", target)
	return co, nil
}

func headOf(repo *git.Repository) (string, string) {
	head, err := repo.Head()
	if err != nil {
		return "", ""
	}
	var branch string
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}
	return head.Hash().String(), branch
}

// IsRemote reports whether src looks like a clonable git URL.
func IsRemote(src string) bool {
	if strings.Contains(src, "://") || strings.HasPrefix(src, "git@") {
		_, err := vcsurl.Parse(src)
		return err == nil
	}
	return false
}

// CheckoutName derives a filesystem-safe directory prefix for a repository.
func CheckoutName(info *vcsurl.VCS) string {
	name := info.FullName
	if name == "" {
		name = info.Name
	}
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(name)
}
