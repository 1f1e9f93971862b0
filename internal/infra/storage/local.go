package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// ErrNotFound is returned by Open for an unknown key.
var ErrNotFound = errors.New("artifact not found")

// LocalStore keeps artifacts under a directory on disk.
type LocalStore struct {
	dir    string
	logger hclog.Logger
}

func NewLocal(dir string, logger hclog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &LocalStore{dir: abs, logger: logger}, nil
}

func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}

// Upload copies localPath to key and returns a file URL.
func (s *LocalStore) Upload(ctx context.Context, localPath, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := copyFile(localPath, dst); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return "file://" + filepath.ToSlash(dst), nil
}

// UploadAndCleanup moves localPath into the store.
func (s *LocalStore) UploadAndCleanup(ctx context.Context, localPath, key string) (string, error) {
	url, err := s.Upload(ctx, localPath, key)
	if err != nil {
		return "", err
	}
	if removeErr := os.Remove(localPath); removeErr != nil {
		s.logger.Warn("failed to remove local artifact", "path", localPath, "error", removeErr)
	}
	return url, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := io.Copy(tmp, in); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// Check reports whether the artifact directory is still usable.
func (s *LocalStore) Check(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}
