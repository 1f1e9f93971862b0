package analyses

import (
	"context"
	"io"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, a *Analysis) error
	Get(ctx context.Context, tenant string, id ID) (*Analysis, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Analysis, error)
	Paginate(ctx context.Context, tenant string, f Filter, page, pageSize int) (PaginatedResult, error)
	Summary(ctx context.Context, tenant string, since time.Time) (Summary, error)
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadAndCleanup(ctx context.Context, localPath, key string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// FetchRequest names the source tree to analyse: a local directory or a git URL.
type FetchRequest struct {
	Source string
	Branch string
}

// Checkout is a source tree ready on local disk.
type Checkout struct {
	Dir       string
	CommitSHA string
	Branch    string
	// Cleanup removes temporary clones; nil for local directories.
	Cleanup func()
}

// Fetcher port (interface untuk mengambil source)
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (Checkout, error)
}
