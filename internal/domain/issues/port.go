package issues

import "context"

// Repository port for persisting and querying issues
type Repository interface {
	SaveBatch(ctx context.Context, list []*Issue) error
	ReplaceByAnalysis(ctx context.Context, tenant, analysisID string, list []*Issue) error
	Paginate(ctx context.Context, tenant, analysisID string, f Filter, page, pageSize int) (Page, error)
	TopFiles(ctx context.Context, tenant, analysisID string, limit int) ([]FileCount, error)
}
