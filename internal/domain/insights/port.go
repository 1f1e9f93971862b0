package insights

import "context"

// Repository port for persisting and querying insights
type Repository interface {
	Save(ctx context.Context, in *Insight) error
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Insight, error)
	LatestByAnalysis(ctx context.Context, tenant string, analysisID string) (*Insight, error)
}
