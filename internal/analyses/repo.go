package analyses

import "context"

// Repo defines persistence for completed analyses.
type Repo interface {
	Create(ctx context.Context, analysis Analysis) error
	ListRecent(ctx context.Context, limit int) ([]Analysis, error)
}
