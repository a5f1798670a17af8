package analyses

import (
	"context"
	"sync"
)

// MemoryRepo is an in-process Repo used when no database is configured.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []Analysis
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create stores the analysis, newest first.
func (r *MemoryRepo) Create(ctx context.Context, analysis Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append([]Analysis{analysis}, r.records...)
	return nil
}

// ListRecent returns up to limit analyses, newest first.
func (r *MemoryRepo) ListRecent(ctx context.Context, limit int) ([]Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]Analysis, limit)
	copy(out, r.records[:limit])
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
