package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ats-backend/internal/shared/telemetry"
)

// Store keeps uploaded resumes on local disk for the lifetime of one request.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating the directory if absent.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the reader to a freshly named .pdf file and returns its
// path and size. Every save gets its own UUID name, so concurrent
// requests never collide and each request exclusively owns its file.
func (s *Store) Save(ctx context.Context, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	fullPath := filepath.Join(s.dir, uuid.NewString()+".pdf")
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		_ = os.Remove(fullPath)
		return "", 0, fmt.Errorf("write temp file: %w", err)
	}
	return fullPath, written, nil
}

// Remove deletes a saved file. A missing file is not an error.
func (s *Store) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		telemetry.Error("uploads.remove_failed", map[string]any{
			"path": path,
			"err":  err.Error(),
		})
	}
}
