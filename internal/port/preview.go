package port

import (
	"context"

	"sentiscope/internal/domain"
)

// Preview is a temporary display handle for one selected screenshot.
type Preview struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// PreviewProvider acquires and releases preview handles. Each acquired
// preview must be released exactly once.
type PreviewProvider interface {
	Acquire(ctx context.Context, file domain.FileCandidate) (*Preview, error)
	Release(ctx context.Context, preview *Preview) error
}
