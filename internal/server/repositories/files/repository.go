package files

import (
	"context"
	"time"

	"github.com/mpavlovs/filestore/internal/server/models"
)

type Repository interface {
	// Create inserts a new metadata row in the pending state and returns it
	// with the generated id and creation time filled in.
	Create(ctx context.Context, file *models.File) (*models.File, error)
	// MarkActive confirms a pending row after the physical write succeeded.
	MarkActive(ctx context.Context, id string) error
	// Delete removes a metadata row (used to roll back a failed write and by
	// the orphan sweeper).
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	GetByPath(ctx context.Context, userID, path string) (*models.File, error)
	// Search returns the owner's active records matching the filter.
	Search(ctx context.Context, userID string, filter models.FileFilter) ([]*models.File, error)
	// ListByUser returns all of the owner's active records ordered by
	// creation time.
	ListByUser(ctx context.Context, userID string) ([]*models.File, error)
	// SelectStalePending returns pending rows created before the cutoff.
	SelectStalePending(ctx context.Context, cutoff time.Time) ([]*models.File, error)
}
