package banners

import (
	"context"

	"github.com/google/uuid"

	"github.com/placard-project/placard/internal/detector"
	"github.com/placard-project/placard/pkg/pagination"
)

// System defines the public contract for banner domain operations.
type System interface {
	Handler(det detector.System, maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Banner], error)

	Find(ctx context.Context, id uuid.UUID) (*Banner, error)
	Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Delete(ctx context.Context, id uuid.UUID) error
}
