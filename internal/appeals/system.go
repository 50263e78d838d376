package appeals

import (
	"context"

	"github.com/google/uuid"

	"github.com/placard-project/placard/pkg/pagination"
)

// System defines the appeal management interface.
type System interface {
	Handler() *Handler
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Appeal], error)
	Find(ctx context.Context, id uuid.UUID) (*Appeal, error)
	Create(ctx context.Context, cmd CreateCommand) (*Appeal, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
