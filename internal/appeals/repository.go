package appeals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/placard-project/placard/pkg/pagination"
	"github.com/placard-project/placard/pkg/query"
	"github.com/placard-project/placard/pkg/repository"
)

const pgForeignKeyCode = "23503"

const appealColumns = `id, banner_id, reason, detail, contact, status, created_at, updated_at`

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an appeal repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "appeals"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Appeal], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort...)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count appeals: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAppeal)
	if err != nil {
		return nil, fmt.Errorf("query appeals: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Appeal, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAppeal)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Appeal, error) {
	q := fmt.Sprintf(`
		INSERT INTO public.appeals(banner_id, reason, detail, contact)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, appealColumns)

	a, err := repository.QueryOne(
		ctx, r.db, q,
		[]any{cmd.BannerID, cmd.Reason, cmd.Detail, cmd.Contact},
		scanAppeal,
	)
	if err != nil {
		// A foreign key violation means the referenced banner is gone.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyCode {
			return nil, ErrBannerNotFound
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("appeal filed", "id", a.ID, "banner_id", a.BannerID, "reason", a.Reason)
	return &a, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	switch status {
	case StatusReceived, StatusUnderReview, StatusActioned, StatusRejected:
	default:
		return ErrInvalidStatus
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE public.appeals SET status = $1, updated_at = now() WHERE id = $2",
			status, id,
		)
		return struct{}{}, err
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("appeal status updated", "id", id, "status", status)
	return nil
}
