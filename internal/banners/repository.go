package banners

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/placard-project/placard/internal/detector"
	"github.com/placard-project/placard/pkg/pagination"
	"github.com/placard-project/placard/pkg/query"
	"github.com/placard-project/placard/pkg/repository"
	"github.com/placard-project/placard/pkg/storage"
)

const bannerColumns = `id, title, hashtags, subject_type, region_text, first_seen_at, last_seen_at, observed_count, status, created_at, updated_at`

type repo struct {
	db          *sql.DB
	storage     storage.System
	coordinator *Coordinator
	logger      *slog.Logger
	pagination  pagination.Config
}

// New creates a banner repository implementing the System interface.
// The repository doubles as the Records collaborator of the ingestion
// coordinator: it runs the serializable duplicate-resolution transaction.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	r := &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "banners"),
		pagination: pagination,
	}
	r.coordinator = NewCoordinator(store, r, logger)
	return r
}

func (r *repo) Handler(det detector.System, maxUploadSize int64) *Handler {
	return NewHandler(r, det, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Banner], error) {
	page.Normalize(r.pagination)

	// The public archive shows active banners unless a status is requested.
	if filters.Status == nil {
		active := string(StatusActive)
		filters.Status = &active
	}

	qb := query.
		NewBuilder(projection, defaultSort...).
		WhereSearch(page.Search, "Title", "RegionText")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count banners: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanBanner)
	if err != nil {
		return nil, fmt.Errorf("query banners: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Banner, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	b, err := repository.QueryOne(ctx, r.db, q, args, scanBanner)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &b, nil
}

func (r *repo) Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error) {
	return r.coordinator.Ingest(ctx, cmd)
}

// Resolve implements the Records step of the ingestion saga. It opens a
// serializable transaction, reads every banner sharing the candidate's
// region as the candidate pool, and applies the duplicate resolver. A
// duplicate advances the matched banner's sighting state; a miss inserts
// the new banner together with its image record. The serializable level is
// what keeps two concurrent uploads for the same region from both reading
// an empty pool and both inserting: the database aborts one of them with a
// serialization failure, surfaced as repository.ErrSerialization.
func (r *repo) Resolve(
	ctx context.Context,
	id uuid.UUID,
	cmd IngestCommand,
	imageURL string,
) (*IngestResult, error) {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	result, err := repository.WithTxOptions(ctx, r.db, opts, func(tx *sql.Tx) (IngestResult, error) {
		pool, err := r.candidatesByRegion(ctx, tx, cmd.RegionText)
		if err != nil {
			return IngestResult{}, fmt.Errorf("read region candidates: %w", err)
		}

		if dupID, ok := FindDuplicate(cmd.Comparand(), pool); ok {
			return r.mergeDuplicate(ctx, tx, dupID, cmd)
		}

		return r.insertBanner(ctx, tx, id, cmd, imageURL)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if result.WasDuplicate {
		r.logger.Info(
			"banner merged into existing record",
			"id", result.Banner.ID,
			"region", result.Banner.RegionText,
			"observed_count", result.Banner.ObservedCount,
		)
	} else {
		r.logger.Info(
			"banner created",
			"id", result.Banner.ID,
			"region", result.Banner.RegionText,
		)
	}

	return &result, nil
}

func (r *repo) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	switch status {
	case StatusActive, StatusHidden, StatusDeleted:
	default:
		return ErrInvalidStatus
	}

	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			"UPDATE public.banners SET status = $1, updated_at = now() WHERE id = $2",
			status, id,
		)
		return struct{}{}, err
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("banner status updated", "id", id, "status", status)
	return nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM public.banners WHERE id = $1",
			id,
		)
		return struct{}{}, err
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	// Image rows cascade with the banner; the blob is scratch space cleaned
	// up best-effort.
	key := buildStorageKey(id)
	if delErr := r.storage.Delete(ctx, key); delErr != nil {
		r.logger.Warn("blob delete failed after DB delete", "key", key, "error", delErr)
	}

	r.logger.Info("banner deleted", "id", id)
	return nil
}

// candidatesByRegion reads the duplicate-candidate pool: every banner whose
// region_text equals the candidate's, oldest first so repeat sightings fold
// into the earliest matching record.
func (r *repo) candidatesByRegion(ctx context.Context, tx *sql.Tx, regionText string) ([]Banner, error) {
	q := fmt.Sprintf(
		"SELECT %s FROM public.banners WHERE region_text = $1 ORDER BY created_at, id",
		bannerColumns,
	)
	return repository.QueryMany(ctx, tx, q, []any{regionText}, scanBannerRow)
}

func (r *repo) mergeDuplicate(
	ctx context.Context,
	tx *sql.Tx,
	id uuid.UUID,
	cmd IngestCommand,
) (IngestResult, error) {
	q := fmt.Sprintf(`
		UPDATE public.banners
		SET last_seen_at = $1, observed_count = observed_count + 1, updated_at = now()
		WHERE id = $2
		RETURNING %s`, bannerColumns)

	b, err := repository.QueryOne(ctx, tx, q, []any{cmd.ObservedAt, id}, scanBannerRow)
	if err != nil {
		return IngestResult{}, fmt.Errorf("merge duplicate banner: %w", err)
	}

	return IngestResult{Banner: b, WasDuplicate: true}, nil
}

func (r *repo) insertBanner(
	ctx context.Context,
	tx *sql.Tx,
	id uuid.UUID,
	cmd IngestCommand,
	imageURL string,
) (IngestResult, error) {
	hashtags := cmd.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	encoded, err := json.Marshal(hashtags)
	if err != nil {
		return IngestResult{}, fmt.Errorf("encode hashtags: %w", err)
	}

	q := fmt.Sprintf(`
		INSERT INTO public.banners(id, title, hashtags, subject_type, region_text, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING %s`, bannerColumns)

	insertArgs := []any{
		id,
		cmd.Title,
		encoded,
		cmd.SubjectType,
		cmd.RegionText,
		cmd.ObservedAt,
		cmd.ObservedAt,
	}

	b, err := repository.QueryOne(ctx, tx, q, insertArgs, scanBannerRow)
	if err != nil {
		return IngestResult{}, fmt.Errorf("insert banner: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO public.images(banner_id, image_url) VALUES ($1, $2)",
		id, imageURL,
	); err != nil {
		return IngestResult{}, fmt.Errorf("insert banner image: %w", err)
	}

	return IngestResult{Banner: b}, nil
}
