package banners

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/placard-project/placard/pkg/storage"
)

// Blobs is the slice of blob storage the ingestion saga needs.
type Blobs interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Records runs the serializable read-then-write step of the saga: read the
// candidate pool for the command's region, resolve a duplicate, and either
// merge into the matched banner or insert a new banner plus image record.
// A serialization conflict surfaces as repository.ErrSerialization.
type Records interface {
	Resolve(ctx context.Context, id uuid.UUID, cmd IngestCommand, imageURL string) (*IngestResult, error)
}

// Coordinator orchestrates one candidate's ingestion across blob storage and
// the relational store. The two cannot be committed atomically together, so
// the blob upload runs first and a compensating delete cleans it up when the
// transaction fails or resolves to a duplicate.
type Coordinator struct {
	blobs   Blobs
	records Records
	logger  *slog.Logger
}

// NewCoordinator creates a Coordinator over the given collaborators.
func NewCoordinator(blobs Blobs, records Records, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		blobs:   blobs,
		records: records,
		logger:  logger.With("system", "ingest"),
	}
}

// Ingest persists one reviewed candidate. The blob is uploaded before the
// transaction opens so a duplicate decision always has something concrete to
// compensate; an upload failure aborts with nothing written anywhere. After
// a duplicate merge the orphaned blob is deleted best-effort: the record's
// correctness does not depend on the orphan's removal, so a failed delete is
// logged and swallowed. A transaction failure also triggers the compensating
// delete before the error propagates, so the caller is never left with an
// orphaned blob and no record.
func (c *Coordinator) Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error) {
	id := uuid.New()
	key := buildStorageKey(id)

	contentType := cmd.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if err := c.blobs.Upload(ctx, key, bytes.NewReader(cmd.ImageBytes), contentType); err != nil {
		return nil, fmt.Errorf("upload banner image: %w", err)
	}

	result, err := c.records.Resolve(ctx, id, cmd, c.blobs.URL(key))
	if err != nil {
		c.compensate(ctx, key)
		return nil, err
	}

	if result.WasDuplicate {
		c.compensate(ctx, key)
	}

	return result, nil
}

// compensate issues the best-effort blob delete. It runs even when ctx has
// been cancelled, so a cancelled ingestion still attempts cleanup.
func (c *Coordinator) compensate(ctx context.Context, key string) {
	err := c.blobs.Delete(context.WithoutCancel(ctx), key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.logger.Warn("compensating blob delete failed", "key", key, "error", err)
	}
}

func buildStorageKey(id uuid.UUID) string {
	return fmt.Sprintf("banners/%s.jpg", id)
}
