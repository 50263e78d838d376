package banners_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/placard-project/placard/internal/banners"
	"github.com/placard-project/placard/pkg/repository"
	"github.com/placard-project/placard/pkg/storage"
)

type fakeBlobs struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
	deleteCtx context.Context
}

func (f *fakeBlobs) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCtx = ctx
	f.deletes = append(f.deletes, key)
	return f.deleteErr
}

func (f *fakeBlobs) URL(key string) string {
	return "https://blobs.example.com/banners-container/" + key
}

type fakeRecords struct {
	mu      sync.Mutex
	calls   int
	resolve func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error)
}

func (f *fakeRecords) Resolve(ctx context.Context, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.resolve(call, id, cmd, imageURL)
}

func insertResult(cmd banners.IngestCommand) *banners.IngestResult {
	return &banners.IngestResult{
		Banner: banners.Banner{
			ID:            uuid.New(),
			Title:         cmd.Title,
			Hashtags:      cmd.Hashtags,
			RegionText:    cmd.RegionText,
			FirstSeenAt:   cmd.ObservedAt,
			LastSeenAt:    cmd.ObservedAt,
			ObservedCount: 1,
			Status:        banners.StatusActive,
		},
	}
}

func mergeResult(cmd banners.IngestCommand) *banners.IngestResult {
	r := insertResult(cmd)
	r.Banner.ObservedCount = 2
	r.WasDuplicate = true
	return r
}

func testCommand() banners.IngestCommand {
	return banners.IngestCommand{
		Title:      ptr("홍길동 후보"),
		Hashtags:   []string{"#선거"},
		RegionText: "서울특별시 은평구",
		ObservedAt: date(0),
		ImageBytes: []byte("jpeg-bytes"),
	}
}

func newCoordinator(blobs *fakeBlobs, records *fakeRecords) *banners.Coordinator {
	return banners.NewCoordinator(blobs, records, slog.Default())
}

func TestIngestInsertLeavesBlobInPlace(t *testing.T) {
	blobs := &fakeBlobs{}
	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			return insertResult(cmd), nil
		},
	}

	result, err := newCoordinator(blobs, records).Ingest(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if result.WasDuplicate {
		t.Error("WasDuplicate = true, want false")
	}

	if len(blobs.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(blobs.uploads))
	}
	if len(blobs.deletes) != 0 {
		t.Errorf("deletes = %v, want none", blobs.deletes)
	}
	if !strings.HasPrefix(blobs.uploads[0], "banners/") || !strings.HasSuffix(blobs.uploads[0], ".jpg") {
		t.Errorf("upload key = %q, want banners/<id>.jpg", blobs.uploads[0])
	}
}

func TestIngestResolveSeesBlobURL(t *testing.T) {
	blobs := &fakeBlobs{}

	var gotURL string
	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			gotURL = imageURL
			return insertResult(cmd), nil
		},
	}

	if _, err := newCoordinator(blobs, records).Ingest(context.Background(), testCommand()); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	want := blobs.URL(blobs.uploads[0])
	if gotURL != want {
		t.Errorf("image URL = %q, want %q", gotURL, want)
	}
}

func TestIngestDuplicateCompensatesBlob(t *testing.T) {
	blobs := &fakeBlobs{}
	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			return mergeResult(cmd), nil
		},
	}

	result, err := newCoordinator(blobs, records).Ingest(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !result.WasDuplicate {
		t.Error("WasDuplicate = false, want true")
	}

	if len(blobs.deletes) != 1 || blobs.deletes[0] != blobs.uploads[0] {
		t.Errorf("deletes = %v, want the uploaded key %q", blobs.deletes, blobs.uploads)
	}
}

func TestIngestUploadFailureAbortsWithoutCompensation(t *testing.T) {
	blobs := &fakeBlobs{uploadErr: errors.New("storage unavailable")}
	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			t.Error("Resolve should not run after a failed upload")
			return nil, nil
		},
	}

	_, err := newCoordinator(blobs, records).Ingest(context.Background(), testCommand())
	if err == nil {
		t.Fatal("Ingest() error = nil, want upload failure")
	}
	if len(blobs.deletes) != 0 {
		t.Errorf("deletes = %v, want none (nothing to compensate)", blobs.deletes)
	}
}

func TestIngestTransactionFailureCompensatesBlob(t *testing.T) {
	blobs := &fakeBlobs{}
	resolveErr := errors.New("deadlock detected")
	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			return nil, resolveErr
		},
	}

	_, err := newCoordinator(blobs, records).Ingest(context.Background(), testCommand())
	if !errors.Is(err, resolveErr) {
		t.Fatalf("Ingest() error = %v, want %v", err, resolveErr)
	}

	if len(blobs.deletes) != 1 || blobs.deletes[0] != blobs.uploads[0] {
		t.Errorf("deletes = %v, want the uploaded key %q", blobs.deletes, blobs.uploads)
	}
}

func TestIngestCompensationFailureDoesNotMaskError(t *testing.T) {
	blobs := &fakeBlobs{deleteErr: errors.New("delete failed")}
	resolveErr := errors.New("transaction aborted")
	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			return nil, resolveErr
		},
	}

	_, err := newCoordinator(blobs, records).Ingest(context.Background(), testCommand())
	if !errors.Is(err, resolveErr) {
		t.Fatalf("Ingest() error = %v, want original %v", err, resolveErr)
	}
}

func TestIngestCompensationSwallowsDeleteFailureOnDuplicate(t *testing.T) {
	blobs := &fakeBlobs{deleteErr: storage.ErrNotFound}
	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			return mergeResult(cmd), nil
		},
	}

	result, err := newCoordinator(blobs, records).Ingest(context.Background(), testCommand())
	if err != nil {
		t.Fatalf("Ingest() error = %v, want nil despite delete failure", err)
	}
	if !result.WasDuplicate {
		t.Error("WasDuplicate = false, want true")
	}
}

func TestIngestCancelledContextStillCompensates(t *testing.T) {
	blobs := &fakeBlobs{}
	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, cmd banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			return nil, context.Canceled
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newCoordinator(blobs, records).Ingest(ctx, testCommand())
	if err == nil {
		t.Fatal("Ingest() error = nil, want cancellation")
	}

	if len(blobs.deletes) != 1 {
		t.Fatalf("deletes = %d, want 1 (compensation must run on cancelled context)", len(blobs.deletes))
	}
	if blobs.deleteCtx.Err() != nil {
		t.Errorf("compensation context is cancelled: %v", blobs.deleteCtx.Err())
	}
}

// Two ingestions for the same region racing at serializable isolation:
// the database aborts one transaction, the caller retries it, and the
// retry re-reads state that now contains the winner's insert. The outcome
// must be exactly one insert and one merge, never two distinct records.
func TestIngestSerializationConflictRetryMerges(t *testing.T) {
	blobs := &fakeBlobs{}
	cmd := testCommand()

	records := &fakeRecords{
		resolve: func(call int, id uuid.UUID, c banners.IngestCommand, imageURL string) (*banners.IngestResult, error) {
			switch call {
			case 1:
				return insertResult(c), nil
			case 2:
				return nil, fmt.Errorf("resolve duplicate: %w", repository.ErrSerialization)
			default:
				return mergeResult(c), nil
			}
		},
	}

	coordinator := newCoordinator(blobs, records)

	first, err := coordinator.Ingest(context.Background(), cmd)
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}

	var second *banners.IngestResult
	for attempt := 0; attempt < 3; attempt++ {
		second, err = coordinator.Ingest(context.Background(), cmd)
		if err == nil || !errors.Is(err, repository.ErrSerialization) {
			break
		}
	}
	if err != nil {
		t.Fatalf("retried Ingest() error = %v", err)
	}

	if first.WasDuplicate {
		t.Error("first ingestion should insert, not merge")
	}
	if !second.WasDuplicate {
		t.Error("retried ingestion should merge into the winner's record")
	}

	// The aborted attempt and the merge both compensate their blobs; only
	// the first insert keeps one.
	if len(blobs.uploads) != 3 {
		t.Errorf("uploads = %d, want 3 (one per attempt)", len(blobs.uploads))
	}
	if len(blobs.deletes) != 2 {
		t.Errorf("deletes = %d, want 2 (aborted attempt and merge)", len(blobs.deletes))
	}
}
