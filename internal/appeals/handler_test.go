package appeals_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/placard-project/placard/internal/appeals"
	"github.com/placard-project/placard/pkg/pagination"
)

type mockSystem struct {
	listFn         func(ctx context.Context, page pagination.PageRequest, filters appeals.Filters) (*pagination.PageResult[appeals.Appeal], error)
	findFn         func(ctx context.Context, id uuid.UUID) (*appeals.Appeal, error)
	createFn       func(ctx context.Context, cmd appeals.CreateCommand) (*appeals.Appeal, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, status appeals.Status) error
}

func (m *mockSystem) Handler() *appeals.Handler {
	panic("not used in tests")
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters appeals.Filters) (*pagination.PageResult[appeals.Appeal], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*appeals.Appeal, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd appeals.CreateCommand) (*appeals.Appeal, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) UpdateStatus(ctx context.Context, id uuid.UUID, status appeals.Status) error {
	return m.updateStatusFn(ctx, id, status)
}

func setupMux(sys *mockSystem) *http.ServeMux {
	handler := appeals.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)

	mux := http.NewServeMux()
	group := handler.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func ptr(s string) *string { return &s }

func sampleAppeal() appeals.Appeal {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return appeals.Appeal{
		ID:        uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		BannerID:  uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Reason:    appeals.ReasonPrivacy,
		Detail:    ptr("얼굴이 가려지지 않았습니다"),
		Status:    appeals.StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHandlerList(t *testing.T) {
	appeal := sampleAppeal()

	t.Run("returns paginated list", func(t *testing.T) {
		sys := &mockSystem{
			listFn: func(_ context.Context, _ pagination.PageRequest, _ appeals.Filters) (*pagination.PageResult[appeals.Appeal], error) {
				result := pagination.NewPageResult([]appeals.Appeal{appeal}, 1, 1, 20)
				return &result, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/appeals", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result pagination.PageResult[appeals.Appeal]
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Total != 1 || len(result.Data) != 1 {
			t.Errorf("result = %+v, want one appeal", result)
		}
	})

	t.Run("passes query filters", func(t *testing.T) {
		var captured appeals.Filters
		sys := &mockSystem{
			listFn: func(_ context.Context, _ pagination.PageRequest, f appeals.Filters) (*pagination.PageResult[appeals.Appeal], error) {
				captured = f
				result := pagination.NewPageResult([]appeals.Appeal{}, 0, 1, 20)
				return &result, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/appeals?status=received&banner_id="+appeal.BannerID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if captured.Status == nil || *captured.Status != "received" {
			t.Errorf("status filter = %v, want received", captured.Status)
		}
		if captured.BannerID == nil || *captured.BannerID != appeal.BannerID.String() {
			t.Errorf("banner filter = %v, want %s", captured.BannerID, appeal.BannerID)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	appeal := sampleAppeal()

	t.Run("returns appeal by id", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, id uuid.UUID) (*appeals.Appeal, error) {
				if id != appeal.ID {
					return nil, appeals.ErrNotFound
				}
				return &appeal, nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/appeals/"+appeal.ID.String(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("unknown id returns 404", func(t *testing.T) {
		sys := &mockSystem{
			findFn: func(_ context.Context, _ uuid.UUID) (*appeals.Appeal, error) {
				return nil, appeals.ErrNotFound
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/appeals/"+uuid.NewString(), nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("malformed id returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/appeals/not-a-uuid", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerCreate(t *testing.T) {
	appeal := sampleAppeal()

	post := func(t *testing.T, mux *http.ServeMux, body any) *httptest.ResponseRecorder {
		t.Helper()

		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/appeals", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		mux.ServeHTTP(rec, req)
		return rec
	}

	t.Run("files appeal", func(t *testing.T) {
		var captured appeals.CreateCommand
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd appeals.CreateCommand) (*appeals.Appeal, error) {
				captured = cmd
				return &appeal, nil
			},
		}
		mux := setupMux(sys)

		rec := post(t, mux, appeals.CreateCommand{
			BannerID: appeal.BannerID,
			Reason:   appeals.ReasonPrivacy,
			Detail:   ptr("얼굴이 가려지지 않았습니다"),
		})

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if captured.BannerID != appeal.BannerID || captured.Reason != appeals.ReasonPrivacy {
			t.Errorf("command = %+v, want request fields", captured)
		}

		var created appeals.Appeal
		if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.Status != appeals.StatusReceived {
			t.Errorf("status = %q, want received", created.Status)
		}
	})

	t.Run("unknown reason returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys)

		rec := post(t, mux, appeals.CreateCommand{
			BannerID: appeal.BannerID,
			Reason:   "spam",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing banner id returns 400", func(t *testing.T) {
		sys := &mockSystem{}
		mux := setupMux(sys)

		rec := post(t, mux, appeals.CreateCommand{Reason: appeals.ReasonOther})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("missing banner returns 404", func(t *testing.T) {
		sys := &mockSystem{
			createFn: func(_ context.Context, _ appeals.CreateCommand) (*appeals.Appeal, error) {
				return nil, appeals.ErrBannerNotFound
			},
		}
		mux := setupMux(sys)

		rec := post(t, mux, appeals.CreateCommand{
			BannerID: uuid.New(),
			Reason:   appeals.ReasonFalseInfo,
		})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestHandlerUpdateStatus(t *testing.T) {
	appeal := sampleAppeal()

	t.Run("updates status", func(t *testing.T) {
		var gotStatus appeals.Status
		sys := &mockSystem{
			updateStatusFn: func(_ context.Context, _ uuid.UUID, status appeals.Status) error {
				gotStatus = status
				return nil
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("PATCH", "/appeals/"+appeal.ID.String(), strings.NewReader(`{"status":"actioned"}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if gotStatus != appeals.StatusActioned {
			t.Errorf("status = %q, want actioned", gotStatus)
		}
	})

	t.Run("invalid status returns 400", func(t *testing.T) {
		sys := &mockSystem{
			updateStatusFn: func(_ context.Context, _ uuid.UUID, _ appeals.Status) error {
				return appeals.ErrInvalidStatus
			},
		}
		mux := setupMux(sys)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("PATCH", "/appeals/"+appeal.ID.String(), strings.NewReader(`{"status":"closed"}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}
