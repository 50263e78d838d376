package banners

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/placard-project/placard/internal/analysis"
	"github.com/placard-project/placard/internal/detector"
	"github.com/placard-project/placard/pkg/handlers"
	"github.com/placard-project/placard/pkg/pagination"
	"github.com/placard-project/placard/pkg/repository"
	"github.com/placard-project/placard/pkg/routes"
)

// ingestAttempts bounds how many times a candidate's saga is retried after
// a serialization conflict before the failure is reported. Each retry runs
// the full saga again, so the duplicate check re-reads current state.
const ingestAttempts = 3

// ingestConcurrency bounds how many candidates of one batch ingest at once.
const ingestConcurrency = 4

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// Handler provides HTTP endpoints for banner operations.
type Handler struct {
	sys           System
	det           detector.System
	validate      *validator.Validate
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, detector, logger,
// pagination config, and upload size limit.
func NewHandler(
	sys System,
	det detector.System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		det:           det,
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger.With("handler", "banners"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for banner endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/banners",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "", Handler: h.Save},
			{Method: "POST", Pattern: "/analyze", Handler: h.Analyze},
			{Method: "PATCH", Pattern: "/{id}", Handler: h.UpdateStatus},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
		},
	}
}

// List returns a paginated list of banners with optional query parameter
// filters; sort accepts recent, first, or count.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	if sort := r.URL.Query().Get("sort"); sort != "" {
		page.Sort = SortFromOption(sort)
	}

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single banner by its UUID path parameter, including the
// URL of its first image.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid banner id"))
		return
	}

	banner, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, banner)
}

// SaveItem is one reviewed candidate within a batch save request.
// Image carries the redacted crop as a base64 data URL; ObservedAt is the
// date the photo was taken.
type SaveItem struct {
	Title       *string  `json:"title"`
	Hashtags    []string `json:"hashtags"`
	SubjectType *string  `json:"subject_type" validate:"omitempty,oneof=politician party other"`
	RegionText  string   `json:"region_text" validate:"required"`
	Image       string   `json:"image" validate:"required"`
	ObservedAt  string   `json:"observed_at" validate:"required,datetime=2006-01-02"`
}

// SaveResponse reports a batch save: per-item outcomes plus a batch-level
// flag set when any item was merged into an existing banner.
type SaveResponse struct {
	Results      []BatchResult `json:"results"`
	AnyDuplicate bool          `json:"any_duplicate"`
}

// Save ingests a batch of reviewed candidates. Items are validated up
// front; ingestion then runs each item's saga independently with bounded
// concurrency, so one item's failure never aborts its siblings.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req []SaveItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if len(req) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("nothing to save"))
		return
	}

	for i, item := range req {
		if err := h.validate.Struct(item); err != nil {
			handlers.RespondError(
				w, h.logger,
				http.StatusBadRequest,
				fmt.Errorf("item %d: %w", i, err),
			)
			return
		}
	}

	results := make([]BatchResult, len(req))

	g := new(errgroup.Group)
	g.SetLimit(ingestConcurrency)
	for i, item := range req {
		g.Go(func() error {
			results[i] = h.ingestItem(r, item)
			return nil
		})
	}
	g.Wait()

	resp := SaveResponse{Results: results}
	for _, result := range results {
		if result.Result != nil && result.Result.WasDuplicate {
			resp.AnyDuplicate = true
		}
	}

	handlers.RespondJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ingestItem(r *http.Request, item SaveItem) BatchResult {
	imageBytes, err := decodeDataURL(item.Image)
	if err != nil {
		return BatchResult{Error: ErrInvalidImage.Error()}
	}

	observedAt, err := time.Parse("2006-01-02", item.ObservedAt)
	if err != nil {
		return BatchResult{Error: err.Error()}
	}

	cmd := IngestCommand{
		Title:       item.Title,
		Hashtags:    item.Hashtags,
		SubjectType: (*SubjectType)(item.SubjectType),
		RegionText:  item.RegionText,
		ObservedAt:  observedAt,
		ImageBytes:  imageBytes,
		ContentType: "image/jpeg",
	}

	var result *IngestResult
	for attempt := 1; attempt <= ingestAttempts; attempt++ {
		result, err = h.sys.Ingest(r.Context(), cmd)
		if err == nil || !errors.Is(err, repository.ErrSerialization) {
			break
		}
		h.logger.Info(
			"retrying ingestion after serialization conflict",
			"region", cmd.RegionText,
			"attempt", attempt,
		)
	}

	if err != nil {
		return BatchResult{Error: err.Error()}
	}
	return BatchResult{Result: result}
}

// AnalyzedBanner is one candidate produced by analyzing an uploaded photo:
// the banner's detected metadata plus its redacted crop as a data URL.
type AnalyzedBanner struct {
	ID          string   `json:"id"`
	Title       *string  `json:"title"`
	Hashtags    []string `json:"hashtags"`
	SubjectType *string  `json:"subject_type"`
	RegionText  string   `json:"region_text"`
	Image       string   `json:"image"`
	Confidence  float64  `json:"confidence"`
}

// Analyze accepts a multipart photo upload plus a region_text field, runs
// vision detection, redacts privacy regions, and returns one candidate per
// detected banner for the user to review.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("no photo uploaded"))
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidImage)
		return
	}

	regionText := r.FormValue("region_text")

	detection, err := h.det.Analyze(r.Context(), imageBytes, header.Header.Get("Content-Type"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadGateway, err)
		return
	}

	crops, err := analysis.RedactAndCrop(imageBytes, detection.Banners, detection.PrivacyRegions)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analysis.ErrUnreadableImage) {
			status = http.StatusBadRequest
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	cropsByID := make(map[string][]byte, len(crops))
	for _, crop := range crops {
		cropsByID[crop.TempID] = crop.ImageBytes
	}

	candidates := make([]AnalyzedBanner, 0, len(detection.Banners))
	for _, banner := range detection.Banners {
		data, ok := cropsByID[banner.TempID]
		if !ok {
			continue
		}
		candidates = append(candidates, AnalyzedBanner{
			ID:          banner.TempID,
			Title:       banner.Title,
			Hashtags:    banner.Hashtags,
			SubjectType: banner.SubjectType,
			RegionText:  regionText,
			Image:       encodeDataURL(data),
			Confidence:  banner.Confidence,
		})
	}

	handlers.RespondJSON(w, http.StatusOK, candidates)
}

// UpdateStatus changes a banner's moderation status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid banner id"))
		return
	}

	var req struct {
		Status Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.sys.UpdateStatus(r.Context(), id, req.Status); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a banner, its image records, and best-effort its blob.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid banner id"))
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeDataURL(s string) ([]byte, error) {
	trimmed := dataURLPrefix.ReplaceAllString(s, "")
	data, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	return data, nil
}

func encodeDataURL(data []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}
