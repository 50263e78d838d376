package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/placard-project/placard/pkg/handlers"
	"github.com/placard-project/placard/pkg/routes"
	"github.com/placard-project/placard/pkg/storage"
)

// storageHandler streams banner images straight from blob storage. It
// backs deployments where the storage account is not publicly reachable,
// so image URLs can point at the API instead.
type storageHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newStorageHandler(store storage.System, logger *slog.Logger) *storageHandler {
	return &storageHandler{
		store:  store,
		logger: logger.With("handler", "storage"),
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.serve},
		},
	}
}

func (h *storageHandler) serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	body, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer body.Close()

	// Every blob this service writes is a JPEG crop.
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, body)
}
