package api

import (
	"net/http"

	"github.com/placard-project/placard/internal/config"
	"github.com/placard-project/placard/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	storage := newStorageHandler(runtime.Storage, runtime.Logger)

	routes.Register(
		mux,
		domain.Banners.Handler(runtime.Detector, cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Appeals.Handler().Routes(),
		storage.routes(),
	)
}
