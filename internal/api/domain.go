package api

import (
	"github.com/placard-project/placard/internal/appeals"
	"github.com/placard-project/placard/internal/banners"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Banners banners.System
	Appeals appeals.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	bannersSystem := banners.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	appealsSystem := appeals.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Banners: bannersSystem,
		Appeals: appealsSystem,
	}
}
