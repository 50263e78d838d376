package appeals

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("appeal not found")
	ErrBannerNotFound = errors.New("banner not found")
	ErrDuplicate      = errors.New("appeal already exists")
	ErrInvalidStatus  = errors.New("invalid appeal status")
)

// MapHTTPStatus converts domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBannerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
