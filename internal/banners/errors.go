package banners

import (
	"errors"
	"net/http"

	"github.com/placard-project/placard/pkg/repository"
)

// Domain errors for banner operations.
var (
	ErrNotFound      = errors.New("banner not found")
	ErrDuplicate     = errors.New("banner already exists")
	ErrInvalidImage  = errors.New("invalid image data")
	ErrInvalidStatus = errors.New("invalid banner status")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
)

// MapHTTPStatus maps banner domain errors to appropriate HTTP status codes.
// A serialization conflict maps to 409: the request is retryable as-is.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, repository.ErrSerialization) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidImage) || errors.Is(err, ErrInvalidStatus) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
