// Package mapping translates domain values for the transport adapters.
package mapping

import (
	"errors"
	"net/http"

	"github.com/eslsoft/lvgames/internal/entity"
)

// ToHTTPStatus maps a domain error onto an HTTP status code.
func ToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, entity.ErrInvalidItem), errors.Is(err, entity.ErrInvalidGameConfig),
		errors.Is(err, entity.ErrInsufficientDistractors):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrGameNotFound), errors.Is(err, entity.ErrUnknownItem):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidPhase), errors.Is(err, entity.ErrNoLockedSet),
		errors.Is(err, entity.ErrNoItems):
		return http.StatusConflict
	case errors.Is(err, entity.ErrNoSourceAvailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
