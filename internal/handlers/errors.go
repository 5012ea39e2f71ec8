package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/kalori-makanan/dashboard-api/internal/database"
	"github.com/kalori-makanan/dashboard-api/internal/keys"
)

// mapServiceError translates error kinds from the key and usage services into
// HTTP responses. Unrecognized failures surface as a generic message; the
// detail has already been logged at the database choke point.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, keys.ErrEmptyName):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, keys.ErrNotFoundOrUnauthorized):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, database.ErrTimeout):
		return huma.Error504GatewayTimeout("Operation timed out")
	default:
		return huma.Error500InternalServerError("Operation failed")
	}
}
