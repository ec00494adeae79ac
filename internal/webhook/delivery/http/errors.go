package http

import (
	"errors"
	"net/http"

	"git-integration/internal/connection"
	"git-integration/internal/provider"
	"git-integration/internal/webhook"
	pkgErrors "git-integration/pkg/errors"
)

var (
	errWrongQuery      = pkgErrors.NewHTTPError(http.StatusBadRequest, "wrong query")
	errForbiddenSource = pkgErrors.NewHTTPError(http.StatusForbidden, "source address not allowed")
	errTooManyRequests = pkgErrors.NewHTTPError(http.StatusTooManyRequests, "too many webhook deliveries")
	errBodyTooLarge    = pkgErrors.NewHTTPError(http.StatusRequestEntityTooLarge, "payload too large")
	errUnreadableBody  = pkgErrors.NewHTTPError(http.StatusBadRequest, "unreadable body")
)

func (h *handler) mapError(err error) error {
	switch {
	case errors.Is(err, provider.ErrUnknownProvider):
		return pkgErrors.NewHTTPError(http.StatusBadRequest, "unknown provider")
	case errors.Is(err, webhook.ErrConnectionNotFound), errors.Is(err, connection.ErrConnectionNotFound):
		return pkgErrors.NewHTTPError(http.StatusNotFound, "connection not found")
	case errors.Is(err, webhook.ErrSignatureInvalid):
		return pkgErrors.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	case errors.Is(err, connection.ErrConnectionInactive):
		return pkgErrors.NewHTTPError(http.StatusGone, "connection is inactive")
	case errors.Is(err, provider.ErrMalformedPayload):
		return pkgErrors.NewHTTPError(http.StatusBadRequest, "malformed payload")
	case errors.Is(err, connection.ErrInvalidInput):
		return pkgErrors.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return pkgErrors.ErrInternalServerError
}
