package http

import (
	"errors"
	"net/http"

	"git-integration/internal/connection"
	"git-integration/internal/provider"
	pkgErrors "git-integration/pkg/errors"
)

var (
	errWrongBody  = pkgErrors.NewHTTPError(http.StatusBadRequest, "wrong body")
	errWrongQuery = pkgErrors.NewHTTPError(http.StatusBadRequest, "wrong query")
)

func (h *handler) mapError(err error) error {
	switch {
	case errors.Is(err, connection.ErrInvalidInput):
		return pkgErrors.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, provider.ErrUnknownProvider):
		return pkgErrors.NewHTTPError(http.StatusBadRequest, "unknown provider")
	case errors.Is(err, connection.ErrInvalidOrExpiredState):
		return pkgErrors.NewHTTPError(http.StatusBadRequest, "invalid or expired state")
	case errors.Is(err, provider.ErrAuthExchangeFailed):
		return pkgErrors.NewHTTPError(http.StatusBadGateway, "authorization exchange failed")
	case errors.Is(err, connection.ErrConnectionNotFound):
		return pkgErrors.NewHTTPError(http.StatusNotFound, "connection not found")
	case errors.Is(err, connection.ErrAlreadyExists):
		return pkgErrors.NewHTTPError(http.StatusConflict, "connection already exists")
	case errors.Is(err, connection.ErrConnectionInactive):
		return pkgErrors.NewHTTPError(http.StatusGone, "connection is inactive")
	case errors.Is(err, connection.ErrRepositoryRequired):
		return pkgErrors.NewHTTPError(http.StatusUnprocessableEntity, "connection has no repository")
	case errors.Is(err, provider.ErrRateLimited):
		return pkgErrors.NewHTTPError(http.StatusTooManyRequests, "provider rate limit exceeded")
	case errors.Is(err, provider.ErrTransient):
		return pkgErrors.NewHTTPError(http.StatusBadGateway, "provider unavailable")
	case errors.Is(err, provider.ErrPermanent):
		return pkgErrors.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return pkgErrors.ErrInternalServerError
}
