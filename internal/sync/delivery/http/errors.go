package http

import (
	"errors"
	"net/http"

	"git-integration/internal/connection"
	"git-integration/internal/provider"
	"git-integration/internal/sync"
	pkgErrors "git-integration/pkg/errors"
)

var (
	errWrongBody  = pkgErrors.NewHTTPError(http.StatusBadRequest, "wrong body")
	errWrongQuery = pkgErrors.NewHTTPError(http.StatusBadRequest, "wrong query")
)

func (h *handler) mapError(err error) error {
	switch {
	case errors.Is(err, sync.ErrInvalidInput), errors.Is(err, connection.ErrInvalidInput):
		return pkgErrors.NewHTTPError(http.StatusBadRequest, "invalid input")
	case errors.Is(err, connection.ErrConnectionNotFound):
		return pkgErrors.NewHTTPError(http.StatusNotFound, "connection not found")
	case errors.Is(err, sync.ErrCommitNotFound):
		return pkgErrors.NewHTTPError(http.StatusNotFound, "commit not found")
	case errors.Is(err, sync.ErrPullRequestNotFound):
		return pkgErrors.NewHTTPError(http.StatusNotFound, "pull request not found")
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
