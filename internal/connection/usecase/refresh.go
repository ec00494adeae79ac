package usecase

import (
	"context"
	"errors"
	"fmt"

	"git-integration/internal/connection"
	"git-integration/internal/connection/repository"
	"git-integration/internal/model"
	"git-integration/internal/provider"
)

// maxRefreshAttempts bounds retries after a concurrent token write.
const maxRefreshAttempts = 2

func (uc *implUseCase) RefreshIfNeeded(ctx context.Context, conn model.GitConnection) (model.GitConnection, error) {
	if !conn.Active {
		return model.GitConnection{}, connection.ErrConnectionInactive
	}

	strat, err := uc.registry.Get(conn.Provider)
	if err != nil {
		return model.GitConnection{}, err
	}

	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		if !conn.TokenExpiresWithin(uc.now(), uc.opts.RefreshMargin) {
			return conn, nil
		}

		tok, err := strat.Refresh(ctx, conn.RefreshToken)
		if err != nil {
			if errors.Is(err, provider.ErrRefreshRevoked) {
				uc.deactivate(ctx, conn, err)
				return model.GitConnection{}, fmt.Errorf("%w: %v", connection.ErrConnectionInactive, err)
			}
			uc.l.Warnf(ctx, "connection.usecase.RefreshIfNeeded.Refresh: connection=%s: %v", conn.ID, err)
			return model.GitConnection{}, err
		}

		updated, err := uc.repo.UpdateTokens(ctx, repository.UpdateTokensOptions{
			ID:              conn.ID,
			ExpectedVersion: conn.TokenVersion,
			AccessToken:     tok.AccessToken,
			RefreshToken:    tok.RefreshToken,
			TokenExpiry:     tok.Expiry,
			UpdatedAt:       uc.now(),
		})
		if err == nil {
			uc.l.Infof(ctx, "connection.usecase.RefreshIfNeeded: connection=%s version=%d", updated.ID, updated.TokenVersion)
			return updated, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return model.GitConnection{}, mapRepoErr(err)
		}

		// Another writer refreshed first. Reload; if its token is fresh the
		// loop returns it without a second provider call.
		uc.l.Infof(ctx, "connection.usecase.RefreshIfNeeded: connection=%s version %d moved, reloading", conn.ID, conn.TokenVersion)
		conn, err = uc.load(ctx, conn.ID)
		if err != nil {
			return model.GitConnection{}, err
		}
		if !conn.Active {
			return model.GitConnection{}, connection.ErrConnectionInactive
		}
	}

	if !conn.TokenExpiresWithin(uc.now(), uc.opts.RefreshMargin) {
		return conn, nil
	}
	return model.GitConnection{}, fmt.Errorf("connection %s: %w", conn.ID, repository.ErrVersionConflict)
}

func (uc *implUseCase) deactivate(ctx context.Context, conn model.GitConnection, cause error) {
	uc.l.Warnf(ctx, "connection.usecase.deactivate: connection=%s: %v", conn.ID, cause)
	if err := uc.repo.SetActive(ctx, conn.ID, false); err != nil {
		uc.l.Errorf(ctx, "connection.usecase.deactivate.SetActive: connection=%s: %v", conn.ID, err)
	}
}
