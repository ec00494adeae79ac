package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"git-integration/internal/connection"
	"git-integration/internal/connection/repository"
	"git-integration/internal/model"
	"git-integration/internal/provider"
)

func (uc *implUseCase) BeginAuthorization(ctx context.Context, sc model.Scope, input connection.BeginAuthorizationInput) (connection.BeginAuthorizationOutput, error) {
	if strings.TrimSpace(input.ProjectID) == "" || strings.TrimSpace(input.RedirectURL) == "" {
		return connection.BeginAuthorizationOutput{}, fmt.Errorf("%w: project_id and redirect_url are required", connection.ErrInvalidInput)
	}

	strat, err := uc.registry.Get(input.Provider)
	if err != nil {
		return connection.BeginAuthorizationOutput{}, err
	}

	token, err := uc.newSecret()
	if err != nil {
		uc.l.Errorf(ctx, "connection.usecase.BeginAuthorization.newSecret: %v", err)
		return connection.BeginAuthorizationOutput{}, err
	}

	now := uc.now()
	state := model.OAuthState{
		Token:       token,
		UserID:      sc.UserID,
		ProjectID:   input.ProjectID,
		Provider:    input.Provider,
		RedirectURL: input.RedirectURL,
		Repository:  strings.TrimSpace(input.Repository),
		IssuedAt:    now,
		ExpiresAt:   now.Add(uc.opts.StateTTL),
	}
	if err := uc.states.Save(ctx, state); err != nil {
		uc.l.Errorf(ctx, "connection.usecase.BeginAuthorization.Save: %v", err)
		return connection.BeginAuthorizationOutput{}, err
	}

	return connection.BeginAuthorizationOutput{
		AuthorizationURL: strat.AuthCodeURL(token, input.RedirectURL),
		State:            token,
		ExpiresAt:        state.ExpiresAt,
	}, nil
}

func (uc *implUseCase) CompleteAuthorization(ctx context.Context, input connection.CompleteAuthorizationInput) (model.GitConnection, error) {
	if input.State == "" {
		return model.GitConnection{}, connection.ErrInvalidOrExpiredState
	}
	// Consumed before the exchange so a replay fails even if the exchange does.
	state, ok := uc.states.Consume(ctx, input.State)
	if !ok || state.Expired(uc.now()) {
		return model.GitConnection{}, connection.ErrInvalidOrExpiredState
	}
	if strings.TrimSpace(input.Code) == "" {
		return model.GitConnection{}, fmt.Errorf("%w: missing code", provider.ErrAuthExchangeFailed)
	}

	strat, err := uc.registry.Get(state.Provider)
	if err != nil {
		return model.GitConnection{}, err
	}

	tok, err := strat.Exchange(ctx, input.Code, state.RedirectURL)
	if err != nil {
		uc.l.Warnf(ctx, "connection.usecase.CompleteAuthorization.Exchange: provider=%s project=%s: %v", state.Provider, state.ProjectID, err)
		if !errors.Is(err, provider.ErrAuthExchangeFailed) {
			err = fmt.Errorf("%w: %v", provider.ErrAuthExchangeFailed, err)
		}
		return model.GitConnection{}, err
	}

	c, err := uc.upsert(ctx, strat, upsertInput{
		userID:     state.UserID,
		projectID:  state.ProjectID,
		provider:   state.Provider,
		repository: state.Repository,
		token:      tok,
	})
	if err != nil {
		return model.GitConnection{}, err
	}

	uc.l.Infof(ctx, "connection.usecase.CompleteAuthorization: connection=%s project=%s provider=%s", c.ID, c.ProjectID, c.Provider)
	return c, nil
}

type upsertInput struct {
	userID     string
	projectID  string
	provider   model.Provider
	repository string
	token      provider.Token
	events     []model.EventKind
}

// upsert creates the connection or reactivates the one already holding the
// same project, provider and repository.
func (uc *implUseCase) upsert(ctx context.Context, strat provider.Strategy, in upsertInput) (model.GitConnection, error) {
	now := uc.now()

	candidate := model.NewGitConnection(in.userID, in.projectID, in.provider, now)
	candidate.RepositoryFullName = in.repository
	candidate.AccessToken = in.token.AccessToken
	candidate.RefreshToken = in.token.RefreshToken
	candidate.TokenExpiry = in.token.Expiry
	if len(in.events) > 0 {
		candidate.WebhookEvents = in.events
	} else {
		candidate.WebhookEvents = append([]model.EventKind(nil), uc.opts.WebhookEvents...)
	}
	if candidate.HasRepository() {
		if err := describeRepository(ctx, strat, candidate.AccessToken, &candidate); err != nil {
			if !provider.IsTransient(err) {
				return model.GitConnection{}, err
			}
			uc.l.Warnf(ctx, "connection.usecase.upsert.describeRepository: %s: %v", candidate.RepositoryFullName, err)
		}
	}

	existing, err := uc.repo.FindByIdentity(ctx, repository.IdentityOptions{
		ProjectID:          candidate.ProjectID,
		Provider:           candidate.Provider,
		RepositoryFullName: candidate.RepositoryFullName,
	})
	switch {
	case err == nil:
		c, err := uc.reactivate(ctx, existing, candidate)
		if err != nil {
			return model.GitConnection{}, err
		}
		c = uc.ensureWebhook(ctx, strat, c)
		uc.publish(ctx, model.DomainEventConnectionConnected, c)
		return c, nil
	case !errors.Is(err, repository.ErrNotFound):
		return model.GitConnection{}, err
	}

	candidate.ID = uc.newID()
	secret, err := uc.newSecret()
	if err != nil {
		return model.GitConnection{}, err
	}
	candidate.WebhookSecret = secret

	c, err := uc.repo.Create(ctx, candidate)
	if err != nil {
		uc.l.Errorf(ctx, "connection.usecase.upsert.Create: %v", err)
		return model.GitConnection{}, mapRepoErr(err)
	}
	c = uc.ensureWebhook(ctx, strat, c)
	uc.publish(ctx, model.DomainEventConnectionConnected, c)
	return c, nil
}

func (uc *implUseCase) reactivate(ctx context.Context, existing, fresh model.GitConnection) (model.GitConnection, error) {
	withTokens, err := uc.repo.UpdateTokens(ctx, repository.UpdateTokensOptions{
		ID:              existing.ID,
		ExpectedVersion: existing.TokenVersion,
		AccessToken:     fresh.AccessToken,
		RefreshToken:    fresh.RefreshToken,
		TokenExpiry:     fresh.TokenExpiry,
		UpdatedAt:       fresh.UpdatedAt,
	})
	if err != nil {
		uc.l.Errorf(ctx, "connection.usecase.reactivate.UpdateTokens: connection=%s: %v", existing.ID, err)
		return model.GitConnection{}, mapRepoErr(err)
	}

	withTokens.UserID = fresh.UserID
	withTokens.Active = true
	withTokens.UpdatedAt = fresh.UpdatedAt
	if fresh.RepositoryURL != "" {
		withTokens.RepositoryName = fresh.RepositoryName
		withTokens.RepositoryURL = fresh.RepositoryURL
		withTokens.DefaultBranch = fresh.DefaultBranch
	}
	if withTokens.WebhookSecret == "" {
		secret, err := uc.newSecret()
		if err != nil {
			return model.GitConnection{}, err
		}
		withTokens.WebhookSecret = secret
	}

	c, err := uc.repo.Update(ctx, updateOptions(withTokens))
	if err != nil {
		uc.l.Errorf(ctx, "connection.usecase.reactivate.Update: connection=%s: %v", existing.ID, err)
		return model.GitConnection{}, mapRepoErr(err)
	}
	return c, nil
}
