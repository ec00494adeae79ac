package usecase

import (
	"context"
	"fmt"
	"strings"

	"git-integration/internal/connection"
	"git-integration/internal/connection/repository"
	"git-integration/internal/model"
	"git-integration/internal/provider"
)

func (uc *implUseCase) Create(ctx context.Context, sc model.Scope, input connection.CreateInput) (model.GitConnection, error) {
	if strings.TrimSpace(input.ProjectID) == "" || strings.TrimSpace(input.AccessToken) == "" {
		return model.GitConnection{}, fmt.Errorf("%w: project_id and access_token are required", connection.ErrInvalidInput)
	}
	strat, err := uc.registry.Get(input.Provider)
	if err != nil {
		return model.GitConnection{}, err
	}

	return uc.upsert(ctx, strat, upsertInput{
		userID:     sc.UserID,
		projectID:  input.ProjectID,
		provider:   input.Provider,
		repository: strings.TrimSpace(input.RepositoryFullName),
		token: provider.Token{
			AccessToken:  input.AccessToken,
			RefreshToken: input.RefreshToken,
			Expiry:       input.TokenExpiry,
		},
		events: input.WebhookEvents,
	})
}

func (uc *implUseCase) Update(ctx context.Context, sc model.Scope, input connection.UpdateInput) (model.GitConnection, error) {
	c, err := uc.load(ctx, input.ID)
	if err != nil {
		return model.GitConnection{}, err
	}
	strat, err := uc.registry.Get(c.Provider)
	if err != nil {
		return model.GitConnection{}, err
	}

	previous := c
	if input.Active != nil {
		c.Active = *input.Active
	}
	if input.DefaultBranch != nil {
		c.DefaultBranch = strings.TrimSpace(*input.DefaultBranch)
	}
	if input.WebhookEvents != nil {
		c.WebhookEvents = input.WebhookEvents
	}

	rebind := input.RepositoryFullName != nil && strings.TrimSpace(*input.RepositoryFullName) != c.RepositoryFullName
	if rebind {
		if !c.Active {
			return model.GitConnection{}, connection.ErrConnectionInactive
		}
		if c, err = uc.RefreshIfNeeded(ctx, c); err != nil {
			return model.GitConnection{}, err
		}
		c.RepositoryFullName = strings.TrimSpace(*input.RepositoryFullName)
		c.RepositoryName, c.RepositoryURL, c.WebhookID = "", "", ""
		if input.DefaultBranch == nil {
			c.DefaultBranch = ""
		}
		if c.HasRepository() {
			if err := describeRepository(ctx, strat, c.AccessToken, &c); err != nil {
				return model.GitConnection{}, err
			}
		}
	}

	c.UpdatedAt = uc.now()
	updated, err := uc.repo.Update(ctx, updateOptions(c))
	if err != nil {
		uc.l.Errorf(ctx, "connection.usecase.Update: connection=%s: %v", c.ID, err)
		return model.GitConnection{}, mapRepoErr(err)
	}

	if rebind {
		uc.removeWebhook(ctx, previous)
	}
	return uc.ensureWebhook(ctx, strat, updated), nil
}

func (uc *implUseCase) Detail(ctx context.Context, sc model.Scope, id string) (model.GitConnection, error) {
	return uc.load(ctx, id)
}

func (uc *implUseCase) Get(ctx context.Context, id string) (model.GitConnection, error) {
	return uc.load(ctx, id)
}

func (uc *implUseCase) ListByProject(ctx context.Context, sc model.Scope, projectID string) ([]model.GitConnection, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, connection.ErrInvalidInput
	}
	list, err := uc.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Delete deactivates first so in-flight work sees the connection as inactive,
// then removes the provider hook and soft-deletes the record.
func (uc *implUseCase) Delete(ctx context.Context, sc model.Scope, id string) error {
	c, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.SetActive(ctx, c.ID, false); err != nil {
		return mapRepoErr(err)
	}

	uc.removeWebhook(ctx, c)

	if err := uc.repo.Delete(ctx, c.ID); err != nil {
		uc.l.Errorf(ctx, "connection.usecase.Delete: connection=%s: %v", c.ID, err)
		return mapRepoErr(err)
	}
	uc.publish(ctx, model.DomainEventConnectionDeleted, c)
	uc.l.Infof(ctx, "connection.usecase.Delete: connection=%s user=%s", c.ID, sc.UserID)
	return nil
}

func (uc *implUseCase) ListRepositories(ctx context.Context, sc model.Scope, id string, page int) (provider.RepositoryPage, error) {
	c, strat, err := uc.activeWithToken(ctx, id)
	if err != nil {
		return provider.RepositoryPage{}, err
	}
	if page < 1 {
		page = 1
	}
	return strat.ListRepositories(ctx, c.AccessToken, page)
}

func (uc *implUseCase) ListBranches(ctx context.Context, sc model.Scope, id string) ([]provider.Branch, error) {
	c, strat, err := uc.activeWithToken(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.HasRepository() {
		return nil, connection.ErrRepositoryRequired
	}
	return strat.ListBranches(ctx, c.AccessToken, c.RepositoryFullName)
}

func (uc *implUseCase) UpdateSyncState(ctx context.Context, input connection.UpdateSyncStateInput) error {
	err := uc.repo.UpdateSyncState(ctx, repository.UpdateSyncStateOptions{
		ID:        input.ID,
		Status:    input.Status,
		Cursor:    input.Cursor,
		SyncedAt:  input.SyncedAt,
		LastError: input.LastError,
		UpdatedAt: uc.now(),
	})
	return mapRepoErr(err)
}
