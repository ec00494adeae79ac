package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"git-integration/internal/connection"
	"git-integration/internal/connection/repository"
	"git-integration/internal/model"
	"git-integration/internal/provider"
	"git-integration/pkg/publisher"
)

const tokenBytes = 32

func newUUID() string { return uuid.NewString() }

// randomToken returns a hex-encoded token from the OS CSPRNG.
func randomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return connection.ErrConnectionNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return connection.ErrAlreadyExists
	}
	return err
}

func (uc *implUseCase) load(ctx context.Context, id string) (model.GitConnection, error) {
	if strings.TrimSpace(id) == "" {
		return model.GitConnection{}, connection.ErrInvalidInput
	}
	c, err := uc.repo.Detail(ctx, id)
	if err != nil {
		return model.GitConnection{}, mapRepoErr(err)
	}
	return c, nil
}

// activeWithToken loads an active connection and makes sure its token is fresh.
func (uc *implUseCase) activeWithToken(ctx context.Context, id string) (model.GitConnection, provider.Strategy, error) {
	c, err := uc.load(ctx, id)
	if err != nil {
		return model.GitConnection{}, nil, err
	}
	c, err = uc.RefreshIfNeeded(ctx, c)
	if err != nil {
		return model.GitConnection{}, nil, err
	}
	strat, err := uc.registry.Get(c.Provider)
	if err != nil {
		return model.GitConnection{}, nil, err
	}
	return c, strat, nil
}

func updateOptions(c model.GitConnection) repository.UpdateOptions {
	return repository.UpdateOptions{
		ID:                 c.ID,
		UserID:             c.UserID,
		RepositoryName:     c.RepositoryName,
		RepositoryFullName: c.RepositoryFullName,
		RepositoryURL:      c.RepositoryURL,
		DefaultBranch:      c.DefaultBranch,
		WebhookID:          c.WebhookID,
		WebhookSecret:      c.WebhookSecret,
		WebhookEvents:      c.WebhookEvents,
		Active:             c.Active,
		UpdatedAt:          c.UpdatedAt,
	}
}

// describeRepository fills repository metadata from the provider. Failures are
// returned so callers can decide whether they are fatal.
func describeRepository(ctx context.Context, strat provider.Strategy, token string, c *model.GitConnection) error {
	repo, err := strat.GetRepository(ctx, token, c.RepositoryFullName)
	if err != nil {
		return err
	}
	c.RepositoryName = repo.Name
	c.RepositoryFullName = repo.FullName
	c.RepositoryURL = repo.URL
	if c.DefaultBranch == "" {
		c.DefaultBranch = repo.DefaultBranch
	}
	return nil
}

func (uc *implUseCase) webhookURL(c model.GitConnection) string {
	return strings.TrimRight(uc.opts.WebhookBaseURL, "/") + "/webhook/" + string(c.Provider) + "/" + c.ID
}

// ensureWebhook registers the provider hook when the connection has a
// repository but no hook yet. Failures are logged; the connection stays usable.
func (uc *implUseCase) ensureWebhook(ctx context.Context, strat provider.Strategy, c model.GitConnection) model.GitConnection {
	if uc.opts.WebhookBaseURL == "" || !c.HasRepository() || c.WebhookID != "" || !c.Active {
		return c
	}

	hookID, err := strat.RegisterWebhook(ctx, c.AccessToken, provider.RegisterWebhookOptions{
		FullName: c.RepositoryFullName,
		URL:      uc.webhookURL(c),
		Secret:   c.WebhookSecret,
		Events:   c.WebhookEvents,
	})
	if err != nil {
		uc.l.Warnf(ctx, "connection.usecase.ensureWebhook: connection=%s repository=%s: %v", c.ID, c.RepositoryFullName, err)
		return c
	}

	c.WebhookID = hookID
	c.UpdatedAt = uc.now()
	updated, err := uc.repo.Update(ctx, updateOptions(c))
	if err != nil {
		uc.l.Errorf(ctx, "connection.usecase.ensureWebhook.Update: connection=%s: %v", c.ID, err)
		return c
	}
	return updated
}

// removeWebhook de-registers the hook best-effort.
func (uc *implUseCase) removeWebhook(ctx context.Context, c model.GitConnection) {
	if c.WebhookID == "" || !c.HasRepository() {
		return
	}
	strat, err := uc.registry.Get(c.Provider)
	if err != nil {
		uc.l.Warnf(ctx, "connection.usecase.removeWebhook: %v", err)
		return
	}
	if err := strat.DeleteWebhook(ctx, c.AccessToken, c.RepositoryFullName, c.WebhookID); err != nil {
		uc.l.Warnf(ctx, "connection.usecase.removeWebhook: connection=%s hook=%s: %v", c.ID, c.WebhookID, err)
	}
}

func (uc *implUseCase) publish(ctx context.Context, eventType string, c model.GitConnection) {
	if uc.publisher == nil {
		return
	}
	err := uc.publisher.Publish(ctx, publisher.Event{
		Type:    eventType,
		Subject: c.ID,
		Time:    uc.now(),
		Data: map[string]any{
			"connection_id": c.ID,
			"project_id":    c.ProjectID,
			"provider":      c.Provider,
			"repository":    c.RepositoryFullName,
		},
	})
	if err != nil {
		uc.l.Warnf(ctx, "connection.usecase.publish: type=%s connection=%s: %v", eventType, c.ID, err)
	}
}
