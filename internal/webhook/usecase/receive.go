package usecase

import (
	"context"
	"errors"
	"strings"

	"git-integration/internal/connection"
	"git-integration/internal/model"
	"git-integration/internal/webhook"
	"git-integration/internal/webhook/repository"
)

func (uc *implUseCase) Receive(ctx context.Context, input webhook.ReceiveInput) (webhook.ReceiveOutput, error) {
	strat, err := uc.registry.Get(input.Provider)
	if err != nil {
		return webhook.ReceiveOutput{}, err
	}
	if strings.TrimSpace(input.ConnectionID) == "" {
		return webhook.ReceiveOutput{}, webhook.ErrConnectionNotFound
	}

	conn, err := uc.connUC.Get(ctx, input.ConnectionID)
	if err != nil {
		if errors.Is(err, connection.ErrConnectionNotFound) || errors.Is(err, connection.ErrInvalidInput) {
			return webhook.ReceiveOutput{}, webhook.ErrConnectionNotFound
		}
		uc.l.Errorf(ctx, "webhook.usecase.Receive.Get: %v", err)
		return webhook.ReceiveOutput{}, err
	}
	if conn.Provider != input.Provider {
		return webhook.ReceiveOutput{}, webhook.ErrConnectionNotFound
	}

	// Nothing about an unverified delivery is stored.
	if !strat.VerifySignature(input.Body, input.Headers, conn.WebhookSecret) {
		uc.l.Warnf(ctx, "webhook.usecase.Receive: bad signature for connection %s", conn.ID)
		return webhook.ReceiveOutput{}, webhook.ErrSignatureInvalid
	}
	if !conn.Active {
		return webhook.ReceiveOutput{}, connection.ErrConnectionInactive
	}

	delivery, err := strat.ParseDelivery(input.Headers, input.Body)
	if err != nil {
		uc.l.Warnf(ctx, "webhook.usecase.Receive.ParseDelivery: %v", err)
		return webhook.ReceiveOutput{}, err
	}

	now := uc.now().UTC()
	event := model.WebhookEvent{
		ID:              uc.newID(),
		ConnectionID:    conn.ID,
		Provider:        conn.Provider,
		ProviderEventID: delivery.EventID,
		EventType:       delivery.EventType,
		Kind:            delivery.Kind,
		Branch:          delivery.Branch,
		PRNumber:        delivery.PRNumber,
		Action:          delivery.Action,
		Payload:         input.Body,
		Headers:         model.SnapshotHeaders(input.Headers),
		ReceivedAt:      now,
		Status:          model.WebhookPending,
		NextAttemptAt:   now,
	}

	stored, err := uc.repo.Create(ctx, event)
	if errors.Is(err, repository.ErrDuplicate) {
		uc.l.Infof(ctx, "webhook.usecase.Receive: duplicate delivery %s on connection %s", delivery.EventID, conn.ID)
		return webhook.ReceiveOutput{EventID: stored.ID, Duplicate: true, Status: stored.Status}, nil
	}
	if err != nil {
		uc.l.Errorf(ctx, "webhook.usecase.Receive.Create: %v", err)
		return webhook.ReceiveOutput{}, err
	}

	if uc.notifier != nil {
		uc.notifier.Signal(conn.ID)
	}
	return webhook.ReceiveOutput{EventID: stored.ID, Status: stored.Status}, nil
}

func (uc *implUseCase) ListEvents(ctx context.Context, sc model.Scope, input webhook.ListEventsInput) ([]model.WebhookEvent, error) {
	if _, err := uc.connUC.Detail(ctx, sc, input.ConnectionID); err != nil {
		return nil, err
	}

	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	events, err := uc.repo.List(ctx, repository.ListOptions{
		ConnectionID: input.ConnectionID,
		Status:       input.Status,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		uc.l.Errorf(ctx, "webhook.usecase.ListEvents: %v", err)
		return nil, err
	}
	return events, nil
}
