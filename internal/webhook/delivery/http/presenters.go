package http

import (
	"git-integration/internal/model"
	"git-integration/internal/webhook"
	"git-integration/pkg/response"
)

type receiveResp struct {
	EventID   string `json:"event_id"`
	Duplicate bool   `json:"duplicate"`
	Status    string `json:"status"`
}

func newReceiveResp(o webhook.ReceiveOutput) receiveResp {
	return receiveResp{EventID: o.EventID, Duplicate: o.Duplicate, Status: string(o.Status)}
}

type listEventsReq struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func (r listEventsReq) toInput(connectionID string) webhook.ListEventsInput {
	return webhook.ListEventsInput{
		ConnectionID: connectionID,
		Status:       model.WebhookStatus(r.Status),
		Limit:        r.Limit,
		Offset:       r.Offset,
	}
}

type eventResp struct {
	ID              string            `json:"id"`
	ConnectionID    string            `json:"connection_id"`
	Provider        string            `json:"provider"`
	ProviderEventID string            `json:"provider_event_id"`
	EventType       string            `json:"event_type"`
	Kind            string            `json:"kind"`
	Branch          string            `json:"branch,omitempty"`
	PRNumber        int               `json:"pr_number,omitempty"`
	Status          string            `json:"status"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	RetryCount      int               `json:"retry_count"`
	ReceivedAt      response.DateTime `json:"received_at"`
	ProcessedAt     response.DateTime `json:"processed_at"`
	LastRetryAt     response.DateTime `json:"last_retry_at"`
	NextAttemptAt   response.DateTime `json:"next_attempt_at"`
	DurationMs      int64             `json:"processing_duration_ms"`
}

func newEventResp(e model.WebhookEvent) eventResp {
	return eventResp{
		ID:              e.ID,
		ConnectionID:    e.ConnectionID,
		Provider:        string(e.Provider),
		ProviderEventID: e.ProviderEventID,
		EventType:       e.EventType,
		Kind:            string(e.Kind),
		Branch:          e.Branch,
		PRNumber:        e.PRNumber,
		Status:          string(e.Status),
		ErrorMessage:    e.ErrorMessage,
		RetryCount:      e.RetryCount,
		ReceivedAt:      response.DateTime(e.ReceivedAt),
		ProcessedAt:     response.DateTime(e.ProcessedAt),
		LastRetryAt:     response.DateTime(e.LastRetryAt),
		NextAttemptAt:   response.DateTime(e.NextAttemptAt),
		DurationMs:      e.ProcessingDurationMs,
	}
}

func newEventListResp(events []model.WebhookEvent) []eventResp {
	out := make([]eventResp, 0, len(events))
	for _, e := range events {
		out = append(out, newEventResp(e))
	}
	return out
}
