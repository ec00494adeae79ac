package webhook

import (
	"net/http"

	"git-integration/internal/model"
)

type ReceiveInput struct {
	Provider     model.Provider
	ConnectionID string
	Headers      http.Header
	Body         []byte
}

type ReceiveOutput struct {
	EventID string
	// Duplicate is true when the delivery had been accepted before.
	Duplicate bool
	Status    model.WebhookStatus
}

type ListEventsInput struct {
	ConnectionID string
	Status       model.WebhookStatus
	Limit        int
	Offset       int
}
