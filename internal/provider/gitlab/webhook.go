package gitlab

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

const (
	headerToken = "X-Gitlab-Token"
	headerEvent = "X-Gitlab-Event"
	headerUUID  = "X-Gitlab-Event-UUID"
)

// VerifySignature compares the shared secret GitLab echoes back in a header.
// GitLab does not sign the body, so the body is not consulted.
func (s *strategy) VerifySignature(_ []byte, headers http.Header, secret string) bool {
	token := headers.Get(headerToken)
	if secret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func (s *strategy) ParseDelivery(headers http.Header, body []byte) (provider.Delivery, error) {
	eventType := strings.TrimSpace(headers.Get(headerEvent))
	eventID := strings.TrimSpace(headers.Get(headerUUID))
	if eventType == "" || eventID == "" {
		return provider.Delivery{}, fmt.Errorf("%w: gitlab: missing %s or %s header", provider.ErrMalformedPayload, headerEvent, headerUUID)
	}

	d := provider.Delivery{EventID: eventID, EventType: eventType, Kind: model.EventKindUnknown}
	switch eventType {
	case "Push Hook":
		var event struct {
			ObjectKind string `json:"object_kind"`
			Ref        string `json:"ref"`
		}
		if err := json.Unmarshal(body, &event); err != nil {
			return provider.Delivery{}, fmt.Errorf("%w: gitlab push: %v", provider.ErrMalformedPayload, err)
		}
		d.Kind = model.EventKindPush
		d.Branch = strings.TrimPrefix(event.Ref, "refs/heads/")

	case "Merge Request Hook":
		var event struct {
			ObjectAttributes struct {
				IID    int    `json:"iid"`
				State  string `json:"state"`
				Action string `json:"action"`
			} `json:"object_attributes"`
		}
		if err := json.Unmarshal(body, &event); err != nil {
			return provider.Delivery{}, fmt.Errorf("%w: gitlab merge request: %v", provider.ErrMalformedPayload, err)
		}
		d.Kind = model.EventKindPullRequest
		d.PRNumber = event.ObjectAttributes.IID
		d.Action = event.ObjectAttributes.Action
		if d.Action == "merge" {
			d.Action = "merged"
		}
	}
	return d, nil
}
