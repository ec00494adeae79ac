package bitbucket

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

const (
	headerSignature = "X-Hub-Signature"
	headerEvent     = "X-Event-Key"
	headerRequestID = "X-Request-UUID"
)

// VerifySignature checks the "sha256=<hex>" HMAC Bitbucket sends for hooks
// created with a secret.
func (s *strategy) VerifySignature(body []byte, headers http.Header, secret string) bool {
	sig, ok := strings.CutPrefix(headers.Get(headerSignature), "sha256=")
	if !ok || secret == "" {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

func (s *strategy) ParseDelivery(headers http.Header, body []byte) (provider.Delivery, error) {
	eventKey := strings.TrimSpace(headers.Get(headerEvent))
	eventID := strings.TrimSpace(headers.Get(headerRequestID))
	if eventKey == "" || eventID == "" {
		return provider.Delivery{}, fmt.Errorf("%w: bitbucket: missing %s or %s header", provider.ErrMalformedPayload, headerEvent, headerRequestID)
	}

	d := provider.Delivery{EventID: eventID, EventType: eventKey, Kind: model.EventKindUnknown}
	switch {
	case eventKey == "diagnostics:ping":
		d.Kind = model.EventKindPing

	case eventKey == "repo:push":
		var event struct {
			Push struct {
				Changes []struct {
					New *struct {
						Type string `json:"type"`
						Name string `json:"name"`
					} `json:"new"`
				} `json:"changes"`
			} `json:"push"`
		}
		if err := json.Unmarshal(body, &event); err != nil {
			return provider.Delivery{}, fmt.Errorf("%w: bitbucket push: %v", provider.ErrMalformedPayload, err)
		}
		d.Kind = model.EventKindPush
		for _, c := range event.Push.Changes {
			if c.New != nil && c.New.Type == "branch" {
				d.Branch = c.New.Name
				break
			}
		}

	case strings.HasPrefix(eventKey, "pullrequest:"):
		var event struct {
			PullRequest struct {
				ID int `json:"id"`
			} `json:"pullrequest"`
		}
		if err := json.Unmarshal(body, &event); err != nil {
			return provider.Delivery{}, fmt.Errorf("%w: bitbucket pull request: %v", provider.ErrMalformedPayload, err)
		}
		d.Kind = model.EventKindPullRequest
		d.PRNumber = event.PullRequest.ID
		d.Action = strings.TrimPrefix(eventKey, "pullrequest:")
		if d.Action == "fulfilled" {
			d.Action = "merged"
		}
	}
	return d, nil
}
