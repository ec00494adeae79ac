package github

import (
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v81/github"

	"git-integration/internal/model"
	"git-integration/internal/provider"
)

const (
	headerEvent     = "X-GitHub-Event"
	headerDelivery  = "X-GitHub-Delivery"
	headerSignature = "X-Hub-Signature-256"
)

// VerifySignature checks the HMAC-SHA256 GitHub computed over the raw body.
// Hooks registered by this service always carry the SHA-256 header, so the
// legacy SHA-1 signature is never accepted.
func (s *strategy) VerifySignature(body []byte, headers http.Header, secret string) bool {
	if secret == "" {
		return false
	}
	sig := headers.Get(headerSignature)
	if !strings.HasPrefix(sig, "sha256=") {
		return false
	}
	return gh.ValidateSignature(sig, body, []byte(secret)) == nil
}

func (s *strategy) ParseDelivery(headers http.Header, body []byte) (provider.Delivery, error) {
	eventType := strings.TrimSpace(headers.Get(headerEvent))
	deliveryID := strings.TrimSpace(headers.Get(headerDelivery))
	if eventType == "" || deliveryID == "" {
		return provider.Delivery{}, fmt.Errorf("%w: github: missing %s or %s header", provider.ErrMalformedPayload, headerEvent, headerDelivery)
	}

	d := provider.Delivery{EventID: deliveryID, EventType: eventType, Kind: model.EventKindUnknown}
	switch eventType {
	case "push", "pull_request", "ping":
	default:
		// Stored and later ignored; unknown types are not an error.
		return d, nil
	}

	event, err := gh.ParseWebHook(eventType, body)
	if err != nil {
		return provider.Delivery{}, fmt.Errorf("%w: github %s: %v", provider.ErrMalformedPayload, eventType, err)
	}

	switch e := event.(type) {
	case *gh.PushEvent:
		d.Kind = model.EventKindPush
		d.Branch = strings.TrimPrefix(e.GetRef(), "refs/heads/")
	case *gh.PullRequestEvent:
		d.Kind = model.EventKindPullRequest
		d.PRNumber = e.GetNumber()
		d.Action = e.GetAction()
		if d.Action == "closed" && e.GetPullRequest().GetMerged() {
			d.Action = "merged"
		}
	case *gh.PingEvent:
		d.Kind = model.EventKindPing
	}
	return d, nil
}
