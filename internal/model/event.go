package model

import (
	"net/http"
	"time"
)

// WebhookStatus is the processing state of a stored delivery.
type WebhookStatus string

const (
	WebhookPending    WebhookStatus = "PENDING"
	WebhookProcessing WebhookStatus = "PROCESSING"
	WebhookProcessed  WebhookStatus = "PROCESSED"
	WebhookFailed     WebhookStatus = "FAILED"
	WebhookIgnored    WebhookStatus = "IGNORED"
)

// transitions lists every allowed status change. FAILED → PENDING is further
// gated by the retry budget, which the model cannot see.
var transitions = map[WebhookStatus][]WebhookStatus{
	WebhookPending:    {WebhookProcessing, WebhookIgnored},
	WebhookProcessing: {WebhookProcessed, WebhookFailed, WebhookPending},
	WebhookFailed:     {WebhookPending},
}

// CanTransition reports whether from → to is a legal status change.
// PROCESSING → PENDING covers both a transient failure that still has
// retries left and crash recovery of an abandoned claim.
func CanTransition(from, to WebhookStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is expected.
func (s WebhookStatus) Terminal() bool {
	return s == WebhookProcessed || s == WebhookIgnored || s == WebhookFailed
}

// WebhookEvent is one stored inbound delivery. Records are never deleted.
type WebhookEvent struct {
	ID              string
	ConnectionID    string
	Provider        Provider
	ProviderEventID string
	EventType       string
	// Kind, Branch, PRNumber and Action are extracted at ingest so the
	// processor does not re-parse the payload.
	Kind     EventKind
	Branch   string
	PRNumber int
	Action   string

	Payload    []byte
	Headers    http.Header
	ReceivedAt time.Time
	// Sequence orders deliveries of one connection by receipt.
	Sequence             int64
	ProcessedAt          time.Time
	Status               WebhookStatus
	ErrorMessage         string
	RetryCount           int
	LastRetryAt          time.Time
	NextAttemptAt        time.Time
	ProcessingDurationMs int64
}

// Due reports whether a pending event may be picked up at now.
func (e WebhookEvent) Due(now time.Time) bool {
	return e.Status == WebhookPending && !e.NextAttemptAt.After(now)
}

// snapshotHeaders are kept with each event; everything else is dropped so
// authorization material never lands in storage.
var snapshotHeaders = []string{
	"Content-Type",
	"User-Agent",
	"X-GitHub-Event",
	"X-GitHub-Delivery",
	"X-GitHub-Hook-ID",
	"X-Gitlab-Event",
	"X-Gitlab-Event-UUID",
	"X-Gitlab-Webhook-UUID",
	"X-Gitlab-Instance",
	"X-Event-Key",
	"X-Request-UUID",
	"X-Hook-UUID",
	"X-Attempt-Number",
}

// SnapshotHeaders copies the headers worth auditing.
func SnapshotHeaders(h http.Header) http.Header {
	out := make(http.Header)
	for _, name := range snapshotHeaders {
		if v := h.Values(name); len(v) > 0 {
			out[http.CanonicalHeaderKey(name)] = append([]string(nil), v...)
		}
	}
	return out
}
