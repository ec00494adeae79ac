package publisher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/google/uuid"
)

type cloudEventsPublisher struct {
	client cloudevents.Client
	source string
}

// NewCloudEvents publishes binary-mode CloudEvents over HTTP POST to target.
func NewCloudEvents(target, source string, timeout time.Duration) (Publisher, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	p, err := cehttp.New(
		cehttp.WithTarget(target),
		cehttp.WithClient(http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("publisher: cloudevents protocol: %w", err)
	}
	c, err := cloudevents.NewClient(p)
	if err != nil {
		return nil, fmt.Errorf("publisher: cloudevents client: %w", err)
	}
	return &cloudEventsPublisher{client: c, source: source}, nil
}

func (p *cloudEventsPublisher) Publish(ctx context.Context, e Event) error {
	ce, err := toCloudEvent(p.source, e)
	if err != nil {
		return err
	}
	if res := p.client.Send(ctx, ce); !cloudevents.IsACK(res) {
		return fmt.Errorf("publisher: send %s: %w", e.Type, res)
	}
	return nil
}

func toCloudEvent(source string, e Event) (cloudevents.Event, error) {
	ce := cloudevents.NewEvent()
	ce.SetID(uuid.NewString())
	ce.SetSource(source)
	ce.SetType(e.Type)
	if e.Subject != "" {
		ce.SetSubject(e.Subject)
	}
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	ce.SetTime(at.UTC())
	if err := ce.SetData(cloudevents.ApplicationJSON, e.Data); err != nil {
		return cloudevents.Event{}, fmt.Errorf("publisher: encode %s: %w", e.Type, err)
	}
	return ce, nil
}
