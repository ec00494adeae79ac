package publisher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgLog "git-integration/pkg/log"
)

func TestCloudEventsPublisher_BinaryMode(t *testing.T) {
	got := make(chan *http.Request, 1)
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		got <- r
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p, err := NewCloudEvents(srv.URL, "/git-integration", time.Second)
	if err != nil {
		t.Fatalf("NewCloudEvents() error = %v", err)
	}

	err = p.Publish(context.Background(), Event{
		Type:    "git.commits.synced",
		Subject: "conn-1",
		Data:    map[string]any{"count": 2},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	r := <-got
	if r.Header.Get("Ce-Type") != "git.commits.synced" || r.Header.Get("Ce-Subject") != "conn-1" {
		t.Errorf("headers = %v", r.Header)
	}
	if r.Header.Get("Ce-Source") != "/git-integration" || r.Header.Get("Ce-Id") == "" {
		t.Errorf("source/id headers = %v", r.Header)
	}
	if body["count"] != float64(2) {
		t.Errorf("body = %v", body)
	}
}

func TestCloudEventsPublisher_Nack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := NewCloudEvents(srv.URL, "/git-integration", time.Second)
	if err != nil {
		t.Fatalf("NewCloudEvents() error = %v", err)
	}
	if err := p.Publish(context.Background(), Event{Type: "x"}); err == nil {
		t.Error("expected error for 500 response")
	}
}

func TestLogPublisher(t *testing.T) {
	if err := NewLog(pkgLog.NewNop()).Publish(context.Background(), Event{Type: "x"}); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}
