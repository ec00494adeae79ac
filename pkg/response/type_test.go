package response_test

import (
	"encoding/json"
	"testing"
	"time"

	"git-integration/pkg/response"
)

func TestDateTimeMarshalJSON(t *testing.T) {
	tm := time.Date(2024, 5, 1, 15, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	dt := response.DateTime(tm)

	b, err := json.Marshal(dt)
	if err != nil {
		t.Fatalf("unexpected error marshaling DateTime: %v", err)
	}

	if got, want := string(b), `"2024-05-01T08:30:00Z"`; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestDateTimeMarshalJSON_Zero(t *testing.T) {
	b, err := json.Marshal(response.DateTime(time.Time{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "null" {
		t.Errorf("expected null for zero time, got %s", b)
	}
}
