package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"git-integration/internal/model"
)

type namedStrategy struct {
	Strategy
	name model.Provider
}

func (s namedStrategy) Name() model.Provider { return s.name }

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(namedStrategy{name: model.ProviderGitLab}, namedStrategy{name: model.ProviderGitHub})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if _, err := r.Get(model.ProviderGitHub); err != nil {
		t.Errorf("Get(github) error = %v", err)
	}
	if _, err := r.Get("svn"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Get(svn) error = %v, want ErrUnknownProvider", err)
	}

	got := r.Providers()
	if len(got) != 2 || got[0] != model.ProviderGitHub || got[1] != model.ProviderGitLab {
		t.Errorf("Providers() = %v", got)
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(namedStrategy{name: model.ProviderGitHub}, namedStrategy{name: model.ProviderGitHub})
	if err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		status    int
		want      error
		transient bool
	}{
		{http.StatusTooManyRequests, ErrRateLimited, true},
		{http.StatusInternalServerError, ErrTransient, true},
		{http.StatusGatewayTimeout, ErrTransient, true},
		{http.StatusRequestTimeout, ErrTransient, true},
		{http.StatusNotFound, ErrPermanent, false},
		{http.StatusUnauthorized, ErrPermanent, false},
		{http.StatusUnprocessableEntity, ErrPermanent, false},
	}
	for _, tt := range tests {
		err := Classify("github", "op", tt.status, "body")
		if !errors.Is(err, tt.want) {
			t.Errorf("Classify(%d) = %v, want %v", tt.status, err, tt.want)
		}
		if IsTransient(err) != tt.transient {
			t.Errorf("IsTransient(%d) = %v, want %v", tt.status, IsTransient(err), tt.transient)
		}
		if StatusCode(err) != tt.status {
			t.Errorf("StatusCode(%d) = %d", tt.status, StatusCode(err))
		}
	}
}

func TestClassifyTransport(t *testing.T) {
	if err := ClassifyTransport("gitlab", "op", nil); err != nil {
		t.Errorf("nil error classified as %v", err)
	}
	if err := ClassifyTransport("gitlab", "op", fmt.Errorf("dial: %w", context.Canceled)); !errors.Is(err, context.Canceled) || IsTransient(err) {
		t.Errorf("cancellation must pass through unclassified, got %v", err)
	}
	if err := ClassifyTransport("gitlab", "op", errors.New("connection reset")); !errors.Is(err, ErrTransient) {
		t.Errorf("network error = %v, want ErrTransient", err)
	}
}
