package provider

import (
	"net/http"
	"time"
)

// Config is shared by every strategy constructor. Empty URLs fall back to
// the provider's public SaaS endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIURL       string
	Scopes       []string
	Timeout      time.Duration
}

const defaultTimeout = 15 * time.Second

// HTTPClient returns a client whose every call is bounded by the configured timeout.
func (c Config) HTTPClient() *http.Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
