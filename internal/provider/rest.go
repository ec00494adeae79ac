package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 << 10

// RESTClient is a small JSON-over-HTTP helper for providers without an SDK.
type RESTClient struct {
	Provider string
	BaseURL  string
	HTTP     *http.Client
}

// Do sends a request and decodes a 2xx JSON response into out (if non-nil).
// Absolute URLs are used as-is, which is how cursor-style "next" links are followed.
func (c RESTClient) Do(ctx context.Context, op, method, path, token string, in, out any) (http.Header, error) {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = strings.TrimRight(c.BaseURL, "/") + path
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s %s: marshal request: %w", c.Provider, op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", c.Provider, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, ClassifyTransport(c.Provider, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.Header, Classify(c.Provider, op, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.Header, Malformed(c.Provider, op, err)
		}
	}
	return resp.Header, nil
}
