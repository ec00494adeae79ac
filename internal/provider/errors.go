package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrTransient          = errors.New("transient provider error")
	ErrPermanent          = errors.New("permanent provider error")
	ErrRateLimited        = errors.New("provider rate limited")
	ErrAuthExchangeFailed = errors.New("authorization code exchange failed")
	ErrRefreshRevoked     = errors.New("refresh token revoked")
	ErrMalformedPayload   = errors.New("malformed webhook payload")
)

// Error is a classified failure of one provider call.
type Error struct {
	Provider   string
	Op         string
	StatusCode int
	Message    string
	kind       error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Provider, e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Message)
}

// Unwrap exposes the classification sentinel, so errors.Is(err, ErrTransient) works.
func (e *Error) Unwrap() error { return e.kind }

// Classify turns a non-2xx status into a classified error.
// 429 and 5xx are transient, everything else in 4xx is permanent.
func Classify(provider, op string, statusCode int, body string) error {
	kind := ErrPermanent
	switch {
	case statusCode == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case statusCode >= 500, statusCode == http.StatusRequestTimeout:
		kind = ErrTransient
	}
	return &Error{Provider: provider, Op: op, StatusCode: statusCode, Message: body, kind: kind}
}

// ClassifyTransport classifies an error returned before any response arrived.
// Network failures and client timeouts are transient. Context cancellation is
// returned unchanged so shutdown is not mistaken for provider trouble.
func ClassifyTransport(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &Error{Provider: provider, Op: op, Message: err.Error(), kind: ErrTransient}
}

// Malformed wraps a decoding failure of a provider response or payload.
func Malformed(provider, op string, err error) error {
	return &Error{Provider: provider, Op: op, Message: err.Error(), kind: ErrPermanent}
}

// IsTransient reports whether a retry may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}

// StatusCode extracts the HTTP status of a classified error, or 0.
func StatusCode(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}
