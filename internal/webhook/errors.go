package webhook

import "errors"

var (
	ErrSignatureInvalid   = errors.New("webhook signature verification failed")
	ErrConnectionNotFound = errors.New("webhook target connection not found")
)
