package repository

import "errors"

var (
	ErrNotFound        = errors.New("webhook event not found")
	ErrDuplicate       = errors.New("webhook event already received")
	ErrNotClaimable    = errors.New("webhook event cannot be claimed")
	ErrStaleTransition = errors.New("webhook event is no longer in the expected status")
	ErrFailedToInsert  = errors.New("failed to insert webhook event")
	ErrFailedToGet     = errors.New("failed to get webhook event")
	ErrFailedToList    = errors.New("failed to list webhook events")
	ErrFailedToUpdate  = errors.New("failed to update webhook event")
)
