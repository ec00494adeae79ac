package repository

import "errors"

var (
	ErrNotFound        = errors.New("connection not found")
	ErrDuplicate       = errors.New("connection already exists")
	ErrVersionConflict = errors.New("token version changed concurrently")
	ErrFailedToInsert  = errors.New("failed to insert connection")
	ErrFailedToGet     = errors.New("failed to get connection")
	ErrFailedToList    = errors.New("failed to list connections")
	ErrFailedToUpdate  = errors.New("failed to update connection")
	ErrFailedToDelete  = errors.New("failed to delete connection")
)
