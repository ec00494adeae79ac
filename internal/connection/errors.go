package connection

import "errors"

var (
	ErrInvalidOrExpiredState = errors.New("invalid or expired oauth state")
	ErrConnectionNotFound    = errors.New("connection not found")
	ErrConnectionInactive    = errors.New("connection is inactive")
	ErrAlreadyExists         = errors.New("connection already exists for this repository")
	ErrRepositoryRequired    = errors.New("connection has no repository")
	ErrInvalidInput          = errors.New("invalid input")
)
