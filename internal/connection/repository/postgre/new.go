package postgre

import (
	"database/sql"

	"git-integration/internal/connection/repository"
	pkgLog "git-integration/pkg/log"
)

type implRepository struct {
	l  pkgLog.Logger
	db *sql.DB
}

// New returns a Postgres-backed connection Repository.
func New(l pkgLog.Logger, db *sql.DB) repository.Repository {
	return &implRepository{l: l, db: db}
}
