package postgre

import (
	"database/sql"

	"git-integration/internal/sync/repository"
	pkgLog "git-integration/pkg/log"
)

type implRepository struct {
	l  pkgLog.Logger
	db *sql.DB
}

// New returns a Postgres-backed sync Repository.
func New(l pkgLog.Logger, db *sql.DB) repository.Repository {
	return &implRepository{l: l, db: db}
}
