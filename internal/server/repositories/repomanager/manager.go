package repomanager

import (
	"context"
	"database/sql"

	"github.com/mpavlovs/filestore/internal/dbx"
	"github.com/mpavlovs/filestore/internal/server/repositories/files"
	"github.com/mpavlovs/filestore/internal/server/repositories/refreshtokens"
	"github.com/mpavlovs/filestore/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Files(db dbx.DBTX) files.Repository
}
