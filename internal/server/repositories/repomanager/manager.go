// Package repomanager vends repository implementations bound to a database
// handle and exposes the schema migration hook.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/parlor-chat/parlor/internal/dbx"
	"github.com/parlor-chat/parlor/internal/server/repositories/communities"
	"github.com/parlor-chat/parlor/internal/server/repositories/invites"
	"github.com/parlor-chat/parlor/internal/server/repositories/messages"
	"github.com/parlor-chat/parlor/internal/server/repositories/reports"
	"github.com/parlor-chat/parlor/internal/server/repositories/tokens"
	"github.com/parlor-chat/parlor/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Communities(db dbx.DBTX) communities.Repository
	Messages(db dbx.DBTX) messages.Repository
	Invites(db dbx.DBTX) invites.Repository
	Reports(db dbx.DBTX) reports.Repository
}
