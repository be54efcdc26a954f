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

// MemoryRepositoryManager vends in-memory repositories sharing one state.
// Unlike the Postgres manager, the DBTX argument is ignored; every call
// returns the same repository instance.
type MemoryRepositoryManager struct {
	users       *users.MemoryRepository
	tokens      *tokens.MemoryRepository
	communities *communities.MemoryRepository
	messages    *messages.MemoryRepository
	invites     *invites.MemoryRepository
	reports     *reports.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:       users.NewMemoryRepository(),
		tokens:      tokens.NewMemoryRepository(),
		communities: communities.NewMemoryRepository(),
		messages:    messages.NewMemoryRepository(),
		invites:     invites.NewMemoryRepository(),
		reports:     reports.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *MemoryRepositoryManager) Tokens(dbx.DBTX) tokens.Repository          { return m.tokens }
func (m *MemoryRepositoryManager) Communities(dbx.DBTX) communities.Repository { return m.communities }
func (m *MemoryRepositoryManager) Messages(dbx.DBTX) messages.Repository      { return m.messages }
func (m *MemoryRepositoryManager) Invites(dbx.DBTX) invites.Repository        { return m.invites }
func (m *MemoryRepositoryManager) Reports(dbx.DBTX) reports.Repository        { return m.reports }
