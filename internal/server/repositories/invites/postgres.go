package invites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/dbx"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, invite *models.Invite) error {
	query :=
		`INSERT INTO invites (code, community, expires_at)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		invite.Code, invite.Community, invite.ExpiresAt).Scan(&invite.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, code wire.InviteCode) (*models.Invite, error) {
	query := `SELECT code, community, expires_at, created_at FROM invites WHERE code = $1`

	invite := &models.Invite{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&invite.Code, &invite.Community, &invite.ExpiresAt, &invite.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return invite, nil
}

func (r *PostgresRepository) CountForCommunity(ctx context.Context, community wire.CommunityID, now time.Time) (int, error) {
	query := `SELECT count(*) FROM invites WHERE community = $1 AND (expires_at IS NULL OR expires_at > $2)`

	var count int
	if err := r.db.QueryRowContext(ctx, query, community, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
