package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/dbx"
	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	query :=
		`INSERT INTO tokens (device, user_id, token_hash, hash_scheme, device_name,
		                     created_at, expires_at, permission_flags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 `

	_, err := r.db.ExecContext(ctx, query,
		token.Device, token.User, token.TokenHash, token.HashSchemeVersion,
		token.DeviceName, token.CreatedAt, token.ExpiresAt, token.PermissionFlags)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, device wire.DeviceID) (*models.Token, error) {
	query :=
		`SELECT device, user_id, token_hash, hash_scheme, device_name,
		        created_at, expires_at, permission_flags
		 FROM tokens WHERE device = $1
		 `

	token := &models.Token{}
	err := r.db.QueryRowContext(ctx, query, device).Scan(
		&token.Device, &token.User, &token.TokenHash, &token.HashSchemeVersion,
		&token.DeviceName, &token.CreatedAt, &token.ExpiresAt, &token.PermissionFlags)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) Refresh(ctx context.Context, device wire.DeviceID, hash string, scheme auth.HashSchemeVersion, createdAt, expiresAt time.Time) error {
	query :=
		`UPDATE tokens SET token_hash = $2, hash_scheme = $3, created_at = $4, expires_at = $5
		 WHERE device = $1
		 `

	res, err := r.db.ExecContext(ctx, query, device, hash, scheme, createdAt, expiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, device wire.DeviceID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE device = $1`, device)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, user wire.UserID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = $1`, user)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
