package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

const userColumns = `id, username, display_name, profile_version, password_hash, hash_scheme,
	 permission_flags, admin_permissions, banned, locked, compromised, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.DisplayName, &user.ProfileVersion,
		&user.PasswordHash, &user.HashSchemeVersion, &user.PermissionFlags,
		&user.AdminPermissions, &user.Banned, &user.Locked, &user.Compromised, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, username, display_name, password_hash, hash_scheme)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING profile_version, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.DisplayName, user.PasswordHash, user.HashSchemeVersion).
		Scan(&user.ProfileVersion, &user.CreatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "unique") {
			return nil, common.ErrDuplicate
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id wire.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id wire.UserID, hash string, scheme auth.HashSchemeVersion) error {
	query :=
		`UPDATE users SET password_hash = $2, hash_scheme = $3, compromised = FALSE
		 WHERE id = $1
		 `
	return r.exec(ctx, query, id, hash, scheme)
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, id wire.UserID, username string) (wire.ProfileVersion, error) {
	query :=
		`UPDATE users SET username = $2, profile_version = profile_version + 1
		 WHERE id = $1
		 RETURNING profile_version
		 `

	var version wire.ProfileVersion
	err := r.db.QueryRowContext(ctx, query, id, username).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		if strings.Contains(err.Error(), "unique") {
			return 0, common.ErrDuplicate
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

func (r *PostgresRepository) UpdateDisplayName(ctx context.Context, id wire.UserID, displayName string) (wire.ProfileVersion, error) {
	query :=
		`UPDATE users SET display_name = $2, profile_version = profile_version + 1
		 WHERE id = $1
		 RETURNING profile_version
		 `

	var version wire.ProfileVersion
	err := r.db.QueryRowContext(ctx, query, id, displayName).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

func (r *PostgresRepository) SetBanned(ctx context.Context, id wire.UserID, banned bool) error {
	return r.exec(ctx, `UPDATE users SET banned = $2 WHERE id = $1`, id, banned)
}

func (r *PostgresRepository) SetLocked(ctx context.Context, id wire.UserID, locked bool) error {
	return r.exec(ctx, `UPDATE users SET locked = $2 WHERE id = $1`, id, locked)
}

func (r *PostgresRepository) SetCompromised(ctx context.Context, id wire.UserID, compromised bool) error {
	return r.exec(ctx, `UPDATE users SET compromised = $2 WHERE id = $1`, id, compromised)
}

func (r *PostgresRepository) SetAllCompromised(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET compromised = TRUE WHERE NOT compromised`)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) SetLegacyHashCompromised(ctx context.Context, latest auth.HashSchemeVersion) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET compromised = TRUE WHERE hash_scheme < $1 AND NOT compromised`, latest)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func (r *PostgresRepository) SetAdminPermissions(ctx context.Context, id wire.UserID, flags wire.AdminPermissionFlags) error {
	return r.exec(ctx, `UPDATE users SET admin_permissions = $2 WHERE id = $1`, id, flags)
}

func (r *PostgresRepository) SearchByName(ctx context.Context, name string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username LIKE '%' || $1 || '%' ORDER BY username`
	return r.queryUsers(ctx, query, auth.NormalizeUsername(name))
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`
	return r.queryUsers(ctx, query)
}

func (r *PostgresRepository) ListAdmins(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE admin_permissions <> 0 ORDER BY username`
	return r.queryUsers(ctx, query)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
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

func (r *PostgresRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
