// Package users stores user accounts.
package users

import (
	"context"

	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id wire.UserID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdatePassword also clears the compromised flag: a fresh password on
	// the latest scheme resolves the compromise.
	UpdatePassword(ctx context.Context, id wire.UserID, hash string, scheme auth.HashSchemeVersion) error
	// UpdateUsername and UpdateDisplayName bump the profile version and
	// return the new value.
	UpdateUsername(ctx context.Context, id wire.UserID, username string) (wire.ProfileVersion, error)
	UpdateDisplayName(ctx context.Context, id wire.UserID, displayName string) (wire.ProfileVersion, error)

	SetBanned(ctx context.Context, id wire.UserID, banned bool) error
	SetLocked(ctx context.Context, id wire.UserID, locked bool) error
	SetCompromised(ctx context.Context, id wire.UserID, compromised bool) error
	SetAllCompromised(ctx context.Context) (int64, error)
	// SetLegacyHashCompromised flags accounts whose stored hash predates
	// the given scheme.
	SetLegacyHashCompromised(ctx context.Context, latest auth.HashSchemeVersion) (int64, error)
	SetAdminPermissions(ctx context.Context, id wire.UserID, flags wire.AdminPermissionFlags) error

	// SearchByName returns users whose normalized username contains name,
	// case-insensitively.
	SearchByName(ctx context.Context, name string) ([]*models.User, error)
	ListAll(ctx context.Context) ([]*models.User, error)
	ListAdmins(ctx context.Context) ([]*models.User, error)
}
