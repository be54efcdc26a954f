// Package tokens stores per-device authentication tokens. A token row's
// existence means the token is not revoked; staleness and expiry are derived
// from its timestamps.
package tokens

import (
	"context"
	"time"

	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type Repository interface {
	Create(ctx context.Context, token *models.Token) error
	Get(ctx context.Context, device wire.DeviceID) (*models.Token, error)

	// Refresh replaces the stored hash and restarts the stale/expiry clocks
	// for an existing device.
	Refresh(ctx context.Context, device wire.DeviceID, hash string, scheme auth.HashSchemeVersion, createdAt, expiresAt time.Time) error

	// Delete revokes one device's token. Deleting an absent row is not an
	// error; revocation is idempotent.
	Delete(ctx context.Context, device wire.DeviceID) error
	DeleteAllForUser(ctx context.Context, user wire.UserID) (int64, error)

	// DeleteExpired removes rows whose expiry has passed at execution time
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
