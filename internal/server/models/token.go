package models

import (
	"time"

	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/wire"
)

// Token is one device's credential. The secret part of the token string is
// stored hashed; revocation deletes the row, so existence means
// not-revoked. Staleness and expiry are derived from the timestamps.
type Token struct {
	Device            wire.DeviceID
	User              wire.UserID
	TokenHash         string
	HashSchemeVersion auth.HashSchemeVersion
	DeviceName        *string
	CreatedAt         time.Time
	ExpiresAt         time.Time
	PermissionFlags   wire.TokenPermissionFlags
}

// Stale reports whether the token is old enough that privileged writes
// require a credential-backed refresh first.
func (t *Token) Stale(now time.Time, staleAfter time.Duration) bool {
	return now.Sub(t.CreatedAt) >= staleAfter
}

// Expired reports whether the token is past its expiry.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
