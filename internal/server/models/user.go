// Package models holds the storage-level records shared by repositories and
// services.
package models

import (
	"time"

	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/wire"
)

// User is one account. Username is stored normalized (NFKC, lower-cased);
// DisplayName is free-form within configured bounds.
type User struct {
	ID                wire.UserID
	Username          string
	DisplayName       string
	ProfileVersion    wire.ProfileVersion
	PasswordHash      string
	HashSchemeVersion auth.HashSchemeVersion
	PermissionFlags   wire.TokenPermissionFlags
	AdminPermissions  wire.AdminPermissionFlags
	Banned            bool
	Locked            bool
	Compromised       bool
	CreatedAt         time.Time
}

// Profile returns the client-visible slice of the user.
func (u *User) Profile() wire.Profile {
	return wire.Profile{
		Version:     u.ProfileVersion,
		Username:    u.Username,
		DisplayName: u.DisplayName,
	}
}
