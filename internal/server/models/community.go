package models

import (
	"time"

	"github.com/parlor-chat/parlor/internal/wire"
)

type Community struct {
	ID          wire.CommunityID
	Name        string
	Description string
	CreatedAt   time.Time
}

type Room struct {
	ID        wire.RoomID
	Community wire.CommunityID
	Name      string
	CreatedAt time.Time
}

// Invite grants membership in a community. A nil ExpiresAt never expires.
type Invite struct {
	Code      wire.InviteCode
	Community wire.CommunityID
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Expired reports whether the invite can no longer be redeemed.
func (i *Invite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// RoomState is one viewer's read-state for one room. Unread is not stored;
// it is derived by comparing LastRead against the room's newest message id.
type RoomState struct {
	User     wire.UserID
	Room     wire.RoomID
	LastRead *wire.MessageID
}
