// Package communities stores communities, their rooms, memberships and
// per-user read positions.
package communities

import (
	"context"

	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type Repository interface {
	CreateCommunity(ctx context.Context, community *models.Community) error
	GetCommunity(ctx context.Context, id wire.CommunityID) (*models.Community, error)
	UpdateName(ctx context.Context, id wire.CommunityID, name string) error
	UpdateDescription(ctx context.Context, id wire.CommunityID, description string) error

	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id wire.RoomID) (*models.Room, error)
	RoomsOf(ctx context.Context, community wire.CommunityID) ([]*models.Room, error)

	// AddMember returns ErrDuplicate when the user is already a member.
	AddMember(ctx context.Context, community wire.CommunityID, user wire.UserID) error
	IsMember(ctx context.Context, community wire.CommunityID, user wire.UserID) (bool, error)
	Members(ctx context.Context, community wire.CommunityID) ([]wire.UserID, error)
	CommunitiesOf(ctx context.Context, user wire.UserID) ([]*models.Community, error)

	// GetLastRead returns nil when the user has never read the room.
	GetLastRead(ctx context.Context, room wire.RoomID, user wire.UserID) (*wire.MessageID, error)
	SetLastRead(ctx context.Context, room wire.RoomID, user wire.UserID, id wire.MessageID) error
}
