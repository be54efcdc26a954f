// Package invites stores community invite codes.
package invites

import (
	"context"
	"time"

	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type Repository interface {
	Create(ctx context.Context, invite *models.Invite) error
	Get(ctx context.Context, code wire.InviteCode) (*models.Invite, error)
	// CountForCommunity counts codes still live at now, feeding the
	// per-community cap.
	CountForCommunity(ctx context.Context, community wire.CommunityID, now time.Time) (int, error)
}
