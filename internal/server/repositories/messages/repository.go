// Package messages stores room messages and serves pagination windows over
// them. Message ids are globally monotone ordinals assigned on insert, so id
// order is send order and ids work directly as cursors.
package messages

import (
	"context"

	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type Repository interface {
	// Insert assigns the message its ordinal and timestamp.
	Insert(ctx context.Context, message *models.Message) error
	Get(ctx context.Context, id wire.MessageID) (*models.Message, error)
	UpdateContent(ctx context.Context, id wire.MessageID, content string) error
	// MarkDeleted clears the content but keeps the row so the id stays a
	// valid pagination anchor.
	MarkDeleted(ctx context.Context, id wire.MessageID) error

	// Before returns the newest count messages older than the bound, in
	// ascending id order. After returns the oldest count messages newer
	// than the bound, ascending. Inclusive bounds include the anchor.
	Before(ctx context.Context, room wire.RoomID, bound wire.MessageID, inclusive bool, count int) ([]*models.Message, error)
	After(ctx context.Context, room wire.RoomID, bound wire.MessageID, inclusive bool, count int) ([]*models.Message, error)

	// NewestAfter returns the newest count messages with id greater than
	// after (all messages when after is nil), ascending. The window may
	// have a gap relative to after when more than count messages arrived.
	NewestAfter(ctx context.Context, room wire.RoomID, after *wire.MessageID, count int) ([]*models.Message, error)

	// NewestID returns nil for an empty room.
	NewestID(ctx context.Context, room wire.RoomID) (*wire.MessageID, error)
	// HasAfter reports whether the room holds messages newer than the read
	// position (any messages at all when after is nil).
	HasAfter(ctx context.Context, room wire.RoomID, after *wire.MessageID) (bool, error)
}
