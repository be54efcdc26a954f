package models

import (
	"time"

	"github.com/parlor-chat/parlor/internal/wire"
)

// Message is one stored message. A nil Content means the message was
// deleted; the row and its id are kept so pagination cursors stay anchored.
type Message struct {
	ID        wire.MessageID
	Author    wire.UserID
	Community wire.CommunityID
	Room      wire.RoomID
	TimeSent  time.Time
	Content   *string
}

// Wire converts to the client-facing shape.
func (m *Message) Wire(authorVersion wire.ProfileVersion) wire.Message {
	return wire.Message{
		ID:                   m.ID,
		Author:               m.Author,
		AuthorProfileVersion: authorVersion,
		TimeSent:             m.TimeSent,
		Content:              m.Content,
	}
}
