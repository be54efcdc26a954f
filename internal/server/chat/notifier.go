package chat

import "github.com/parlor-chat/parlor/internal/wire"

// Notifier fans events out to live sessions. The transport layer implements
// it; a no-op implementation serves tests.
type Notifier interface {
	// BroadcastRoom delivers watching to sessions that have the room
	// selected and idle (when non-nil) to the members' other sessions.
	BroadcastRoom(community wire.CommunityID, room wire.RoomID, members []wire.UserID, watching wire.ServerEvent, idle *wire.ServerEvent)

	// BroadcastUsers delivers the event to every session of the users.
	BroadcastUsers(users []wire.UserID, event wire.ServerEvent)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) BroadcastRoom(wire.CommunityID, wire.RoomID, []wire.UserID, wire.ServerEvent, *wire.ServerEvent) {
}
func (NopNotifier) BroadcastUsers([]wire.UserID, wire.ServerEvent) {}
