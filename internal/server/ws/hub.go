// Package ws is the websocket transport: one goroutine pair per connection,
// a hub tracking live sessions for targeted fan-out, and the dispatch from
// decoded envelopes to the auth, chat and admin services.
package ws

import (
	"context"
	"sync"

	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/wire"
)

// Hub tracks live sessions. A session appears in the user and device indexes
// only while logged in; one device can hold at most one live session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	byUser   map[wire.UserID]map[*Session]struct{}
	byDevice map[wire.DeviceID]*Session
	logger   logging.Logger
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		sessions: make(map[*Session]struct{}),
		byUser:   make(map[wire.UserID]map[*Session]struct{}),
		byDevice: make(map[wire.DeviceID]*Session),
		logger:   logger,
	}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, s)
	h.unbindLocked(s)
}

// bind registers a logged-in session under its user and device. It fails
// when the device already has a live session; a token may be used by one
// connection at a time.
func (h *Hub) bind(s *Session, user wire.UserID, device wire.DeviceID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, inUse := h.byDevice[device]; inUse {
		return false
	}
	h.byDevice[device] = s
	if h.byUser[user] == nil {
		h.byUser[user] = make(map[*Session]struct{})
	}
	h.byUser[user][s] = struct{}{}
	return true
}

// unbind removes the session's login registration, keeping the connection
// itself registered. Used on log_out.
func (h *Hub) unbind(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unbindLocked(s)
}

func (h *Hub) unbindLocked(s *Session) {
	login := s.loginState()
	if login == nil {
		return
	}
	delete(h.byDevice, login.Token.Device)
	if set := h.byUser[login.User.ID]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.byUser, login.User.ID)
		}
	}
}

// BroadcastRoom delivers watching to the member sessions that have the room
// selected and idle (when non-nil) to their other sessions.
func (h *Hub) BroadcastRoom(community wire.CommunityID, room wire.RoomID, members []wire.UserID, watching wire.ServerEvent, idle *wire.ServerEvent) {
	watchingMsg, err := wire.EncodeServerMessage(wire.Event(watching))
	if err != nil {
		h.logger.Error(context.Background(), "encoding room event", "error", err)
		return
	}
	var idleMsg []byte
	if idle != nil {
		idleMsg, err = wire.EncodeServerMessage(wire.Event(*idle))
		if err != nil {
			h.logger.Error(context.Background(), "encoding room event", "error", err)
			return
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, member := range members {
		for s := range h.byUser[member] {
			if s.watching(community, room) {
				s.enqueue(watchingMsg)
			} else if idleMsg != nil {
				s.enqueue(idleMsg)
			}
		}
	}
}

// BroadcastUsers delivers the event to every session of the users.
func (h *Hub) BroadcastUsers(users []wire.UserID, event wire.ServerEvent) {
	msg, err := wire.EncodeServerMessage(wire.Event(event))
	if err != nil {
		h.logger.Error(context.Background(), "encoding event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, user := range users {
		for s := range h.byUser[user] {
			s.enqueue(msg)
		}
	}
}

// KickUser pushes the event to the user's sessions and closes them.
func (h *Hub) KickUser(user wire.UserID, event wire.ServerEvent) {
	msg, err := wire.EncodeServerMessage(wire.Event(event))
	if err != nil {
		h.logger.Error(context.Background(), "encoding kick event", "error", err)
	}

	h.mu.Lock()
	var kicked []*Session
	for s := range h.byUser[user] {
		kicked = append(kicked, s)
	}
	h.mu.Unlock()

	for _, s := range kicked {
		if msg != nil {
			s.enqueue(msg)
		}
		s.close()
	}
}
