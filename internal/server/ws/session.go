package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/server/admin"
	"github.com/parlor-chat/parlor/internal/server/chat"
	"github.com/parlor-chat/parlor/internal/server/tokens"
	"github.com/parlor-chat/parlor/internal/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// sendQueueSize bounds the per-session outbound queue. A session that
	// cannot drain its queue is closed rather than allowed to stall the
	// broadcasting goroutine.
	sendQueueSize = 64
)

// Session is one websocket connection. It starts unauthenticated; a
// successful login binds it to a device until log_out or disconnect.
// Requests on one session are handled strictly in arrival order.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	logger logging.Logger

	tokenSvc *tokens.Service
	chatSvc  *chat.Service
	adminSvc *admin.Service

	mu       sync.Mutex
	login    *tokens.Login
	selected *wire.RoomRef

	closeOnce sync.Once
}

func newSession(hub *Hub, conn *websocket.Conn, tokenSvc *tokens.Service, chatSvc *chat.Service, adminSvc *admin.Service, logger logging.Logger) *Session {
	return &Session{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
		logger:   logger,
		tokenSvc: tokenSvc,
		chatSvc:  chatSvc,
		adminSvc: adminSvc,
	}
}

func (s *Session) loginState() *tokens.Login {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login
}

func (s *Session) setLogin(login *tokens.Login) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.login = login
	s.selected = nil
}

func (s *Session) watching(community wire.CommunityID, room wire.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected != nil && s.selected.Community == community && s.selected.Room == room
}

func (s *Session) setSelected(ref *wire.RoomRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ref
}

// enqueue queues an outbound frame. A full queue closes the session; slow
// consumers must not hold up fan-out.
func (s *Session) enqueue(msg []byte) {
	select {
	case s.send <- msg:
	default:
		s.logger.Warn(context.Background(), "session send queue full, closing")
		s.close()
	}
}

func (s *Session) respond(msg *wire.ServerMessage) {
	encoded, err := wire.EncodeServerMessage(msg)
	if err != nil {
		s.logger.Error(context.Background(), "encoding response", "error", err)
		s.close()
		return
	}
	s.enqueue(encoded)
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// readPump reads and dispatches frames sequentially, which is what gives a
// connection its strict request ordering.
func (s *Session) readPump(ctx context.Context) {
	defer func() {
		s.hub.remove(s)
		s.close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug(ctx, "session read error", "error", err)
			}
			return
		}
		s.handle(ctx, data)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
