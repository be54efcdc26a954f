package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/server/admin"
	"github.com/parlor-chat/parlor/internal/server/chat"
	"github.com/parlor-chat/parlor/internal/server/tokens"
)

const shutdownTimeout = 5 * time.Second

// Server accepts websocket connections and runs a session per connection.
type Server struct {
	address  string
	hub      *Hub
	tokenSvc *tokens.Service
	chatSvc  *chat.Service
	adminSvc *admin.Service
	logger   logging.Logger
	upgrader websocket.Upgrader
}

func NewServer(address string, hub *Hub, tokenSvc *tokens.Service, chatSvc *chat.Service, adminSvc *admin.Service, logger logging.Logger) *Server {
	return &Server{
		address:  address,
		hub:      hub,
		tokenSvc: tokenSvc,
		chatSvc:  chatSvc,
		adminSvc: adminSvc,
		logger:   logger.With("module", "ws_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	session := newSession(s.hub, conn, s.tokenSvc, s.chatSvc, s.adminSvc, s.logger)
	s.hub.add(session)

	go session.writePump()
	go session.readPump(context.Background())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{
		Addr:    s.address,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping websocket server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "websocket server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting websocket server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
