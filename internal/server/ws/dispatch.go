package ws

import (
	"context"
	"errors"

	"github.com/parlor-chat/parlor/internal/server/admin"
	"github.com/parlor-chat/parlor/internal/server/chat"
	"github.com/parlor-chat/parlor/internal/wire"
)

// handle decodes and answers one client frame. It runs on the read goroutine,
// so requests on a connection are processed one at a time, in order.
func (s *Session) handle(ctx context.Context, data []byte) {
	env, err := wire.DecodeClientEnvelope(data)
	if err != nil {
		s.reject(env, err)
		return
	}

	switch {
	case env.Auth != nil:
		s.handleAuth(ctx, env.ID, env.Auth)
	case env.Active != nil:
		s.handleActive(ctx, env.ID, env.Active)
	case env.Admin != nil:
		s.handleAdmin(ctx, env.ID, env.Admin)
	}
}

// reject answers an envelope that failed decoding or validation. When the
// bytes decoded, the request id is still usable and the client gets a
// correlated unknown-request error; otherwise all we can say is that the
// frame was malformed.
func (s *Session) reject(env *wire.ClientEnvelope, err error) {
	if env == nil || !errors.Is(err, wire.ErrUnknownEnvelope) {
		s.respond(wire.Malformed())
		return
	}
	if env.Auth != nil {
		s.respond(wire.AuthErrResponse(env.ID, wire.AuthUnknownRequest))
		return
	}
	s.respond(wire.ResponseErr(env.ID, wire.ErrUnknownRequest))
}

// authWireError collapses service failures to the closed auth error set.
func authWireError(err error) wire.AuthError {
	var ae wire.AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return wire.AuthInternal
}

// wireError collapses service failures to the closed active/admin error set.
func wireError(err error) wire.ErrResponse {
	var we wire.ErrResponse
	if errors.As(err, &we) {
		return we
	}
	return wire.ErrInternal
}

func (s *Session) handleAuth(ctx context.Context, id wire.RequestID, req *wire.AuthRequest) {
	if s.loginState() != nil {
		s.respond(wire.AuthErrResponse(id, wire.AuthWrongEndpoint))
		return
	}

	var (
		ok  wire.AuthOk
		err error
	)
	switch {
	case req.CreateToken != nil:
		var token *wire.NewToken
		token, err = s.tokenSvc.CreateToken(ctx, req.CreateToken.Credentials, req.CreateToken.Options)
		ok.Token = token
	case req.RefreshToken != nil:
		var token *wire.NewToken
		token, err = s.tokenSvc.RefreshToken(ctx, req.RefreshToken.Credentials, req.RefreshToken.Device)
		ok.Token = token
	case req.RevokeToken != nil:
		err = s.tokenSvc.RevokeToken(ctx, req.RevokeToken.Credentials, req.RevokeToken.Device)
		ok.NoData = &wire.Unit{}
	case req.RegisterUser != nil:
		var user wire.UserID
		user, err = s.tokenSvc.RegisterUser(ctx, req.RegisterUser.Credentials, req.RegisterUser.DisplayName)
		ok.User = &user
	case req.ChangePassword != nil:
		err = s.tokenSvc.ChangePassword(ctx, req.ChangePassword.Username, req.ChangePassword.OldPassword, req.ChangePassword.NewPassword)
		ok.NoData = &wire.Unit{}
	case req.Login != nil:
		s.handleLogin(ctx, id, req.Login)
		return
	}

	if err != nil {
		ae := authWireError(err)
		if ae == wire.AuthInternal {
			s.logger.Error(ctx, "auth request failed", "error", err)
		}
		s.respond(wire.AuthErrResponse(id, ae))
		return
	}
	s.respond(wire.AuthOkResponse(id, ok))
}

// handleLogin binds the session to a device. The token-in-use check lives
// here rather than in the service because it is a property of live
// connections, not of stored state.
func (s *Session) handleLogin(ctx context.Context, id wire.RequestID, req *wire.Login) {
	login, err := s.tokenSvc.Login(ctx, req.Device, req.Token)
	if err != nil {
		ae := authWireError(err)
		if ae == wire.AuthInternal {
			s.logger.Error(ctx, "login failed", "error", err)
		}
		s.respond(wire.AuthErrResponse(id, ae))
		return
	}
	if !s.hub.bind(s, login.User.ID, login.Token.Device) {
		s.respond(wire.AuthErrResponse(id, wire.AuthTokenInUse))
		return
	}
	s.setLogin(login)
	s.respond(wire.AuthOkResponse(id, wire.AuthOk{NoData: &wire.Unit{}}))

	ready, err := s.chatSvc.ClientReady(ctx, login.User, login.Token)
	if err != nil {
		s.logger.Error(ctx, "building client_ready", "error", err, "user", login.User.ID)
		return
	}
	s.respond(wire.Event(wire.ServerEvent{ClientReady: ready}))
}

// actor rebuilds the caller's state for one request. The account row is
// re-read so a password or permission change on another connection takes
// effect here immediately; staleness is recomputed because it is a function
// of the current time.
func (s *Session) actor(ctx context.Context, id wire.RequestID) (*chat.Actor, bool) {
	login := s.loginState()
	if login == nil {
		s.respond(wire.ResponseErr(id, wire.ErrLoggedOut))
		return nil, false
	}
	if err := s.tokenSvc.ReloadUser(ctx, login); err != nil {
		s.logger.Error(ctx, "reloading session user", "error", err)
		s.respond(wire.ResponseErr(id, wire.ErrInternal))
		return nil, false
	}
	// A ban or lock lands on the very next request, not on the next login.
	if login.User.Banned {
		s.respond(wire.ResponseErr(id, wire.ErrUserBanned))
		return nil, false
	}
	if login.User.Locked {
		s.respond(wire.ResponseErr(id, wire.ErrAccessDenied))
		return nil, false
	}
	return &chat.Actor{
		User:  login.User,
		Token: login.Token,
		Stale: s.tokenSvc.Stale(login.Token),
	}, true
}

func (s *Session) handleActive(ctx context.Context, id wire.RequestID, req *wire.ActiveRequest) {
	actor, ok := s.actor(ctx, id)
	if !ok {
		return
	}

	// Session-state requests are handled at the transport.
	switch {
	case req.LogOut != nil:
		s.hub.unbind(s)
		s.setLogin(nil)
		s.respond(wire.ResponseOk(id, wire.OkResponse{NoData: &wire.Unit{}}))
		return
	case req.SelectRoom != nil:
		room, err := s.chatSvc.SelectRoom(ctx, actor, req.SelectRoom)
		if err != nil {
			s.respondErr(ctx, id, err)
			return
		}
		s.setSelected(&wire.RoomRef{Community: room.Community, Room: room.ID})
		s.respond(wire.ResponseOk(id, wire.OkResponse{NoData: &wire.Unit{}}))
		return
	case req.DeselectRoom != nil:
		s.setSelected(nil)
		s.respond(wire.ResponseOk(id, wire.OkResponse{NoData: &wire.Unit{}}))
		return
	}

	var (
		res wire.OkResponse
		err error
	)
	switch {
	case req.SendMessage != nil:
		res.ConfirmMessage, err = s.chatSvc.SendMessage(ctx, actor, req.SendMessage)
	case req.EditMessage != nil:
		err = s.chatSvc.EditMessage(ctx, actor, req.EditMessage)
		res.NoData = &wire.Unit{}
	case req.DeleteMessage != nil:
		err = s.chatSvc.DeleteMessage(ctx, actor, req.DeleteMessage)
		res.NoData = &wire.Unit{}
	case req.GetRoomUpdate != nil:
		res.RoomUpdate, err = s.chatSvc.GetRoomUpdate(ctx, actor, req.GetRoomUpdate)
	case req.GetMessages != nil:
		res.MessageHistory, err = s.chatSvc.GetMessages(ctx, actor, req.GetMessages)
	case req.SetAsRead != nil:
		err = s.chatSvc.SetAsRead(ctx, actor, req.SetAsRead)
		res.NoData = &wire.Unit{}
	case req.CreateCommunity != nil:
		res.AddCommunity, err = s.chatSvc.CreateCommunity(ctx, actor, req.CreateCommunity)
	case req.CreateRoom != nil:
		res.AddRoom, err = s.chatSvc.CreateRoom(ctx, actor, req.CreateRoom)
	case req.CreateInvite != nil:
		res.NewInvite, err = s.chatSvc.CreateInvite(ctx, actor, req.CreateInvite)
	case req.JoinCommunity != nil:
		res.AddCommunity, err = s.chatSvc.JoinCommunity(ctx, actor, req.JoinCommunity)
	case req.ChangeUsername != nil:
		err = s.chatSvc.ChangeUsername(ctx, actor, req.ChangeUsername)
		res.NoData = &wire.Unit{}
	case req.ChangeDisplayName != nil:
		err = s.chatSvc.ChangeDisplayName(ctx, actor, req.ChangeDisplayName)
		res.NoData = &wire.Unit{}
	case req.ChangeSessionPassword != nil:
		err = s.chatSvc.ChangePassword(ctx, actor, req.ChangeSessionPassword)
		res.NoData = &wire.Unit{}
	case req.GetProfile != nil:
		res.Profile, err = s.chatSvc.GetProfile(ctx, actor, req.GetProfile)
	case req.ChangeCommunityName != nil:
		err = s.chatSvc.ChangeCommunityName(ctx, actor, req.ChangeCommunityName)
		res.NoData = &wire.Unit{}
	case req.ChangeCommunityDescription != nil:
		err = s.chatSvc.ChangeCommunityDescription(ctx, actor, req.ChangeCommunityDescription)
		res.NoData = &wire.Unit{}
	case req.ReportMessage != nil:
		err = s.chatSvc.ReportMessage(ctx, actor, req.ReportMessage)
		res.NoData = &wire.Unit{}
	}

	if err != nil {
		s.respondErr(ctx, id, err)
		return
	}
	s.respond(wire.ResponseOk(id, res))
}

func (s *Session) handleAdmin(ctx context.Context, id wire.RequestID, req *wire.AdminRequest) {
	chatActor, okActor := s.actor(ctx, id)
	if !okActor {
		return
	}
	actor := &admin.Actor{User: chatActor.User, Token: chatActor.Token, Stale: chatActor.Stale}

	var (
		ok  wire.OkResponse
		err error
	)
	switch {
	case req.PromoteUser != nil:
		err = s.adminSvc.PromoteUser(ctx, actor, req.PromoteUser)
		ok.NoData = &wire.Unit{}
	case req.DemoteUser != nil:
		err = s.adminSvc.DemoteUser(ctx, actor, req.DemoteUser)
		ok.NoData = &wire.Unit{}
	case req.BanUser != nil:
		err = s.adminSvc.BanUser(ctx, actor, req.BanUser)
		ok.NoData = &wire.Unit{}
	case req.UnbanUser != nil:
		err = s.adminSvc.UnbanUser(ctx, actor, req.UnbanUser)
		ok.NoData = &wire.Unit{}
	case req.UnlockUser != nil:
		err = s.adminSvc.UnlockUser(ctx, actor, req.UnlockUser)
		ok.NoData = &wire.Unit{}
	case req.SearchUser != nil:
		ok.SearchedUsers, err = s.adminSvc.SearchUser(ctx, actor, req.SearchUser)
	case req.ListAllUsers != nil:
		ok.SearchedUsers, err = s.adminSvc.ListAllUsers(ctx, actor)
	case req.ListAllAdmins != nil:
		ok.Admins, err = s.adminSvc.ListAllAdmins(ctx, actor)
	case req.SearchReports != nil:
		ok.Reports, err = s.adminSvc.SearchReports(ctx, actor, req.SearchReports)
	case req.SetReportStatus != nil:
		err = s.adminSvc.SetReportStatus(ctx, actor, req.SetReportStatus)
		ok.NoData = &wire.Unit{}
	case req.SetAccountsCompromised != nil:
		err = s.adminSvc.SetAccountsCompromised(ctx, actor, req.SetAccountsCompromised)
		ok.NoData = &wire.Unit{}
	}

	if err != nil {
		s.respondErr(ctx, id, err)
		return
	}
	s.respond(wire.ResponseOk(id, ok))
}

func (s *Session) respondErr(ctx context.Context, id wire.RequestID, err error) {
	we := wireError(err)
	if we == wire.ErrInternal {
		s.logger.Error(ctx, "request failed", "error", err)
	}
	s.respond(wire.ResponseErr(id, we))
}
