// Package chat implements the operations available to an authenticated
// session: messaging, pagination, room and community management, profile
// changes and reporting. Failures surface as wire.ErrResponse values;
// anything else collapses to ErrInternal at the transport.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/config"
	"github.com/parlor-chat/parlor/internal/server/models"
	communityrepo "github.com/parlor-chat/parlor/internal/server/repositories/communities"
	inviterepo "github.com/parlor-chat/parlor/internal/server/repositories/invites"
	messagerepo "github.com/parlor-chat/parlor/internal/server/repositories/messages"
	reportrepo "github.com/parlor-chat/parlor/internal/server/repositories/reports"
	userrepo "github.com/parlor-chat/parlor/internal/server/repositories/users"
	"github.com/parlor-chat/parlor/internal/wire"
)

// ServerMaxMessages caps any single pagination window regardless of what the
// client asks for.
const ServerMaxMessages = 50

// maxNameLen bounds community and room names and descriptions.
const maxNameLen = 256

// Actor is the session identity a request runs under. Stale is computed per
// request: a token crosses the threshold mid-session without reconnecting.
type Actor struct {
	User  *models.User
	Token *models.Token
	Stale bool
}

type Service struct {
	users       userrepo.Repository
	communities communityrepo.Repository
	messages    messagerepo.Repository
	invites     inviterepo.Repository
	reports     reportrepo.Repository
	cfg         *config.Config
	notifier    Notifier

	// now is a seam for invite expiry tests.
	now func() time.Time
}

func NewService(
	users userrepo.Repository,
	communities communityrepo.Repository,
	messages messagerepo.Repository,
	invites inviterepo.Repository,
	reports reportrepo.Repository,
	cfg *config.Config,
	notifier Notifier,
) *Service {
	return &Service{
		users:       users,
		communities: communities,
		messages:    messages,
		invites:     invites,
		reports:     reports,
		cfg:         cfg,
		notifier:    notifier,
		now:         time.Now,
	}
}

// requireFresh gates mutating operations: a stale token can read but must be
// refreshed with credentials before it may write.
func requireFresh(actor *Actor) error {
	if actor.Stale {
		return wire.ErrStaleToken
	}
	return nil
}

func requirePerm(actor *Actor, perm wire.TokenPermissionFlags) error {
	if !actor.Token.PermissionFlags.Has(perm) {
		return wire.ErrAccessDenied
	}
	return nil
}

// memberRoom resolves a community/room pair the actor may see. Non-members
// get the same error as a nonexistent community so membership is not
// probeable.
func (s *Service) memberRoom(ctx context.Context, actor *Actor, community wire.CommunityID, room wire.RoomID) (*models.Room, error) {
	if err := s.memberCommunity(ctx, actor, community); err != nil {
		return nil, err
	}

	r, err := s.communities.GetRoom(ctx, room)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.ErrInvalidRoom
		}
		return nil, err
	}
	if r.Community != community {
		return nil, wire.ErrInvalidRoom
	}
	return r, nil
}

func (s *Service) memberCommunity(ctx context.Context, actor *Actor, community wire.CommunityID) error {
	if _, err := s.communities.GetCommunity(ctx, community); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return wire.ErrInvalidCommunity
		}
		return err
	}
	member, err := s.communities.IsMember(ctx, community, actor.User.ID)
	if err != nil {
		return err
	}
	if !member {
		return wire.ErrInvalidCommunity
	}
	return nil
}

// SendMessage stores the message, advances the author's read position past
// it, and fans it out: sessions watching the room get the full message,
// other member sessions get a ready ping.
func (s *Service) SendMessage(ctx context.Context, actor *Actor, req *wire.SendMessage) (*wire.MessageConfirmation, error) {
	if err := requireFresh(actor); err != nil {
		return nil, err
	}
	if err := requirePerm(actor, wire.PermSendMessages); err != nil {
		return nil, err
	}
	if _, err := s.memberRoom(ctx, actor, req.ToCommunity, req.ToRoom); err != nil {
		return nil, err
	}
	if req.Content == "" {
		return nil, wire.ErrInvalidMessage
	}
	if len(req.Content) > s.cfg.MaxMessageLen {
		return nil, wire.ErrMessageTooLong
	}

	content := req.Content
	message := &models.Message{
		Author:    actor.User.ID,
		Community: req.ToCommunity,
		Room:      req.ToRoom,
		Content:   &content,
	}
	if err := s.messages.Insert(ctx, message); err != nil {
		return nil, err
	}
	if err := s.communities.SetLastRead(ctx, req.ToRoom, actor.User.ID, message.ID); err != nil {
		return nil, err
	}

	members, err := s.communities.Members(ctx, req.ToCommunity)
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastRoom(req.ToCommunity, req.ToRoom, members,
		wire.ServerEvent{AddMessage: &wire.AddMessage{
			Community: req.ToCommunity,
			Room:      req.ToRoom,
			Message:   message.Wire(actor.User.ProfileVersion),
		}},
		&wire.ServerEvent{NotifyMessageReady: &wire.RoomRef{
			Community: req.ToCommunity,
			Room:      req.ToRoom,
		}},
	)

	return &wire.MessageConfirmation{ID: message.ID, TimeSent: message.TimeSent}, nil
}

// resolveMessage fetches a message the actor claims lives in the given room.
// Mismatches read as an invalid message, not as information about where the
// message really is.
func (s *Service) resolveMessage(ctx context.Context, actor *Actor, id wire.MessageID, community wire.CommunityID, room wire.RoomID) (*models.Message, error) {
	if _, err := s.memberRoom(ctx, actor, community, room); err != nil {
		return nil, err
	}
	message, err := s.messages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.ErrInvalidMessage
		}
		return nil, err
	}
	if message.Community != community || message.Room != room {
		return nil, wire.ErrInvalidMessage
	}
	return message, nil
}

func (s *Service) EditMessage(ctx context.Context, actor *Actor, req *wire.Edit) error {
	if err := requireFresh(actor); err != nil {
		return err
	}
	message, err := s.resolveMessage(ctx, actor, req.Message, req.Community, req.Room)
	if err != nil {
		return err
	}
	if message.Content == nil {
		return wire.ErrInvalidMessage
	}

	perm := wire.PermEditAnyMessages
	if message.Author == actor.User.ID {
		perm = wire.PermEditOwnMessages
	}
	if err := requirePerm(actor, perm); err != nil {
		return err
	}

	if req.NewContent == "" {
		return wire.ErrInvalidMessage
	}
	if len(req.NewContent) > s.cfg.MaxMessageLen {
		return wire.ErrMessageTooLong
	}
	if err := s.messages.UpdateContent(ctx, req.Message, req.NewContent); err != nil {
		return err
	}

	members, err := s.communities.Members(ctx, req.Community)
	if err != nil {
		return err
	}
	edit := *req
	s.notifier.BroadcastRoom(req.Community, req.Room, members, wire.ServerEvent{Edit: &edit}, nil)
	return nil
}

// DeleteMessage clears the content but keeps the row, so existing pagination
// cursors anchored at this id stay valid.
func (s *Service) DeleteMessage(ctx context.Context, actor *Actor, req *wire.Delete) error {
	if err := requireFresh(actor); err != nil {
		return err
	}
	message, err := s.resolveMessage(ctx, actor, req.Message, req.Community, req.Room)
	if err != nil {
		return err
	}

	perm := wire.PermDeleteAnyMessages
	if message.Author == actor.User.ID {
		perm = wire.PermDeleteOwnMessages
	}
	if err := requirePerm(actor, perm); err != nil {
		return err
	}

	if err := s.messages.MarkDeleted(ctx, req.Message); err != nil {
		return err
	}

	members, err := s.communities.Members(ctx, req.Community)
	if err != nil {
		return err
	}
	del := *req
	s.notifier.BroadcastRoom(req.Community, req.Room, members, wire.ServerEvent{Delete: &del}, nil)
	return nil
}

func clampCount(count uint32) int {
	if count == 0 {
		return 1
	}
	if count > ServerMaxMessages {
		return ServerMaxMessages
	}
	return int(count)
}

// GetRoomUpdate returns the newest window of messages the client has not
// seen. Continuous reports that the window connects to the client's position
// without a gap; a full window may hide older unseen messages, so only a
// short window proves continuity.
func (s *Service) GetRoomUpdate(ctx context.Context, actor *Actor, req *wire.GetRoomUpdate) (*wire.RoomUpdate, error) {
	if _, err := s.memberRoom(ctx, actor, req.Community, req.Room); err != nil {
		return nil, err
	}

	count := clampCount(req.MessageCount)
	newMessages, err := s.messages.NewestAfter(ctx, req.Room, req.LastReceived, count)
	if err != nil {
		return nil, err
	}
	converted, err := s.wireMessages(ctx, newMessages)
	if err != nil {
		return nil, err
	}

	lastRead, err := s.communities.GetLastRead(ctx, req.Room, actor.User.ID)
	if err != nil {
		return nil, err
	}

	return &wire.RoomUpdate{
		LastRead:    lastRead,
		NewMessages: wire.MessageHistory{Messages: converted},
		Continuous:  len(converted) < count,
	}, nil
}

// GetMessages serves one pagination window. The window is always delivered
// in ascending id order, also when paging backwards.
func (s *Service) GetMessages(ctx context.Context, actor *Actor, req *wire.GetMessages) (*wire.MessageHistory, error) {
	if _, err := s.memberRoom(ctx, actor, req.Community, req.Room); err != nil {
		return nil, err
	}

	// The anchor must be a message of this room, deleted or not.
	anchor, err := s.messages.Get(ctx, req.Selector.Bound.MessageID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.ErrInvalidMessageSelector
		}
		return nil, err
	}
	if anchor.Room != req.Room {
		return nil, wire.ErrInvalidMessageSelector
	}

	count := clampCount(req.Count)
	inclusive := !req.Selector.Bound.Exclusive

	var window []*models.Message
	if req.Selector.Before {
		window, err = s.messages.Before(ctx, req.Room, req.Selector.Bound.MessageID, inclusive, count)
	} else {
		window, err = s.messages.After(ctx, req.Room, req.Selector.Bound.MessageID, inclusive, count)
	}
	if err != nil {
		return nil, err
	}

	converted, err := s.wireMessages(ctx, window)
	if err != nil {
		return nil, err
	}
	return &wire.MessageHistory{Messages: converted}, nil
}

// SelectRoom validates the room for the session's watch state, which the
// transport layer records.
func (s *Service) SelectRoom(ctx context.Context, actor *Actor, req *wire.SelectRoom) (*models.Room, error) {
	return s.memberRoom(ctx, actor, req.Community, req.Room)
}

// SetAsRead moves the actor's read position to the newest message. An empty
// room is a successful no-op.
func (s *Service) SetAsRead(ctx context.Context, actor *Actor, req *wire.SetAsRead) error {
	if _, err := s.memberRoom(ctx, actor, req.Community, req.Room); err != nil {
		return err
	}
	newest, err := s.messages.NewestID(ctx, req.Room)
	if err != nil {
		return err
	}
	if newest == nil {
		return nil
	}
	return s.communities.SetLastRead(ctx, req.Room, actor.User.ID, *newest)
}

func validName(name string) error {
	if name == "" {
		return wire.ErrInvalidMessage
	}
	if len(name) > maxNameLen {
		return wire.ErrTooLong
	}
	return nil
}

func (s *Service) CreateCommunity(ctx context.Context, actor *Actor, req *wire.CreateCommunity) (*wire.CommunityStructure, error) {
	if err := requireFresh(actor); err != nil {
		return nil, err
	}
	if err := requirePerm(actor, wire.PermCreateCommunities); err != nil {
		return nil, err
	}
	if err := validName(req.Name); err != nil {
		return nil, err
	}

	community := &models.Community{
		ID:   wire.CommunityID(uuid.New()),
		Name: req.Name,
	}
	if err := s.communities.CreateCommunity(ctx, community); err != nil {
		return nil, err
	}
	if err := s.communities.AddMember(ctx, community.ID, actor.User.ID); err != nil {
		return nil, err
	}

	structure := wire.CommunityStructure{
		ID:          community.ID,
		Name:        community.Name,
		Description: community.Description,
		Rooms:       []wire.RoomStructure{},
	}
	// The creator's other sessions learn about the community too.
	s.notifier.BroadcastUsers([]wire.UserID{actor.User.ID}, wire.ServerEvent{AddCommunity: &structure})
	return &structure, nil
}

func (s *Service) CreateRoom(ctx context.Context, actor *Actor, req *wire.CreateRoom) (*wire.NewRoom, error) {
	if err := requireFresh(actor); err != nil {
		return nil, err
	}
	if err := requirePerm(actor, wire.PermCreateRooms); err != nil {
		return nil, err
	}
	if err := s.memberCommunity(ctx, actor, req.Community); err != nil {
		return nil, err
	}
	if err := validName(req.Name); err != nil {
		return nil, err
	}

	room := &models.Room{
		ID:        wire.RoomID(uuid.New()),
		Community: req.Community,
		Name:      req.Name,
	}
	if err := s.communities.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	newRoom := wire.NewRoom{
		Community: req.Community,
		Room:      wire.RoomStructure{ID: room.ID, Name: room.Name},
	}

	members, err := s.communities.Members(ctx, req.Community)
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastUsers(members, wire.ServerEvent{AddRoom: &newRoom})
	return &newRoom, nil
}

func (s *Service) CreateInvite(ctx context.Context, actor *Actor, req *wire.CreateInvite) (*wire.NewInvite, error) {
	if err := requireFresh(actor); err != nil {
		return nil, err
	}
	if err := requirePerm(actor, wire.PermCreateInvites); err != nil {
		return nil, err
	}
	if err := s.memberCommunity(ctx, actor, req.Community); err != nil {
		return nil, err
	}

	count, err := s.invites.CountForCommunity(ctx, req.Community, s.now())
	if err != nil {
		return nil, err
	}
	if count >= s.cfg.MaxInvitesPerCommunity {
		return nil, wire.ErrTooManyInviteCodes
	}

	invite := &models.Invite{
		Code:      wire.InviteCode(uuid.NewString()),
		Community: req.Community,
		ExpiresAt: req.ExpirationDate,
	}
	if err := s.invites.Create(ctx, invite); err != nil {
		return nil, err
	}
	return &wire.NewInvite{Code: invite.Code}, nil
}

func (s *Service) JoinCommunity(ctx context.Context, actor *Actor, req *wire.JoinCommunity) (*wire.CommunityStructure, error) {
	if err := requireFresh(actor); err != nil {
		return nil, err
	}
	if err := requirePerm(actor, wire.PermJoinCommunities); err != nil {
		return nil, err
	}

	invite, err := s.invites.Get(ctx, req.Code)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.ErrInvalidInviteCode
		}
		return nil, err
	}
	if invite.Expired(s.now()) {
		return nil, wire.ErrInvalidInviteCode
	}

	if err := s.communities.AddMember(ctx, invite.Community, actor.User.ID); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return nil, wire.ErrAlreadyInCommunity
		}
		return nil, err
	}

	structure, err := s.CommunityStructure(ctx, invite.Community, actor.User.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.BroadcastUsers([]wire.UserID{actor.User.ID}, wire.ServerEvent{AddCommunity: structure})
	return structure, nil
}

func (s *Service) ChangeUsername(ctx context.Context, actor *Actor, req *wire.ChangeUsername) error {
	if err := requireFresh(actor); err != nil {
		return err
	}
	if err := requirePerm(actor, wire.PermChangeUsername); err != nil {
		return err
	}

	username := auth.NormalizeUsername(req.NewUsername)
	if !auth.ValidLength(username, s.cfg.MinUsernameLen, s.cfg.MaxUsernameLen) {
		return wire.ErrInvalidUsername
	}
	if _, err := s.users.UpdateUsername(ctx, actor.User.ID, username); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return wire.ErrUsernameAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Service) ChangeDisplayName(ctx context.Context, actor *Actor, req *wire.ChangeDisplayName) error {
	if err := requireFresh(actor); err != nil {
		return err
	}
	if err := requirePerm(actor, wire.PermChangeDisplayName); err != nil {
		return err
	}
	if !auth.ValidLength(req.NewDisplayName, s.cfg.MinDisplayNameLen, s.cfg.MaxDisplayNameLen) {
		return wire.ErrInvalidDisplayName
	}
	if _, err := s.users.UpdateDisplayName(ctx, actor.User.ID, req.NewDisplayName); err != nil {
		return err
	}
	return nil
}

// ChangePassword rehashes under the latest scheme. Existing tokens stay
// valid; revoking devices is an explicit separate act.
func (s *Service) ChangePassword(ctx context.Context, actor *Actor, req *wire.ChangeSessionPassword) error {
	if err := requireFresh(actor); err != nil {
		return err
	}
	if !auth.Verify(req.OldPassword, actor.User.PasswordHash, actor.User.HashSchemeVersion) {
		return wire.ErrIncorrectCredentials
	}
	if !auth.ValidLength(req.NewPassword, s.cfg.MinPasswordLen, s.cfg.MaxPasswordLen) {
		return wire.ErrInvalidPassword
	}
	hash, scheme, err := auth.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, actor.User.ID, hash, scheme)
}

func (s *Service) GetProfile(ctx context.Context, _ *Actor, req *wire.GetProfile) (*wire.Profile, error) {
	user, err := s.users.GetByID(ctx, req.User)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.ErrInvalidUser
		}
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *Service) ChangeCommunityName(ctx context.Context, actor *Actor, req *wire.ChangeCommunityName) error {
	if err := requireFresh(actor); err != nil {
		return err
	}
	if err := s.memberCommunity(ctx, actor, req.Community); err != nil {
		return err
	}
	if err := validName(req.New); err != nil {
		return err
	}
	return s.communities.UpdateName(ctx, req.Community, req.New)
}

func (s *Service) ChangeCommunityDescription(ctx context.Context, actor *Actor, req *wire.ChangeCommunityDescription) error {
	if err := requireFresh(actor); err != nil {
		return err
	}
	if err := s.memberCommunity(ctx, actor, req.Community); err != nil {
		return err
	}
	if len(req.New) > maxNameLen {
		return wire.ErrTooLong
	}
	return s.communities.UpdateDescription(ctx, req.Community, req.New)
}

// ReportMessage files a report against the message's author. The message
// text and the community and room names are copied into the report so later
// deletions cannot erase the evidence.
func (s *Service) ReportMessage(ctx context.Context, actor *Actor, req *wire.ReportMessage) error {
	if err := requireFresh(actor); err != nil {
		return err
	}
	if err := requirePerm(actor, wire.PermReportUsers); err != nil {
		return err
	}

	message, err := s.messages.Get(ctx, req.Message)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return wire.ErrInvalidMessage
		}
		return err
	}
	if err := s.memberCommunity(ctx, actor, message.Community); err != nil {
		return wire.ErrInvalidMessage
	}
	if message.Content == nil {
		return wire.ErrInvalidMessage
	}
	if err := validName(req.ShortDesc); err != nil {
		return err
	}
	if len(req.ExtendedDesc) > s.cfg.MaxMessageLen {
		return wire.ErrTooLong
	}

	var communityName, roomName string
	if community, err := s.communities.GetCommunity(ctx, message.Community); err == nil {
		communityName = community.Name
	}
	if room, err := s.communities.GetRoom(ctx, message.Room); err == nil {
		roomName = room.Name
	}

	reporter := actor.User.ID
	messageID := message.ID
	report := &models.Report{
		Reported:      message.Author,
		Reporter:      &reporter,
		Community:     &message.Community,
		CommunityName: communityName,
		Room:          &message.Room,
		RoomName:      roomName,
		MessageID:     &messageID,
		MessageText:   *message.Content,
		MessageSentAt: message.TimeSent,
		ShortDesc:     req.ShortDesc,
		ExtendedDesc:  req.ExtendedDesc,
	}
	return s.reports.Create(ctx, report)
}

// CommunityStructure assembles the client-facing view of one community for
// one viewer, including per-room unread flags.
func (s *Service) CommunityStructure(ctx context.Context, community wire.CommunityID, viewer wire.UserID) (*wire.CommunityStructure, error) {
	c, err := s.communities.GetCommunity(ctx, community)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.ErrInvalidCommunity
		}
		return nil, err
	}

	rooms, err := s.communities.RoomsOf(ctx, community)
	if err != nil {
		return nil, err
	}

	structure := &wire.CommunityStructure{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Rooms:       make([]wire.RoomStructure, 0, len(rooms)),
	}
	for _, room := range rooms {
		lastRead, err := s.communities.GetLastRead(ctx, room.ID, viewer)
		if err != nil {
			return nil, err
		}
		unread, err := s.messages.HasAfter(ctx, room.ID, lastRead)
		if err != nil {
			return nil, err
		}
		structure.Rooms = append(structure.Rooms, wire.RoomStructure{
			ID:     room.ID,
			Name:   room.Name,
			Unread: unread,
		})
	}
	return structure, nil
}

// ClientReady assembles the initial state push for a fresh login.
func (s *Service) ClientReady(ctx context.Context, login *models.User, token *models.Token) (*wire.ClientReady, error) {
	communities, err := s.communities.CommunitiesOf(ctx, login.ID)
	if err != nil {
		return nil, err
	}

	structures := make([]wire.CommunityStructure, 0, len(communities))
	for _, community := range communities {
		structure, err := s.CommunityStructure(ctx, community.ID, login.ID)
		if err != nil {
			return nil, err
		}
		structures = append(structures, *structure)
	}

	return &wire.ClientReady{
		User:             login.ID,
		Profile:          login.Profile(),
		Communities:      structures,
		Permissions:      token.PermissionFlags,
		AdminPermissions: login.AdminPermissions,
	}, nil
}

// wireMessages converts stored messages, resolving each author's current
// profile version once.
func (s *Service) wireMessages(ctx context.Context, stored []*models.Message) ([]wire.Message, error) {
	versions := make(map[wire.UserID]wire.ProfileVersion)
	result := make([]wire.Message, 0, len(stored))
	for _, message := range stored {
		version, ok := versions[message.Author]
		if !ok {
			author, err := s.users.GetByID(ctx, message.Author)
			if err != nil && !errors.Is(err, common.ErrNotFound) {
				return nil, err
			}
			if author != nil {
				version = author.ProfileVersion
			}
			versions[message.Author] = version
		}
		result = append(result, message.Wire(version))
	}
	return result, nil
}
