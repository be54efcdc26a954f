package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlor-chat/parlor/internal/server/config"
	"github.com/parlor-chat/parlor/internal/server/models"
	communityrepo "github.com/parlor-chat/parlor/internal/server/repositories/communities"
	inviterepo "github.com/parlor-chat/parlor/internal/server/repositories/invites"
	messagerepo "github.com/parlor-chat/parlor/internal/server/repositories/messages"
	reportrepo "github.com/parlor-chat/parlor/internal/server/repositories/reports"
	userrepo "github.com/parlor-chat/parlor/internal/server/repositories/users"
	"github.com/parlor-chat/parlor/internal/wire"
)

type roomBroadcast struct {
	community wire.CommunityID
	room      wire.RoomID
	members   []wire.UserID
	watching  wire.ServerEvent
	idle      *wire.ServerEvent
}

type userBroadcast struct {
	users []wire.UserID
	event wire.ServerEvent
}

// recordingNotifier captures fan-out calls for assertions.
type recordingNotifier struct {
	rooms []roomBroadcast
	users []userBroadcast
}

func (n *recordingNotifier) BroadcastRoom(community wire.CommunityID, room wire.RoomID, members []wire.UserID, watching wire.ServerEvent, idle *wire.ServerEvent) {
	n.rooms = append(n.rooms, roomBroadcast{community, room, members, watching, idle})
}

func (n *recordingNotifier) BroadcastUsers(users []wire.UserID, event wire.ServerEvent) {
	n.users = append(n.users, userBroadcast{users, event})
}

type chatEnv struct {
	svc         *Service
	users       *userrepo.MemoryRepository
	communities *communityrepo.MemoryRepository
	messages    *messagerepo.MemoryRepository
	invites     *inviterepo.MemoryRepository
	reports     *reportrepo.MemoryRepository
	notifier    *recordingNotifier
	clock       time.Time
}

func newChatEnv(t *testing.T) *chatEnv {
	t.Helper()
	cfg := &config.Config{
		MinUsernameLen:         1,
		MaxUsernameLen:         64,
		MinDisplayNameLen:      1,
		MaxDisplayNameLen:      64,
		MinPasswordLen:         8,
		MaxPasswordLen:         64,
		MaxMessageLen:          100,
		MaxInvitesPerCommunity: 2,
	}
	env := &chatEnv{
		users:       userrepo.NewMemoryRepository(),
		communities: communityrepo.NewMemoryRepository(),
		messages:    messagerepo.NewMemoryRepository(),
		invites:     inviterepo.NewMemoryRepository(),
		reports:     reportrepo.NewMemoryRepository(),
		notifier:    &recordingNotifier{},
		clock:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(env.users, env.communities, env.messages, env.invites, env.reports, cfg, env.notifier)
	env.svc.now = func() time.Time { return env.clock }
	return env
}

// actor creates a user and a live token carrying the given token flags.
func (e *chatEnv) actor(t *testing.T, name string, perms wire.TokenPermissionFlags) *Actor {
	t.Helper()
	user := &models.User{
		ID:              wire.UserID(uuid.New()),
		Username:        name,
		DisplayName:     name,
		ProfileVersion:  1,
		PermissionFlags: wire.PermAll,
	}
	_, err := e.users.Create(context.Background(), user)
	require.NoError(t, err)
	token := &models.Token{
		Device:          wire.DeviceID(uuid.New()),
		User:            user.ID,
		PermissionFlags: perms,
	}
	return &Actor{User: user, Token: token}
}

func (e *chatEnv) community(t *testing.T, owner *Actor) (wire.CommunityID, wire.RoomID) {
	t.Helper()
	ctx := context.Background()
	structure, err := e.svc.CreateCommunity(ctx, owner, &wire.CreateCommunity{Name: "tavern"})
	require.NoError(t, err)
	newRoom, err := e.svc.CreateRoom(ctx, owner, &wire.CreateRoom{Name: "general", Community: structure.ID})
	require.NoError(t, err)
	return structure.ID, newRoom.Room.ID
}

func (e *chatEnv) join(t *testing.T, owner, joiner *Actor, community wire.CommunityID) {
	t.Helper()
	ctx := context.Background()
	invite, err := e.svc.CreateInvite(ctx, owner, &wire.CreateInvite{Community: community})
	require.NoError(t, err)
	_, err = e.svc.JoinCommunity(ctx, joiner, &wire.JoinCommunity{Code: invite.Code})
	require.NoError(t, err)
}

func (e *chatEnv) send(t *testing.T, actor *Actor, community wire.CommunityID, room wire.RoomID, content string) wire.MessageID {
	t.Helper()
	conf, err := e.svc.SendMessage(context.Background(), actor, &wire.SendMessage{
		ToCommunity: community, ToRoom: room, Content: content,
	})
	require.NoError(t, err)
	return conf.ID
}

func TestSendMessageAssignsIncreasingIDs(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)

	first := env.send(t, alice, community, room, "one")
	second := env.send(t, alice, community, room, "two")
	third := env.send(t, alice, community, room, "three")
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	// Sending advances the author's own read position.
	lastRead, err := env.communities.GetLastRead(ctx, room, alice.User.ID)
	require.NoError(t, err)
	require.NotNil(t, lastRead)
	assert.Equal(t, third, *lastRead)

	// Watching sessions get the message itself, idle sessions a ready ping.
	require.NotEmpty(t, env.notifier.rooms)
	last := env.notifier.rooms[len(env.notifier.rooms)-1]
	require.NotNil(t, last.watching.AddMessage)
	assert.Equal(t, third, last.watching.AddMessage.Message.ID)
	require.NotNil(t, last.idle)
	assert.NotNil(t, last.idle.NotifyMessageReady)
}

func TestSendMessageValidation(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)

	_, err := env.svc.SendMessage(ctx, alice, &wire.SendMessage{ToCommunity: community, ToRoom: room, Content: ""})
	assert.ErrorIs(t, err, wire.ErrInvalidMessage)

	_, err = env.svc.SendMessage(ctx, alice, &wire.SendMessage{
		ToCommunity: community, ToRoom: room, Content: strings.Repeat("x", 101),
	})
	assert.ErrorIs(t, err, wire.ErrMessageTooLong)

	// Non-members see the community as nonexistent.
	mallory := env.actor(t, "mallory", wire.PermAll)
	_, err = env.svc.SendMessage(ctx, mallory, &wire.SendMessage{ToCommunity: community, ToRoom: room, Content: "hi"})
	assert.ErrorIs(t, err, wire.ErrInvalidCommunity)

	noPerm := env.actor(t, "bob", wire.PermJoinCommunities)
	env.join(t, alice, noPerm, community)
	_, err = env.svc.SendMessage(ctx, noPerm, &wire.SendMessage{ToCommunity: community, ToRoom: room, Content: "hi"})
	assert.ErrorIs(t, err, wire.ErrAccessDenied)

	stale := &Actor{User: alice.User, Token: alice.Token, Stale: true}
	_, err = env.svc.SendMessage(ctx, stale, &wire.SendMessage{ToCommunity: community, ToRoom: room, Content: "hi"})
	assert.ErrorIs(t, err, wire.ErrStaleToken)
}

func TestEditMessagePermissions(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)
	id := env.send(t, alice, community, room, "original")

	ownOnly := env.actor(t, "bob", wire.PermJoinCommunities|wire.PermEditOwnMessages)
	env.join(t, alice, ownOnly, community)
	err := env.svc.EditMessage(ctx, ownOnly, &wire.Edit{Message: id, Community: community, Room: room, NewContent: "hijacked"})
	assert.ErrorIs(t, err, wire.ErrAccessDenied)

	moderator := env.actor(t, "mod", wire.PermJoinCommunities|wire.PermEditAnyMessages)
	env.join(t, alice, moderator, community)
	err = env.svc.EditMessage(ctx, moderator, &wire.Edit{Message: id, Community: community, Room: room, NewContent: "moderated"})
	require.NoError(t, err)

	stored, err := env.messages.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.Content)
	assert.Equal(t, "moderated", *stored.Content)

	// Edits of deleted messages are rejected.
	require.NoError(t, env.svc.DeleteMessage(ctx, alice, &wire.Delete{Message: id, Community: community, Room: room}))
	err = env.svc.EditMessage(ctx, alice, &wire.Edit{Message: id, Community: community, Room: room, NewContent: "zombie"})
	assert.ErrorIs(t, err, wire.ErrInvalidMessage)
}

func TestDeleteKeepsOrdinal(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)

	first := env.send(t, alice, community, room, "one")
	second := env.send(t, alice, community, room, "two")
	third := env.send(t, alice, community, room, "three")

	require.NoError(t, env.svc.DeleteMessage(ctx, alice, &wire.Delete{Message: second, Community: community, Room: room}))

	// The deleted message keeps its place in windows, with no content.
	history, err := env.svc.GetMessages(ctx, alice, &wire.GetMessages{
		Community: community,
		Room:      room,
		Selector:  wire.MessageSelector{Before: true, Bound: wire.Bound{MessageID: third}},
		Count:     3,
	})
	require.NoError(t, err)
	require.Len(t, history.Messages, 3)
	assert.Equal(t, first, history.Messages[0].ID)
	assert.Equal(t, second, history.Messages[1].ID)
	assert.Nil(t, history.Messages[1].Content)
	assert.NotNil(t, history.Messages[2].Content)
}

func TestGetRoomUpdateContinuity(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)

	var ids []wire.MessageID
	for _, text := range []string{"a", "b", "c", "d", "e"} {
		ids = append(ids, env.send(t, alice, community, room, text))
	}

	// Everything fits: continuous.
	update, err := env.svc.GetRoomUpdate(ctx, alice, &wire.GetRoomUpdate{
		Community: community, Room: room, MessageCount: 10,
	})
	require.NoError(t, err)
	assert.Len(t, update.NewMessages.Messages, 5)
	assert.True(t, update.Continuous)
	require.NotNil(t, update.LastRead)
	assert.Equal(t, ids[4], *update.LastRead)

	// Three messages follow ids[1] but only two fit: the newest two come
	// back and the window cannot prove continuity.
	update, err = env.svc.GetRoomUpdate(ctx, alice, &wire.GetRoomUpdate{
		Community: community, Room: room, LastReceived: &ids[1], MessageCount: 2,
	})
	require.NoError(t, err)
	require.Len(t, update.NewMessages.Messages, 2)
	assert.Equal(t, ids[3], update.NewMessages.Messages[0].ID)
	assert.Equal(t, ids[4], update.NewMessages.Messages[1].ID)
	assert.False(t, update.Continuous)

	// A window with room to spare proves there is no gap.
	update, err = env.svc.GetRoomUpdate(ctx, alice, &wire.GetRoomUpdate{
		Community: community, Room: room, LastReceived: &ids[1], MessageCount: 4,
	})
	require.NoError(t, err)
	assert.Len(t, update.NewMessages.Messages, 3)
	assert.True(t, update.Continuous)
}

func TestGetRoomUpdateClampsCount(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)

	for i := 0; i < 60; i++ {
		content := "filler"
		require.NoError(t, env.messages.Insert(ctx, &models.Message{
			Author: alice.User.ID, Community: community, Room: room, Content: &content,
		}))
	}

	update, err := env.svc.GetRoomUpdate(ctx, alice, &wire.GetRoomUpdate{
		Community: community, Room: room, MessageCount: 1000,
	})
	require.NoError(t, err)
	assert.Len(t, update.NewMessages.Messages, ServerMaxMessages)

	// A zero count still returns something.
	update, err = env.svc.GetRoomUpdate(ctx, alice, &wire.GetRoomUpdate{
		Community: community, Room: room, MessageCount: 0,
	})
	require.NoError(t, err)
	assert.Len(t, update.NewMessages.Messages, 1)
}

func TestGetMessagesWindows(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)

	ids := make([]wire.MessageID, 10)
	for i := range ids {
		ids[i] = env.send(t, alice, community, room, "msg")
	}

	get := func(before, exclusive bool, anchor wire.MessageID, count uint32) []wire.Message {
		t.Helper()
		history, err := env.svc.GetMessages(ctx, alice, &wire.GetMessages{
			Community: community,
			Room:      room,
			Selector: wire.MessageSelector{
				Before: before,
				Bound:  wire.Bound{Exclusive: exclusive, MessageID: anchor},
			},
			Count: count,
		})
		require.NoError(t, err)
		return history.Messages
	}

	window := get(true, false, ids[5], 3)
	require.Len(t, window, 3)
	assert.Equal(t, []wire.MessageID{ids[3], ids[4], ids[5]}, []wire.MessageID{window[0].ID, window[1].ID, window[2].ID})

	window = get(true, true, ids[5], 3)
	require.Len(t, window, 3)
	assert.Equal(t, []wire.MessageID{ids[2], ids[3], ids[4]}, []wire.MessageID{window[0].ID, window[1].ID, window[2].ID})

	window = get(false, false, ids[5], 3)
	require.Len(t, window, 3)
	assert.Equal(t, []wire.MessageID{ids[5], ids[6], ids[7]}, []wire.MessageID{window[0].ID, window[1].ID, window[2].ID})

	window = get(false, true, ids[5], 3)
	require.Len(t, window, 3)
	assert.Equal(t, []wire.MessageID{ids[6], ids[7], ids[8]}, []wire.MessageID{window[0].ID, window[1].ID, window[2].ID})

	// Windows truncate at the edges of the room.
	window = get(true, false, ids[0], 5)
	require.Len(t, window, 1)
	assert.Equal(t, ids[0], window[0].ID)
}

func TestGetMessagesAnchorValidation(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)
	env.send(t, alice, community, room, "here")

	// Unknown anchor.
	_, err := env.svc.GetMessages(ctx, alice, &wire.GetMessages{
		Community: community, Room: room,
		Selector: wire.MessageSelector{Bound: wire.Bound{MessageID: 9999}},
		Count:    5,
	})
	assert.ErrorIs(t, err, wire.ErrInvalidMessageSelector)

	// Anchor from a different room.
	other, err2 := env.svc.CreateRoom(ctx, alice, &wire.CreateRoom{Name: "side", Community: community})
	require.NoError(t, err2)
	sideID := env.send(t, alice, community, other.Room.ID, "elsewhere")
	_, err = env.svc.GetMessages(ctx, alice, &wire.GetMessages{
		Community: community, Room: room,
		Selector: wire.MessageSelector{Bound: wire.Bound{MessageID: sideID}},
		Count:    5,
	})
	assert.ErrorIs(t, err, wire.ErrInvalidMessageSelector)
}

func TestUnreadFlagsAndSetAsRead(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	bob := env.actor(t, "bob", wire.PermAll)
	community, room := env.community(t, alice)
	env.join(t, alice, bob, community)

	quiet, err := env.svc.CreateRoom(ctx, alice, &wire.CreateRoom{Name: "quiet", Community: community})
	require.NoError(t, err)

	env.send(t, alice, community, room, "ping")

	structure, err := env.svc.CommunityStructure(ctx, community, bob.User.ID)
	require.NoError(t, err)
	require.Len(t, structure.Rooms, 2)
	for _, r := range structure.Rooms {
		switch r.ID {
		case room:
			assert.True(t, r.Unread)
		case quiet.Room.ID:
			assert.False(t, r.Unread)
		}
	}

	require.NoError(t, env.svc.SetAsRead(ctx, bob, &wire.SetAsRead{Community: community, Room: room}))
	structure, err = env.svc.CommunityStructure(ctx, community, bob.User.ID)
	require.NoError(t, err)
	for _, r := range structure.Rooms {
		assert.False(t, r.Unread)
	}

	// Marking an empty room read is a no-op, not an error.
	assert.NoError(t, env.svc.SetAsRead(ctx, bob, &wire.SetAsRead{Community: community, Room: quiet.Room.ID}))
}

func TestInviteLifecycle(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	bob := env.actor(t, "bob", wire.PermAll)
	community, _ := env.community(t, alice)

	_, err := env.svc.JoinCommunity(ctx, bob, &wire.JoinCommunity{Code: "no-such-code"})
	assert.ErrorIs(t, err, wire.ErrInvalidInviteCode)

	expiry := env.clock.Add(time.Hour)
	invite, err := env.svc.CreateInvite(ctx, alice, &wire.CreateInvite{Community: community, ExpirationDate: &expiry})
	require.NoError(t, err)

	env.clock = env.clock.Add(2 * time.Hour)
	_, err = env.svc.JoinCommunity(ctx, bob, &wire.JoinCommunity{Code: invite.Code})
	assert.ErrorIs(t, err, wire.ErrInvalidInviteCode)

	open, err := env.svc.CreateInvite(ctx, alice, &wire.CreateInvite{Community: community})
	require.NoError(t, err)
	structure, err := env.svc.JoinCommunity(ctx, bob, &wire.JoinCommunity{Code: open.Code})
	require.NoError(t, err)
	assert.Equal(t, community, structure.ID)

	_, err = env.svc.JoinCommunity(ctx, bob, &wire.JoinCommunity{Code: open.Code})
	assert.ErrorIs(t, err, wire.ErrAlreadyInCommunity)

	// The expired code does not count against the cap, so one more fits.
	_, err = env.svc.CreateInvite(ctx, alice, &wire.CreateInvite{Community: community})
	require.NoError(t, err)

	// Now two live codes exist and the cap rejects another.
	_, err = env.svc.CreateInvite(ctx, alice, &wire.CreateInvite{Community: community})
	assert.ErrorIs(t, err, wire.ErrTooManyInviteCodes)
}

// The invite cap follows the service clock, not the wall clock.
func TestInviteCapUsesServiceClock(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, _ := env.community(t, alice)

	expiry := env.clock.Add(100 * 365 * 24 * time.Hour)
	for i := 0; i < 2; i++ {
		_, err := env.svc.CreateInvite(ctx, alice, &wire.CreateInvite{Community: community, ExpirationDate: &expiry})
		require.NoError(t, err)
	}
	_, err := env.svc.CreateInvite(ctx, alice, &wire.CreateInvite{Community: community, ExpirationDate: &expiry})
	assert.ErrorIs(t, err, wire.ErrTooManyInviteCodes)

	// Jump the clock past the far-future expiry; the codes die even though
	// real time has not reached it.
	env.clock = expiry.Add(time.Hour)
	_, err = env.svc.CreateInvite(ctx, alice, &wire.CreateInvite{Community: community})
	require.NoError(t, err)
}

func TestStaleTokenAllowsReads(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	community, room := env.community(t, alice)
	id := env.send(t, alice, community, room, "hello")

	stale := &Actor{User: alice.User, Token: alice.Token, Stale: true}

	_, err := env.svc.GetRoomUpdate(ctx, stale, &wire.GetRoomUpdate{Community: community, Room: room, MessageCount: 10})
	assert.NoError(t, err)

	_, err = env.svc.GetMessages(ctx, stale, &wire.GetMessages{
		Community: community, Room: room,
		Selector: wire.MessageSelector{Before: true, Bound: wire.Bound{MessageID: id}},
		Count:    1,
	})
	assert.NoError(t, err)

	_, err = env.svc.CreateCommunity(ctx, stale, &wire.CreateCommunity{Name: "nope"})
	assert.ErrorIs(t, err, wire.ErrStaleToken)
}

func TestChangeCommunityMeta(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	outsider := env.actor(t, "eve", wire.PermAll)
	community, _ := env.community(t, alice)

	err := env.svc.ChangeCommunityName(ctx, outsider, &wire.ChangeCommunityName{New: "mine now", Community: community})
	assert.ErrorIs(t, err, wire.ErrInvalidCommunity)

	err = env.svc.ChangeCommunityName(ctx, alice, &wire.ChangeCommunityName{New: strings.Repeat("x", 300), Community: community})
	assert.ErrorIs(t, err, wire.ErrTooLong)

	require.NoError(t, env.svc.ChangeCommunityName(ctx, alice, &wire.ChangeCommunityName{New: "inn", Community: community}))
	require.NoError(t, env.svc.ChangeCommunityDescription(ctx, alice, &wire.ChangeCommunityDescription{New: "a cosy place", Community: community}))

	structure, err := env.svc.CommunityStructure(ctx, community, alice.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "inn", structure.Name)
	assert.Equal(t, "a cosy place", structure.Description)
}

func TestReportMessageCapturesState(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	bob := env.actor(t, "bob", wire.PermAll)
	community, room := env.community(t, alice)
	env.join(t, alice, bob, community)
	id := env.send(t, alice, community, room, "rude remark")

	err := env.svc.ReportMessage(ctx, bob, &wire.ReportMessage{
		Message: id, ShortDesc: "rudeness", ExtendedDesc: "see for yourself",
	})
	require.NoError(t, err)

	found, err := env.reports.Search(ctx, &reportrepo.Filter{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	report := found[0]
	assert.Equal(t, alice.User.ID, report.Reported)
	require.NotNil(t, report.Reporter)
	assert.Equal(t, bob.User.ID, *report.Reporter)
	assert.Equal(t, "rude remark", report.MessageText)
	assert.Equal(t, "tavern", report.CommunityName)
	assert.Equal(t, "general", report.RoomName)

	// Deleted messages cannot be reported; the content is gone.
	require.NoError(t, env.svc.DeleteMessage(ctx, alice, &wire.Delete{Message: id, Community: community, Room: room}))
	err = env.svc.ReportMessage(ctx, bob, &wire.ReportMessage{Message: id, ShortDesc: "again"})
	assert.ErrorIs(t, err, wire.ErrInvalidMessage)

	// Outsiders cannot report into communities they are not part of.
	eve := env.actor(t, "eve", wire.PermAll)
	id2 := env.send(t, alice, community, room, "another")
	err = env.svc.ReportMessage(ctx, eve, &wire.ReportMessage{Message: id2, ShortDesc: "drive-by"})
	assert.ErrorIs(t, err, wire.ErrInvalidMessage)
}

func TestClientReady(t *testing.T) {
	env := newChatEnv(t)
	ctx := context.Background()
	alice := env.actor(t, "alice", wire.PermAll)
	env.community(t, alice)

	ready, err := env.svc.ClientReady(ctx, alice.User, alice.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.User.ID, ready.User)
	assert.Equal(t, "alice", ready.Profile.Username)
	require.Len(t, ready.Communities, 1)
	assert.Equal(t, "tavern", ready.Communities[0].Name)
	require.Len(t, ready.Communities[0].Rooms, 1)
}
