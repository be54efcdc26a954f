package admin

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/models"
	messagerepo "github.com/parlor-chat/parlor/internal/server/repositories/messages"
	reportrepo "github.com/parlor-chat/parlor/internal/server/repositories/reports"
	tokenrepo "github.com/parlor-chat/parlor/internal/server/repositories/tokens"
	userrepo "github.com/parlor-chat/parlor/internal/server/repositories/users"
	"github.com/parlor-chat/parlor/internal/wire"
)

type kick struct {
	user  wire.UserID
	event wire.ServerEvent
}

type recordingKiller struct {
	kicks []kick
}

func (k *recordingKiller) KickUser(user wire.UserID, event wire.ServerEvent) {
	k.kicks = append(k.kicks, kick{user, event})
}

type adminEnv struct {
	svc      *Service
	users    *userrepo.MemoryRepository
	tokens   *tokenrepo.MemoryRepository
	messages *messagerepo.MemoryRepository
	reports  *reportrepo.MemoryRepository
	killer   *recordingKiller
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	env := &adminEnv{
		users:    userrepo.NewMemoryRepository(),
		tokens:   tokenrepo.NewMemoryRepository(),
		messages: messagerepo.NewMemoryRepository(),
		reports:  reportrepo.NewMemoryRepository(),
		killer:   &recordingKiller{},
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	env.svc = NewService(env.users, env.tokens, env.messages, env.reports, env.killer, logger)
	return env
}

// user creates an account with the given admin grants.
func (e *adminEnv) user(t *testing.T, name string, grants wire.AdminPermissionFlags) *models.User {
	t.Helper()
	user := &models.User{
		ID:               wire.UserID(uuid.New()),
		Username:         name,
		DisplayName:      name,
		PermissionFlags:  wire.PermAll,
		AdminPermissions: grants,
	}
	_, err := e.users.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

// actor wraps a user in a fresh session whose token administers.
func (e *adminEnv) actor(user *models.User) *Actor {
	return &Actor{
		User:  user,
		Token: &models.Token{Device: wire.DeviceID(uuid.New()), User: user.ID, PermissionFlags: wire.PermAll},
	}
}

func TestAdminGate(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	admin := env.user(t, "root", wire.AdminAll)
	target := env.user(t, "target", 0)
	req := &wire.BanUser{User: target.ID}

	stale := env.actor(admin)
	stale.Stale = true
	assert.ErrorIs(t, env.svc.BanUser(ctx, stale, req), wire.ErrStaleToken)

	// The token must carry the administer permission even when the account
	// holds the grant.
	narrow := env.actor(admin)
	narrow.Token.PermissionFlags = wire.PermSendMessages
	assert.ErrorIs(t, env.svc.BanUser(ctx, narrow, req), wire.ErrAccessDenied)

	// And the account must hold the specific grant.
	plain := env.actor(env.user(t, "mortal", 0))
	assert.ErrorIs(t, env.svc.BanUser(ctx, plain, req), wire.ErrInvalidPermissions)
}

func TestPromoteOnlyHeldGrants(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	actor := env.actor(env.user(t, "promoter", wire.AdminPromote|wire.AdminBan))
	target := env.user(t, "target", 0)

	err := env.svc.PromoteUser(ctx, actor, &wire.PromoteUser{User: target.ID, Permissions: wire.AdminDemote})
	assert.ErrorIs(t, err, wire.ErrInvalidPermissions)

	require.NoError(t, env.svc.PromoteUser(ctx, actor, &wire.PromoteUser{User: target.ID, Permissions: wire.AdminBan}))
	updated, err := env.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, wire.AdminBan, updated.AdminPermissions)

	root := env.actor(env.user(t, "root", wire.AdminAll))
	require.NoError(t, env.svc.PromoteUser(ctx, root, &wire.PromoteUser{User: target.ID, Permissions: wire.AdminBan | wire.AdminDemote}))

	err = env.svc.PromoteUser(ctx, root, &wire.PromoteUser{User: wire.UserID(uuid.New()), Permissions: wire.AdminBan})
	assert.ErrorIs(t, err, wire.ErrInvalidUser)
}

func TestDemoteRequiresDominance(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	actor := env.actor(env.user(t, "demoter", wire.AdminDemote))
	peer := env.user(t, "peer", wire.AdminBan)

	err := env.svc.DemoteUser(ctx, actor, &wire.DemoteUser{User: peer.ID})
	assert.ErrorIs(t, err, wire.ErrInvalidPermissions)

	root := env.actor(env.user(t, "root", wire.AdminAll))
	require.NoError(t, env.svc.DemoteUser(ctx, root, &wire.DemoteUser{User: peer.ID}))
	updated, err := env.users.GetByID(ctx, peer.ID)
	require.NoError(t, err)
	assert.Zero(t, updated.AdminPermissions)
}

func TestBanRevokesAndKicks(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	root := env.actor(env.user(t, "root", wire.AdminAll))
	target := env.user(t, "target", 0)

	device := wire.DeviceID(uuid.New())
	require.NoError(t, env.tokens.Create(ctx, &models.Token{
		Device:    device,
		User:      target.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, env.svc.BanUser(ctx, root, &wire.BanUser{User: target.ID}))

	updated, err := env.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, updated.Banned)

	_, err = env.tokens.Get(ctx, device)
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.Len(t, env.killer.kicks, 1)
	assert.Equal(t, target.ID, env.killer.kicks[0].user)
	assert.NotNil(t, env.killer.kicks[0].event.SessionLoggedOut)

	// An admin cannot ban a peer they do not dominate.
	banOnly := env.actor(env.user(t, "mod", wire.AdminBan))
	other := env.user(t, "other-admin", wire.AdminBan|wire.AdminPromote)
	err = env.svc.BanUser(ctx, banOnly, &wire.BanUser{User: other.ID})
	assert.ErrorIs(t, err, wire.ErrInvalidPermissions)

	require.NoError(t, env.svc.UnbanUser(ctx, root, &wire.UnbanUser{User: target.ID}))
	updated, err = env.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, updated.Banned)
}

func TestUnlockUser(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	root := env.actor(env.user(t, "root", wire.AdminAll))
	target := env.user(t, "target", 0)
	require.NoError(t, env.users.SetLocked(ctx, target.ID, true))

	require.NoError(t, env.svc.UnlockUser(ctx, root, &wire.UnlockUser{User: target.ID}))
	updated, err := env.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, updated.Locked)
}

func TestListAllAdmins(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	root := env.actor(env.user(t, "root", wire.AdminAll))
	env.user(t, "mod", wire.AdminBan)
	env.user(t, "nobody", 0)

	list, err := env.svc.ListAllAdmins(ctx, root)
	require.NoError(t, err)
	names := make([]string, 0, len(list.Admins))
	for _, a := range list.Admins {
		names = append(names, a.Username)
	}
	assert.ElementsMatch(t, []string{"root", "mod"}, names)
}

func (e *adminEnv) report(t *testing.T, reported, reporter *models.User, short, extended, text string) wire.ReportID {
	t.Helper()
	reporterID := reporter.ID
	r := &models.Report{
		Reported:      reported.ID,
		Reporter:      &reporterID,
		CommunityName: "tavern",
		RoomName:      "general",
		MessageText:   text,
		MessageSentAt: time.Now(),
		ShortDesc:     short,
		ExtendedDesc:  extended,
	}
	require.NoError(t, e.reports.Create(context.Background(), r))
	return r.ID
}

func TestSearchReports(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	root := env.actor(env.user(t, "root", wire.AdminAll))
	alice := env.user(t, "alice", 0)
	bob := env.user(t, "bob", 0)
	carol := env.user(t, "carol", 0)

	first := env.report(t, alice, bob, "spam", "posted the same link twice", "buy cheap things")
	env.report(t, carol, bob, "rudeness", "name calling", "you absolute walnut")

	// Words are a conjunction across descriptions and message text.
	list, err := env.svc.SearchReports(ctx, root, &wire.SearchCriteria{Words: "spam cheap"})
	require.NoError(t, err)
	require.Len(t, list.Reports, 1)
	assert.Equal(t, first, list.Reports[0].ID)
	assert.Equal(t, "alice", list.Reports[0].Reported.Username)
	require.NotNil(t, list.Reports[0].Reporter)
	assert.Equal(t, "bob", list.Reports[0].Reporter.Username)

	list, err = env.svc.SearchReports(ctx, root, &wire.SearchCriteria{Words: "spam walnut"})
	require.NoError(t, err)
	assert.Empty(t, list.Reports)

	// Filters by involved user resolve usernames; unknown names match nothing.
	of := "carol"
	list, err = env.svc.SearchReports(ctx, root, &wire.SearchCriteria{OfUser: &of})
	require.NoError(t, err)
	assert.Len(t, list.Reports, 1)

	ghost := "ghost"
	list, err = env.svc.SearchReports(ctx, root, &wire.SearchCriteria{ByUser: &ghost})
	require.NoError(t, err)
	assert.Empty(t, list.Reports)

	bad := wire.ReportStatus(99)
	_, err = env.svc.SearchReports(ctx, root, &wire.SearchCriteria{Status: &bad})
	assert.ErrorIs(t, err, wire.ErrInvalidMessage)
}

func TestSearchReportsDateBounds(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	root := env.actor(env.user(t, "root", wire.AdminAll))
	alice := env.user(t, "alice", 0)
	bob := env.user(t, "bob", 0)
	id := env.report(t, alice, bob, "spam", "", "junk")

	stored, err := env.reports.Get(ctx, id)
	require.NoError(t, err)
	filed := stored.Datetime

	// Both bounds are inclusive: a report filed exactly at the bound matches.
	list, err := env.svc.SearchReports(ctx, root, &wire.SearchCriteria{AfterDate: &filed})
	require.NoError(t, err)
	assert.Len(t, list.Reports, 1)

	list, err = env.svc.SearchReports(ctx, root, &wire.SearchCriteria{BeforeDate: &filed})
	require.NoError(t, err)
	assert.Len(t, list.Reports, 1)

	list, err = env.svc.SearchReports(ctx, root, &wire.SearchCriteria{AfterDate: &filed, BeforeDate: &filed})
	require.NoError(t, err)
	assert.Len(t, list.Reports, 1)

	later := filed.Add(time.Hour)
	list, err = env.svc.SearchReports(ctx, root, &wire.SearchCriteria{AfterDate: &later})
	require.NoError(t, err)
	assert.Empty(t, list.Reports)

	earlier := filed.Add(-time.Hour)
	list, err = env.svc.SearchReports(ctx, root, &wire.SearchCriteria{BeforeDate: &earlier})
	require.NoError(t, err)
	assert.Empty(t, list.Reports)
}

func TestReportSurvivesMessageDeletion(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	root := env.actor(env.user(t, "root", wire.AdminAll))
	alice := env.user(t, "alice", 0)
	bob := env.user(t, "bob", 0)

	// The report references a message row that no longer exists.
	gone := wire.MessageID(12345)
	reporterID := bob.ID
	r := &models.Report{
		Reported:      alice.ID,
		Reporter:      &reporterID,
		MessageID:     &gone,
		MessageText:   "the preserved evidence",
		MessageSentAt: time.Now(),
		ShortDesc:     "bad",
	}
	require.NoError(t, env.reports.Create(ctx, r))

	list, err := env.svc.SearchReports(ctx, root, &wire.SearchCriteria{})
	require.NoError(t, err)
	require.Len(t, list.Reports, 1)
	assert.Nil(t, list.Reports[0].Message.ID)
	assert.Equal(t, "the preserved evidence", list.Reports[0].Message.Text)
}

func TestSetReportStatus(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	rootUser := env.user(t, "root", wire.AdminAll)
	root := env.actor(rootUser)
	alice := env.user(t, "alice", 0)
	bob := env.user(t, "bob", 0)
	id := env.report(t, alice, bob, "spam", "", "junk")

	err := env.svc.SetReportStatus(ctx, root, &wire.SetReportStatus{Report: 999, Status: wire.ReportReviewed})
	assert.ErrorIs(t, err, wire.ErrNotFound)

	err = env.svc.SetReportStatus(ctx, root, &wire.SetReportStatus{Report: id, Status: wire.ReportStatus(99)})
	assert.ErrorIs(t, err, wire.ErrInvalidMessage)

	require.NoError(t, env.svc.SetReportStatus(ctx, root, &wire.SetReportStatus{Report: id, Status: wire.ReportReviewed}))
	require.NoError(t, env.svc.SetReportStatus(ctx, root, &wire.SetReportStatus{Report: id, Status: wire.ReportDismissed}))

	report, err := env.reports.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, wire.ReportDismissed, report.Status)

	log, err := env.reports.StatusLog(ctx, id)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, wire.ReportOpened, log[0].Old)
	assert.Equal(t, wire.ReportReviewed, log[0].New)
	assert.Equal(t, wire.ReportReviewed, log[1].Old)
	assert.Equal(t, wire.ReportDismissed, log[1].New)
	assert.Equal(t, rootUser.ID, log[1].Actor)
}

func TestSetAccountsCompromised(t *testing.T) {
	env := newAdminEnv(t)
	ctx := context.Background()
	root := env.actor(env.user(t, "root", wire.AdminAll))

	// Only the full admin grant may flag accounts in bulk.
	mod := env.actor(env.user(t, "mod", wire.AdminBan))
	err := env.svc.SetAccountsCompromised(ctx, mod, &wire.SetAccountsCompromised{Type: wire.CompromisedAll})
	assert.ErrorIs(t, err, wire.ErrInvalidPermissions)

	legacy := env.user(t, "legacy", 0)
	legacy.HashSchemeVersion = auth.SchemeSHA256
	fresh := env.user(t, "fresh", 0)
	fresh.HashSchemeVersion = auth.LatestScheme
	// Re-store the adjusted hash schemes.
	require.NoError(t, env.users.UpdatePassword(ctx, legacy.ID, "legacy-hash", auth.SchemeSHA256))
	require.NoError(t, env.users.UpdatePassword(ctx, fresh.ID, "fresh-hash", auth.LatestScheme))

	require.NoError(t, env.svc.SetAccountsCompromised(ctx, root, &wire.SetAccountsCompromised{Type: wire.CompromisedOldHashes}))
	legacyStored, err := env.users.GetByID(ctx, legacy.ID)
	require.NoError(t, err)
	assert.True(t, legacyStored.Compromised)
	freshStored, err := env.users.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.False(t, freshStored.Compromised)

	require.NoError(t, env.svc.SetAccountsCompromised(ctx, root, &wire.SetAccountsCompromised{Type: wire.CompromisedAll}))
	all, err := env.users.ListAll(ctx)
	require.NoError(t, err)
	for _, u := range all {
		assert.True(t, u.Compromised, u.Username)
	}
}
