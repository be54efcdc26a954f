// Package admin implements the moderation operations. Every operation
// requires the token's administer permission plus the specific admin grant;
// operations against other admins additionally require dominating the
// target's grants.
package admin

import (
	"context"
	"errors"
	"strings"
	"time"

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

// Actor is the session identity an admin request runs under.
type Actor struct {
	User  *models.User
	Token *models.Token
	Stale bool
}

// SessionKiller closes a user's live sessions. Bans must bite immediately,
// not at the next sweep.
type SessionKiller interface {
	KickUser(user wire.UserID, event wire.ServerEvent)
}

// NopKiller ignores kicks.
type NopKiller struct{}

func (NopKiller) KickUser(wire.UserID, wire.ServerEvent) {}

type Service struct {
	users    userrepo.Repository
	tokens   tokenrepo.Repository
	messages messagerepo.Repository
	reports  reportrepo.Repository
	killer   SessionKiller
	logger   logging.Logger

	now func() time.Time
}

func NewService(
	users userrepo.Repository,
	tokens tokenrepo.Repository,
	messages messagerepo.Repository,
	reports reportrepo.Repository,
	killer SessionKiller,
	logger logging.Logger,
) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		messages: messages,
		reports:  reports,
		killer:   killer,
		logger:   logger,
		now:      time.Now,
	}
}

// requireAdmin gates every admin operation: a fresh token carrying the administer
// permission and an account holding the specific grant.
func requireAdmin(actor *Actor, perm wire.AdminPermissionFlags) error {
	if actor.Stale {
		return wire.ErrStaleToken
	}
	if !actor.Token.PermissionFlags.Has(wire.PermAdminister) {
		return wire.ErrAccessDenied
	}
	if !actor.User.AdminPermissions.Has(perm) {
		return wire.ErrInvalidPermissions
	}
	return nil
}

func (s *Service) target(ctx context.Context, id wire.UserID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.ErrInvalidUser
		}
		return nil, err
	}
	return user, nil
}

// dominates reports whether the actor's grants cover every grant of the
// target, so admins cannot act on peers above or beside them.
func dominates(actor *Actor, target *models.User) bool {
	return actor.User.AdminPermissions.Has(target.AdminPermissions)
}

// PromoteUser sets the target's admin grants. An admin can only hand out
// grants they hold themselves.
func (s *Service) PromoteUser(ctx context.Context, actor *Actor, req *wire.PromoteUser) error {
	if err := requireAdmin(actor, wire.AdminPromote); err != nil {
		return err
	}
	if !actor.User.AdminPermissions.Has(req.Permissions) {
		return wire.ErrInvalidPermissions
	}

	target, err := s.target(ctx, req.User)
	if err != nil {
		return err
	}
	if err := s.users.SetAdminPermissions(ctx, target.ID, req.Permissions); err != nil {
		return err
	}
	s.logger.Info(ctx, "user promoted", "user", target.ID, "by", actor.User.ID, "permissions", req.Permissions)
	return nil
}

func (s *Service) DemoteUser(ctx context.Context, actor *Actor, req *wire.DemoteUser) error {
	if err := requireAdmin(actor, wire.AdminDemote); err != nil {
		return err
	}
	target, err := s.target(ctx, req.User)
	if err != nil {
		return err
	}
	if !dominates(actor, target) {
		return wire.ErrInvalidPermissions
	}
	if err := s.users.SetAdminPermissions(ctx, target.ID, 0); err != nil {
		return err
	}
	s.logger.Info(ctx, "user demoted", "user", target.ID, "by", actor.User.ID)
	return nil
}

// BanUser flags the account, revokes every token and kicks live sessions,
// so the ban holds before the next sweep pass.
func (s *Service) BanUser(ctx context.Context, actor *Actor, req *wire.BanUser) error {
	if err := requireAdmin(actor, wire.AdminBan); err != nil {
		return err
	}
	target, err := s.target(ctx, req.User)
	if err != nil {
		return err
	}
	if !dominates(actor, target) {
		return wire.ErrInvalidPermissions
	}

	if err := s.users.SetBanned(ctx, target.ID, true); err != nil {
		return err
	}
	revoked, err := s.tokens.DeleteAllForUser(ctx, target.ID)
	if err != nil {
		return err
	}
	s.killer.KickUser(target.ID, wire.ServerEvent{SessionLoggedOut: &wire.Unit{}})
	s.logger.Info(ctx, "user banned", "user", target.ID, "by", actor.User.ID, "tokens_revoked", revoked)
	return nil
}

func (s *Service) UnbanUser(ctx context.Context, actor *Actor, req *wire.UnbanUser) error {
	if err := requireAdmin(actor, wire.AdminBan); err != nil {
		return err
	}
	target, err := s.target(ctx, req.User)
	if err != nil {
		return err
	}
	if err := s.users.SetBanned(ctx, target.ID, false); err != nil {
		return err
	}
	s.logger.Info(ctx, "user unbanned", "user", target.ID, "by", actor.User.ID)
	return nil
}

func (s *Service) UnlockUser(ctx context.Context, actor *Actor, req *wire.UnlockUser) error {
	if err := requireAdmin(actor, wire.AdminBan); err != nil {
		return err
	}
	target, err := s.target(ctx, req.User)
	if err != nil {
		return err
	}
	if err := s.users.SetLocked(ctx, target.ID, false); err != nil {
		return err
	}
	s.logger.Info(ctx, "user unlocked", "user", target.ID, "by", actor.User.ID)
	return nil
}

func (s *Service) SearchUser(ctx context.Context, actor *Actor, req *wire.SearchUser) (*wire.SearchedUsers, error) {
	if err := requireAdmin(actor, wire.AdminIsAdmin); err != nil {
		return nil, err
	}
	found, err := s.users.SearchByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return &wire.SearchedUsers{Users: serverUsers(found)}, nil
}

func (s *Service) ListAllUsers(ctx context.Context, actor *Actor) (*wire.SearchedUsers, error) {
	if err := requireAdmin(actor, wire.AdminIsAdmin); err != nil {
		return nil, err
	}
	all, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &wire.SearchedUsers{Users: serverUsers(all)}, nil
}

func (s *Service) ListAllAdmins(ctx context.Context, actor *Actor) (*wire.AdminList, error) {
	if err := requireAdmin(actor, wire.AdminIsAdmin); err != nil {
		return nil, err
	}
	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]wire.Admin, 0, len(admins))
	for _, user := range admins {
		result = append(result, wire.Admin{
			ID:          user.ID,
			Username:    user.Username,
			Permissions: user.AdminPermissions,
		})
	}
	return &wire.AdminList{Admins: result}, nil
}

// SearchReports runs a conjunctive filter over stored reports. A username
// filter that matches no account matches no reports.
func (s *Service) SearchReports(ctx context.Context, actor *Actor, criteria *wire.SearchCriteria) (*wire.ReportList, error) {
	if err := requireAdmin(actor, wire.AdminIsAdmin); err != nil {
		return nil, err
	}
	if criteria.Status != nil && !criteria.Status.Valid() {
		return nil, wire.ErrInvalidMessage
	}

	filter := &reportrepo.Filter{
		Words:         strings.Fields(criteria.Words),
		Before:        criteria.BeforeDate,
		After:         criteria.AfterDate,
		CommunityName: criteria.InCommunity,
		RoomName:      criteria.InRoom,
		Status:        criteria.Status,
	}

	if criteria.OfUser != nil {
		user, err := s.users.GetByUsername(ctx, auth.NormalizeUsername(*criteria.OfUser))
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return &wire.ReportList{Reports: []wire.Report{}}, nil
			}
			return nil, err
		}
		filter.Reported = &user.ID
	}
	if criteria.ByUser != nil {
		user, err := s.users.GetByUsername(ctx, auth.NormalizeUsername(*criteria.ByUser))
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return &wire.ReportList{Reports: []wire.Report{}}, nil
			}
			return nil, err
		}
		filter.Reporter = &user.ID
	}

	found, err := s.reports.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := make([]wire.Report, 0, len(found))
	for _, report := range found {
		converted, err := s.wireReport(ctx, report)
		if err != nil {
			return nil, err
		}
		result = append(result, *converted)
	}
	return &wire.ReportList{Reports: result}, nil
}

// SetReportStatus transitions a report and records who did it in the
// append-only status log.
func (s *Service) SetReportStatus(ctx context.Context, actor *Actor, req *wire.SetReportStatus) error {
	if err := requireAdmin(actor, wire.AdminIsAdmin); err != nil {
		return err
	}
	if !req.Status.Valid() {
		return wire.ErrInvalidMessage
	}

	old, err := s.reports.SetStatus(ctx, req.Report, req.Status, actor.User.ID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return wire.ErrNotFound
		}
		return err
	}
	s.logger.Info(ctx, "report status changed",
		"report", req.Report, "old", old.String(), "new", req.Status.String(), "by", actor.User.ID)
	return nil
}

// SetAccountsCompromised is the blast-radius operation after a breach, so it
// demands the full admin grant. Compromised accounts cannot authenticate
// until they change their password.
func (s *Service) SetAccountsCompromised(ctx context.Context, actor *Actor, req *wire.SetAccountsCompromised) error {
	if err := requireAdmin(actor, wire.AdminAll); err != nil {
		return err
	}

	var (
		affected int64
		err      error
	)
	switch req.Type {
	case wire.CompromisedAll:
		affected, err = s.users.SetAllCompromised(ctx)
	case wire.CompromisedOldHashes:
		affected, err = s.users.SetLegacyHashCompromised(ctx, auth.LatestScheme)
	default:
		return wire.ErrInvalidMessage
	}
	if err != nil {
		return err
	}
	s.logger.Warn(ctx, "accounts flagged compromised", "count", affected, "by", actor.User.ID)
	return nil
}

func serverUsers(stored []*models.User) []wire.ServerUser {
	result := make([]wire.ServerUser, 0, len(stored))
	for _, user := range stored {
		result = append(result, wire.ServerUser{
			ID:               user.ID,
			Username:         user.Username,
			DisplayName:      user.DisplayName,
			Banned:           user.Banned,
			Locked:           user.Locked,
			Compromised:      user.Compromised,
			LatestHashScheme: user.HashSchemeVersion == auth.LatestScheme,
		})
	}
	return result
}

// wireReport assembles the admin-facing view. Usernames are resolved live;
// the message id is dropped if the row is gone, but the copied text remains.
func (s *Service) wireReport(ctx context.Context, report *models.Report) (*wire.Report, error) {
	reported, err := s.users.GetByID(ctx, report.Reported)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	result := &wire.Report{
		ID:       report.ID,
		Reported: wire.ReportUser{ID: report.Reported},
		Message: wire.ReportMessageRef{
			Text:   report.MessageText,
			SentAt: report.MessageSentAt,
		},
		Datetime:     report.Datetime,
		ShortDesc:    report.ShortDesc,
		ExtendedDesc: report.ExtendedDesc,
		Status:       report.Status,
	}
	if reported != nil {
		result.Reported.Username = reported.Username
	}

	if report.Reporter != nil {
		reporter := &wire.ReportUser{ID: *report.Reporter}
		if user, err := s.users.GetByID(ctx, *report.Reporter); err == nil {
			reporter.Username = user.Username
		} else if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		result.Reporter = reporter
	}

	if report.MessageID != nil {
		if _, err := s.messages.Get(ctx, *report.MessageID); err == nil {
			result.Message.ID = report.MessageID
		} else if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
	}

	if report.Community != nil {
		result.Community = &wire.ReportCommunity{ID: *report.Community, Name: report.CommunityName}
	}
	if report.Room != nil {
		result.Room = &wire.ReportRoom{ID: *report.Room, Name: report.RoomName}
	}
	return result, nil
}
