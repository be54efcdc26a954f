// Package tokens implements the account and token lifecycle: registration,
// token issuance, refresh, revocation, login and password changes. Every
// failure surfaces as one of the closed wire.AuthError values; anything else
// collapses to AuthInternal at the transport.
package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/config"
	"github.com/parlor-chat/parlor/internal/server/models"
	tokenrepo "github.com/parlor-chat/parlor/internal/server/repositories/tokens"
	userrepo "github.com/parlor-chat/parlor/internal/server/repositories/users"
	"github.com/parlor-chat/parlor/internal/wire"
)

type Service struct {
	users  userrepo.Repository
	tokens tokenrepo.Repository
	cfg    *config.Config
	secret []byte

	// now is a seam for lifecycle tests.
	now func() time.Time
}

func NewService(users userrepo.Repository, tokens tokenrepo.Repository, cfg *config.Config) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		secret: []byte(cfg.SecretKey),
		now:    time.Now,
	}
}

// Login is the result of presenting a valid token: the account and the token
// row the session is bound to.
type Login struct {
	User  *models.User
	Token *models.Token
}

// verifyCredentials resolves the username and checks the password. It does
// not check account state; callers decide which states block which
// operations.
func (s *Service) verifyCredentials(ctx context.Context, creds wire.Credentials) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, auth.NormalizeUsername(creds.Username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.AuthIncorrectCredentials
		}
		return nil, err
	}
	if !auth.Verify(creds.Password, user.PasswordHash, user.HashSchemeVersion) {
		return nil, wire.AuthIncorrectCredentials
	}
	return user, nil
}

// checkAccountUsable blocks banned, locked and compromised accounts from
// acquiring or using tokens. Compromised is checked last so a banned
// compromised account reads as banned.
func checkAccountUsable(user *models.User) error {
	if user.Banned {
		return wire.AuthUserBanned
	}
	if user.Locked {
		return wire.AuthUserLocked
	}
	if user.Compromised {
		return wire.AuthUserCompromised
	}
	return nil
}

// CreateToken issues a token for a fresh device. Requested permission flags
// are intersected with the account's flags so a token can narrow but never
// widen what the user may do.
func (s *Service) CreateToken(ctx context.Context, creds wire.Credentials, options wire.TokenCreationOptions) (*wire.NewToken, error) {
	user, err := s.verifyCredentials(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := checkAccountUsable(user); err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.TokenExpiryAge)
	if options.ExpirationDate != nil && options.ExpirationDate.Before(expiresAt) {
		expiresAt = *options.ExpirationDate
	}

	secret, err := auth.NewSecret()
	if err != nil {
		return nil, err
	}
	hash, scheme, err := auth.Hash(secret)
	if err != nil {
		return nil, err
	}

	device := wire.DeviceID(uuid.New())
	token := &models.Token{
		Device:            device,
		User:              user.ID,
		TokenHash:         hash,
		HashSchemeVersion: scheme,
		DeviceName:        options.DeviceName,
		CreatedAt:         now,
		ExpiresAt:         expiresAt,
		PermissionFlags:   options.PermissionFlags & user.PermissionFlags,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, err
	}

	signed, err := auth.SignToken(uuid.UUID(device), secret, s.secret, expiresAt)
	if err != nil {
		return nil, err
	}
	return &wire.NewToken{Device: device, Token: wire.AuthToken(signed)}, nil
}

// Login validates a presented token string against its stored row. Stale
// tokens may still log in; staleness only blocks mutating operations.
func (s *Service) Login(ctx context.Context, device wire.DeviceID, tokenString wire.AuthToken) (*Login, error) {
	claimedDevice, secret, ok := auth.ParseToken(string(tokenString), s.secret, s.now)
	if !ok || wire.DeviceID(claimedDevice) != device {
		return nil, wire.AuthInvalidToken
	}

	token, err := s.tokens.Get(ctx, device)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.AuthInvalidToken
		}
		return nil, err
	}
	if !auth.Verify(secret, token.TokenHash, token.HashSchemeVersion) {
		return nil, wire.AuthInvalidToken
	}
	// The sweep may not have caught it yet.
	if token.Expired(s.now()) {
		return nil, wire.AuthInvalidToken
	}

	user, err := s.users.GetByID(ctx, token.User)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.AuthInvalidUser
		}
		return nil, err
	}
	if err := checkAccountUsable(user); err != nil {
		return nil, err
	}

	return &Login{User: user, Token: token}, nil
}

// ReloadUser re-reads the account backing a login so long-lived sessions see
// password, profile and permission changes made through other connections.
func (s *Service) ReloadUser(ctx context.Context, login *Login) error {
	user, err := s.users.GetByID(ctx, login.User.ID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return wire.AuthInvalidUser
		}
		return err
	}
	login.User = user
	return nil
}

// RefreshToken replaces the token's secret and restarts its stale and expiry
// clocks. It requires full credentials, which is what makes a stale token
// trustworthy again.
func (s *Service) RefreshToken(ctx context.Context, creds wire.Credentials, device wire.DeviceID) (*wire.NewToken, error) {
	user, err := s.verifyCredentials(ctx, creds)
	if err != nil {
		return nil, err
	}
	if err := checkAccountUsable(user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Get(ctx, device)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, wire.AuthInvalidToken
		}
		return nil, err
	}
	if token.User != user.ID {
		return nil, wire.AuthInvalidToken
	}
	if token.Expired(s.now()) {
		return nil, wire.AuthInvalidToken
	}

	secret, err := auth.NewSecret()
	if err != nil {
		return nil, err
	}
	hash, scheme, err := auth.Hash(secret)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.TokenExpiryAge)
	if err := s.tokens.Refresh(ctx, device, hash, scheme, now, expiresAt); err != nil {
		return nil, err
	}

	signed, err := auth.SignToken(uuid.UUID(device), secret, s.secret, expiresAt)
	if err != nil {
		return nil, err
	}
	return &wire.NewToken{Device: device, Token: wire.AuthToken(signed)}, nil
}

// RevokeToken deletes the device's token row. Revoking a device that has no
// live token succeeds: the caller wants the token gone and it is.
func (s *Service) RevokeToken(ctx context.Context, creds wire.Credentials, device wire.DeviceID) error {
	user, err := s.verifyCredentials(ctx, creds)
	if err != nil {
		return err
	}

	token, err := s.tokens.Get(ctx, device)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}
	if token.User != user.ID {
		return wire.AuthInvalidToken
	}
	return s.tokens.Delete(ctx, device)
}

// RevokeAllForUser drops every token of the account. Used when a user is
// banned or locked so the ban takes effect before the next sweep.
func (s *Service) RevokeAllForUser(ctx context.Context, user wire.UserID) (int64, error) {
	return s.tokens.DeleteAllForUser(ctx, user)
}

// RegisterUser creates an account. The username is normalized before the
// uniqueness check so confusable variants collide.
func (s *Service) RegisterUser(ctx context.Context, creds wire.Credentials, displayName *string) (wire.UserID, error) {
	username := auth.NormalizeUsername(creds.Username)
	if !auth.ValidLength(username, s.cfg.MinUsernameLen, s.cfg.MaxUsernameLen) {
		return wire.UserID{}, wire.AuthInvalidUsername
	}
	if !auth.ValidLength(creds.Password, s.cfg.MinPasswordLen, s.cfg.MaxPasswordLen) {
		return wire.UserID{}, wire.AuthInvalidPassword
	}

	name := username
	if displayName != nil {
		name = *displayName
	}
	if !auth.ValidLength(name, s.cfg.MinDisplayNameLen, s.cfg.MaxDisplayNameLen) {
		return wire.UserID{}, wire.AuthInvalidDisplayName
	}

	hash, scheme, err := auth.Hash(creds.Password)
	if err != nil {
		return wire.UserID{}, err
	}

	user := &models.User{
		ID:                wire.UserID(uuid.New()),
		Username:          username,
		DisplayName:       name,
		PasswordHash:      hash,
		HashSchemeVersion: scheme,
		PermissionFlags:   wire.PermAll,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return wire.UserID{}, wire.AuthUsernameAlreadyExists
		}
		return wire.UserID{}, err
	}
	return user.ID, nil
}

// ChangePassword rehashes with the latest scheme and clears the compromised
// flag. Locked and compromised accounts may change their password; that is
// the way back in. Existing tokens stay valid.
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	user, err := s.users.GetByUsername(ctx, auth.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return wire.AuthIncorrectCredentials
		}
		return err
	}
	if !auth.Verify(oldPassword, user.PasswordHash, user.HashSchemeVersion) {
		return wire.AuthIncorrectCredentials
	}
	if user.Banned {
		return wire.AuthUserBanned
	}
	if !auth.ValidLength(newPassword, s.cfg.MinPasswordLen, s.cfg.MaxPasswordLen) {
		return wire.AuthInvalidPassword
	}

	hash, scheme, err := auth.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash, scheme)
}

// Stale reports whether the token has crossed the stale threshold.
func (s *Service) Stale(token *models.Token) bool {
	return token.Stale(s.now(), s.cfg.TokenStaleAge)
}

// Sweep deletes expired token rows and returns how many went.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now())
}
