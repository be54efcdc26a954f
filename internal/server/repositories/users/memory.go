package users

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

// MemoryRepository keeps accounts in process memory. Used by tests and by
// the in-memory repository manager.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[wire.UserID]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[wire.UserID]*models.User)}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, common.ErrDuplicate
		}
	}

	stored := *user
	stored.ProfileVersion = 1
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.users[stored.ID] = &stored

	result := stored
	return &result, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id wire.UserID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	result := *user
	return &result, nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			result := *user
			return &result, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryRepository) UpdatePassword(_ context.Context, id wire.UserID, hash string, scheme auth.HashSchemeVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	user.PasswordHash = hash
	user.HashSchemeVersion = scheme
	user.Compromised = false
	return nil
}

func (r *MemoryRepository) UpdateUsername(_ context.Context, id wire.UserID, username string) (wire.ProfileVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for otherID, other := range r.users {
		if otherID != id && other.Username == username {
			return 0, common.ErrDuplicate
		}
	}

	user, ok := r.users[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	user.Username = username
	user.ProfileVersion++
	return user.ProfileVersion, nil
}

func (r *MemoryRepository) UpdateDisplayName(_ context.Context, id wire.UserID, displayName string) (wire.ProfileVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	user.DisplayName = displayName
	user.ProfileVersion++
	return user.ProfileVersion, nil
}

func (r *MemoryRepository) SetBanned(_ context.Context, id wire.UserID, banned bool) error {
	return r.update(id, func(u *models.User) { u.Banned = banned })
}

func (r *MemoryRepository) SetLocked(_ context.Context, id wire.UserID, locked bool) error {
	return r.update(id, func(u *models.User) { u.Locked = locked })
}

func (r *MemoryRepository) SetCompromised(_ context.Context, id wire.UserID, compromised bool) error {
	return r.update(id, func(u *models.User) { u.Compromised = compromised })
}

func (r *MemoryRepository) SetAllCompromised(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, user := range r.users {
		if !user.Compromised {
			user.Compromised = true
			affected++
		}
	}
	return affected, nil
}

func (r *MemoryRepository) SetLegacyHashCompromised(_ context.Context, latest auth.HashSchemeVersion) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, user := range r.users {
		if user.HashSchemeVersion < latest && !user.Compromised {
			user.Compromised = true
			affected++
		}
	}
	return affected, nil
}

func (r *MemoryRepository) SetAdminPermissions(_ context.Context, id wire.UserID, flags wire.AdminPermissionFlags) error {
	return r.update(id, func(u *models.User) { u.AdminPermissions = flags })
}

func (r *MemoryRepository) SearchByName(_ context.Context, name string) ([]*models.User, error) {
	needle := auth.NormalizeUsername(name)
	return r.filter(func(u *models.User) bool {
		return strings.Contains(u.Username, needle)
	}), nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]*models.User, error) {
	return r.filter(func(*models.User) bool { return true }), nil
}

func (r *MemoryRepository) ListAdmins(_ context.Context) ([]*models.User, error) {
	return r.filter(func(u *models.User) bool { return u.AdminPermissions != 0 }), nil
}

func (r *MemoryRepository) update(id wire.UserID, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	fn(user)
	return nil
}

func (r *MemoryRepository) filter(keep func(*models.User) bool) []*models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.User
	for _, user := range r.users {
		if keep(user) {
			copied := *user
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Username < result[j].Username })
	return result
}
