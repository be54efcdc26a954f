package invites

import (
	"context"
	"sync"
	"time"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	invites map[wire.InviteCode]*models.Invite
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{invites: make(map[wire.InviteCode]*models.Invite)}
}

func (r *MemoryRepository) Create(_ context.Context, invite *models.Invite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *invite
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.invites[stored.Code] = &stored
	invite.CreatedAt = stored.CreatedAt
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, code wire.InviteCode) (*models.Invite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invite, ok := r.invites[code]
	if !ok {
		return nil, common.ErrNotFound
	}
	result := *invite
	return &result, nil
}

func (r *MemoryRepository) CountForCommunity(_ context.Context, community wire.CommunityID, now time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, invite := range r.invites {
		if invite.Community == community && !invite.Expired(now) {
			count++
		}
	}
	return count, nil
}
