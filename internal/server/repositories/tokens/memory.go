package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/auth"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	tokens map[wire.DeviceID]*models.Token
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tokens: make(map[wire.DeviceID]*models.Token)}
}

func (r *MemoryRepository) Create(_ context.Context, token *models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *token
	r.tokens[stored.Device] = &stored
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, device wire.DeviceID) (*models.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.tokens[device]
	if !ok {
		return nil, common.ErrNotFound
	}
	result := *token
	return &result, nil
}

func (r *MemoryRepository) Refresh(_ context.Context, device wire.DeviceID, hash string, scheme auth.HashSchemeVersion, createdAt, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[device]
	if !ok {
		return common.ErrNotFound
	}
	token.TokenHash = hash
	token.HashSchemeVersion = scheme
	token.CreatedAt = createdAt
	token.ExpiresAt = expiresAt
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, device wire.DeviceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, device)
	return nil
}

func (r *MemoryRepository) DeleteAllForUser(_ context.Context, user wire.UserID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for device, token := range r.tokens {
		if token.User == user {
			delete(r.tokens, device)
			affected++
		}
	}
	return affected, nil
}

func (r *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for device, token := range r.tokens {
		// Re-check the predicate under the lock so a token refreshed after
		// the sweep started survives.
		if token.Expired(now) {
			delete(r.tokens, device)
			affected++
		}
	}
	return affected, nil
}
