package communities

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type membership struct {
	community wire.CommunityID
	user      wire.UserID
}

type roomState struct {
	room wire.RoomID
	user wire.UserID
}

type MemoryRepository struct {
	mu          sync.RWMutex
	communities map[wire.CommunityID]*models.Community
	rooms       map[wire.RoomID]*models.Room
	members     map[membership]time.Time
	lastRead    map[roomState]wire.MessageID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		communities: make(map[wire.CommunityID]*models.Community),
		rooms:       make(map[wire.RoomID]*models.Room),
		members:     make(map[membership]time.Time),
		lastRead:    make(map[roomState]wire.MessageID),
	}
}

func (r *MemoryRepository) CreateCommunity(_ context.Context, community *models.Community) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *community
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.communities[stored.ID] = &stored
	community.CreatedAt = stored.CreatedAt
	return nil
}

func (r *MemoryRepository) GetCommunity(_ context.Context, id wire.CommunityID) (*models.Community, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	community, ok := r.communities[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	result := *community
	return &result, nil
}

func (r *MemoryRepository) UpdateName(_ context.Context, id wire.CommunityID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	community, ok := r.communities[id]
	if !ok {
		return common.ErrNotFound
	}
	community.Name = name
	return nil
}

func (r *MemoryRepository) UpdateDescription(_ context.Context, id wire.CommunityID, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	community, ok := r.communities[id]
	if !ok {
		return common.ErrNotFound
	}
	community.Description = description
	return nil
}

func (r *MemoryRepository) CreateRoom(_ context.Context, room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *room
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.rooms[stored.ID] = &stored
	room.CreatedAt = stored.CreatedAt
	return nil
}

func (r *MemoryRepository) GetRoom(_ context.Context, id wire.RoomID) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	result := *room
	return &result, nil
}

func (r *MemoryRepository) RoomsOf(_ context.Context, community wire.CommunityID) ([]*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Room
	for _, room := range r.rooms {
		if room.Community == community {
			copied := *room
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (r *MemoryRepository) AddMember(_ context.Context, community wire.CommunityID, user wire.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := membership{community: community, user: user}
	if _, ok := r.members[key]; ok {
		return common.ErrDuplicate
	}
	r.members[key] = time.Now()
	return nil
}

func (r *MemoryRepository) IsMember(_ context.Context, community wire.CommunityID, user wire.UserID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[membership{community: community, user: user}]
	return ok, nil
}

func (r *MemoryRepository) Members(_ context.Context, community wire.CommunityID) ([]wire.UserID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []wire.UserID
	for key := range r.members {
		if key.community == community {
			result = append(result, key.user)
		}
	}
	return result, nil
}

func (r *MemoryRepository) CommunitiesOf(_ context.Context, user wire.UserID) ([]*models.Community, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type joined struct {
		community *models.Community
		at        time.Time
	}
	var memberships []joined
	for key, at := range r.members {
		if key.user != user {
			continue
		}
		if community, ok := r.communities[key.community]; ok {
			copied := *community
			memberships = append(memberships, joined{community: &copied, at: at})
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		if !memberships[i].at.Equal(memberships[j].at) {
			return memberships[i].at.Before(memberships[j].at)
		}
		return memberships[i].community.ID.String() < memberships[j].community.ID.String()
	})

	result := make([]*models.Community, 0, len(memberships))
	for _, m := range memberships {
		result = append(result, m.community)
	}
	return result, nil
}

func (r *MemoryRepository) GetLastRead(_ context.Context, room wire.RoomID, user wire.UserID) (*wire.MessageID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.lastRead[roomState{room: room, user: user}]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (r *MemoryRepository) SetLastRead(_ context.Context, room wire.RoomID, user wire.UserID, id wire.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := roomState{room: room, user: user}
	// The read position only moves forward.
	if current, ok := r.lastRead[key]; ok && current >= id {
		return nil
	}
	r.lastRead[key] = id
	return nil
}
