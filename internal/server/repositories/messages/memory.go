package messages

import (
	"context"
	"sync"
	"time"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

// MemoryRepository keeps messages in insertion order, which is id order by
// construction.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   wire.MessageID
	messages []*models.Message
	byID     map[wire.MessageID]*models.Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		byID:   make(map[wire.MessageID]*models.Message),
	}
}

func (r *MemoryRepository) Insert(_ context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *message
	stored.ID = r.nextID
	stored.TimeSent = time.Now()
	r.nextID++

	r.messages = append(r.messages, &stored)
	r.byID[stored.ID] = &stored

	message.ID = stored.ID
	message.TimeSent = stored.TimeSent
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id wire.MessageID) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	message, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	result := *message
	return &result, nil
}

func (r *MemoryRepository) UpdateContent(_ context.Context, id wire.MessageID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.byID[id]
	if !ok || message.Content == nil {
		return common.ErrNotFound
	}
	message.Content = &content
	return nil
}

func (r *MemoryRepository) MarkDeleted(_ context.Context, id wire.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	message.Content = nil
	return nil
}

func (r *MemoryRepository) Before(_ context.Context, room wire.RoomID, bound wire.MessageID, inclusive bool, count int) ([]*models.Message, error) {
	return r.window(room, count, false, func(id wire.MessageID) bool {
		if inclusive {
			return id <= bound
		}
		return id < bound
	}), nil
}

func (r *MemoryRepository) After(_ context.Context, room wire.RoomID, bound wire.MessageID, inclusive bool, count int) ([]*models.Message, error) {
	return r.window(room, count, true, func(id wire.MessageID) bool {
		if inclusive {
			return id >= bound
		}
		return id > bound
	}), nil
}

func (r *MemoryRepository) NewestAfter(_ context.Context, room wire.RoomID, after *wire.MessageID, count int) ([]*models.Message, error) {
	return r.window(room, count, false, func(id wire.MessageID) bool {
		return after == nil || id > *after
	}), nil
}

func (r *MemoryRepository) NewestID(_ context.Context, room wire.RoomID) (*wire.MessageID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Room == room {
			id := r.messages[i].ID
			return &id, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) HasAfter(_ context.Context, room wire.RoomID, after *wire.MessageID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.messages) - 1; i >= 0; i-- {
		message := r.messages[i]
		if message.Room != room {
			continue
		}
		return after == nil || message.ID > *after, nil
	}
	return false, nil
}

// window collects up to count matching messages. fromStart picks the oldest
// matches; otherwise the newest. Results are ascending either way.
func (r *MemoryRepository) window(room wire.RoomID, count int, fromStart bool, match func(wire.MessageID) bool) []*models.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Message
	if fromStart {
		for _, message := range r.messages {
			if len(result) == count {
				break
			}
			if message.Room == room && match(message.ID) {
				copied := *message
				result = append(result, &copied)
			}
		}
		return result
	}

	for i := len(r.messages) - 1; i >= 0 && len(result) < count; i-- {
		message := r.messages[i]
		if message.Room == room && match(message.ID) {
			copied := *message
			result = append(result, &copied)
		}
	}
	reverse(result)
	return result
}
