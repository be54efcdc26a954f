package communities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/parlor-chat/parlor/internal/common"
	"github.com/parlor-chat/parlor/internal/dbx"
	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateCommunity(ctx context.Context, community *models.Community) error {
	query :=
		`INSERT INTO communities (id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		community.ID, community.Name, community.Description).Scan(&community.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetCommunity(ctx context.Context, id wire.CommunityID) (*models.Community, error) {
	query := `SELECT id, name, description, created_at FROM communities WHERE id = $1`

	community := &models.Community{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&community.ID, &community.Name, &community.Description, &community.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return community, nil
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id wire.CommunityID, name string) error {
	return r.exec(ctx, `UPDATE communities SET name = $2 WHERE id = $1`, id, name)
}

func (r *PostgresRepository) UpdateDescription(ctx context.Context, id wire.CommunityID, description string) error {
	return r.exec(ctx, `UPDATE communities SET description = $2 WHERE id = $1`, id, description)
}

func (r *PostgresRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	query :=
		`INSERT INTO rooms (id, community, name)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, room.ID, room.Community, room.Name).Scan(&room.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetRoom(ctx context.Context, id wire.RoomID) (*models.Room, error) {
	query := `SELECT id, community, name, created_at FROM rooms WHERE id = $1`

	room := &models.Room{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID, &room.Community, &room.Name, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return room, nil
}

func (r *PostgresRepository) RoomsOf(ctx context.Context, community wire.CommunityID) ([]*models.Room, error) {
	query := `SELECT id, community, name, created_at FROM rooms WHERE community = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, community)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Room
	for rows.Next() {
		room := &models.Room{}
		if err := rows.Scan(&room.ID, &room.Community, &room.Name, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) AddMember(ctx context.Context, community wire.CommunityID, user wire.UserID) error {
	query := `INSERT INTO community_members (community, user_id) VALUES ($1, $2)`

	_, err := r.db.ExecContext(ctx, query, community, user)
	if err != nil {
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return common.ErrDuplicate
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IsMember(ctx context.Context, community wire.CommunityID, user wire.UserID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM community_members WHERE community = $1 AND user_id = $2)`

	var member bool
	if err := r.db.QueryRowContext(ctx, query, community, user).Scan(&member); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return member, nil
}

func (r *PostgresRepository) Members(ctx context.Context, community wire.CommunityID) ([]wire.UserID, error) {
	query := `SELECT user_id FROM community_members WHERE community = $1`

	rows, err := r.db.QueryContext(ctx, query, community)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []wire.UserID
	for rows.Next() {
		var user wire.UserID
		if err := rows.Scan(&user); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CommunitiesOf(ctx context.Context, user wire.UserID) ([]*models.Community, error) {
	query :=
		`SELECT c.id, c.name, c.description, c.created_at
		 FROM communities c
		 JOIN community_members m ON m.community = c.id
		 WHERE m.user_id = $1
		 ORDER BY m.joined_at, c.id
		 `

	rows, err := r.db.QueryContext(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Community
	for rows.Next() {
		community := &models.Community{}
		if err := rows.Scan(&community.ID, &community.Name, &community.Description, &community.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, community)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetLastRead(ctx context.Context, room wire.RoomID, user wire.UserID) (*wire.MessageID, error) {
	query := `SELECT last_read FROM room_states WHERE room = $1 AND user_id = $2`

	var lastRead wire.MessageID
	err := r.db.QueryRowContext(ctx, query, room, user).Scan(&lastRead)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &lastRead, nil
}

func (r *PostgresRepository) SetLastRead(ctx context.Context, room wire.RoomID, user wire.UserID, id wire.MessageID) error {
	query :=
		`INSERT INTO room_states (room, user_id, last_read)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (room, user_id) DO UPDATE SET last_read = GREATEST(room_states.last_read, EXCLUDED.last_read)
		 `

	_, err := r.db.ExecContext(ctx, query, room, user, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
