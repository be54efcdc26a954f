package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Insert(ctx context.Context, message *models.Message) error {
	query :=
		`INSERT INTO messages (author, community, room, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, time_sent
		 `

	err := r.db.QueryRowContext(ctx, query,
		message.Author, message.Community, message.Room, message.Content).
		Scan(&message.ID, &message.TimeSent)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id wire.MessageID) (*models.Message, error) {
	query := `SELECT id, author, community, room, time_sent, content FROM messages WHERE id = $1`

	message := &models.Message{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&message.ID, &message.Author, &message.Community, &message.Room,
		&message.TimeSent, &message.Content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return message, nil
}

func (r *PostgresRepository) UpdateContent(ctx context.Context, id wire.MessageID, content string) error {
	query := `UPDATE messages SET content = $2 WHERE id = $1 AND content IS NOT NULL`
	return r.exec(ctx, query, id, content)
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, id wire.MessageID) error {
	query := `UPDATE messages SET content = NULL WHERE id = $1`
	return r.exec(ctx, query, id)
}

func (r *PostgresRepository) Before(ctx context.Context, room wire.RoomID, bound wire.MessageID, inclusive bool, count int) ([]*models.Message, error) {
	op := "<"
	if inclusive {
		op = "<="
	}
	// Newest matching rows first, then reversed to ascending delivery order.
	query := fmt.Sprintf(
		`SELECT id, author, community, room, time_sent, content
		 FROM messages WHERE room = $1 AND id %s $2
		 ORDER BY id DESC LIMIT $3`, op)

	result, err := r.queryMessages(ctx, query, room, bound, count)
	if err != nil {
		return nil, err
	}
	reverse(result)
	return result, nil
}

func (r *PostgresRepository) After(ctx context.Context, room wire.RoomID, bound wire.MessageID, inclusive bool, count int) ([]*models.Message, error) {
	op := ">"
	if inclusive {
		op = ">="
	}
	query := fmt.Sprintf(
		`SELECT id, author, community, room, time_sent, content
		 FROM messages WHERE room = $1 AND id %s $2
		 ORDER BY id LIMIT $3`, op)

	return r.queryMessages(ctx, query, room, bound, count)
}

func (r *PostgresRepository) NewestAfter(ctx context.Context, room wire.RoomID, after *wire.MessageID, count int) ([]*models.Message, error) {
	var (
		result []*models.Message
		err    error
	)
	if after == nil {
		query :=
			`SELECT id, author, community, room, time_sent, content
			 FROM messages WHERE room = $1
			 ORDER BY id DESC LIMIT $2`
		result, err = r.queryMessages(ctx, query, room, count)
	} else {
		query :=
			`SELECT id, author, community, room, time_sent, content
			 FROM messages WHERE room = $1 AND id > $2
			 ORDER BY id DESC LIMIT $3`
		result, err = r.queryMessages(ctx, query, room, *after, count)
	}
	if err != nil {
		return nil, err
	}
	reverse(result)
	return result, nil
}

func (r *PostgresRepository) NewestID(ctx context.Context, room wire.RoomID) (*wire.MessageID, error) {
	query := `SELECT max(id) FROM messages WHERE room = $1`

	var id sql.NullInt64
	if err := r.db.QueryRowContext(ctx, query, room).Scan(&id); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !id.Valid {
		return nil, nil
	}
	result := wire.MessageID(id.Int64)
	return &result, nil
}

func (r *PostgresRepository) HasAfter(ctx context.Context, room wire.RoomID, after *wire.MessageID) (bool, error) {
	var bound wire.MessageID
	if after != nil {
		bound = *after
	}
	query := `SELECT EXISTS (SELECT 1 FROM messages WHERE room = $1 AND id > $2)`

	var has bool
	if err := r.db.QueryRowContext(ctx, query, room, bound).Scan(&has); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return has, nil
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

func (r *PostgresRepository) queryMessages(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		message := &models.Message{}
		if err := rows.Scan(&message.ID, &message.Author, &message.Community, &message.Room,
			&message.TimeSent, &message.Content); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func reverse(messages []*models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
