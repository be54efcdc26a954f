package reports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
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

const reportColumns = `id, datetime, reported, reporter, community, community_name,
	 room, room_name, message_id, message_text, message_sent_at,
	 short_desc, extended_desc, status`

func (r *PostgresRepository) Create(ctx context.Context, report *models.Report) error {
	query :=
		`INSERT INTO reports (reported, reporter, community, community_name, room, room_name,
		                      message_id, message_text, message_sent_at, short_desc, extended_desc)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, datetime, status
		 `

	err := r.db.QueryRowContext(ctx, query,
		report.Reported, report.Reporter, report.Community, report.CommunityName,
		report.Room, report.RoomName, report.MessageID, report.MessageText,
		report.MessageSentAt, report.ShortDesc, report.ExtendedDesc).
		Scan(&report.ID, &report.Datetime, &report.Status)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id wire.ReportID) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id wire.ReportID, status wire.ReportStatus, actor wire.UserID, at time.Time) (wire.ReportStatus, error) {
	var old wire.ReportStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM reports WHERE id = $1`, id).Scan(&old)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE reports SET status = $2 WHERE id = $1`, id, status); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	logQuery :=
		`INSERT INTO report_status_log (report, old_status, new_status, actor, changed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `
	if _, err := r.db.ExecContext(ctx, logQuery, id, old, status, actor, at); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return old, nil
}

func (r *PostgresRepository) Search(ctx context.Context, filter *Filter) ([]*models.Report, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, word := range filter.Words {
		p := arg("%" + word + "%")
		conds = append(conds, fmt.Sprintf(
			"(short_desc ILIKE %[1]s OR extended_desc ILIKE %[1]s OR message_text ILIKE %[1]s)", p))
	}
	if filter.Reported != nil {
		conds = append(conds, "reported = "+arg(*filter.Reported))
	}
	if filter.Reporter != nil {
		conds = append(conds, "reporter = "+arg(*filter.Reporter))
	}
	if filter.Before != nil {
		conds = append(conds, "datetime <= "+arg(*filter.Before))
	}
	if filter.After != nil {
		conds = append(conds, "datetime >= "+arg(*filter.After))
	}
	if filter.CommunityName != nil {
		conds = append(conds, "community_name ILIKE "+arg("%"+*filter.CommunityName+"%"))
	}
	if filter.RoomName != nil {
		conds = append(conds, "room_name ILIKE "+arg("%"+*filter.RoomName+"%"))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(*filter.Status))
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) StatusLog(ctx context.Context, id wire.ReportID) ([]*models.ReportStatusChange, error) {
	query :=
		`SELECT report, old_status, new_status, actor, changed_at
		 FROM report_status_log WHERE report = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ReportStatusChange
	for rows.Next() {
		change := &models.ReportStatusChange{}
		if err := rows.Scan(&change.Report, &change.Old, &change.New, &change.Actor, &change.At); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func scanReport(row interface{ Scan(...any) error }) (*models.Report, error) {
	var (
		report    models.Report
		reporter  uuid.NullUUID
		community uuid.NullUUID
		room      uuid.NullUUID
		messageID sql.NullInt64
	)

	err := row.Scan(&report.ID, &report.Datetime, &report.Reported, &reporter,
		&community, &report.CommunityName, &room, &report.RoomName,
		&messageID, &report.MessageText, &report.MessageSentAt,
		&report.ShortDesc, &report.ExtendedDesc, &report.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if reporter.Valid {
		id := wire.UserID(reporter.UUID)
		report.Reporter = &id
	}
	if community.Valid {
		id := wire.CommunityID(community.UUID)
		report.Community = &id
	}
	if room.Valid {
		id := wire.RoomID(room.UUID)
		report.Room = &id
	}
	if messageID.Valid {
		id := wire.MessageID(messageID.Int64)
		report.MessageID = &id
	}
	return &report, nil
}
