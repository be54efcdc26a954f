// Package reports stores moderation reports and their status history.
package reports

import (
	"context"
	"time"

	"github.com/parlor-chat/parlor/internal/server/models"
	"github.com/parlor-chat/parlor/internal/wire"
)

// Filter is a conjunction over its present fields; absent fields are
// unconstrained. Words must each appear, case-insensitively, in the short
// description, the extended description, or the reported message text.
// Community and room names match as case-insensitive substrings of the names
// captured at filing time.
type Filter struct {
	Words         []string
	Reported      *wire.UserID
	Reporter      *wire.UserID
	Before        *time.Time
	After         *time.Time
	CommunityName *string
	RoomName      *string
	Status        *wire.ReportStatus
}

type Repository interface {
	// Create assigns the report its id; status starts as opened.
	Create(ctx context.Context, report *models.Report) error
	Get(ctx context.Context, id wire.ReportID) (*models.Report, error)
	// SetStatus records the transition in the status log and returns the
	// previous status.
	SetStatus(ctx context.Context, id wire.ReportID, status wire.ReportStatus, actor wire.UserID, at time.Time) (wire.ReportStatus, error)
	Search(ctx context.Context, filter *Filter) ([]*models.Report, error)
	StatusLog(ctx context.Context, id wire.ReportID) ([]*models.ReportStatusChange, error)
}
