package models

import (
	"time"

	"github.com/parlor-chat/parlor/internal/wire"
)

// Report is one moderation record. Referenced entities may disappear after
// the report is filed; the message text and the community and room names are
// copied at filing time so later deletions cannot hollow out the report.
type Report struct {
	ID            wire.ReportID
	Datetime      time.Time
	Reported      wire.UserID
	Reporter      *wire.UserID
	Community     *wire.CommunityID
	CommunityName string
	Room          *wire.RoomID
	RoomName      string
	MessageID     *wire.MessageID
	MessageText   string
	MessageSentAt time.Time
	ShortDesc     string
	ExtendedDesc  string
	Status        wire.ReportStatus
}

// ReportStatusChange is one entry of the report status log. Every transition
// is recorded with its actor; the log is append-only.
type ReportStatusChange struct {
	Report wire.ReportID
	Old    wire.ReportStatus
	New    wire.ReportStatus
	Actor  wire.UserID
	At     time.Time
}
