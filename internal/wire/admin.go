package wire

import "time"

// AdminRequest is the union of moderation operations. Exactly one variant
// must be present; every variant additionally requires the caller's admin
// permission flags to dominate the operation's capability.
type AdminRequest struct {
	PromoteUser            *PromoteUser            `cbor:"promote_user,omitempty"`
	DemoteUser             *DemoteUser             `cbor:"demote_user,omitempty"`
	BanUser                *BanUser                `cbor:"ban_user,omitempty"`
	UnbanUser              *UnbanUser              `cbor:"unban_user,omitempty"`
	UnlockUser             *UnlockUser             `cbor:"unlock_user,omitempty"`
	SearchUser             *SearchUser             `cbor:"search_user,omitempty"`
	ListAllUsers           *Unit                   `cbor:"list_all_users,omitempty"`
	ListAllAdmins          *Unit                   `cbor:"list_all_admins,omitempty"`
	SearchReports          *SearchCriteria         `cbor:"search_for_reports,omitempty"`
	SetReportStatus        *SetReportStatus        `cbor:"set_report_status,omitempty"`
	SetAccountsCompromised *SetAccountsCompromised `cbor:"set_accounts_compromised,omitempty"`
}

type PromoteUser struct {
	User        UserID               `cbor:"user"`
	Permissions AdminPermissionFlags `cbor:"permissions"`
}

type DemoteUser struct {
	User UserID `cbor:"user"`
}

type BanUser struct {
	User UserID `cbor:"user"`
}

type UnbanUser struct {
	User UserID `cbor:"user"`
}

type UnlockUser struct {
	User UserID `cbor:"user"`
}

type SearchUser struct {
	Name string `cbor:"name"`
}

// SearchCriteria is a conjunction over its present fields; absent fields are
// unconstrained. Words matches reports whose description or reported message
// text contains every word, case-insensitively.
type SearchCriteria struct {
	Words       string        `cbor:"words"`
	OfUser      *string       `cbor:"of_user,omitempty"`
	ByUser      *string       `cbor:"by_user,omitempty"`
	BeforeDate  *time.Time    `cbor:"before_date,omitempty"`
	AfterDate   *time.Time    `cbor:"after_date,omitempty"`
	InCommunity *string       `cbor:"in_community,omitempty"`
	InRoom      *string       `cbor:"in_room,omitempty"`
	Status      *ReportStatus `cbor:"status,omitempty"`
}

type SetReportStatus struct {
	Report ReportID     `cbor:"report"`
	Status ReportStatus `cbor:"status"`
}

// CompromisedType selects which accounts set_accounts_compromised flags:
// every account, or only those still on a legacy password-hash scheme.
type CompromisedType uint8

const (
	CompromisedAll CompromisedType = iota
	CompromisedOldHashes
)

type SetAccountsCompromised struct {
	Type CompromisedType `cbor:"type"`
}

// ReportStatus is the closed set of moderation states for a report.
type ReportStatus uint8

const (
	ReportOpened ReportStatus = iota
	ReportReviewed
	ReportDismissed
)

func (s ReportStatus) String() string {
	switch s {
	case ReportOpened:
		return "opened"
	case ReportReviewed:
		return "reviewed"
	case ReportDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a member of the closed status set.
func (s ReportStatus) Valid() bool {
	return s <= ReportDismissed
}

// ServerUser is the admin-facing view of a user account.
type ServerUser struct {
	ID               UserID `cbor:"id"`
	Username         string `cbor:"username"`
	DisplayName      string `cbor:"display_name"`
	Banned           bool   `cbor:"banned"`
	Locked           bool   `cbor:"locked"`
	Compromised      bool   `cbor:"compromised"`
	LatestHashScheme bool   `cbor:"latest_hash_scheme"`
}

// Admin pairs an administrator with their permission flags.
type Admin struct {
	ID          UserID               `cbor:"id"`
	Username    string               `cbor:"username"`
	Permissions AdminPermissionFlags `cbor:"permissions"`
}

// ReportUser identifies a user referenced by a report.
type ReportUser struct {
	ID       UserID `cbor:"id"`
	Username string `cbor:"username"`
}

// ReportMessageRef carries the reported message. The text is copied at
// report time so deleting the message cannot hollow out the report; the id
// is absent if the message row itself is gone.
type ReportMessageRef struct {
	ID     *MessageID `cbor:"id,omitempty"`
	Text   string     `cbor:"text"`
	SentAt time.Time  `cbor:"sent_at"`
}

type ReportRoom struct {
	ID   RoomID `cbor:"id"`
	Name string `cbor:"name"`
}

type ReportCommunity struct {
	ID   CommunityID `cbor:"id"`
	Name string      `cbor:"name"`
}

// Report is the admin-facing view of a moderation report.
type Report struct {
	ID           ReportID         `cbor:"id"`
	Reporter     *ReportUser      `cbor:"reporter,omitempty"`
	Reported     ReportUser       `cbor:"reported"`
	Message      ReportMessageRef `cbor:"message"`
	Room         *ReportRoom      `cbor:"room,omitempty"`
	Community    *ReportCommunity `cbor:"community,omitempty"`
	Datetime     time.Time        `cbor:"datetime"`
	ShortDesc    string           `cbor:"short_desc"`
	ExtendedDesc string           `cbor:"extended_desc"`
	Status       ReportStatus     `cbor:"status"`
}
