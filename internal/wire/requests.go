package wire

import "time"

// AuthRequest is the union of operations available before a session is
// authenticated. Exactly one variant must be present.
type AuthRequest struct {
	CreateToken    *CreateToken    `cbor:"create_token,omitempty"`
	RefreshToken   *RefreshToken   `cbor:"refresh_token,omitempty"`
	RevokeToken    *RevokeToken    `cbor:"revoke_token,omitempty"`
	RegisterUser   *RegisterUser   `cbor:"register_user,omitempty"`
	ChangePassword *ChangePassword `cbor:"change_password,omitempty"`
	Login          *Login          `cbor:"login,omitempty"`
}

type CreateToken struct {
	Credentials Credentials          `cbor:"credentials"`
	Options     TokenCreationOptions `cbor:"options"`
}

type RefreshToken struct {
	Credentials Credentials `cbor:"credentials"`
	Device      DeviceID    `cbor:"device"`
}

type RevokeToken struct {
	Credentials Credentials `cbor:"credentials"`
	Device      DeviceID    `cbor:"device"`
}

type RegisterUser struct {
	Credentials Credentials `cbor:"credentials"`
	DisplayName *string     `cbor:"display_name,omitempty"`
}

type ChangePassword struct {
	Username    string `cbor:"username"`
	OldPassword string `cbor:"old_password"`
	NewPassword string `cbor:"new_password"`
}

// Login binds the connection to a device by presenting its token.
type Login struct {
	Device DeviceID  `cbor:"device"`
	Token  AuthToken `cbor:"token"`
}

// ActiveRequest is the union of operations available to an authenticated
// session. Exactly one variant must be present.
type ActiveRequest struct {
	LogOut                     *Unit                       `cbor:"log_out,omitempty"`
	SendMessage                *SendMessage                `cbor:"send_message,omitempty"`
	EditMessage                *Edit                       `cbor:"edit_message,omitempty"`
	DeleteMessage              *Delete                     `cbor:"delete_message,omitempty"`
	GetRoomUpdate              *GetRoomUpdate              `cbor:"get_room_update,omitempty"`
	GetMessages                *GetMessages                `cbor:"get_messages,omitempty"`
	SelectRoom                 *SelectRoom                 `cbor:"select_room,omitempty"`
	DeselectRoom               *Unit                       `cbor:"deselect_room,omitempty"`
	SetAsRead                  *SetAsRead                  `cbor:"set_as_read,omitempty"`
	CreateCommunity            *CreateCommunity            `cbor:"create_community,omitempty"`
	CreateRoom                 *CreateRoom                 `cbor:"create_room,omitempty"`
	CreateInvite               *CreateInvite               `cbor:"create_invite,omitempty"`
	JoinCommunity              *JoinCommunity              `cbor:"join_community,omitempty"`
	ChangeUsername             *ChangeUsername             `cbor:"change_username,omitempty"`
	ChangeDisplayName          *ChangeDisplayName          `cbor:"change_display_name,omitempty"`
	ChangeSessionPassword      *ChangeSessionPassword      `cbor:"change_password,omitempty"`
	GetProfile                 *GetProfile                 `cbor:"get_profile,omitempty"`
	ChangeCommunityName        *ChangeCommunityName        `cbor:"change_community_name,omitempty"`
	ChangeCommunityDescription *ChangeCommunityDescription `cbor:"change_community_description,omitempty"`
	ReportMessage              *ReportMessage              `cbor:"report_message,omitempty"`
}

type SendMessage struct {
	ToCommunity CommunityID `cbor:"to_community"`
	ToRoom      RoomID      `cbor:"to_room"`
	Content     string      `cbor:"content"`
}

type GetRoomUpdate struct {
	Community    CommunityID `cbor:"community"`
	Room         RoomID      `cbor:"room"`
	LastReceived *MessageID  `cbor:"last_received,omitempty"`
	MessageCount uint32      `cbor:"message_count"`
}

type GetMessages struct {
	Community CommunityID     `cbor:"community"`
	Room      RoomID          `cbor:"room"`
	Selector  MessageSelector `cbor:"selector"`
	Count     uint32          `cbor:"count"`
}

type SelectRoom struct {
	Community CommunityID `cbor:"community"`
	Room      RoomID      `cbor:"room"`
}

type SetAsRead struct {
	Community CommunityID `cbor:"community"`
	Room      RoomID      `cbor:"room"`
}

type CreateCommunity struct {
	Name string `cbor:"name"`
}

type CreateRoom struct {
	Name      string      `cbor:"name"`
	Community CommunityID `cbor:"community"`
}

type CreateInvite struct {
	Community      CommunityID `cbor:"community"`
	ExpirationDate *time.Time  `cbor:"expiration_date,omitempty"`
}

type JoinCommunity struct {
	Code InviteCode `cbor:"code"`
}

type ChangeUsername struct {
	NewUsername string `cbor:"new_username"`
}

type ChangeDisplayName struct {
	NewDisplayName string `cbor:"new_display_name"`
}

// ChangeSessionPassword changes the password of the logged-in user; unlike
// the pre-auth ChangePassword it needs no username.
type ChangeSessionPassword struct {
	OldPassword string `cbor:"old_password"`
	NewPassword string `cbor:"new_password"`
}

type GetProfile struct {
	User UserID `cbor:"user"`
}

type ChangeCommunityName struct {
	New       string      `cbor:"new"`
	Community CommunityID `cbor:"community"`
}

type ChangeCommunityDescription struct {
	New       string      `cbor:"new"`
	Community CommunityID `cbor:"community"`
}

// ReportMessage files a moderation report against a message's author.
type ReportMessage struct {
	Message      MessageID `cbor:"message"`
	ShortDesc    string    `cbor:"short_desc"`
	ExtendedDesc string    `cbor:"extended_desc"`
}
