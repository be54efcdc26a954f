package wire

// AuthError is the closed set of failures returned by auth operations. The
// constants implement error so services can return them directly; anything
// that is not one of these collapses to AuthInternal before it reaches the
// wire.
type AuthError uint8

const (
	AuthInternal AuthError = iota
	AuthIncorrectCredentials
	AuthInvalidToken
	AuthStaleToken
	AuthTokenInUse
	AuthInvalidUser
	AuthUserCompromised
	AuthUserLocked
	AuthUserBanned
	AuthUsernameAlreadyExists
	AuthInvalidUsername
	AuthInvalidPassword
	AuthInvalidDisplayName
	AuthWrongEndpoint
	AuthInvalidMessage
	AuthUnknownRequest
)

func (e AuthError) Error() string {
	switch e {
	case AuthInternal:
		return "internal error"
	case AuthIncorrectCredentials:
		return "incorrect credentials"
	case AuthInvalidToken:
		return "invalid token"
	case AuthStaleToken:
		return "stale token"
	case AuthTokenInUse:
		return "token in use"
	case AuthInvalidUser:
		return "invalid user"
	case AuthUserCompromised:
		return "user compromised"
	case AuthUserLocked:
		return "user locked"
	case AuthUserBanned:
		return "user banned"
	case AuthUsernameAlreadyExists:
		return "username already exists"
	case AuthInvalidUsername:
		return "invalid username"
	case AuthInvalidPassword:
		return "invalid password"
	case AuthInvalidDisplayName:
		return "invalid display name"
	case AuthWrongEndpoint:
		return "wrong endpoint"
	case AuthInvalidMessage:
		return "invalid message"
	case AuthUnknownRequest:
		return "unknown request"
	default:
		return "unknown auth error"
	}
}

// ErrResponse is the closed set of failures returned by active and admin
// operations. The constants implement error.
type ErrResponse uint8

const (
	ErrInternal ErrResponse = iota
	ErrAccessDenied
	ErrStaleToken
	ErrLoggedOut
	ErrUserBanned
	ErrInvalidRoom
	ErrInvalidCommunity
	ErrInvalidInviteCode
	ErrInvalidUser
	ErrInvalidMessage
	ErrAlreadyInCommunity
	ErrTooManyInviteCodes
	ErrInvalidMessageSelector
	ErrMessageTooLong
	ErrTooLong
	ErrUsernameAlreadyExists
	ErrInvalidUsername
	ErrInvalidPassword
	ErrInvalidDisplayName
	ErrIncorrectCredentials
	ErrNotFound
	ErrInvalidPermissions
	ErrUnknownRequest
	ErrWrongEndpoint
)

func (e ErrResponse) Error() string {
	switch e {
	case ErrInternal:
		return "internal error"
	case ErrAccessDenied:
		return "access denied"
	case ErrStaleToken:
		return "stale token"
	case ErrLoggedOut:
		return "logged out"
	case ErrUserBanned:
		return "user banned"
	case ErrInvalidRoom:
		return "invalid room"
	case ErrInvalidCommunity:
		return "invalid community"
	case ErrInvalidInviteCode:
		return "invalid invite code"
	case ErrInvalidUser:
		return "invalid user"
	case ErrInvalidMessage:
		return "invalid message"
	case ErrAlreadyInCommunity:
		return "already in community"
	case ErrTooManyInviteCodes:
		return "too many invite codes"
	case ErrInvalidMessageSelector:
		return "invalid message selector"
	case ErrMessageTooLong:
		return "message too long"
	case ErrTooLong:
		return "too long"
	case ErrUsernameAlreadyExists:
		return "username already exists"
	case ErrInvalidUsername:
		return "invalid username"
	case ErrInvalidPassword:
		return "invalid password"
	case ErrInvalidDisplayName:
		return "invalid display name"
	case ErrIncorrectCredentials:
		return "incorrect credentials"
	case ErrNotFound:
		return "not found"
	case ErrInvalidPermissions:
		return "invalid permissions"
	case ErrUnknownRequest:
		return "unknown request"
	case ErrWrongEndpoint:
		return "wrong endpoint"
	default:
		return "unknown error"
	}
}

// AuthOk is the union of successful auth results.
type AuthOk struct {
	User   *UserID   `cbor:"user,omitempty"`
	Token  *NewToken `cbor:"token,omitempty"`
	NoData *Unit     `cbor:"no_data,omitempty"`
}

// AuthResponse is ok-or-error; exactly one side is present.
type AuthResponse struct {
	Ok  *AuthOk    `cbor:"ok,omitempty"`
	Err *AuthError `cbor:"error,omitempty"`
}

// OkResponse is the union of successful active/admin results.
type OkResponse struct {
	NoData         *Unit                `cbor:"no_data,omitempty"`
	AddCommunity   *CommunityStructure  `cbor:"add_community,omitempty"`
	AddRoom        *NewRoom             `cbor:"add_room,omitempty"`
	ConfirmMessage *MessageConfirmation `cbor:"confirm_message,omitempty"`
	Profile        *Profile             `cbor:"profile,omitempty"`
	NewInvite      *NewInvite           `cbor:"new_invite,omitempty"`
	RoomUpdate     *RoomUpdate          `cbor:"room_update,omitempty"`
	MessageHistory *MessageHistory      `cbor:"message_history,omitempty"`
	SearchedUsers  *SearchedUsers       `cbor:"searched_users,omitempty"`
	Admins         *AdminList           `cbor:"admins,omitempty"`
	Reports        *ReportList          `cbor:"reports,omitempty"`
}

type NewRoom struct {
	Community CommunityID   `cbor:"community"`
	Room      RoomStructure `cbor:"room"`
}

type NewInvite struct {
	Code InviteCode `cbor:"code"`
}

type SearchedUsers struct {
	Users []ServerUser `cbor:"users"`
}

type AdminList struct {
	Admins []Admin `cbor:"admins"`
}

type ReportList struct {
	Reports []Report `cbor:"reports"`
}

// Response answers one client envelope, echoing its request id. Exactly one
// of Auth, Ok and Err is present: Auth answers auth-category requests, the
// other two answer active/admin requests.
type Response struct {
	ID   RequestID     `cbor:"id"`
	Auth *AuthResponse `cbor:"auth,omitempty"`
	Ok   *OkResponse   `cbor:"ok,omitempty"`
	Err  *ErrResponse  `cbor:"error,omitempty"`
}

// ServerEvent is the union of unsolicited pushes.
type ServerEvent struct {
	ClientReady        *ClientReady        `cbor:"client_ready,omitempty"`
	AddMessage         *AddMessage         `cbor:"add_message,omitempty"`
	NotifyMessageReady *RoomRef            `cbor:"notify_message_ready,omitempty"`
	Edit               *Edit               `cbor:"edit,omitempty"`
	Delete             *Delete             `cbor:"delete,omitempty"`
	SessionLoggedOut   *Unit               `cbor:"session_logged_out,omitempty"`
	AddRoom            *NewRoom            `cbor:"add_room,omitempty"`
	AddCommunity       *CommunityStructure `cbor:"add_community,omitempty"`
}

type AddMessage struct {
	Community CommunityID `cbor:"community"`
	Room      RoomID      `cbor:"room"`
	Message   Message     `cbor:"message"`
}

type RoomRef struct {
	Community CommunityID `cbor:"community"`
	Room      RoomID      `cbor:"room"`
}

// ServerMessage is the top-level server-to-client union: a response
// correlated to a request, an unsolicited event, or a malformed-message
// notice for input that could not be decoded at all.
type ServerMessage struct {
	Response         *Response    `cbor:"response,omitempty"`
	Event            *ServerEvent `cbor:"event,omitempty"`
	MalformedMessage *Unit        `cbor:"malformed_message,omitempty"`
}
