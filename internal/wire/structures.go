package wire

import "time"

// Credentials prove a user's identity. They are consumed only by the token
// lifecycle and never persisted in plaintext.
type Credentials struct {
	Username string `cbor:"username"`
	Password string `cbor:"password"`
}

// TokenCreationOptions tune a newly issued token. Absent fields fall back to
// server defaults.
type TokenCreationOptions struct {
	DeviceName      *string              `cbor:"device_name,omitempty"`
	ExpirationDate  *time.Time           `cbor:"expiration_date,omitempty"`
	PermissionFlags TokenPermissionFlags `cbor:"permission_flags"`
}

// NewToken is returned by create_token: the device the token is bound to and
// the token string to present on login.
type NewToken struct {
	Device DeviceID  `cbor:"device"`
	Token  AuthToken `cbor:"token"`
}

// Profile is the client-visible slice of a user record.
type Profile struct {
	Version     ProfileVersion `cbor:"version"`
	Username    string         `cbor:"username"`
	DisplayName string         `cbor:"display_name"`
}

type RoomStructure struct {
	ID     RoomID `cbor:"id"`
	Name   string `cbor:"name"`
	Unread bool   `cbor:"unread"`
}

type CommunityStructure struct {
	ID          CommunityID     `cbor:"id"`
	Name        string          `cbor:"name"`
	Description string          `cbor:"description"`
	Rooms       []RoomStructure `cbor:"rooms"`
}

// Message as delivered to clients. A nil Content means the message was
// deleted; the id keeps its place in the room's ordering.
type Message struct {
	ID                   MessageID      `cbor:"id"`
	Author               UserID         `cbor:"author"`
	AuthorProfileVersion ProfileVersion `cbor:"author_profile_version"`
	TimeSent             time.Time      `cbor:"time_sent"`
	Content              *string        `cbor:"content,omitempty"`
}

// MessageConfirmation acknowledges a sent message with its assigned id.
type MessageConfirmation struct {
	ID       MessageID `cbor:"id"`
	TimeSent time.Time `cbor:"time_sent"`
}

// MessageHistory is an ascending-id window of messages.
type MessageHistory struct {
	Messages []Message `cbor:"messages"`
}

// RoomUpdate carries messages newer than the client's last known position.
// Continuous reports whether the window has no gap relative to that
// position.
type RoomUpdate struct {
	LastRead    *MessageID     `cbor:"last_read,omitempty"`
	NewMessages MessageHistory `cbor:"new_messages"`
	Continuous  bool           `cbor:"continuous"`
}

type Edit struct {
	Message    MessageID   `cbor:"message"`
	Community  CommunityID `cbor:"community"`
	Room       RoomID      `cbor:"room"`
	NewContent string      `cbor:"new_content"`
}

type Delete struct {
	Message   MessageID   `cbor:"message"`
	Community CommunityID `cbor:"community"`
	Room      RoomID      `cbor:"room"`
}

// ClientReady is pushed once after a successful login: everything a client
// needs to render its initial state.
type ClientReady struct {
	User             UserID               `cbor:"user"`
	Profile          Profile              `cbor:"profile"`
	Communities      []CommunityStructure `cbor:"communities"`
	Permissions      TokenPermissionFlags `cbor:"permission_flags"`
	AdminPermissions AdminPermissionFlags `cbor:"admin_permission_flags"`
}

// Bound anchors a pagination window at a message id. Exclusive controls
// whether the anchor itself is part of the window.
type Bound struct {
	Exclusive bool      `cbor:"exclusive"`
	MessageID MessageID `cbor:"message_id"`
}

// MessageSelector describes a pagination window. Before=true walks toward
// the room start from the bound; Before=false walks toward the newest
// message. Results are always delivered in ascending id order.
type MessageSelector struct {
	Before bool  `cbor:"before"`
	Bound  Bound `cbor:"bound"`
}
