// Package wire defines the message protocol spoken between clients and the
// server: identifier types, tagged-union request/response payloads, and the
// CBOR envelope codec. Every payload is a union of which exactly one variant
// may be present; optional fields are explicit present/absent pointers, never
// sentinel values.
package wire

import (
	"github.com/google/uuid"
)

// RequestId correlates a response to the request that caused it. It does not
// need to be sequential, just unique within the window the client cares
// about; the server echoes it back verbatim.
type RequestID uint32

// MessageID is a server-assigned message ordinal. Ordinals are monotonically
// increasing and totally ordered, which makes them directly usable as
// pagination cursors.
type MessageID int64

// ProfileVersion increments whenever a user's username or display name
// changes, letting clients invalidate cached profiles.
type ProfileVersion uint32

// AuthToken is the opaque token string presented by a device.
type AuthToken string

// InviteCode grants membership in a community, optionally time-limited.
type InviteCode string

// ReportID identifies a moderation report.
type ReportID int32

type UserID uuid.UUID

type DeviceID uuid.UUID

type CommunityID uuid.UUID

type RoomID uuid.UUID

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id DeviceID) String() string    { return uuid.UUID(id).String() }
func (id CommunityID) String() string { return uuid.UUID(id).String() }
func (id RoomID) String() string      { return uuid.UUID(id).String() }

func (id UserID) MarshalBinary() ([]byte, error)      { return uuid.UUID(id).MarshalBinary() }
func (id DeviceID) MarshalBinary() ([]byte, error)    { return uuid.UUID(id).MarshalBinary() }
func (id CommunityID) MarshalBinary() ([]byte, error) { return uuid.UUID(id).MarshalBinary() }
func (id RoomID) MarshalBinary() ([]byte, error)      { return uuid.UUID(id).MarshalBinary() }

func (id *UserID) UnmarshalBinary(b []byte) error {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *DeviceID) UnmarshalBinary(b []byte) error {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return err
	}
	*id = DeviceID(u)
	return nil
}

func (id *CommunityID) UnmarshalBinary(b []byte) error {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return err
	}
	*id = CommunityID(u)
	return nil
}

func (id *RoomID) UnmarshalBinary(b []byte) error {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return err
	}
	*id = RoomID(u)
	return nil
}

// Unit is the payload of variants that carry no data.
type Unit struct{}
