package wire

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// The id types delegate database scanning to uuid.UUID so repositories can
// pass them to database/sql directly.

func scanUUID(src any) (uuid.UUID, error) {
	var u uuid.UUID
	err := u.Scan(src)
	return u, err
}

func (id *UserID) Scan(src any) error {
	u, err := scanUUID(src)
	*id = UserID(u)
	return err
}

func (id *DeviceID) Scan(src any) error {
	u, err := scanUUID(src)
	*id = DeviceID(u)
	return err
}

func (id *CommunityID) Scan(src any) error {
	u, err := scanUUID(src)
	*id = CommunityID(u)
	return err
}

func (id *RoomID) Scan(src any) error {
	u, err := scanUUID(src)
	*id = RoomID(u)
	return err
}

func (id UserID) Value() (driver.Value, error)      { return id.String(), nil }
func (id DeviceID) Value() (driver.Value, error)    { return id.String(), nil }
func (id CommunityID) Value() (driver.Value, error) { return id.String(), nil }
func (id RoomID) Value() (driver.Value, error)      { return id.String(), nil }
