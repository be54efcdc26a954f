package wire

// TokenPermissionFlags scope what a device's token is allowed to do. The
// flags are an opaque bitmask on the wire; all interpretation goes through
// Has.
type TokenPermissionFlags int64

const (
	// PermAll grants every permission. Intended for user devices, not
	// service logins.
	PermAll TokenPermissionFlags = 1 << iota
	PermSendMessages
	PermEditAnyMessages
	PermEditOwnMessages
	PermDeleteAnyMessages
	PermDeleteOwnMessages
	PermChangeUsername
	PermChangeDisplayName
	PermJoinCommunities
	PermCreateCommunities
	PermCreateRooms
	PermCreateInvites
	PermAdminister
	PermReportUsers
)

// Has reports whether the token grants all of the given permissions.
func (f TokenPermissionFlags) Has(perms TokenPermissionFlags) bool {
	return f&PermAll != 0 || f&perms == perms
}

// AdminPermissionFlags scope what an administrator account may do.
type AdminPermissionFlags int64

const (
	// AdminAll grants every admin permission. Intended for the server owner.
	AdminAll AdminPermissionFlags = 1 << iota
	AdminBan
	AdminDemote
	AdminPromote
	// AdminIsAdmin marks an admin with no other grants. It allows searching
	// users and working with reports; every other admin permission implies
	// it.
	AdminIsAdmin
)

// Has reports whether the flags dominate all of the given permissions.
func (f AdminPermissionFlags) Has(perms AdminPermissionFlags) bool {
	if f&AdminAll != 0 {
		return true
	}
	if perms == AdminIsAdmin {
		return f != 0
	}
	return f&perms == perms
}
