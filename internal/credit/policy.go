package credit

import "strings"

// Role is the caller's application role as carried by the access token.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleValidator Role = "validator"
	RoleLecturer  Role = "dosen"
)

// ParseRole normalises a raw role claim; unknown values yield an empty Role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleValidator:
		return RoleValidator
	case RoleLecturer:
		return RoleLecturer
	default:
		return ""
	}
}

// Access is the kind of operation being authorised on a record.
type Access int

const (
	AccessRead Access = iota
	AccessModify
)

// CanAccess decides whether a caller may perform access on a record owned by ownerID.
// Admins may do anything, validators may only read, lecturers only touch their own records.
func CanAccess(role Role, callerID, ownerID uint, access Access) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleValidator:
		return access == AccessRead
	case RoleLecturer:
		return callerID != 0 && callerID == ownerID
	default:
		return false
	}
}

// SeesAllOwners reports whether list queries by role span every owner.
func SeesAllOwners(role Role) bool {
	return role == RoleAdmin || role == RoleValidator
}
