package model

// Permission is a capability bit. A role grants the union of its bits.
type Permission int

const (
	PermFollow           Permission = 0x01
	PermComment          Permission = 0x02
	PermWriteArticles    Permission = 0x04
	PermModerateComments Permission = 0x08
	PermAdminister       Permission = 0x80
)

// AllPermissions is the superuser bitmask held by the Administrator role.
const AllPermissions Permission = 0xFF

// Role groups permissions under a unique name.
type Role struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"uniqueIndex;size:64;not null"`
	Default     bool       `json:"default" gorm:"default:false;index"`
	Permissions Permission `json:"permissions" gorm:"not null"`
}

// Can reports whether the role grants every bit in p.
func (r *Role) Can(p Permission) bool {
	return r != nil && r.Permissions&p == p
}

// IsAdministrator reports whether the role carries the superuser bit.
func (r *Role) IsAdministrator() bool {
	return r.Can(PermAdminister)
}

// RoleSpec describes one canonical role for seeding.
type RoleSpec struct {
	Name        string
	Permissions Permission
	Default     bool
}

// CanonicalRoles is the fixed role table seeded at deploy time.
// Exactly one entry is flagged default.
var CanonicalRoles = []RoleSpec{
	{Name: "User", Permissions: PermFollow | PermComment | PermWriteArticles, Default: true},
	{Name: "Moderator", Permissions: PermFollow | PermComment | PermWriteArticles | PermModerateComments},
	{Name: "Administrator", Permissions: AllPermissions},
}
