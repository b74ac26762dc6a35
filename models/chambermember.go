package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is a member's standing within a chamber
type Role string

// Chamber roles
const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Permissions are the per-member case capabilities within a chamber. They only
// carry meaning for members, the admin role overrides them.
type Permissions struct {
	CanRead   bool `json:"canRead" bson:"canRead"`
	CanCreate bool `json:"canCreate" bson:"canCreate"`
	CanUpdate bool `json:"canUpdate" bson:"canUpdate"`
	CanDelete bool `json:"canDelete" bson:"canDelete"`
}

// DefaultMemberPermissions are granted to new members when none are supplied
func DefaultMemberPermissions() Permissions {
	return Permissions{CanRead: true}
}

// AllPermissions is what the admin record stores
func AllPermissions() Permissions {
	return Permissions{CanRead: true, CanCreate: true, CanUpdate: true, CanDelete: true}
}

// PermissionsPatch is a partial permissions update, nil fields are left unchanged
type PermissionsPatch struct {
	CanRead   *bool `json:"canRead,omitempty"`
	CanCreate *bool `json:"canCreate,omitempty"`
	CanUpdate *bool `json:"canUpdate,omitempty"`
	CanDelete *bool `json:"canDelete,omitempty"`
}

// Apply returns p with the supplied bits of patch replaced
func (p Permissions) Apply(patch *PermissionsPatch) Permissions {
	if patch == nil {
		return p
	}
	if patch.CanRead != nil {
		p.CanRead = *patch.CanRead
	}
	if patch.CanCreate != nil {
		p.CanCreate = *patch.CanCreate
	}
	if patch.CanUpdate != nil {
		p.CanUpdate = *patch.CanUpdate
	}
	if patch.CanDelete != nil {
		p.CanDelete = *patch.CanDelete
	}
	return p
}

// ChamberMember holds the structure for the chambermembers collection in mongo
type ChamberMember struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Chamber     primitive.ObjectID `json:"chamber" bson:"chamber"`
	User        primitive.ObjectID `json:"user" bson:"user"`
	Role        Role               `json:"role" bson:"role"`
	Permissions Permissions        `json:"permissions" bson:"permissions"`
	JoinedAt    time.Time          `json:"joinedAt" bson:"joinedAt"`
}

// IsAdmin reports whether m is the chamber's admin membership
func (m ChamberMember) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// MemberView is a membership with the member's profile attached
type MemberView struct {
	ID          primitive.ObjectID `json:"_id"`
	Chamber     primitive.ObjectID `json:"chamber"`
	User        *UserProfile       `json:"user"`
	Role        Role               `json:"role"`
	Permissions Permissions        `json:"permissions"`
	JoinedAt    time.Time          `json:"joinedAt"`
}
