// Package permissions decides whether a user may act on a case. Decide is a
// pure function over an already loaded membership, Evaluator adds the lookup.
package permissions

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/models"
)

// Action is a case operation gated by chamber permissions
type Action int

// Case actions
const (
	Read Action = iota + 1
	Create
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Grant is what a membership entitles its holder to. It is either AdminGrant
// or MemberGrant.
type Grant interface {
	grant()
}

// AdminGrant allows every action in the chamber
type AdminGrant struct{}

// MemberGrant allows the actions whose bits are set
type MemberGrant struct {
	Bits models.Permissions
}

func (AdminGrant) grant()  {}
func (MemberGrant) grant() {}

// GrantFor converts a membership into its grant. The role decides, the stored
// bits of an admin record are never consulted.
func GrantFor(m *models.ChamberMember) Grant {
	if m.IsAdmin() {
		return AdminGrant{}
	}
	return MemberGrant{Bits: m.Permissions}
}

// Resource is the thing an action targets: Personal or Chamber
type Resource interface {
	resource()
}

// Personal is a case with no chamber, only its owner may touch it
type Personal struct {
	Owner primitive.ObjectID
}

// Chamber is anything governed by a chamber's memberships
type Chamber struct {
	ID primitive.ObjectID
}

func (Personal) resource() {}
func (Chamber) resource()  {}

// ResourceOf returns the resource that governs access to c
func ResourceOf(c *models.Case) Resource {
	if c.IsPersonal() {
		return Personal{Owner: c.CreatedBy}
	}
	return Chamber{ID: *c.Chamber}
}

// Decide returns nil when actor may perform action on res. membership is the
// actor's membership in the chamber and is ignored for personal resources; a
// nil membership means the actor does not belong to the chamber.
func Decide(actor primitive.ObjectID, res Resource, membership *models.ChamberMember, action Action) error {
	switch r := res.(type) {
	case Personal:
		if r.Owner == actor {
			return nil
		}
		return apperrors.ErrNoCaseAccess
	case Chamber:
		if membership == nil {
			return apperrors.ErrNotAMember
		}
		return allows(GrantFor(membership), action)
	default:
		return apperrors.Internal(fmt.Errorf("unknown resource %T", res))
	}
}

func allows(g Grant, action Action) error {
	switch g := g.(type) {
	case AdminGrant:
		if action < Read || action > Delete {
			return apperrors.Internal(fmt.Errorf("unknown %s", action))
		}
		return nil
	case MemberGrant:
		var ok bool
		switch action {
		case Read:
			ok = g.Bits.CanRead
		case Create:
			ok = g.Bits.CanCreate
		case Update:
			ok = g.Bits.CanUpdate
		case Delete:
			ok = g.Bits.CanDelete
		default:
			return apperrors.Internal(fmt.Errorf("unknown %s", action))
		}
		if !ok {
			return apperrors.InsufficientPermission(action.String())
		}
		return nil
	}
	return apperrors.Internal(fmt.Errorf("unknown grant %T", g))
}
