package permissions

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/databases"
	"github.com/casedock/casedock-api/models"
)

// Lookup finds a user's membership in a chamber. A missing membership is
// reported as (nil, nil).
type Lookup interface {
	Membership(ctx context.Context, userID, chamberID primitive.ObjectID) (*models.ChamberMember, error)
}

// LookupFunc adapts a function to Lookup
type LookupFunc func(ctx context.Context, userID, chamberID primitive.ObjectID) (*models.ChamberMember, error)

// Membership calls f
func (f LookupFunc) Membership(ctx context.Context, userID, chamberID primitive.ObjectID) (*models.ChamberMember, error) {
	return f(ctx, userID, chamberID)
}

// MemberLookup reads memberships from the chambermembers collection
func MemberLookup(db databases.ChamberMemberDatabase) Lookup {
	return LookupFunc(func(ctx context.Context, userID, chamberID primitive.ObjectID) (*models.ChamberMember, error) {
		m, err := db.FindOne(ctx, bson.M{"chamber": chamberID, "user": userID})
		if err != nil {
			if databases.IsNoDocuments(err) {
				return nil, nil
			}
			return nil, apperrors.Internal(err)
		}
		return m, nil
	})
}

// Evaluator answers authorization questions against stored memberships
type Evaluator struct {
	Lookup Lookup
}

// NewEvaluator returns an Evaluator backed by the given lookup
func NewEvaluator(l Lookup) *Evaluator {
	return &Evaluator{Lookup: l}
}

// Authorize checks action on res for actor and returns the membership that
// granted it, which is nil for personal resources.
func (e *Evaluator) Authorize(ctx context.Context, actor primitive.ObjectID, res Resource, action Action) (*models.ChamberMember, error) {
	var membership *models.ChamberMember
	if c, ok := res.(Chamber); ok {
		m, err := e.Lookup.Membership(ctx, actor, c.ID)
		if err != nil {
			return nil, err
		}
		membership = m
	}
	if err := Decide(actor, res, membership, action); err != nil {
		return nil, err
	}
	return membership, nil
}

// CanPerform reports whether actor may perform action. Denials are a false
// result, only lookup and programming errors are returned.
func (e *Evaluator) CanPerform(ctx context.Context, actor primitive.ObjectID, res Resource, action Action) (bool, error) {
	_, err := e.Authorize(ctx, actor, res, action)
	switch {
	case err == nil:
		return true, nil
	case apperrors.IsKind(err, apperrors.KindPermission):
		return false, nil
	}
	return false, err
}

// RequireAdmin returns the actor's membership if it is the chamber's admin
// membership. Non-members get NotAMember, members get NotChamberAdmin.
func (e *Evaluator) RequireAdmin(ctx context.Context, actor, chamberID primitive.ObjectID) (*models.ChamberMember, error) {
	m, err := e.Lookup.Membership(ctx, actor, chamberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperrors.ErrNotAMember
	}
	if _, ok := GrantFor(m).(AdminGrant); !ok {
		return nil, apperrors.ErrNotChamberAdmin
	}
	return m, nil
}
