package chambers

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/databases"
	"github.com/casedock/casedock-api/models"
)

// Membership returns user's membership in chamber, or nil if there is none
func (s *Service) Membership(ctx context.Context, user, chamber primitive.ObjectID) (*models.ChamberMember, error) {
	return s.Policy.Lookup.Membership(ctx, user, chamber)
}

// AddMember records user as a member of chamber. A second membership for the
// same pair is rejected, whether caught here or by the unique index.
func (s *Service) AddMember(ctx context.Context, chamber, user primitive.ObjectID, role models.Role, perms models.Permissions) (*models.ChamberMember, error) {
	existing, err := s.Membership(ctx, user, chamber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrDuplicateMembership
	}

	m := models.ChamberMember{
		ID:          primitive.NewObjectID(),
		Chamber:     chamber,
		User:        user,
		Role:        role,
		Permissions: perms,
		JoinedAt:    s.now(),
	}
	if _, err := s.Members.InsertOne(ctx, m); err != nil {
		if databases.IsDuplicateKey(err) {
			return nil, apperrors.ErrDuplicateMembership
		}
		return nil, apperrors.Internal(err)
	}
	return &m, nil
}

// ListMembers returns the chamber's members with their profiles. Members only.
func (s *Service) ListMembers(ctx context.Context, actor, chamberID primitive.ObjectID) ([]models.MemberView, error) {
	if _, err := s.findChamber(ctx, chamberID); err != nil {
		return nil, err
	}
	m, err := s.Membership(ctx, actor, chamberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperrors.ErrNotAMember
	}
	return s.memberViews(ctx, chamberID)
}

// ListByUser returns every membership held by user
func (s *Service) ListByUser(ctx context.Context, user primitive.ObjectID) ([]models.ChamberMember, error) {
	ms, err := s.Members.Find(ctx, bson.M{"user": user})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return ms, nil
}

func (s *Service) memberViews(ctx context.Context, chamberID primitive.ObjectID) ([]models.MemberView, error) {
	members, err := s.Members.Find(ctx, bson.M{"chamber": chamberID},
		options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}}))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.User)
	}
	profiles, err := s.profiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]models.MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView(m, profiles[m.User]))
	}
	return views, nil
}

func memberView(m models.ChamberMember, p *models.UserProfile) models.MemberView {
	return models.MemberView{
		ID:          m.ID,
		Chamber:     m.Chamber,
		User:        p,
		Role:        m.Role,
		Permissions: m.Permissions,
		JoinedAt:    m.JoinedAt,
	}
}

func (s *Service) findMember(ctx context.Context, chamberID, memberID primitive.ObjectID) (*models.ChamberMember, error) {
	m, err := s.Members.FindOne(ctx, bson.M{"_id": memberID, "chamber": chamberID})
	if err != nil {
		if databases.IsNoDocuments(err) {
			return nil, apperrors.ErrMemberNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return m, nil
}

// UpdatePermissions applies patch to another member's bits. Admin only; the
// admin's own record and admin records in general cannot be edited.
func (s *Service) UpdatePermissions(ctx context.Context, actor, chamberID, memberID primitive.ObjectID, patch *models.PermissionsPatch) (*models.MemberView, error) {
	if patch == nil {
		return nil, apperrors.Validation("Permissions are required")
	}
	if _, _, err := s.requireAdmin(ctx, actor, chamberID); err != nil {
		return nil, err
	}
	target, err := s.findMember(ctx, chamberID, memberID)
	if err != nil {
		return nil, err
	}
	if target.User == actor {
		return nil, apperrors.ErrCannotModifySelf
	}
	if target.IsAdmin() {
		return nil, apperrors.ErrCannotModifyAdmin
	}

	target.Permissions = target.Permissions.Apply(patch)
	matched, err := s.Members.UpdateOne(ctx,
		bson.M{"_id": target.ID, "chamber": chamberID, "role": models.RoleMember},
		bson.M{"$set": bson.M{"permissions": target.Permissions}})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if matched == 0 {
		return nil, apperrors.ErrMemberNotFound
	}

	// the update is stored; a missing profile only leaves user empty in the reply
	var profile *models.UserProfile
	user, err := s.findUser(ctx, target.User)
	if err != nil {
		zap.S().Warnw("failed to load member profile",
			"chamberId", chamberID.Hex(),
			"user", target.User.Hex(),
			"error", err)
	} else {
		p := user.Profile()
		profile = &p
	}
	view := memberView(*target, profile)
	return &view, nil
}

// RemoveMember deletes another member's membership. Admin only.
func (s *Service) RemoveMember(ctx context.Context, actor, chamberID, memberID primitive.ObjectID) error {
	if _, _, err := s.requireAdmin(ctx, actor, chamberID); err != nil {
		return err
	}
	target, err := s.findMember(ctx, chamberID, memberID)
	if err != nil {
		return err
	}
	if target.IsAdmin() {
		return apperrors.ErrCannotRemoveAdmin
	}
	if target.User == actor {
		return apperrors.Validation("Use the leave endpoint to leave a chamber")
	}

	deleted, err := s.Members.DeleteOne(ctx, bson.M{"_id": target.ID, "role": models.RoleMember})
	if err != nil {
		return apperrors.Internal(err)
	}
	if deleted == 0 {
		return apperrors.ErrMemberNotFound
	}
	zap.S().Infow("member removed", "chamberId", chamberID.Hex(), "user", target.User.Hex(), "by", actor.Hex())
	return nil
}

// Leave removes actor's own membership. The admin cannot leave.
func (s *Service) Leave(ctx context.Context, actor, chamberID primitive.ObjectID) error {
	m, err := s.Membership(ctx, actor, chamberID)
	if err != nil {
		return err
	}
	if m == nil {
		return apperrors.ErrMemberNotFound.WithMessage("You are not a member of this chamber")
	}
	if m.IsAdmin() {
		return apperrors.ErrCannotRemoveAdmin.WithMessage("Chamber admin cannot leave the chamber")
	}

	deleted, err := s.Members.DeleteOne(ctx, bson.M{"_id": m.ID, "role": models.RoleMember})
	if err != nil {
		return apperrors.Internal(err)
	}
	if deleted == 0 {
		return apperrors.ErrMemberNotFound.WithMessage("You are not a member of this chamber")
	}
	return nil
}
