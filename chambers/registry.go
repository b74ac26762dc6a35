package chambers

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/databases"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/sanitize"
)

// SearchLimit caps the number of chambers returned by Search
const SearchLimit = 20

// Patch is a partial chamber update, nil fields are left unchanged
type Patch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Create stores a new chamber together with the owner's admin membership.
// Either both records exist afterwards or neither does.
func (s *Service) Create(ctx context.Context, owner primitive.ObjectID, name, description string) (*models.Chamber, error) {
	name = sanitize.Text(name)
	if name == "" {
		return nil, apperrors.Validation("Chamber name is required")
	}

	now := s.now()
	chamber := models.Chamber{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: sanitize.Text(description),
		Admin:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	admin := models.ChamberMember{
		ID:          primitive.NewObjectID(),
		Chamber:     chamber.ID,
		User:        owner,
		Role:        models.RoleAdmin,
		Permissions: models.AllPermissions(),
		JoinedAt:    now,
	}

	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Chambers.InsertOne(ctx, chamber); err != nil {
			return err
		}
		_, err := s.Members.InsertOne(ctx, admin)
		return err
	})
	if err != nil {
		// without a transaction the chamber may already be stored
		if _, derr := s.Chambers.DeleteOne(ctx, bson.M{"_id": chamber.ID}); derr != nil {
			zap.S().Errorw("failed to remove chamber after failed create",
				"chamberId", chamber.ID.Hex(),
				"error", derr)
		}
		return nil, apperrors.Internal(err)
	}

	zap.S().Infow("chamber created", "chamberId", chamber.ID.Hex(), "admin", owner.Hex())
	return &chamber, nil
}

// Get returns the chamber with the caller's standing in it. Only the admin
// receives the member list.
func (s *Service) Get(ctx context.Context, actor, id primitive.ObjectID) (*models.ChamberDetail, error) {
	chamber, err := s.findChamber(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.Policy.Lookup.Membership(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperrors.ErrNotAMember
	}

	detail := &models.ChamberDetail{
		Chamber:         *chamber,
		UserRole:        m.Role,
		UserPermissions: m.Permissions,
		Members:         []models.MemberView{},
	}
	if m.IsAdmin() {
		detail.Members, err = s.memberViews(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// List returns every chamber actor belongs to, newest first
func (s *Service) List(ctx context.Context, actor primitive.ObjectID) ([]models.ChamberSummary, error) {
	memberships, err := s.Members.Find(ctx, bson.M{"user": actor})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	out := []models.ChamberSummary{}
	if len(memberships) == 0 {
		return out, nil
	}

	byChamber := make(map[primitive.ObjectID]models.ChamberMember, len(memberships))
	ids := make([]primitive.ObjectID, 0, len(memberships))
	for _, m := range memberships {
		byChamber[m.Chamber] = m
		ids = append(ids, m.Chamber)
	}

	chambers, err := s.Chambers.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	for _, c := range chambers {
		m := byChamber[c.ID]
		out = append(out, models.ChamberSummary{Chamber: c, Role: m.Role, Permissions: m.Permissions})
	}
	return out, nil
}

// Update changes the name or description. Admin only.
func (s *Service) Update(ctx context.Context, actor, id primitive.ObjectID, patch Patch) (*models.Chamber, error) {
	if _, _, err := s.requireAdmin(ctx, actor, id); err != nil {
		return nil, err
	}

	set := bson.M{"updatedAt": s.now()}
	if patch.Name != nil {
		name := sanitize.Text(*patch.Name)
		if name == "" {
			return nil, apperrors.Validation("Chamber name cannot be empty")
		}
		set["name"] = name
	}
	if patch.Description != nil {
		set["description"] = sanitize.Text(*patch.Description)
	}

	updated, err := s.Chambers.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if databases.IsNoDocuments(err) {
			return nil, apperrors.ErrChamberNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return updated, nil
}

// Delete removes the chamber with all of its memberships and join requests.
// Admin only. Cases that referenced the chamber are kept.
func (s *Service) Delete(ctx context.Context, actor, id primitive.ObjectID) error {
	if _, _, err := s.requireAdmin(ctx, actor, id); err != nil {
		return err
	}

	// The chamber record goes last. Without a transaction a partial failure
	// leaves an adminless chamber or orphaned requests, which the reconciler removes.
	err := s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Members.DeleteMany(ctx, bson.M{"chamber": id}); err != nil {
			return err
		}
		if _, err := s.Requests.DeleteMany(ctx, bson.M{"chamber": id}); err != nil {
			return err
		}
		_, err := s.Chambers.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	if err != nil {
		return apperrors.Internal(err)
	}

	zap.S().Infow("chamber deleted", "chamberId", id.Hex(), "by", actor.Hex())
	return nil
}

// Search finds chambers by name that actor could ask to join
func (s *Service) Search(ctx context.Context, actor primitive.ObjectID, query string) ([]models.ChamberSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Validation("Search query is required")
	}

	joined, err := s.Members.Distinct(ctx, "chamber", bson.M{"user": actor})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if joined == nil {
		joined = []interface{}{}
	}

	filter := bson.M{
		"name": bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"},
		"_id":  bson.M{"$nin": joined},
	}
	found, err := s.Chambers.Find(ctx, filter,
		options.Find().SetLimit(SearchLimit).SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	out := []models.ChamberSearchResult{}
	if len(found) == 0 {
		return out, nil
	}

	ids := make([]primitive.ObjectID, 0, len(found))
	admins := make([]primitive.ObjectID, 0, len(found))
	for _, c := range found {
		ids = append(ids, c.ID)
		admins = append(admins, c.Admin)
	}

	pendingIDs, err := s.Requests.Distinct(ctx, "chamber", bson.M{
		"user":    actor,
		"status":  models.JoinRequestPending,
		"chamber": bson.M{"$in": ids},
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	pending := make(map[primitive.ObjectID]bool, len(pendingIDs))
	for _, id := range objectIDs(pendingIDs) {
		pending[id] = true
	}

	profiles, err := s.profiles(ctx, admins)
	if err != nil {
		return nil, err
	}

	for _, c := range found {
		r := models.ChamberSearchResult{Chamber: c, HasPendingRequest: pending[c.ID]}
		if p, ok := profiles[c.Admin]; ok {
			r.AdminName = p.FullName.String()
		}
		out = append(out, r)
	}
	return out, nil
}
