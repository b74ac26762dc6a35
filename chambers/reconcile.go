package chambers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/models"
)

// AdminlessGrace is how old a chamber without an admin membership must be
// before the reconciler removes it. Younger ones may still be mid-create.
const AdminlessGrace = 10 * time.Minute

// ReconcileReport counts what a reconcile pass removed
type ReconcileReport struct {
	Chambers int64
	Members  int64
	Requests int64
}

// ReconcileOrphans removes records left behind by multi-document writes that
// ran without a transaction: memberships and join requests whose chamber is
// gone, and chambers that never got their admin membership.
func (s *Service) ReconcileOrphans(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	withAdmin, err := s.Members.Distinct(ctx, "chamber", bson.M{"role": models.RoleAdmin})
	if err != nil {
		return report, err
	}
	if withAdmin == nil {
		withAdmin = []interface{}{}
	}
	adminless, err := s.Chambers.Find(ctx, bson.M{
		"_id":       bson.M{"$nin": withAdmin},
		"createdAt": bson.M{"$lt": s.now().Add(-AdminlessGrace)},
	}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return report, err
	}
	for _, c := range adminless {
		n, err := s.Chambers.DeleteOne(ctx, bson.M{"_id": c.ID})
		if err != nil {
			return report, err
		}
		report.Chambers += n
	}

	memberChambers, err := s.Members.Distinct(ctx, "chamber", bson.M{})
	if err != nil {
		return report, err
	}
	requestChambers, err := s.Requests.Distinct(ctx, "chamber", bson.M{})
	if err != nil {
		return report, err
	}

	referenced := map[primitive.ObjectID]bool{}
	for _, id := range objectIDs(memberChambers) {
		referenced[id] = true
	}
	for _, id := range objectIDs(requestChambers) {
		referenced[id] = true
	}
	if len(referenced) == 0 {
		return report, nil
	}

	ids := make([]primitive.ObjectID, 0, len(referenced))
	for id := range referenced {
		ids = append(ids, id)
	}
	existing, err := s.Chambers.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return report, err
	}
	for _, c := range existing {
		delete(referenced, c.ID)
	}
	if len(referenced) == 0 {
		return report, nil
	}

	missing := make([]primitive.ObjectID, 0, len(referenced))
	for id := range referenced {
		missing = append(missing, id)
	}
	if report.Members, err = s.Members.DeleteMany(ctx, bson.M{"chamber": bson.M{"$in": missing}}); err != nil {
		return report, err
	}
	if report.Requests, err = s.Requests.DeleteMany(ctx, bson.M{"chamber": bson.M{"$in": missing}}); err != nil {
		return report, err
	}

	zap.S().Infow("removed orphaned chamber records",
		"chambers", report.Chambers,
		"members", report.Members,
		"requests", report.Requests)
	return report, nil
}
