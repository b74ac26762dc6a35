// Package chambers owns chambers, their memberships and the join request
// workflow. Every management action is gated by the permissions evaluator.
package chambers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/databases"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/permissions"
)

// Notifier is told about join request activity. Failures are logged only.
type Notifier interface {
	JoinRequested(ctx context.Context, admin, requester *models.User, chamber *models.Chamber, message string) error
	JoinResolved(ctx context.Context, requester *models.User, chamber *models.Chamber, status models.JoinRequestStatus) error
}

// Service implements the chamber registry, membership ledger and join requests
type Service struct {
	Chambers databases.ChamberDatabase
	Members  databases.ChamberMemberDatabase
	Requests databases.JoinRequestDatabase
	Users    databases.UserDatabase
	Tx       databases.TxRunner
	Policy   *permissions.Evaluator
	Notifier Notifier
	Now      func() time.Time
}

// NewService wires a Service against db
func NewService(db databases.DatabaseHelper, notifier Notifier) *Service {
	members := databases.NewChamberMemberDatabase(db)
	return &Service{
		Chambers: databases.NewChamberDatabase(db),
		Members:  members,
		Requests: databases.NewJoinRequestDatabase(db),
		Users:    databases.NewUserDatabase(db),
		Tx:       db,
		Policy:   permissions.NewEvaluator(permissions.MemberLookup(members)),
		Notifier: notifier,
		Now:      time.Now,
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) findChamber(ctx context.Context, id primitive.ObjectID) (*models.Chamber, error) {
	c, err := s.Chambers.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if databases.IsNoDocuments(err) {
			return nil, apperrors.ErrChamberNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return c, nil
}

// requireAdmin loads the chamber and checks that actor is its admin
func (s *Service) requireAdmin(ctx context.Context, actor, chamberID primitive.ObjectID) (*models.Chamber, *models.ChamberMember, error) {
	c, err := s.findChamber(ctx, chamberID)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.Policy.RequireAdmin(ctx, actor, chamberID)
	if err != nil {
		return nil, nil, err
	}
	return c, m, nil
}

func (s *Service) findUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.Users.FindOne(ctx, bson.M{"_id": id})
}

// profiles loads the sanitized profile of every user in ids
func (s *Service) profiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserProfile, error) {
	out := make(map[primitive.ObjectID]*models.UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.Users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	for i := range users {
		p := users[i].Profile()
		out[users[i].ID] = &p
	}
	return out, nil
}

func (s *Service) notify(what string, fn func() error) {
	if s.Notifier == nil {
		return
	}
	if err := fn(); err != nil {
		zap.S().Warnw("notification failed", "notification", what, "error", err)
	}
}

// objectIDs keeps the ObjectID values of a Distinct result
func objectIDs(values []interface{}) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
