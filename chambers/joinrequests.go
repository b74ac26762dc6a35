package chambers

import (
	"context"
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

// Resolution actions accepted by ResolveRequest
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// RequestJoin files a pending request from actor to join chamberID and tells
// the chamber admin about it.
func (s *Service) RequestJoin(ctx context.Context, actor, chamberID primitive.ObjectID, message string) (*models.JoinRequest, error) {
	chamber, err := s.findChamber(ctx, chamberID)
	if err != nil {
		return nil, err
	}
	m, err := s.Membership(ctx, actor, chamberID)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return nil, apperrors.ErrAlreadyMember
	}

	_, err = s.Requests.FindOne(ctx, bson.M{"chamber": chamberID, "user": actor, "status": models.JoinRequestPending})
	switch {
	case err == nil:
		return nil, apperrors.ErrDuplicatePending
	case !databases.IsNoDocuments(err):
		return nil, apperrors.Internal(err)
	}

	req := models.JoinRequest{
		ID:          primitive.NewObjectID(),
		Chamber:     chamberID,
		User:        actor,
		Status:      models.JoinRequestPending,
		Message:     sanitize.Text(message),
		RequestedAt: s.now(),
	}
	if _, err := s.Requests.InsertOne(ctx, req); err != nil {
		if databases.IsDuplicateKey(err) {
			return nil, apperrors.ErrDuplicatePending
		}
		return nil, apperrors.Internal(err)
	}

	s.notify("join_requested", func() error {
		admin, err := s.findUser(ctx, chamber.Admin)
		if err != nil {
			return err
		}
		requester, err := s.findUser(ctx, actor)
		if err != nil {
			return err
		}
		return s.Notifier.JoinRequested(ctx, admin, requester, chamber, req.Message)
	})
	return &req, nil
}

// PendingRequests lists the chamber's pending requests with the requesters'
// profiles, newest first. Admin only.
func (s *Service) PendingRequests(ctx context.Context, actor, chamberID primitive.ObjectID) ([]models.JoinRequestView, error) {
	if _, _, err := s.requireAdmin(ctx, actor, chamberID); err != nil {
		return nil, err
	}
	reqs, err := s.Requests.Find(ctx, bson.M{"chamber": chamberID, "status": models.JoinRequestPending},
		options.Find().SetSort(bson.D{{Key: "requestedAt", Value: -1}}))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	ids := make([]primitive.ObjectID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.User)
	}
	profiles, err := s.profiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.JoinRequestView, 0, len(reqs))
	for _, r := range reqs {
		views = append(views, models.JoinRequestView{JoinRequest: r, Requester: profiles[r.User]})
	}
	return views, nil
}

// ResolveRequest approves or rejects a pending request. Admin only. Approval
// creates the membership with perms applied over the member defaults. A
// request that is no longer pending is reported as not found.
func (s *Service) ResolveRequest(ctx context.Context, actor, chamberID, requestID primitive.ObjectID, action string, perms *models.PermissionsPatch) (*models.JoinRequest, error) {
	var status models.JoinRequestStatus
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionApprove:
		status = models.JoinRequestApproved
	case ActionReject:
		status = models.JoinRequestRejected
	default:
		return nil, apperrors.Validation(`Invalid action. Use "approve" or "reject"`)
	}

	chamber, _, err := s.requireAdmin(ctx, actor, chamberID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	claim := bson.M{"_id": requestID, "chamber": chamberID, "status": models.JoinRequestPending}
	resolve := bson.M{"$set": bson.M{"status": status, "processedAt": now}}

	var resolved *models.JoinRequest
	err = s.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		req, err := s.Requests.FindOneAndUpdate(ctx, claim, resolve)
		if err != nil {
			if databases.IsNoDocuments(err) {
				return apperrors.ErrJoinRequestNotFound
			}
			return err
		}
		if status == models.JoinRequestApproved {
			bits := models.DefaultMemberPermissions().Apply(perms)
			if _, err := s.AddMember(ctx, chamberID, req.User, models.RoleMember, bits); err != nil {
				if !databases.InTransaction(ctx) {
					s.unclaim(ctx, req.ID, status)
				}
				return err
			}
		}
		resolved = req
		return nil
	})
	if err != nil {
		return nil, apperrors.As(err)
	}

	zap.S().Infow("join request resolved",
		"chamberId", chamberID.Hex(),
		"requestId", requestID.Hex(),
		"status", status)

	s.notify("join_resolved", func() error {
		requester, err := s.findUser(ctx, resolved.User)
		if err != nil {
			return err
		}
		return s.Notifier.JoinResolved(ctx, requester, chamber, status)
	})
	return resolved, nil
}

// unclaim puts a claimed request back to pending when approval could not
// create the membership and no transaction will roll the claim back.
func (s *Service) unclaim(ctx context.Context, requestID primitive.ObjectID, claimed models.JoinRequestStatus) {
	_, err := s.Requests.UpdateOne(ctx,
		bson.M{"_id": requestID, "status": claimed},
		bson.M{"$set": bson.M{"status": models.JoinRequestPending}, "$unset": bson.M{"processedAt": ""}})
	if err != nil {
		zap.S().Errorw("failed to return join request to pending",
			"requestId", requestID.Hex(),
			"error", err)
	}
}
