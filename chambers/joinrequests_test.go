package chambers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/databases/mocks"
	"github.com/casedock/casedock-api/models"
)

func pendingFilter(c, u primitive.ObjectID) bson.M {
	return bson.M{"chamber": c, "user": u, "status": models.JoinRequestPending}
}

func TestRequestJoin_CreatesPendingAndNotifiesAdmin(t *testing.T) {
	f := newFixture(t)
	u1 := newUser("Asha", "asha@example.com")
	u2 := newUser("Vik", "vik@example.com")
	c := newChamber("Torts Team", u1.ID)
	f.withChamber(c)
	f.withoutMembership(u2.ID, c.ID)
	f.withUser(u1)
	f.withUser(u2)
	f.requests.On("FindOne", mock.Anything, pendingFilter(c.ID, u2.ID)).Return(nil, mongo.ErrNoDocuments)

	var stored models.JoinRequest
	f.requests.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil).
		Run(func(args mock.Arguments) { stored = args.Get(1).(models.JoinRequest) })

	req, err := f.svc.RequestJoin(context.Background(), u2.ID, c.ID, " please add me ")

	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestPending, req.Status)
	assert.Equal(t, "please add me", req.Message)
	assert.Equal(t, fixedNow, req.RequestedAt)
	assert.Nil(t, req.ProcessedAt)
	assert.Equal(t, *req, stored)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notification{kind: "requested", to: "asha@example.com", chamber: "Torts Team", message: "please add me"}, f.notifier.sent[0])
}

func TestRequestJoin_Rejections(t *testing.T) {
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	c := newChamber("Torts Team", u1)

	t.Run("chamber missing", func(t *testing.T) {
		f := newFixture(t)
		f.withoutChamber(c.ID)

		_, err := f.svc.RequestJoin(context.Background(), u2, c.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrChamberNotFound)
	})

	t.Run("already a member", func(t *testing.T) {
		f := newFixture(t)
		f.withChamber(c)
		f.withMembership(memberOf(c, u2, models.DefaultMemberPermissions()))

		_, err := f.svc.RequestJoin(context.Background(), u2, c.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyMember)
	})

	t.Run("pending request exists", func(t *testing.T) {
		f := newFixture(t)
		f.withChamber(c)
		f.withoutMembership(u2, c.ID)
		f.requests.On("FindOne", mock.Anything, pendingFilter(c.ID, u2)).
			Return(&models.JoinRequest{Status: models.JoinRequestPending}, nil)

		_, err := f.svc.RequestJoin(context.Background(), u2, c.ID, "again")
		assert.ErrorIs(t, err, apperrors.ErrDuplicatePending)
		f.requests.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	})

	t.Run("concurrent request hits the partial index", func(t *testing.T) {
		f := newFixture(t)
		f.withChamber(c)
		f.withoutMembership(u2, c.ID)
		f.requests.On("FindOne", mock.Anything, pendingFilter(c.ID, u2)).Return(nil, mongo.ErrNoDocuments)
		f.requests.On("InsertOne", mock.Anything, mock.Anything).
			Return(nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}})

		_, err := f.svc.RequestJoin(context.Background(), u2, c.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrDuplicatePending)
		assert.Empty(t, f.notifier.sent)
	})
}

func claimFilter(c *models.Chamber, requestID primitive.ObjectID) bson.M {
	return bson.M{"_id": requestID, "chamber": c.ID, "status": models.JoinRequestPending}
}

func resolveUpdate(status models.JoinRequestStatus) bson.M {
	return bson.M{"$set": bson.M{"status": status, "processedAt": fixedNow}}
}

func TestResolveRequest_ApproveWithSuppliedBits(t *testing.T) {
	f := newFixture(t)
	u1 := newUser("Asha", "asha@example.com")
	u2 := newUser("Vik", "vik@example.com")
	c := newChamber("Torts Team", u1.ID)
	requestID := primitive.NewObjectID()
	processed := fixedNow

	f.withChamber(c)
	f.withMembership(adminOf(c))
	f.withoutMembership(u2.ID, c.ID)
	f.withUser(u2)
	f.requests.On("FindOneAndUpdate", mock.Anything, claimFilter(c, requestID), resolveUpdate(models.JoinRequestApproved)).
		Return(&models.JoinRequest{ID: requestID, Chamber: c.ID, User: u2.ID, Status: models.JoinRequestApproved, ProcessedAt: &processed}, nil)

	var member models.ChamberMember
	f.members.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil).
		Run(func(args mock.Arguments) { member = args.Get(1).(models.ChamberMember) })

	req, err := f.svc.ResolveRequest(context.Background(), u1.ID, c.ID, requestID, "approve",
		&models.PermissionsPatch{CanRead: boolPtr(true), CanCreate: boolPtr(true)})

	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestApproved, req.Status)
	assert.Equal(t, fixedNow, *req.ProcessedAt)

	assert.Equal(t, u2.ID, member.User)
	assert.Equal(t, c.ID, member.Chamber)
	assert.Equal(t, models.RoleMember, member.Role)
	assert.Equal(t, models.Permissions{CanRead: true, CanCreate: true}, member.Permissions)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.JoinRequestApproved, f.notifier.sent[0].status)
	assert.Equal(t, "vik@example.com", f.notifier.sent[0].to)
}

func TestResolveRequest_ApproveDefaultsToReadOnly(t *testing.T) {
	f := newFixture(t)
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	c := newChamber("Torts Team", u1)
	requestID := primitive.NewObjectID()
	f.svc.Notifier = nil

	f.withChamber(c)
	f.withMembership(adminOf(c))
	f.withoutMembership(u2, c.ID)
	f.requests.On("FindOneAndUpdate", mock.Anything, claimFilter(c, requestID), mock.Anything).
		Return(&models.JoinRequest{ID: requestID, Chamber: c.ID, User: u2, Status: models.JoinRequestApproved}, nil)
	var member models.ChamberMember
	f.members.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil).
		Run(func(args mock.Arguments) { member = args.Get(1).(models.ChamberMember) })

	_, err := f.svc.ResolveRequest(context.Background(), u1, c.ID, requestID, "APPROVE", nil)

	require.NoError(t, err)
	assert.Equal(t, models.DefaultMemberPermissions(), member.Permissions)
}

func TestResolveRequest_Reject(t *testing.T) {
	f := newFixture(t)
	u1 := newUser("Asha", "asha@example.com")
	u2 := newUser("Vik", "vik@example.com")
	c := newChamber("Torts Team", u1.ID)
	requestID := primitive.NewObjectID()

	f.withChamber(c)
	f.withMembership(adminOf(c))
	f.withUser(u2)
	f.requests.On("FindOneAndUpdate", mock.Anything, claimFilter(c, requestID), resolveUpdate(models.JoinRequestRejected)).
		Return(&models.JoinRequest{ID: requestID, Chamber: c.ID, User: u2.ID, Status: models.JoinRequestRejected}, nil)

	req, err := f.svc.ResolveRequest(context.Background(), u1.ID, c.ID, requestID, "reject", nil)

	require.NoError(t, err)
	assert.Equal(t, models.JoinRequestRejected, req.Status)
	f.members.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.JoinRequestRejected, f.notifier.sent[0].status)
}

func TestResolveRequest_SecondResolveIsNotFound(t *testing.T) {
	f := newFixture(t)
	u1 := primitive.NewObjectID()
	c := newChamber("Torts Team", u1)
	requestID := primitive.NewObjectID()

	f.withChamber(c)
	f.withMembership(adminOf(c))
	f.requests.On("FindOneAndUpdate", mock.Anything, claimFilter(c, requestID), mock.Anything).
		Return(nil, mongo.ErrNoDocuments)

	_, err := f.svc.ResolveRequest(context.Background(), u1, c.ID, requestID, "approve", nil)

	assert.ErrorIs(t, err, apperrors.ErrJoinRequestNotFound)
	assert.Equal(t, 404, apperrors.Status(err))
	f.members.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.sent)
}

func TestResolveRequest_MembershipFailureReturnsRequestToPending(t *testing.T) {
	f := newFixture(t)
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	c := newChamber("Torts Team", u1)
	requestID := primitive.NewObjectID()

	f.withChamber(c)
	f.withMembership(adminOf(c))
	f.withoutMembership(u2, c.ID)
	f.requests.On("FindOneAndUpdate", mock.Anything, claimFilter(c, requestID), mock.Anything).
		Return(&models.JoinRequest{ID: requestID, Chamber: c.ID, User: u2, Status: models.JoinRequestApproved}, nil)
	f.members.On("InsertOne", mock.Anything, mock.Anything).
		Return(nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}})
	f.requests.On("UpdateOne", mock.Anything,
		bson.M{"_id": requestID, "status": models.JoinRequestApproved},
		bson.M{"$set": bson.M{"status": models.JoinRequestPending}, "$unset": bson.M{"processedAt": ""}}).
		Return(int64(1), nil)

	_, err := f.svc.ResolveRequest(context.Background(), u1, c.ID, requestID, "approve", nil)

	assert.ErrorIs(t, err, apperrors.ErrDuplicateMembership)
	f.requests.AssertNumberOfCalls(t, "UpdateOne", 1)
}

func TestResolveRequest_MembershipFailureInTransactionLeavesRollbackToServer(t *testing.T) {
	f := newFixture(t)
	f.tx = (&mocks.TxRunner{}).Transactional()
	f.svc.Tx = f.tx
	u1, u2 := primitive.NewObjectID(), primitive.NewObjectID()
	c := newChamber("Torts Team", u1)
	requestID := primitive.NewObjectID()

	f.withChamber(c)
	f.withMembership(adminOf(c))
	f.withoutMembership(u2, c.ID)
	f.requests.On("FindOneAndUpdate", mock.Anything, claimFilter(c, requestID), mock.Anything).
		Return(&models.JoinRequest{ID: requestID, Chamber: c.ID, User: u2, Status: models.JoinRequestApproved}, nil)
	f.members.On("InsertOne", mock.Anything, mock.Anything).
		Return(nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}})

	_, err := f.svc.ResolveRequest(context.Background(), u1, c.ID, requestID, "approve", nil)

	assert.ErrorIs(t, err, apperrors.ErrDuplicateMembership)
	f.requests.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	f.tx.AssertNumberOfCalls(t, "WithTransaction", 1)
}

func TestResolveRequest_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ResolveRequest(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), "maybe", nil)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), `"approve" or "reject"`)
}

func TestResolveRequest_MemberCannotResolve(t *testing.T) {
	f := newFixture(t)
	u2 := primitive.NewObjectID()
	c := newChamber("Torts Team", primitive.NewObjectID())
	f.withChamber(c)
	f.withMembership(memberOf(c, u2, models.AllPermissions()))

	_, err := f.svc.ResolveRequest(context.Background(), u2, c.ID, primitive.NewObjectID(), "approve", nil)

	assert.ErrorIs(t, err, apperrors.ErrNotChamberAdmin)
	f.requests.AssertNotCalled(t, "FindOneAndUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestPendingRequests(t *testing.T) {
	f := newFixture(t)
	u1 := primitive.NewObjectID()
	vik := newUser("Vik", "vik@example.com")
	c := newChamber("Torts Team", u1)
	f.withChamber(c)
	f.withMembership(adminOf(c))
	f.requests.On("Find", mock.Anything, bson.M{"chamber": c.ID, "status": models.JoinRequestPending}).
		Return([]models.JoinRequest{{ID: primitive.NewObjectID(), Chamber: c.ID, User: vik.ID, Status: models.JoinRequestPending}}, nil)
	f.users.On("Find", mock.Anything, mock.Anything).Return([]models.User{*vik}, nil)

	views, err := f.svc.PendingRequests(context.Background(), u1, c.ID)

	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "vik@example.com", views[0].Requester.Email)
}
