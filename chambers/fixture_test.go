package chambers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/casedock/casedock-api/databases/mocks"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/permissions"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type notification struct {
	kind    string
	to      string
	chamber string
	message string
	status  models.JoinRequestStatus
}

type recordingNotifier struct {
	sent []notification
}

func (r *recordingNotifier) JoinRequested(_ context.Context, admin, _ *models.User, chamber *models.Chamber, message string) error {
	r.sent = append(r.sent, notification{kind: "requested", to: admin.Email, chamber: chamber.Name, message: message})
	return nil
}

func (r *recordingNotifier) JoinResolved(_ context.Context, requester *models.User, chamber *models.Chamber, status models.JoinRequestStatus) error {
	r.sent = append(r.sent, notification{kind: "resolved", to: requester.Email, chamber: chamber.Name, status: status})
	return nil
}

type fixture struct {
	svc      *Service
	chambers *mocks.ChamberDatabase
	members  *mocks.ChamberMemberDatabase
	requests *mocks.JoinRequestDatabase
	users    *mocks.UserDatabase
	tx       *mocks.TxRunner
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		chambers: &mocks.ChamberDatabase{},
		members:  &mocks.ChamberMemberDatabase{},
		requests: &mocks.JoinRequestDatabase{},
		users:    &mocks.UserDatabase{},
		tx:       (&mocks.TxRunner{}).PassThrough(),
		notifier: &recordingNotifier{},
	}
	f.svc = &Service{
		Chambers: f.chambers,
		Members:  f.members,
		Requests: f.requests,
		Users:    f.users,
		Tx:       f.tx,
		Policy:   permissions.NewEvaluator(permissions.MemberLookup(f.members)),
		Notifier: f.notifier,
		Now:      func() time.Time { return fixedNow },
	}
	return f
}

func newUser(first, email string) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Email: email, FullName: models.FullName{FirstName: first, LastName: "Test"}}
}

func newChamber(name string, admin primitive.ObjectID) *models.Chamber {
	return &models.Chamber{ID: primitive.NewObjectID(), Name: name, Admin: admin, CreatedAt: fixedNow}
}

func adminOf(c *models.Chamber) *models.ChamberMember {
	return &models.ChamberMember{ID: primitive.NewObjectID(), Chamber: c.ID, User: c.Admin, Role: models.RoleAdmin, Permissions: models.AllPermissions()}
}

func memberOf(c *models.Chamber, user primitive.ObjectID, bits models.Permissions) *models.ChamberMember {
	return &models.ChamberMember{ID: primitive.NewObjectID(), Chamber: c.ID, User: user, Role: models.RoleMember, Permissions: bits}
}

func (f *fixture) withChamber(c *models.Chamber) {
	f.chambers.On("FindOne", mock.Anything, bson.M{"_id": c.ID}).Return(c, nil)
}

func (f *fixture) withoutChamber(id primitive.ObjectID) {
	f.chambers.On("FindOne", mock.Anything, bson.M{"_id": id}).Return(nil, mongo.ErrNoDocuments)
}

func (f *fixture) withMembership(m *models.ChamberMember) {
	f.members.On("FindOne", mock.Anything, bson.M{"chamber": m.Chamber, "user": m.User}).Return(m, nil)
	f.members.On("FindOne", mock.Anything, bson.M{"_id": m.ID, "chamber": m.Chamber}).Return(m, nil)
}

func (f *fixture) withoutMembership(user, chamber primitive.ObjectID) {
	f.members.On("FindOne", mock.Anything, bson.M{"chamber": chamber, "user": user}).Return(nil, mongo.ErrNoDocuments)
}

func (f *fixture) withUser(u *models.User) {
	f.users.On("FindOne", mock.Anything, bson.M{"_id": u.ID}).Return(u, nil)
}
