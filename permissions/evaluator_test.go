package permissions_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/databases/mocks"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/permissions"
)

func TestMemberLookup(t *testing.T) {
	memberDB := &mocks.ChamberMemberDatabase{}
	user, chamber, stranger := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	memberDB.On("FindOne", mock.Anything, bson.M{"chamber": chamber, "user": user}).
		Return(&models.ChamberMember{User: user, Chamber: chamber, Role: models.RoleMember}, nil)
	memberDB.On("FindOne", mock.Anything, bson.M{"chamber": chamber, "user": stranger}).
		Return(nil, mongo.ErrNoDocuments)
	memberDB.On("FindOne", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	lookup := permissions.MemberLookup(memberDB)

	m, err := lookup.Membership(context.Background(), user, chamber)
	assert.NoError(t, err)
	assert.Equal(t, user, m.User)

	m, err = lookup.Membership(context.Background(), stranger, chamber)
	assert.NoError(t, err)
	assert.Nil(t, m)

	_, err = lookup.Membership(context.Background(), user, primitive.NewObjectID())
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
}
