package databases

// go generate: mockery --name JoinRequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/casedock/casedock-api/models"
)

const joinRequestName = "joinrequests"

// JoinRequestDatabase contains the methods to use with the join request database
type JoinRequestDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.JoinRequest, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.JoinRequest, error)
	InsertOne(ctx context.Context, document interface{}) (interface{}, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.JoinRequest, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error)
}

type joinRequestDatabase struct {
	db DatabaseHelper
}

// NewJoinRequestDatabase initializes a new instance of join request database with the provided db connection
func NewJoinRequestDatabase(db DatabaseHelper) JoinRequestDatabase {
	return &joinRequestDatabase{
		db: db,
	}
}

func (j *joinRequestDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.JoinRequest, error) {
	request := &models.JoinRequest{}
	err := j.db.Collection(joinRequestName).FindOne(ctx, filter, opts...).Decode(&request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (j *joinRequestDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	cur, err := j.db.Collection(joinRequestName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	err = cur.All(ctx, &requests)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (j *joinRequestDatabase) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	return j.db.Collection(joinRequestName).InsertOne(ctx, document)
}

// FindOneAndUpdate returns the request as it is after the update
func (j *joinRequestDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.JoinRequest, error) {
	request := &models.JoinRequest{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := j.db.Collection(joinRequestName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (j *joinRequestDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	return j.db.Collection(joinRequestName).UpdateOne(ctx, filter, update)
}

func (j *joinRequestDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return j.db.Collection(joinRequestName).DeleteMany(ctx, filter)
}

func (j *joinRequestDatabase) Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error) {
	return j.db.Collection(joinRequestName).Distinct(ctx, fieldName, filter)
}
