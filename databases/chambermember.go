package databases

// go generate: mockery --name ChamberMemberDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/casedock/casedock-api/models"
)

const chamberMemberName = "chambermembers"

// ChamberMemberDatabase contains the methods to use with the chamber member database
type ChamberMemberDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ChamberMember, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ChamberMember, error)
	InsertOne(ctx context.Context, document interface{}) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error)
}

type chamberMemberDatabase struct {
	db DatabaseHelper
}

// NewChamberMemberDatabase initializes a new instance of chamber member database with the provided db connection
func NewChamberMemberDatabase(db DatabaseHelper) ChamberMemberDatabase {
	return &chamberMemberDatabase{
		db: db,
	}
}

func (c *chamberMemberDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.ChamberMember, error) {
	member := &models.ChamberMember{}
	err := c.db.Collection(chamberMemberName).FindOne(ctx, filter, opts...).Decode(&member)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (c *chamberMemberDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ChamberMember, error) {
	var members []models.ChamberMember
	cur, err := c.db.Collection(chamberMemberName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	err = cur.All(ctx, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (c *chamberMemberDatabase) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	return c.db.Collection(chamberMemberName).InsertOne(ctx, document)
}

func (c *chamberMemberDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	return c.db.Collection(chamberMemberName).UpdateOne(ctx, filter, update)
}

func (c *chamberMemberDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(chamberMemberName).DeleteOne(ctx, filter)
}

func (c *chamberMemberDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(chamberMemberName).DeleteMany(ctx, filter)
}

func (c *chamberMemberDatabase) Distinct(ctx context.Context, fieldName string, filter interface{}) ([]interface{}, error) {
	return c.db.Collection(chamberMemberName).Distinct(ctx, fieldName, filter)
}
