package databases

// go generate: mockery --name ChamberDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/casedock/casedock-api/models"
)

const chamberName = "chambers"

// ChamberDatabase contains the methods to use with the chamber database
type ChamberDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Chamber, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Chamber, error)
	InsertOne(ctx context.Context, document interface{}) (interface{}, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Chamber, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type chamberDatabase struct {
	db DatabaseHelper
}

// NewChamberDatabase initializes a new instance of chamber database with the provided db connection
func NewChamberDatabase(db DatabaseHelper) ChamberDatabase {
	return &chamberDatabase{
		db: db,
	}
}

func (c *chamberDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Chamber, error) {
	chamber := &models.Chamber{}
	err := c.db.Collection(chamberName).FindOne(ctx, filter, opts...).Decode(&chamber)
	if err != nil {
		return nil, err
	}
	return chamber, nil
}

func (c *chamberDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Chamber, error) {
	var chambers []models.Chamber
	cur, err := c.db.Collection(chamberName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	err = cur.All(ctx, &chambers)
	if err != nil {
		return nil, err
	}
	return chambers, nil
}

func (c *chamberDatabase) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	return c.db.Collection(chamberName).InsertOne(ctx, document)
}

// FindOneAndUpdate returns the chamber as it is after the update
func (c *chamberDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Chamber, error) {
	chamber := &models.Chamber{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := c.db.Collection(chamberName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&chamber)
	if err != nil {
		return nil, err
	}
	return chamber, nil
}

func (c *chamberDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(chamberName).DeleteOne(ctx, filter)
}
