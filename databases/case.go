package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/casedock/casedock-api/models"
)

const caseName = "cases"

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error)
	InsertOne(ctx context.Context, document interface{}) (interface{}, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Case, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error) {
	caseDoc := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter, opts...).Decode(&caseDoc)
	if err != nil {
		return nil, err
	}
	return caseDoc, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	var cases []models.Case
	cur, err := c.db.Collection(caseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	err = cur.All(ctx, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	return c.db.Collection(caseName).InsertOne(ctx, document)
}

// FindOneAndUpdate returns the case as it is after the update
func (c *caseDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Case, error) {
	caseDoc := &models.Case{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := c.db.Collection(caseName).FindOneAndUpdate(ctx, filter, update, opts).Decode(&caseDoc)
	if err != nil {
		return nil, err
	}
	return caseDoc, nil
}

func (c *caseDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(caseName).DeleteOne(ctx, filter)
}
