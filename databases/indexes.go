package databases

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/casedock/casedock-api/models"
)

// indexSpec lists the indexes each collection needs. The unique ones back the
// membership and pending-request invariants, so startup fails if they are missing.
var indexSpec = map[string][]mongo.IndexModel{
	userName: {
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
	},
	chamberName: {
		{
			Keys:    bson.D{{Key: "admin", Value: 1}},
			Options: options.Index().SetName("idx_admin"),
		},
	},
	chamberMemberName: {
		{
			Keys:    bson.D{{Key: "chamber", Value: 1}, {Key: "user", Value: 1}},
			Options: options.Index().SetName("uniq_chamber_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetName("idx_user"),
		},
	},
	joinRequestName: {
		{
			Keys: bson.D{{Key: "chamber", Value: 1}, {Key: "user", Value: 1}},
			Options: options.Index().
				SetName("uniq_pending_chamber_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": models.JoinRequestPending}),
		},
		{
			Keys:    bson.D{{Key: "chamber", Value: 1}, {Key: "user", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_chamber_user_status"),
		},
		{
			Keys:    bson.D{{Key: "chamber", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_chamber_status"),
		},
	},
	caseName: {
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}, {Key: "chamber", Value: 1}},
			Options: options.Index().SetName("idx_createdBy_chamber"),
		},
		{
			Keys:    bson.D{{Key: "chamber", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_chamber_createdAt"),
		},
	},
}

// EnsureIndexes is called at startup. Creating an index that already exists
// is a no-op, so this is idempotent. Errors are aggregated so every problem is
// visible at once.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	var problems []string
	for _, name := range []string{userName, chamberName, chamberMemberName, joinRequestName, caseName} {
		if err := db.Collection(name).CreateIndexes(ctx, indexSpec[name]); err != nil {
			problems = append(problems, name+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
