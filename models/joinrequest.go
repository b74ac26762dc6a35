package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JoinRequestStatus is the state of a join request. Approved and rejected are terminal.
type JoinRequestStatus string

// Join request states
const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest holds the structure for the joinrequests collection in mongo
type JoinRequest struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Chamber     primitive.ObjectID `json:"chamber" bson:"chamber"`
	User        primitive.ObjectID `json:"user" bson:"user"`
	Status      JoinRequestStatus  `json:"status" bson:"status"`
	Message     string             `json:"message,omitempty" bson:"message,omitempty"`
	RequestedAt time.Time          `json:"requestedAt" bson:"requestedAt"`
	ProcessedAt *time.Time         `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

// JoinRequestView is a join request with the requesting user's profile attached
type JoinRequestView struct {
	JoinRequest
	Requester *UserProfile `json:"requester"`
}
