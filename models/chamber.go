package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chamber holds the structure for the chambers collection in mongo
type Chamber struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Admin       primitive.ObjectID `json:"admin" bson:"admin"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ChamberSummary is a chamber as seen by one of its members
type ChamberSummary struct {
	Chamber
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
}

// ChamberDetail is the full chamber view. Members is only populated for the admin.
type ChamberDetail struct {
	Chamber
	UserRole        Role         `json:"userRole"`
	UserPermissions Permissions  `json:"userPermissions"`
	Members         []MemberView `json:"members"`
}

// ChamberSearchResult is a chamber the searching user could ask to join
type ChamberSearchResult struct {
	Chamber
	AdminName         string `json:"adminName"`
	HasPendingRequest bool   `json:"hasPendingRequest"`
}
