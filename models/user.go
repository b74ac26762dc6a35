package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the structure for the users collection in mongo
type User struct {
	ID               primitive.ObjectID `json:"_id" bson:"_id"`
	FullName         FullName           `json:"fullName" bson:"fullName"`
	Email            string             `json:"email" bson:"email"`
	EnrollmentNumber string             `json:"enrollmentNumber" bson:"enrollmentNumber"`
	Password         string             `json:"-" bson:"password"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FullName is an advocate's display name
type FullName struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
}

// String joins the first and last name
func (n FullName) String() string {
	switch {
	case n.FirstName == "":
		return n.LastName
	case n.LastName == "":
		return n.FirstName
	}
	return n.FirstName + " " + n.LastName
}

// UserProfile is the sanitized view of a user that is safe to return to clients
type UserProfile struct {
	ID               primitive.ObjectID `json:"_id"`
	FullName         FullName           `json:"fullName"`
	Email            string             `json:"email"`
	EnrollmentNumber string             `json:"enrollmentNumber"`
}

// Profile returns the sanitized profile of u
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:               u.ID,
		FullName:         u.FullName,
		Email:            u.Email,
		EnrollmentNumber: u.EnrollmentNumber,
	}
}
