package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseStatus is the lifecycle state of a case
type CaseStatus string

// Case states
const (
	CaseOpen      CaseStatus = "open"
	CaseClosed    CaseStatus = "closed"
	CaseDismissed CaseStatus = "dismissed"
)

// Valid reports whether s is a known case status
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseOpen, CaseClosed, CaseDismissed:
		return true
	}
	return false
}

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID          primitive.ObjectID  `json:"_id" bson:"_id"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description" bson:"description"`
	Files       []CaseFile          `json:"files" bson:"files"`
	Status      CaseStatus          `json:"status" bson:"status"`
	NextDate    *time.Time          `json:"nextDate,omitempty" bson:"nextDate,omitempty"`
	CreatedBy   primitive.ObjectID  `json:"createdBy" bson:"createdBy"`
	Chamber     *primitive.ObjectID `json:"chamber" bson:"chamber"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// IsPersonal reports whether the case belongs to no chamber
func (c Case) IsPersonal() bool {
	return c.Chamber == nil || c.Chamber.IsZero()
}

// CaseFile is a PDF attached to a case. Files are only ever appended.
type CaseFile struct {
	FileName   string `json:"fileName" bson:"fileName"`
	FileURL    string `json:"fileUrl" bson:"fileUrl"`
	StorageKey string `json:"-" bson:"storageKey,omitempty"`
	Pages      int    `json:"pages,omitempty" bson:"pages,omitempty"`
}

// CaseView is a case together with the caller's standing in its chamber
type CaseView struct {
	Case            *Case        `json:"case"`
	UserRole        Role         `json:"userRole,omitempty"`
	UserPermissions *Permissions `json:"userPermissions,omitempty"`
}
