// Package cases stores legal cases and their PDF attachments. Personal cases
// belong to their creator; chamber cases are governed by chamber permissions.
package cases

import (
	"context"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/databases"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/permissions"
	"github.com/casedock/casedock-api/sanitize"
	"github.com/casedock/casedock-api/storage"
)

// Service implements the case store
type Service struct {
	Cases   databases.CaseDatabase
	Members databases.ChamberMemberDatabase
	Policy  *permissions.Evaluator
	Files   *storage.Attachments
	Now     func() time.Time
}

// NewService wires a Service against db
func NewService(db databases.DatabaseHelper, files *storage.Attachments) *Service {
	members := databases.NewChamberMemberDatabase(db)
	return &Service{
		Cases:   databases.NewCaseDatabase(db),
		Members: members,
		Policy:  permissions.NewEvaluator(permissions.MemberLookup(members)),
		Files:   files,
		Now:     time.Now,
	}
}

// CreateInput is a new case with its initial attachments
type CreateInput struct {
	Title       string
	Description string
	NextDate    string
	Chamber     *primitive.ObjectID
	Files       []storage.Upload
	FileNames   []string
}

// Patch is a partial case update, nil fields are left unchanged
type Patch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	NextDate    *string `json:"nextDate"`
}

// File is an attachment being streamed back to a client
type File struct {
	Name string
	Body io.ReadCloser
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) findCase(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	c, err := s.Cases.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if databases.IsNoDocuments(err) {
			return nil, apperrors.ErrCaseNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return c, nil
}

func filePrefix(id primitive.ObjectID) string {
	return "cases/" + id.Hex()
}

// Create stores a new case. With a chamber the actor needs the create
// permission there. Files are validated and uploaded before the insert.
func (s *Service) Create(ctx context.Context, actor primitive.ObjectID, in CreateInput) (*models.Case, error) {
	title := sanitize.Text(in.Title)
	description := sanitize.Text(in.Description)
	if title == "" || description == "" || strings.TrimSpace(in.NextDate) == "" {
		return nil, apperrors.Validation("Title, description and next date are required")
	}
	next, err := ParseDate(in.NextDate)
	if err != nil {
		return nil, err
	}

	var chamber *primitive.ObjectID
	if in.Chamber != nil && !in.Chamber.IsZero() {
		if _, err := s.Policy.Authorize(ctx, actor, permissions.Chamber{ID: *in.Chamber}, permissions.Create); err != nil {
			return nil, err
		}
		chamber = in.Chamber
	}

	id := primitive.NewObjectID()
	files, err := s.Files.Store(ctx, filePrefix(id), in.Files, in.FileNames)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []models.CaseFile{}
	}

	now := s.now()
	c := models.Case{
		ID:          id,
		Title:       title,
		Description: description,
		Files:       files,
		Status:      models.CaseOpen,
		NextDate:    &next,
		CreatedBy:   actor,
		Chamber:     chamber,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.Cases.InsertOne(ctx, c); err != nil {
		s.Files.Discard(files)
		return nil, apperrors.Internal(err)
	}

	zap.S().Infow("case created", "caseId", id.Hex(), "files", len(files))
	return &c, nil
}

// Get returns the case with the actor's standing in its chamber
func (s *Service) Get(ctx context.Context, actor, id primitive.ObjectID) (*models.CaseView, error) {
	c, err := s.findCase(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.Policy.Authorize(ctx, actor, permissions.ResourceOf(c), permissions.Read)
	if err != nil {
		return nil, err
	}

	view := &models.CaseView{Case: c}
	if m != nil {
		perms := m.Permissions
		if _, ok := permissions.GrantFor(m).(permissions.AdminGrant); ok {
			perms = models.AllPermissions()
		}
		view.UserRole = m.Role
		view.UserPermissions = &perms
	}
	return view, nil
}

// List returns the cases of one chamber, or with no chamber the actor's
// personal cases plus those of every chamber they can read. Newest first.
func (s *Service) List(ctx context.Context, actor primitive.ObjectID, chamber *primitive.ObjectID) ([]models.Case, error) {
	sort := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var filter bson.M
	if chamber != nil {
		if _, err := s.Policy.Authorize(ctx, actor, permissions.Chamber{ID: *chamber}, permissions.Read); err != nil {
			return nil, err
		}
		filter = bson.M{"chamber": *chamber}
	} else {
		memberships, err := s.Members.Find(ctx, bson.M{"user": actor})
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		readable := []primitive.ObjectID{}
		for i := range memberships {
			if permissions.Decide(actor, permissions.Chamber{ID: memberships[i].Chamber}, &memberships[i], permissions.Read) == nil {
				readable = append(readable, memberships[i].Chamber)
			}
		}
		filter = bson.M{"$or": bson.A{
			bson.M{"createdBy": actor, "chamber": nil},
			bson.M{"chamber": bson.M{"$in": readable}},
		}}
	}

	found, err := s.Cases.Find(ctx, filter, sort)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if found == nil {
		found = []models.Case{}
	}
	return found, nil
}

// Update applies patch and appends files. Existing files are never removed.
func (s *Service) Update(ctx context.Context, actor, id primitive.ObjectID, patch Patch, files []storage.Upload, names []string) (*models.Case, error) {
	c, err := s.findCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.Policy.Authorize(ctx, actor, permissions.ResourceOf(c), permissions.Update); err != nil {
		return nil, err
	}

	set, err := patch.fields()
	if err != nil {
		return nil, err
	}
	if len(set) == 0 && len(files) == 0 {
		return nil, apperrors.Validation("Nothing to update")
	}

	stored, err := s.Files.Store(ctx, filePrefix(id), files, names)
	if err != nil {
		return nil, err
	}

	set["updatedAt"] = s.now()
	update := bson.M{"$set": set}
	if len(stored) > 0 {
		update["$push"] = bson.M{"files": bson.M{"$each": stored}}
	}

	updated, err := s.Cases.FindOneAndUpdate(ctx, bson.M{"_id": id}, update)
	if err != nil {
		s.Files.Discard(stored)
		if databases.IsNoDocuments(err) {
			return nil, apperrors.ErrCaseNotFound
		}
		return nil, apperrors.Internal(err)
	}
	return updated, nil
}

func (p Patch) fields() (bson.M, error) {
	set := bson.M{}
	if p.Title != nil {
		title := sanitize.Text(*p.Title)
		if title == "" {
			return nil, apperrors.Validation("Title cannot be empty")
		}
		set["title"] = title
	}
	if p.Description != nil {
		description := sanitize.Text(*p.Description)
		if description == "" {
			return nil, apperrors.Validation("Description cannot be empty")
		}
		set["description"] = description
	}
	if p.Status != nil {
		status := models.CaseStatus(strings.ToLower(strings.TrimSpace(*p.Status)))
		if !status.Valid() {
			return nil, apperrors.Validation("Invalid status")
		}
		set["status"] = status
	}
	if p.NextDate != nil {
		next, err := ParseDate(*p.NextDate)
		if err != nil {
			return nil, err
		}
		set["nextDate"] = next
	}
	return set, nil
}

// Delete removes the case and, best effort, its stored files
func (s *Service) Delete(ctx context.Context, actor, id primitive.ObjectID) error {
	c, err := s.findCase(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.Policy.Authorize(ctx, actor, permissions.ResourceOf(c), permissions.Delete); err != nil {
		return err
	}
	deleted, err := s.Cases.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal(err)
	}
	if deleted == 0 {
		return apperrors.ErrCaseNotFound
	}
	s.Files.Discard(c.Files)
	return nil
}

// OpenFile streams attachment index of the case. The caller closes Body.
func (s *Service) OpenFile(ctx context.Context, actor, id primitive.ObjectID, index int) (*File, error) {
	c, err := s.findCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.Policy.Authorize(ctx, actor, permissions.ResourceOf(c), permissions.Read); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(c.Files) {
		return nil, apperrors.ErrFileNotFound
	}

	f := c.Files[index]
	body, err := s.Files.Objects.Open(ctx, f.StorageKey, f.FileURL)
	if err != nil {
		return nil, apperrors.Upstream("Failed to fetch file from storage", err)
	}
	return &File{Name: PDFName(f.FileName), Body: body}, nil
}

// PDFName makes sure a download name ends in .pdf
func PDFName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "document"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.Validation("Invalid next date")
}
