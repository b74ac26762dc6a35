package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/casedock/casedock-api/api"
	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/cases"
	"github.com/casedock/casedock-api/config"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/storage"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files
const multipartMemory = 8 << 20

// Case exported for testing purposes
type Case struct {
	Service        *cases.Service
	MaxUploadBytes int64
	MaxFiles       int
}

type caseResponse struct {
	Message string       `json:"message"`
	Case    *models.Case `json:"case"`
}

type casesResponse struct {
	Message string        `json:"message"`
	Cases   []models.Case `json:"cases"`
}

type caseViewResponse struct {
	Message string `json:"message"`
	*models.CaseView
}

// bodyLimit bounds a multipart request to the largest batch it may carry
func (c Case) bodyLimit() int64 {
	files := int64(c.MaxFiles)
	if files <= 0 {
		files = 10
	}
	per := c.MaxUploadBytes
	if per <= 0 {
		per = 10 << 20
	}
	return files*per + 1<<20
}

// parseMultipart parses a multipart body and returns its uploads with the
// matching display names
func (c Case) parseMultipart(w http.ResponseWriter, r *http.Request) ([]storage.Upload, []string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, c.bodyLimit())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apperrors.Validation("Upload is too large")
		}
		return nil, nil, apperrors.Validation("Invalid multipart form")
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]storage.Upload, len(headers))
	for i, fh := range headers {
		uploads[i] = storage.FromFileHeader(fh)
	}
	names, err := parseFileNames(r.MultipartForm.Value["fileNames"], len(uploads))
	if err != nil {
		return nil, nil, err
	}
	return uploads, names, nil
}

// parseFileNames normalizes the fileNames field, which clients send as a JSON
// array, a JSON string, a plain string or repeated form values
func parseFileNames(values []string, files int) ([]string, error) {
	var names []string
	switch len(values) {
	case 0:
	case 1:
		raw := strings.TrimSpace(values[0])
		var list []string
		var single string
		switch {
		case json.Unmarshal([]byte(raw), &list) == nil:
			names = list
		case json.Unmarshal([]byte(raw), &single) == nil:
			names = []string{single}
		default:
			names = []string{raw}
		}
	default:
		names = values
	}
	if files > 0 && len(names) != files {
		return nil, apperrors.Validation("fileNames must be provided and match the number of files")
	}
	if files == 0 {
		return nil, nil
	}
	return names, nil
}

func formValue(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	v, ok := r.MultipartForm.Value[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

func isMultipart(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "multipart/form-data"
}

func cleanup(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// ListCasesHandler returns the cases visible to the user, optionally limited
// to one chamber
func (c Case) ListCasesHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	var chamber *primitive.ObjectID
	if raw := r.URL.Query().Get("chamberId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			config.ErrorResponse(w, apperrors.Validation("Invalid chamber ID"))
			return
		}
		chamber = &id
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	found, err := c.Service.List(ctx, user.ID, chamber)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, casesResponse{Message: "Fetched all cases", Cases: found})
}

// CreateCaseHandler creates a case from a multipart form with optional PDFs
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	defer cleanup(r)

	in := cases.CreateInput{}
	var chamberID string
	if isMultipart(r) {
		uploads, names, err := c.parseMultipart(w, r)
		if err != nil {
			config.ErrorResponse(w, err)
			return
		}
		in.Files, in.FileNames = uploads, names
		in.Title = r.FormValue("title")
		in.Description = r.FormValue("description")
		in.NextDate = r.FormValue("nextDate")
		chamberID = r.FormValue("chamberId")
	} else {
		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			NextDate    string `json:"nextDate"`
			ChamberID   string `json:"chamberId"`
		}
		if err := decodeJSON(r, &body); err != nil {
			config.ErrorResponse(w, err)
			return
		}
		in.Title, in.Description, in.NextDate, chamberID = body.Title, body.Description, body.NextDate, body.ChamberID
	}
	if raw := strings.TrimSpace(chamberID); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			config.ErrorResponse(w, apperrors.Validation("Invalid chamber ID"))
			return
		}
		in.Chamber = &id
	}

	created, err := c.Service.Create(r.Context(), user.ID, in)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, caseResponse{Message: "Case created", Case: created})
}

// CaseHandler returns a case with the caller's standing in its chamber
func (c Case) CaseHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "caseId", "case ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	view, err := c.Service.Get(ctx, user.ID, id)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, caseViewResponse{Message: "Case fetched", CaseView: view})
}

// UpdateCaseHandler applies a partial update sent as JSON or as a multipart
// form that may also carry new PDFs
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "caseId", "case ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	defer cleanup(r)

	var (
		patch   cases.Patch
		uploads []storage.Upload
		names   []string
	)
	if isMultipart(r) {
		uploads, names, err = c.parseMultipart(w, r)
		if err != nil {
			config.ErrorResponse(w, err)
			return
		}
		patch = cases.Patch{
			Title:       formValue(r, "title"),
			Description: formValue(r, "description"),
			Status:      formValue(r, "status"),
			NextDate:    formValue(r, "nextDate"),
		}
	} else if err := decodeJSON(r, &patch); err != nil {
		config.ErrorResponse(w, err)
		return
	}

	updated, err := c.Service.Update(r.Context(), user.ID, id, patch, uploads, names)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, caseResponse{Message: "Case updated", Case: updated})
}

// DeleteCaseHandler deletes a case
func (c Case) DeleteCaseHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "caseId", "case ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Service.Delete(ctx, user.ID, id); err != nil {
		config.ErrorResponse(w, err)
		return
	}
	message(w, http.StatusOK, "Case deleted successfully")
}

// CaseFileHandler streams one attachment. With download=1 the browser is told
// to save it instead of displaying it.
func (c Case) CaseFileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	id, err := objectIDVar(r, "caseId", "case ID")
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["fileIndex"])
	if err != nil {
		config.ErrorResponse(w, apperrors.Validation("Invalid file index"))
		return
	}

	file, err := c.Service.OpenFile(r.Context(), user.ID, id, index)
	if err != nil {
		config.ErrorResponse(w, err)
		return
	}
	defer file.Body.Close()

	disposition := "inline"
	if r.URL.Query().Get("download") == "1" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", storage.PDFContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": file.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, file.Body); err != nil {
		zap.S().Warnw("failed to stream case file", "caseId", id.Hex(), "index", index, "error", err)
	}
}
