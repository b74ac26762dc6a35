package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/casedock/casedock-api/api"
	"github.com/casedock/casedock-api/api/handlers"
	"github.com/casedock/casedock-api/cases"
	"github.com/casedock/casedock-api/chambers"
	"github.com/casedock/casedock-api/config"
	"github.com/casedock/casedock-api/databases/mocks"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/permissions"
	"github.com/casedock/casedock-api/storage"
	"github.com/casedock/casedock-api/storage/storagetest"
)

type env struct {
	router   *mux.Router
	users    *mocks.UserDatabase
	chambers *mocks.ChamberDatabase
	members  *mocks.ChamberMemberDatabase
	requests *mocks.JoinRequestDatabase
	cases    *mocks.CaseDatabase
	objects  *storage.MemoryStore
	sessions *api.SessionManager
}

type nopNotifier struct{}

func (nopNotifier) JoinRequested(context.Context, *models.User, *models.User, *models.Chamber, string) error {
	return nil
}

func (nopNotifier) JoinResolved(context.Context, *models.User, *models.Chamber, models.JoinRequestStatus) error {
	return nil
}

func newEnv(t *testing.T) *env {
	conf := config.Config{
		JWTSecret:          "handler-tests",
		JWTIssuer:          "casedock-test",
		SessionTTL:         time.Hour,
		CookieName:         "token",
		RequestTimeout:     5 * time.Second,
		MaxUploadBytes:     1 << 20,
		MaxFilesPerRequest: 5,
	}
	e := &env{
		users:    &mocks.UserDatabase{},
		chambers: &mocks.ChamberDatabase{},
		members:  &mocks.ChamberMemberDatabase{},
		requests: &mocks.JoinRequestDatabase{},
		cases:    &mocks.CaseDatabase{},
		objects:  storage.NewMemoryStore(),
	}
	e.sessions = api.NewSessionManager(&conf, nil)

	policy := permissions.NewEvaluator(permissions.MemberLookup(e.members))
	limits := storage.DefaultLimits()
	limits.MaxBytes = conf.MaxUploadBytes
	limits.MaxFiles = conf.MaxFilesPerRequest

	e.router = handlers.Routes(handlers.Services{
		Users:    e.users,
		Sessions: e.sessions,
		Chambers: &chambers.Service{
			Chambers: e.chambers,
			Members:  e.members,
			Requests: e.requests,
			Users:    e.users,
			Tx:       (&mocks.TxRunner{}).PassThrough(),
			Policy:   policy,
			Notifier: nopNotifier{},
			Now:      time.Now,
		},
		Cases: &cases.Service{
			Cases:   e.cases,
			Members: e.members,
			Policy:  policy,
			Files:   storage.NewAttachments(e.objects, limits),
			Now:     time.Now,
		},
	}, conf)
	return e
}

// login registers u with the user store and returns a live session cookie
func (e *env) login(t *testing.T, u *models.User) *http.Cookie {
	e.users.On("FindOne", mock.Anything, bson.M{"_id": u.ID}).Return(u, nil)
	token, _, err := e.sessions.Issue(u.ID)
	require.NoError(t, err)
	return &http.Cookie{Name: "token", Value: token}
}

func (e *env) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type part struct {
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string][]string, files []part) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, values := range fields {
		for _, v := range values {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.filename))
		h.Set("Content-Type", f.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func messageOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	var body models.MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body.Message
}

func newUser(email string) *models.User {
	return &models.User{ID: primitive.NewObjectID(), Email: email, FullName: models.FullName{FirstName: "Asha", LastName: "Rao"}}
}

func TestSignupHandler(t *testing.T) {
	e := newEnv(t)
	e.users.On("FindOne", mock.Anything, bson.M{"email": "asha@example.com"}).Return(nil, mongo.ErrNoDocuments)

	var stored models.User
	e.users.On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		stored = doc.(models.User)
		return true
	})).Return(primitive.NewObjectID(), nil)

	rr := e.do(jsonRequest("POST", "/api/v1/auth/signup", map[string]interface{}{
		"fullName":         map[string]string{"firstName": "Asha", "lastName": "Rao"},
		"email":            " Asha@Example.com ",
		"enrollmentNumber": "D/1234/2020",
		"password":         "correct horse",
	}), nil)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "asha@example.com", stored.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("correct horse")))
	assert.NotContains(t, rr.Body.String(), "password")
	assert.Contains(t, rr.Body.String(), `"enrollmentNumber":"D/1234/2020"`)
}

func TestSignupHandler_Rejections(t *testing.T) {
	e := newEnv(t)
	e.users.On("FindOne", mock.Anything, bson.M{"email": "taken@example.com"}).Return(newUser("taken@example.com"), nil)

	rr := e.do(jsonRequest("POST", "/api/v1/auth/signup", map[string]interface{}{"email": "x@example.com"}), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "All fields are required", messageOf(t, rr))

	rr = e.do(jsonRequest("POST", "/api/v1/auth/signup", map[string]interface{}{
		"fullName":         map[string]string{"firstName": "A", "lastName": "B"},
		"email":            "taken@example.com",
		"enrollmentNumber": "1",
		"password":         "pw",
	}), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "User already exists", messageOf(t, rr))
	e.users.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestLoginHandler(t *testing.T) {
	e := newEnv(t)
	u := newUser("asha@example.com")
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	u.Password = string(hash)
	e.users.On("FindOne", mock.Anything, bson.M{"email": "asha@example.com"}).Return(u, nil)
	e.users.On("FindOne", mock.Anything, bson.M{"email": "nobody@example.com"}).Return(nil, mongo.ErrNoDocuments)

	rr := e.do(jsonRequest("POST", "/api/v1/auth/login", map[string]string{"email": "ASHA@example.com", "password": "secret"}), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	id, err := e.sessions.Resolve(context.Background(), cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	wrong := e.do(jsonRequest("POST", "/api/v1/auth/login", map[string]string{"email": "asha@example.com", "password": "nope"}), nil)
	unknown := e.do(jsonRequest("POST", "/api/v1/auth/login", map[string]string{"email": "nobody@example.com", "password": "secret"}), nil)
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, messageOf(t, wrong), messageOf(t, unknown))
	assert.Empty(t, wrong.Result().Cookies())
}

func TestMeAndLogout(t *testing.T) {
	e := newEnv(t)
	u := newUser("asha@example.com")
	cookie := e.login(t, u)

	rr := e.do(httptest.NewRequest("GET", "/api/v1/auth/me", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.do(httptest.NewRequest("GET", "/api/v1/auth/me", nil), cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"email":"asha@example.com"`)

	rr = e.do(httptest.NewRequest("POST", "/api/v1/auth/logout", nil), cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	cleared := rr.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)

	rr = e.do(httptest.NewRequest("GET", "/api/v1/auth/me", nil), cookie)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = e.do(httptest.NewRequest("POST", "/api/v1/auth/logout", nil), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateCaseAndStreamFiles(t *testing.T) {
	e := newEnv(t)
	u := newUser("asha@example.com")
	cookie := e.login(t, u)

	inserted := &models.Case{}
	e.cases.On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		*inserted = doc.(models.Case)
		return true
	})).Return(primitive.NewObjectID(), nil)
	e.cases.On("FindOne", mock.Anything, mock.Anything).Return(func(context.Context, interface{}) *models.Case {
		return inserted
	}, nil)

	req := multipartRequest(t, "POST", "/api/v1/cases", map[string][]string{
		"title":       {"State v. Rao"},
		"description": {"Bail hearing"},
		"nextDate":    {"2026-06-01"},
		"fileNames":   {`["Charge sheet","Bail order.pdf"]`},
	}, []part{
		{"a.pdf", storage.PDFContentType, storagetest.PDF(1)},
		{"b.pdf", storage.PDFContentType, storagetest.PDF(3)},
	})
	rr := e.do(req, cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Len(t, inserted.Files, 2)
	assert.Len(t, e.objects.Keys(), 2)

	path := fmt.Sprintf("/api/v1/cases/%s/files/0", inserted.ID.Hex())
	rr = e.do(httptest.NewRequest("GET", path, nil), cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, storage.PDFContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="Charge sheet.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, storagetest.PDF(1), rr.Body.Bytes())

	path = fmt.Sprintf("/api/v1/cases/%s/files/1?download=1", inserted.ID.Hex())
	rr = e.do(httptest.NewRequest("GET", path, nil), cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="Bail order.pdf"`, rr.Header().Get("Content-Disposition"))
	body, _ := io.ReadAll(rr.Body)
	assert.Equal(t, storagetest.PDF(3), body)

	rr = e.do(httptest.NewRequest("GET", fmt.Sprintf("/api/v1/cases/%s/files/abc", inserted.ID.Hex()), nil), cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid file index", messageOf(t, rr))

	rr = e.do(httptest.NewRequest("GET", fmt.Sprintf("/api/v1/cases/%s/files/7", inserted.ID.Hex()), nil), cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateCase_RejectedUploadsStoreNothing(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string][]string
		files  []part
	}{
		{
			name:   "names do not match files",
			fields: map[string][]string{"fileNames": {`["only one"]`}},
			files:  []part{{"a.pdf", storage.PDFContentType, storagetest.PDF(1)}, {"b.pdf", storage.PDFContentType, storagetest.PDF(1)}},
		},
		{
			name:   "not a pdf",
			fields: map[string][]string{"fileNames": {"notes"}},
			files:  []part{{"notes.txt", "text/plain", []byte("hello")}},
		},
		{
			name:   "pdf label on other content",
			fields: map[string][]string{"fileNames": {"fake"}},
			files:  []part{{"fake.pdf", storage.PDFContentType, []byte("<html>not a pdf</html>")}},
		},
		{
			name:   "pdf header with broken cross reference",
			fields: map[string][]string{"fileNames": {"broken"}},
			files: []part{{"broken.pdf", storage.PDFContentType,
				[]byte("%PDF-1.4\n" + strings.Repeat(" ", 120) + "\nstartxref\n999999\n%%EOF\n")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			cookie := e.login(t, newUser("asha@example.com"))
			tt.fields["title"] = []string{"t"}
			tt.fields["description"] = []string{"d"}
			tt.fields["nextDate"] = []string{"2026-06-01"}

			rr := e.do(multipartRequest(t, "POST", "/api/v1/cases", tt.fields, tt.files), cookie)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			assert.Empty(t, e.objects.Keys())
			e.cases.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateCase_TooManyFiles(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t, newUser("asha@example.com"))
	files := make([]part, 6)
	names := make([]string, 6)
	for i := range files {
		files[i] = part{fmt.Sprintf("%d.pdf", i), storage.PDFContentType, storagetest.PDF(1)}
		names[i] = fmt.Sprintf("doc %d", i)
	}

	rr := e.do(multipartRequest(t, "POST", "/api/v1/cases", map[string][]string{
		"title": {"t"}, "description": {"d"}, "nextDate": {"2026-06-01"}, "fileNames": names,
	}, files), cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, e.objects.Keys())
}

func TestUpdateCaseHandler_JSON(t *testing.T) {
	e := newEnv(t)
	u := newUser("asha@example.com")
	cookie := e.login(t, u)
	c := &models.Case{ID: primitive.NewObjectID(), CreatedBy: u.ID, Status: models.CaseOpen}
	e.cases.On("FindOne", mock.Anything, bson.M{"_id": c.ID}).Return(c, nil)
	e.cases.On("FindOneAndUpdate", mock.Anything, bson.M{"_id": c.ID}, mock.Anything).
		Return(&models.Case{ID: c.ID, CreatedBy: u.ID, Status: models.CaseClosed}, nil)

	rr := e.do(jsonRequest("PATCH", "/api/v1/cases/"+c.ID.Hex(), map[string]string{"status": "closed"}), cookie)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"status":"closed"`)

	rr = e.do(jsonRequest("PATCH", "/api/v1/cases/"+c.ID.Hex(), map[string]string{}), cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Nothing to update", messageOf(t, rr))
}

func TestCaseHandler_PersonalCaseOfSomeoneElse(t *testing.T) {
	e := newEnv(t)
	cookie := e.login(t, newUser("intruder@example.com"))
	c := &models.Case{ID: primitive.NewObjectID(), CreatedBy: primitive.NewObjectID()}
	e.cases.On("FindOne", mock.Anything, bson.M{"_id": c.ID}).Return(c, nil)

	rr := e.do(httptest.NewRequest("GET", "/api/v1/cases/"+c.ID.Hex(), nil), cookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "You don't have access to this case", messageOf(t, rr))

	rr = e.do(httptest.NewRequest("GET", "/api/v1/cases/not-an-id", nil), cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChamberRoutes(t *testing.T) {
	e := newEnv(t)
	u := newUser("asha@example.com")
	cookie := e.login(t, u)

	rr := e.do(httptest.NewRequest("GET", "/api/v1/chambers/search?q=", nil), cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Search query is required", messageOf(t, rr))

	rr = e.do(httptest.NewRequest("GET", "/api/v1/chambers/zzz", nil), cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid chamber ID", messageOf(t, rr))

	path := fmt.Sprintf("/api/v1/chambers/%s/requests/%s", primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())
	rr = e.do(jsonRequest("POST", path, map[string]string{"action": "maybe"}), cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `Invalid action. Use "approve" or "reject"`, messageOf(t, rr))
}

func TestUpdateMemberPermissions_AdminCannotEditSelf(t *testing.T) {
	e := newEnv(t)
	u1 := newUser("admin@example.com")
	cookie := e.login(t, u1)
	chamber := &models.Chamber{ID: primitive.NewObjectID(), Name: "Rao & Partners", Admin: u1.ID}
	admin := &models.ChamberMember{ID: primitive.NewObjectID(), Chamber: chamber.ID, User: u1.ID, Role: models.RoleAdmin, Permissions: models.AllPermissions()}
	e.chambers.On("FindOne", mock.Anything, bson.M{"_id": chamber.ID}).Return(chamber, nil)
	e.members.On("FindOne", mock.Anything, bson.M{"chamber": chamber.ID, "user": u1.ID}).Return(admin, nil)
	e.members.On("FindOne", mock.Anything, bson.M{"_id": admin.ID, "chamber": chamber.ID}).Return(admin, nil)

	path := fmt.Sprintf("/api/v1/chambers/%s/members/%s", chamber.ID.Hex(), admin.ID.Hex())
	rr := e.do(jsonRequest("PATCH", path, map[string]interface{}{"permissions": map[string]bool{"canDelete": false}}), cookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Cannot modify your own permissions", messageOf(t, rr))

	rr = e.do(httptest.NewRequest("DELETE", path, nil), cookie)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "Cannot remove chamber admin", messageOf(t, rr))
	e.members.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	e.members.AssertNotCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestCreateChamberHandler(t *testing.T) {
	e := newEnv(t)
	u := newUser("asha@example.com")
	cookie := e.login(t, u)
	e.chambers.On("InsertOne", mock.Anything, mock.Anything).Return(primitive.NewObjectID(), nil)
	e.members.On("InsertOne", mock.Anything, mock.MatchedBy(func(doc interface{}) bool {
		m, ok := doc.(models.ChamberMember)
		return ok && m.Role == models.RoleAdmin && m.User == u.ID
	})).Return(primitive.NewObjectID(), nil)

	rr := e.do(jsonRequest("POST", "/api/v1/chambers", map[string]string{"name": " <b>Rao</b> & Partners "}), cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var body struct {
		Chamber models.Chamber `json:"chamber"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Rao & Partners", body.Chamber.Name)
	assert.Equal(t, u.ID, body.Chamber.Admin)
}
