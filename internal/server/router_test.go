package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/civicpulse/grievance-server/internal/auth"
	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/services"
	"github.com/civicpulse/grievance-server/internal/store/memory"
	"github.com/civicpulse/grievance-server/internal/uploads"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	uploads *uploads.Store
}

// newTestServer allows privileged sign-up so tests can create admins over
// HTTP. opts adjust Deps before the router is built.
func newTestServer(t *testing.T, opts ...func(*Deps)) *testServer {
	t.Helper()
	logger := zap.NewNop()
	sugar := logger.Sugar()

	codec, err := auth.NewCodec("router-test-secret", time.Hour, "test")
	require.NoError(t, err)
	up, err := uploads.NewStore(t.TempDir())
	require.NoError(t, err)

	mem := memory.NewStore()
	activity := services.NewActivityLogService(mem.Activity(), sugar)
	users := services.NewUserService(mem.Users(), codec, bcrypt.MinCost, sugar)
	users.AllowPrivilegedRegistration(true)
	d := Deps{
		Logger:         logger,
		Codec:          codec,
		Policy:         auth.DefaultPolicy(),
		PublicPrefixes: []string{"/auth/", "/uploads/"},
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxUploadBytes: 1 << 20,
		Complaints:     services.NewComplaintService(mem.Complaints(), activity, sugar),
		Users:          users,
		Departments:    services.NewDepartmentService(mem.Departments(), nil, sugar),
		Activity:       activity,
		Uploads:        up,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return &testServer{t: t, handler: NewRouter(d), uploads: up}
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) json(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	require.NoError(s.t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *testServer) form(method, path string, values url.Values, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, token)
}

func (s *testServer) login(req models.RegisterRequest) string {
	rec := s.json(http.MethodPost, "/auth/register", req, "")
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(s.t, rec.Body.String(), req.Password)

	role := req.Role
	if role == "" {
		role = "CITIZEN"
	}
	rec = s.json(http.MethodPost, "/auth/login", models.LoginRequest{Email: req.Email, Password: req.Password, Role: role}, "")
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.LoginResponse
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_ComplaintLifecycle(t *testing.T) {
	s := newTestServer(t)

	citizen := s.login(models.RegisterRequest{Email: "asha@example.com", Password: "hunter22", DisplayName: "Asha"})
	admin := s.login(models.RegisterRequest{Email: "ops@city.gov", Password: "admin-pass", Role: "ADMIN"})
	dept := s.login(models.RegisterRequest{Email: "water@city.gov", Password: "dept-pass", Role: "DEPARTMENT", Department: "Water Works Department"})

	// submit with one attachment
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"title":       "Burst pipe",
		"description": "Water flooding the road",
		"category":    "Water",
		"priority":    "high",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("images", "leak.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/citizen/complaints", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.do(req, citizen)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "SUBMITTED", created["status"])
	id := int64(created["id"].(float64))

	rec = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/citizen/complaints/%d", id), nil), citizen)
	require.Equal(t, http.StatusOK, rec.Code)
	complaint := decode[models.Complaint](t, rec)
	require.Len(t, complaint.ImagePaths, 1)
	assert.Equal(t, "HIGH", complaint.Priority)

	// the stored attachment is publicly served
	rec = s.do(httptest.NewRequest(http.MethodGet, "/uploads/"+complaint.ImagePaths[0], nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
	_, err = os.Stat(filepath.Join(s.uploads.Dir(), complaint.ImagePaths[0]))
	assert.NoError(t, err)

	// resolving before assignment is a state conflict
	rec = s.form(http.MethodPut, "/department/resolve", url.Values{"complaintId": {fmt.Sprint(id)}}, dept)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.form(http.MethodPut, "/admin/assign", url.Values{
		"complaintId":    {fmt.Sprint(id)},
		"departmentName": {"Water Works Department"},
		"officerName":    {"R. Iyer"},
	}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusAssigned, decode[models.Complaint](t, rec).Status)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/department/complaints?status=assigned", nil), dept)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Complaint](t, rec), 1)

	rec = s.form(http.MethodPut, "/department/resolve", url.Values{"complaintId": {fmt.Sprint(id)}, "note": {"Pipe replaced"}}, dept)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resolved := decode[models.Complaint](t, rec)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	feedbackPath := fmt.Sprintf("/citizen/complaints/%d/feedback", id)
	rec = s.form(http.MethodPost, feedbackPath, url.Values{"feedback": {"great"}, "rating": {"6"}}, citizen)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.form(http.MethodPost, feedbackPath, url.Values{"feedback": {"great"}, "rating": {"5"}}, citizen)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusCompleted, decode[models.Complaint](t, rec).Status)

	rec = s.form(http.MethodPost, feedbackPath, url.Values{"feedback": {"again"}, "rating": {"4"}}, citizen)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/citizen/complaints/%d/timeline", id), nil), citizen)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ActivityLog](t, rec), 4)
}

func TestRouter_PolicyEnforced(t *testing.T) {
	s := newTestServer(t)
	citizen := s.login(models.RegisterRequest{Email: "asha@example.com", Password: "hunter22"})
	admin := s.login(models.RegisterRequest{Email: "ops@city.gov", Password: "admin-pass", Role: "ADMIN"})

	rec := s.do(httptest.NewRequest(http.MethodGet, "/citizen/complaints/all", nil), citizen)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Access denied"}`, rec.Body.String())

	rec = s.do(httptest.NewRequest(http.MethodGet, "/citizen/complaints/all", nil), admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/citizen/complaints/my", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/admin/departments", nil), citizen)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/department/complaints", nil), admin)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouter_OtherCitizenCannotView(t *testing.T) {
	s := newTestServer(t)
	asha := s.login(models.RegisterRequest{Email: "asha@example.com", Password: "hunter22"})
	ravi := s.login(models.RegisterRequest{Email: "ravi@example.com", Password: "hunter22"})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Streetlight out"))
	require.NoError(t, mw.WriteField("description", "Dark since Friday"))
	require.NoError(t, mw.WriteField("category", "Electricity"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/citizen/complaints/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.do(req, asha)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := int64(decode[map[string]interface{}](t, rec)["id"].(float64))

	rec = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/citizen/complaints/%d", id), nil), ravi)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/citizen/complaints/my", nil), ravi)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Complaint](t, rec))

	rec = s.do(httptest.NewRequest(http.MethodGet, "/citizen/complaints/abc", nil), asha)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LoginFailure(t *testing.T) {
	s := newTestServer(t)
	s.login(models.RegisterRequest{Email: "asha@example.com", Password: "hunter22"})

	rec := s.json(http.MethodPost, "/auth/login", models.LoginRequest{Email: "asha@example.com", Password: "wrong", Role: "CITIZEN"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	raw, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter22")
}

func TestRouter_UploadsListingHidden(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/uploads/", nil), "")
	assert.NotEqual(t, http.StatusOK, rec.Code)

	rec = s.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_PublicSignupIsCitizenOnly(t *testing.T) {
	s := newTestServer(t, func(d *Deps) { d.Users.AllowPrivilegedRegistration(false) })

	rec := s.json(http.MethodPost, "/auth/register", models.RegisterRequest{Email: "ops@city.gov", Password: "admin-pass", Role: "ADMIN"}, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.json(http.MethodPost, "/auth/login", models.LoginRequest{Email: "ops@city.gov", Password: "admin-pass", Role: "ADMIN"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.login(models.RegisterRequest{Email: "asha@example.com", Password: "hunter22"})
}

func TestRouter_FrontendRoutesArePublic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "favicon.ico"), []byte("icon"), 0o644))
	s := newTestServer(t, func(d *Deps) { d.StaticDir = dir })

	rec := s.do(httptest.NewRequest(http.MethodGet, "/favicon.ico", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "icon", rec.Body.String())

	for _, p := range []string{"/", "/login", "/citizen-dashboard/track"} {
		rec = s.do(httptest.NewRequest(http.MethodGet, p, nil), "")
		require.Equal(t, http.StatusOK, rec.Code, p)
		assert.Contains(t, rec.Body.String(), "app", p)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/missing.js", nil), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// API prefixes still outrank the frontend catch-all
	rec = s.do(httptest.NewRequest(http.MethodGet, "/citizen/complaints/my", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(httptest.NewRequest(http.MethodGet, "/admin/complaints", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_PreflightAnsweredBeforePolicy(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/citizen/complaints/my", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := s.do(req, "")
	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	// a bare OPTIONS is not a preflight and needs a token
	rec = s.do(httptest.NewRequest(http.MethodOptions, "/citizen/complaints/my", nil), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
