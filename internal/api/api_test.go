package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alcyxob/fitness-content/internal/domain"
	"alcyxob/fitness-content/internal/relation"
	"alcyxob/fitness-content/internal/repository/memory"
	"alcyxob/fitness-content/internal/service"
	"alcyxob/fitness-content/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	files  *storage.MemoryStorage
	svc    *service.Services
}

type response struct {
	Code    int
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
	Token   string              `json:"token"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	files := storage.NewMemoryStorage("http://media.test")
	svc := service.New(service.Deps{
		Store:         store,
		Registry:      relation.NewRegistry(store, nil, relation.WithLogger(logger)),
		Files:         files,
		JWTSecret:     "test-secret",
		JWTExpiration: time.Hour,
		HomeTTL:       time.Minute,
		Logger:        logger,
	})
	return &testServer{
		t:      t,
		router: NewRouter(svc, files, Options{Logger: logger, MaxBodyBytes: 1 << 20}),
		store:  store,
		files:  files,
		svc:    svc,
	}
}

func (s *testServer) do(method, path, token string, body io.Reader, contentType string) response {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	out := response{Code: rec.Code}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return out
}

func (s *testServer) json(method, path, token string, body any) response {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(raw)
	}
	return s.do(method, path, token, r, "application/json")
}

// multipartBody builds a form with the given values and one PNG file per field in files.
func multipartBody(t *testing.T, values map[string][]string, files ...string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for _, field := range files {
		part, err := w.CreateFormFile(field, "pic.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("png"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (s *testServer) register(email, phone string) (string, int64) {
	s.t.Helper()
	res := s.json(http.MethodPost, "/api/v1/register", "", map[string]any{
		"name": "Sam", "email": email, "phone": phone,
		"password": "secret1", "confirm_password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, res.Code, res.Message)
	var user domain.User
	require.NoError(s.t, json.Unmarshal(res.Data, &user))
	return res.Token, user.ID
}

func (s *testServer) admin() string {
	s.t.Helper()
	_, id := s.register("admin@example.com", "5550000001")
	ctx := context.Background()
	u, err := s.store.Users().GetByID(ctx, id)
	require.NoError(s.t, err)
	u.IsAdmin = true
	require.NoError(s.t, s.store.Users().Update(ctx, u))

	res := s.json(http.MethodPost, "/api/v1/login", "", map[string]any{"email": "admin@example.com", "password": "secret1"})
	require.Equal(s.t, http.StatusOK, res.Code)
	return res.Token
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	res := s.json(http.MethodPost, "/api/v1/register", "", map[string]any{"email": "bad"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.False(t, res.Success)
	assert.Contains(t, res.Errors, "email")
	assert.Contains(t, res.Errors, "password")

	token, _ := s.register("user@example.com", "5550000002")
	assert.NotEmpty(t, token)

	res = s.json(http.MethodPost, "/api/v1/login", "", map[string]any{"email": "user@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Invalid email or password.", res.Message)

	res = s.json(http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "User detail not found.", res.Message)

	res = s.json(http.MethodGet, "/api/v1/categories", token, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.json(http.MethodGet, "/api/v1/home", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Unauthorised User", res.Message)

	res = s.json(http.MethodPost, "/api/v1/logout", token, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	res = s.json(http.MethodGet, "/api/v1/home", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.admin()

	res := s.json(http.MethodGet, "/api/v1/categories", token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "No data found.", res.Message)

	res = s.json(http.MethodPost, "/api/v1/categories", token, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, []string{"The display name field is required."}, res.Errors["display_name"])

	for _, name := range []string{"Full Body", "Upper Body", "Legs"} {
		res = s.json(http.MethodPost, "/api/v1/categories", token, map[string]any{"display_name": name})
		require.Equal(t, http.StatusCreated, res.Code)
		assert.Equal(t, "Category created successfully.", res.Message)
	}

	res = s.json(http.MethodGet, "/api/v1/categories", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var all []domain.Category
	require.NoError(t, json.Unmarshal(res.Data, &all))
	require.Len(t, all, 3)
	assert.Equal(t, "legs", all[0].Name)

	res = s.json(http.MethodGet, "/api/v1/categories?page=2&limit=2", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var page struct {
		CurrentPage int               `json:"current_page"`
		PerPage     int               `json:"per_page"`
		Total       int64             `json:"total"`
		LastPage    int               `json:"last_page"`
		Data        []domain.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 2, page.PerPage)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.LastPage)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "full_body", page.Data[0].Name)

	id := strconv.FormatInt(all[0].ID, 10)
	res = s.json(http.MethodPut, "/api/v1/categories/"+id, token, map[string]any{"display_name": "Lower Body"})
	require.Equal(t, http.StatusOK, res.Code)
	res = s.json(http.MethodDelete, "/api/v1/categories/"+id, token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = s.json(http.MethodGet, "/api/v1/categories/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	res = s.json(http.MethodGet, "/api/v1/categories/abc", token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestWorkoutMultipartAndPivots(t *testing.T) {
	s := newTestServer(t)
	token := s.admin()
	ctx := context.Background()

	var exerciseIDs []string
	for _, name := range []string{"squat", "lunge", "plank"} {
		e := &domain.Exercise{Name: name, DisplayName: name}
		require.NoError(t, s.store.Exercises().Create(ctx, e))
		exerciseIDs = append(exerciseIDs, strconv.FormatInt(e.ID, 10))
	}

	body, ct := multipartBody(t, map[string][]string{
		"display_name":   {"Morning"},
		"time_in_min":    {"15"},
		"exercise_ids[]": exerciseIDs[:2],
	}, "image_url")
	res := s.do(http.MethodPost, "/api/v1/workouts", token, body, ct)
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	var workout service.WorkoutDetail
	require.NoError(t, json.Unmarshal(res.Data, &workout))
	assert.NotEmpty(t, workout.ImageURL)
	require.Len(t, workout.Exercises, 2)
	assert.Equal(t, exerciseIDs[1], strconv.FormatInt(workout.Exercises[0].ID, 10))

	body, ct = multipartBody(t, map[string][]string{"display_name": {"Evening"}, "time_in_min": {"15"}})
	res = s.do(http.MethodPost, "/api/v1/workouts", token, body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Errors, "image_url")
	assert.Contains(t, res.Errors, "exercise_ids")

	res = s.json(http.MethodPost, "/api/v1/categories", token, map[string]any{"display_name": "Strength"})
	require.Equal(t, http.StatusCreated, res.Code)
	var category domain.Category
	require.NoError(t, json.Unmarshal(res.Data, &category))

	// Attach with the legacy body shape.
	res = s.json(http.MethodPost, "/api/v1/category-workouts", token, map[string]any{
		"category_id": category.ID,
		"workout_id":  []int64{workout.ID},
	})
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(res.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, float64(workout.ID), rows[0]["workout_id"])
	pairID := int64(rows[0]["id"].(float64))

	res = s.json(http.MethodPost, "/api/v1/category-workouts", token, map[string]any{"workout_id": []int64{999}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Errors, "category_id")

	res = s.json(http.MethodGet, "/api/v1/category-workouts/"+strconv.FormatInt(category.ID, 10), token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var owner map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(res.Data, &owner))
	assert.Contains(t, owner, "workouts")

	// Exact sync replaces the exercises of the workout.
	wid := strconv.FormatInt(workout.ID, 10)
	res = s.json(http.MethodPut, "/api/v1/workout-exercises/"+wid, token, map[string]any{"exercise_id": []string{exerciseIDs[2]}})
	require.Equal(t, http.StatusOK, res.Code, res.Message)
	require.NoError(t, json.Unmarshal(res.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, exerciseIDs[2], strconv.FormatInt(int64(rows[0]["exercise_id"].(float64)), 10))

	res = s.json(http.MethodDelete, "/api/v1/category-workouts/"+strconv.FormatInt(pairID, 10), token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = s.json(http.MethodDelete, "/api/v1/category-workouts/"+strconv.FormatInt(pairID, 10), token, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestUserDetailAndHome(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin()
	token, _ := s.register("user@example.com", "5550000002")

	res := s.json(http.MethodPost, "/api/v1/master-goals", admin, map[string]any{"display_name": "Lose Weight"})
	require.Equal(t, http.StatusCreated, res.Code)
	var goal domain.MasterGoal
	require.NoError(t, json.Unmarshal(res.Data, &goal))

	// Users may read goals but not write them.
	res = s.json(http.MethodGet, "/api/v1/master-goals", token, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	res = s.json(http.MethodPost, "/api/v1/master-goals", token, map[string]any{"display_name": "x"})
	assert.Equal(t, http.StatusForbidden, res.Code)

	detail := map[string]any{
		"gender": "male", "user_name": "sam", "age": 30,
		"current_weight_type": "kg", "current_weight": 80, "target_weight_type": "kg", "target_weight": 75,
		"height_type": "cm", "height": 180, "is_notification_enable": true,
		"goal_ids": []int64{goal.ID},
	}
	res = s.json(http.MethodPost, "/api/v1/user-detail", token, detail)
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	res = s.json(http.MethodPost, "/api/v1/user-detail", token, detail)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, "User detail already exists. You cannot add again.", res.Message)

	res = s.json(http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var profile service.Profile
	require.NoError(t, json.Unmarshal(res.Data, &profile))
	require.Len(t, profile.Goals, 1)
	assert.Equal(t, "sam", profile.UserDetail.UserName)

	res = s.json(http.MethodGet, "/api/v1/home", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var feed service.HomeFeed
	require.NoError(t, json.Unmarshal(res.Data, &feed))
	assert.Empty(t, feed.Categories)
}

func TestDashboardAndMetrics(t *testing.T) {
	s := newTestServer(t)
	token := s.admin()

	res := s.json(http.MethodGet, "/api/v1/dashboard", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var counts service.DashboardCounts
	require.NoError(t, json.Unmarshal(res.Data, &counts))
	assert.Equal(t, int64(1), counts.TotalUsers)

	res = s.json(http.MethodGet, "/api/v1/dashboard/users?start_month=3&end_month=4", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var stats []service.MonthlyUsers
	require.NoError(t, json.Unmarshal(res.Data, &stats))
	assert.Len(t, stats, 2)

	res = s.json(http.MethodGet, "/api/v1/dashboard/users?start_month=abc", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAdminAccounts(t *testing.T) {
	s := newTestServer(t)
	userToken, _ := s.register("user@example.com", "5550000002")

	res := s.json(http.MethodPost, "/api/v1/admin/login", "", map[string]any{"email": "user@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	newAdmin := map[string]any{
		"name": "Ops", "email": "ops@example.com", "phone": "5550000003",
		"password": "secret1", "confirm_password": "secret1",
	}
	res = s.json(http.MethodPost, "/api/v1/admin/register", userToken, newAdmin)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.json(http.MethodPost, "/api/v1/admin/register", s.admin(), newAdmin)
	require.Equal(t, http.StatusCreated, res.Code, res.Message)

	res = s.json(http.MethodPost, "/api/v1/admin/login", "", map[string]any{"email": "ops@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, res.Code)
	opsToken := res.Token

	res = s.json(http.MethodGet, "/api/v1/admin/profile", opsToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var me domain.User
	require.NoError(t, json.Unmarshal(res.Data, &me))
	assert.Equal(t, "ops@example.com", me.Email)
	assert.True(t, me.IsAdmin)

	res = s.json(http.MethodPost, "/api/v1/categories", opsToken, map[string]any{"display_name": "Yoga"})
	assert.Equal(t, http.StatusCreated, res.Code)
}

func TestMediaUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	token := s.admin()
	userToken, _ := s.register("user@example.com", "5550000002")

	body := map[string]any{"folder": "exercises", "filename": "squat.mp4"}
	res := s.json(http.MethodPost, "/api/v1/media/uploads", userToken, body)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.json(http.MethodPost, "/api/v1/media/uploads", token, body)
	require.Equal(t, http.StatusCreated, res.Code, res.Message)
	var up storage.DirectUpload
	require.NoError(t, json.Unmarshal(res.Data, &up))
	assert.Equal(t, "video/mp4", up.ContentType)
	assert.Contains(t, up.URL, up.Key)

	res = s.json(http.MethodPost, "/api/v1/media/uploads", token, map[string]any{"folder": "../etc", "filename": "a.png"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Errors, "folder")

	res = s.json(http.MethodPost, "/api/v1/media/uploads", token, map[string]any{"folder": "workouts", "filename": "a.exe"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Errors, "filename")

	// The client PUTs to the bucket; afterwards the key can be downloaded.
	res = s.json(http.MethodGet, "/api/v1/media/"+up.Key, userToken, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	require.NoError(t, s.files.PutObject(context.Background(), up.Key, up.ContentType, bytes.NewReader([]byte("mp4")), 3))
	res = s.do(http.MethodGet, "/api/v1/media/"+up.Key, userToken, nil, "")
	assert.Equal(t, http.StatusTemporaryRedirect, res.Code)
}
