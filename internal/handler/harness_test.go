package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/art-exam-api/internal/auth"
	"github.com/noah-isme/art-exam-api/internal/config"
	"github.com/noah-isme/art-exam-api/internal/database"
	"github.com/noah-isme/art-exam-api/internal/handler"
	"github.com/noah-isme/art-exam-api/internal/middleware"
	"github.com/noah-isme/art-exam-api/internal/repository"
	"github.com/noah-isme/art-exam-api/internal/router"
	"github.com/noah-isme/art-exam-api/internal/service"
	"github.com/noah-isme/art-exam-api/pkg/storage"
)

const (
	adminEmail    = "examiner@example.com"
	adminPassword = "examiner-secret"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	mediaRoot := t.TempDir()
	store, err := storage.NewLocal(mediaRoot)
	require.NoError(t, err)

	cfg := config.Config{
		AppName:         "Art Exam API",
		AppEnv:          "test",
		StorageDriver:   config.StorageDriverLocal,
		MediaRoot:       mediaRoot,
		MediaURL:        "/media",
		UploadMaxSizeMB: 2,
	}

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	accessSigner := auth.NewSigner("access-secret", time.Hour, auth.TokenTypeAccess)
	refreshSigner := auth.NewSigner("refresh-secret", 24*time.Hour, auth.TokenTypeRefresh)

	userRepo := repository.NewUserRepository(db)
	collegeRepo := repository.NewCollegeRepository(db)
	examItemRepo := repository.NewExamItemRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	adminStudentRepo := repository.NewAdminStudentRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	resultsRepo := repository.NewResultsRepository(db)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	notificationService := service.NewNotificationService(repository.NewNotificationRepository(db), nil, nil, "", validate, logger)
	authService := service.NewAuthService(userRepo, accessSigner, refreshSigner, validate, logger)
	uploadService := service.NewUploadService(store, cfg.UploadMaxSizeMB, logger)
	resultsService := service.NewResultsService(studentRepo, resultsRepo, nil, notificationService, logger)
	catalogService := service.NewExamCatalogService(examItemRepo, studentRepo, collegeRepo, nil, time.Minute, validate, activityService, logger)
	collegeService := service.NewCollegeService(collegeRepo, catalogService, validate, activityService, logger)
	studentService := service.NewStudentService(studentRepo, collegeRepo, resultsService, uploadService, validate, nil, 1024, logger)
	answerService := service.NewAnswerService(studentRepo, examItemRepo, answerRepo, uploadService, validate, nil, logger)
	adminStudentService := service.NewAdminStudentService(adminStudentRepo, userRepo, resultsService, validate, activityService, nil, notificationService, logger)
	gradingService := service.NewAdminGradingService(answerRepo, validate, activityService, nil, logger)
	exportService := service.NewExportService(adminStudentRepo, resultsService, activityService, logger)

	require.NoError(t, authService.EnsureAdmin(context.Background(), adminEmail, adminPassword))

	checks := map[string]handler.HealthCheckFunc{
		"database": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
	}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		HealthHandler:       handler.NewHealthHandler(cfg, checks, logger),
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		CollegeHandler:      handler.NewCollegeHandler(collegeService, logger),
		ExamHandler:         handler.NewExamHandler(catalogService, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, resultsService, logger),
		AnswerHandler:       handler.NewAnswerHandler(answerService, logger),
		AdminStudentHandler: handler.NewAdminStudentHandler(adminStudentService, logger),
		AdminGradingHandler: handler.NewAdminGradingHandler(gradingService, logger),
		AdminActivity:       handler.NewAdminActivityHandler(activityService, logger),
		AdminExportHandler:  handler.NewAdminExportHandler(exportService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		JWTMiddleware:       middleware.JWTProtected(accessSigner),
	})

	return &testServer{app: app, db: db}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (s *testServer) jsonRequest(t *testing.T, method, target, token string, payload interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, body := s.do(t, req)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp, env
}

func (s *testServer) multipartRequest(t *testing.T, method, target, token string, fields map[string]string, fileField, fileName string, content []byte) (*http.Response, envelope) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileField != "" {
		part, err := writer.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, raw := s.do(t, req)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp, env
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp, env := s.jsonRequest(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	return tokens.AccessToken
}

func (s *testServer) registerStudentAccount(t *testing.T, email string) string {
	t.Helper()
	resp, env := s.jsonRequest(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": email, "password": "student-secret"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	return tokens.AccessToken
}

func (s *testServer) createCollege(t *testing.T, adminToken, name string) uint {
	t.Helper()
	resp, env := s.jsonRequest(t, http.MethodPost, "/api/v1/admin/colleges", adminToken, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeID(t, env.Data)
}

func (s *testServer) createItem(t *testing.T, adminToken string, payload map[string]interface{}) uint {
	t.Helper()
	resp, env := s.jsonRequest(t, http.MethodPost, "/api/v1/admin/exam-items", adminToken, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	return decodeID(t, env.Data)
}

func (s *testServer) createProfile(t *testing.T, token string, collegeID uint, nationalID, seat, phone string) envelope {
	t.Helper()
	resp, env := s.multipartRequest(t, http.MethodPost, "/api/v1/student/profile", token, map[string]string{
		"full_name":    "Mona Adel",
		"national_id":  nationalID,
		"seat_number":  seat,
		"division":     "2",
		"phone_number": phone,
		"college_id":   fmt.Sprintf("%d", collegeID),
	}, "student_photo", "portrait.png", pngBytes(t, 64, 48))
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message+string(env.Details))
	return env
}

func decodeID(t *testing.T, data json.RawMessage) uint {
	t.Helper()
	var payload struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.NotZero(t, payload.ID)
	return payload.ID
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 20, G: 120, B: 220, A: 255})
	buf := &bytes.Buffer{}
	require.NoError(t, imaging.Encode(buf, img, imaging.PNG))
	return buf.Bytes()
}
