package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianodhis/lessonlink/database"
	"github.com/brianodhis/lessonlink/models"
	"github.com/brianodhis/lessonlink/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

func newTestApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	prev := database.DB
	database.DB = gormDB
	t.Cleanup(func() { database.DB = prev })

	app := fiber.New()
	routes.BookingRoutes(app)
	return app, mock
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func jsonRequest(t *testing.T, method, target, token string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestCreateBookingEndpoint(t *testing.T) {
	studentID := uuid.New()
	teacherID := uuid.New()
	token := signToken(t, studentID, models.RoleStudent)

	payload := fiber.Map{
		"teacher_id": teacherID.String(),
		"day":        "2025-03-10",
		"start_time": "14:00",
		"end_time":   "15:00",
	}

	t.Run("rejects missing token", func(t *testing.T) {
		app, _ := newTestApp(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects malformed day", func(t *testing.T) {
		app, _ := newTestApp(t)
		bad := fiber.Map{
			"teacher_id": teacherID.String(),
			"day":        "10/03/2025",
			"start_time": "14:00",
			"end_time":   "15:00",
		}
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/bookings", token, bad), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("maps missing message history to 403", func(t *testing.T) {
		app, mock := newTestApp(t)
		mock.ExpectQuery(`SELECT \* FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow(teacherID.String(), models.RoleTeacher))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/bookings", token, payload), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates booking and carries competing warning", func(t *testing.T) {
		app, mock := newTestApp(t)
		mock.ExpectQuery(`SELECT \* FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow(teacherID.String(), models.RoleTeacher))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "messages"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`INSERT INTO "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))

		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/bookings", token, payload), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Contains(t, body, "booking")
		assert.Contains(t, body["warning"], "another student")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetBookingStatusEndpoint(t *testing.T) {
	teacherID := uuid.New()
	token := signToken(t, teacherID, models.RoleTeacher)

	t.Run("student role cannot reach the decision route", func(t *testing.T) {
		app, _ := newTestApp(t)
		studentToken := signToken(t, uuid.New(), models.RoleStudent)

		req := jsonRequest(t, http.MethodPatch, "/api/v1/teacher/bookings/"+uuid.New().String()+"/status",
			studentToken, fiber.Map{"status": "approved"})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknown booking maps to 404", func(t *testing.T) {
		app, mock := newTestApp(t)
		mock.ExpectQuery(`SELECT \* FROM "bookings"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		req := jsonRequest(t, http.MethodPatch, "/api/v1/teacher/bookings/"+uuid.New().String()+"/status",
			token, fiber.Map{"status": "rejected"})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid target status maps to 400", func(t *testing.T) {
		app, _ := newTestApp(t)

		req := jsonRequest(t, http.MethodPatch, "/api/v1/teacher/bookings/"+uuid.New().String()+"/status",
			token, fiber.Map{"status": "completed"})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
