package services_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianodhis/lessonlink/database"
	"github.com/brianodhis/lessonlink/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDB swaps database.DB for a sqlmock-backed GORM connection for the
// duration of one test.
func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()

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

	return mock
}

func countRows(n int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func teacherRows(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "email", "role"}).
		AddRow(id.String(), "Test Teacher", "teacher@example.com", models.RoleTeacher)
}

func bookingColumns() []string {
	return []string{"id", "student_id", "teacher_id", "day", "start_time", "end_time", "status", "created_at", "updated_at"}
}

func bookingRow(rows *sqlmock.Rows, b models.Booking) *sqlmock.Rows {
	return rows.AddRow(
		b.ID.String(), b.StudentID.String(), b.TeacherID.String(),
		b.Day, b.StartTime, b.EndTime, b.Status, time.Now(), time.Now(),
	)
}
