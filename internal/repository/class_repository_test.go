package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunecraft/tunecraft-api/internal/models"
)

func classRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "instructor_email", "instructor_name", "name", "image_url", "price", "total_seats", "enrolled_count", "status", "feedback", "created_at", "updated_at"}).
		AddRow("c1", "teacher@example.com", "Teacher", "Guitar 101", "", 4900, 10, 3, string(models.ClassStatusApproved), nil, now, now)
}

func TestClassFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("SELECT id, instructor_email, .+ FROM classes WHERE id = ").
		WithArgs("c1").
		WillReturnRows(classRows(time.Now()))

	class, err := repo.FindByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Guitar 101", class.Name)
	assert.Equal(t, 10, class.TotalSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassCreateStartsPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{
		InstructorEmail: "teacher@example.com",
		Name:            "Violin Basics",
		TotalSeats:      5,
		Price:           9900,
		Status:          models.ClassStatusApproved, // must be overridden
		EnrolledCount:   42,                         // must be reset
	}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.Equal(t, models.ClassStatusPending, class.Status)
	assert.Zero(t, class.EnrolledCount)
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassUpdateFieldsPartial(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	name := "Guitar 102"
	seats := 20
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET name = $2, total_seats = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("c1", name, seats, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateFields(context.Background(), "c1", models.ClassUpdate{Name: &name, TotalSeats: &seats})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassUpdateFieldsNoopWithoutChanges(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	// No expectations set: an empty update must not touch the database.
	require.NoError(t, repo.UpdateFields(context.Background(), "c1", models.ClassUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassPopularOrdering(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY enrolled_count DESC, created_at ASC, id ASC LIMIT 3")).
		WithArgs(models.ClassStatusApproved).
		WillReturnRows(classRows(time.Now()))

	classes, err := repo.Popular(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, classes, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
