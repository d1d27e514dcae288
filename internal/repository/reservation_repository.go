package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tunecraft/tunecraft-api/internal/models"
)

// Sentinel errors surfaced by the confirm transaction. The service layer
// maps them onto the API error kinds.
var (
	ErrSelectionNotFound = errors.New("selection not found")
	ErrNoSeats           = errors.New("no seats remaining")
)

const selectionColumns = "id, class_id, student_email, class_name, class_image_url, instructor_email, price, created_at"
const enrollmentColumns = "id, class_id, student_email, class_name, instructor_email, enrolled_at"

// ReservationRepository owns selections, enrollments and the atomic
// selection-to-enrollment conversion.
type ReservationRepository struct {
	db *sqlx.DB
}

// NewReservationRepository constructs the repository.
func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// CreateSelection persists a student's intent to enroll.
func (r *ReservationRepository) CreateSelection(ctx context.Context, selection *models.Selection) error {
	if selection.ID == "" {
		selection.ID = uuid.NewString()
	}
	if selection.CreatedAt.IsZero() {
		selection.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO selections (id, class_id, student_email, class_name, class_image_url, instructor_email, price, created_at)
        VALUES (:id, :class_id, :student_email, :class_name, :class_image_url, :instructor_email, :price, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, selection); err != nil {
		return fmt.Errorf("create selection: %w", err)
	}
	return nil
}

// FindSelectionByID returns a selection by its ID.
func (r *ReservationRepository) FindSelectionByID(ctx context.Context, id string) (*models.Selection, error) {
	query := fmt.Sprintf("SELECT %s FROM selections WHERE id = $1", selectionColumns)
	var selection models.Selection
	if err := r.db.GetContext(ctx, &selection, query, id); err != nil {
		return nil, err
	}
	return &selection, nil
}

// DeleteSelection removes a selection owned by the given student. Zero rows
// means the selection is unknown or already consumed.
func (r *ReservationRepository) DeleteSelection(ctx context.Context, id, studentEmail string) (bool, error) {
	const query = `DELETE FROM selections WHERE id = $1 AND student_email = $2`
	res, err := r.db.ExecContext(ctx, query, id, studentEmail)
	if err != nil {
		return false, fmt.Errorf("delete selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete selection rows: %w", err)
	}
	return affected > 0, nil
}

// ListSelectionsByStudent returns the student's open selections, newest first.
func (r *ReservationRepository) ListSelectionsByStudent(ctx context.Context, studentEmail string) ([]models.Selection, error) {
	query := fmt.Sprintf("SELECT %s FROM selections WHERE student_email = $1 ORDER BY created_at DESC", selectionColumns)
	var selections []models.Selection
	if err := r.db.SelectContext(ctx, &selections, query, studentEmail); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return selections, nil
}

// ListEnrollmentsByStudent returns the student's enrollments, newest first.
func (r *ReservationRepository) ListEnrollmentsByStudent(ctx context.Context, studentEmail string) ([]models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE student_email = $1 ORDER BY enrolled_at DESC", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentEmail); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ExistsEnrollment reports whether the student holds a seat in the class.
func (r *ReservationRepository) ExistsEnrollment(ctx context.Context, studentEmail, classID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_email = $1 AND class_id = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, studentEmail, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Confirm converts a selection into an enrollment in one transaction:
// consume the selection, take a seat with a guarded conditional update,
// insert the enrollment. Two confirms racing for one remaining seat end
// with exactly one commit; the loser sees ErrNoSeats and nothing applied.
func (r *ReservationRepository) Confirm(ctx context.Context, selectionID, studentEmail string) (*models.Enrollment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin confirm: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var selection models.Selection
	const consume = `DELETE FROM selections WHERE id = $1 AND student_email = $2
        RETURNING ` + selectionColumns
	if err := tx.GetContext(ctx, &selection, consume, selectionID, studentEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSelectionNotFound
		}
		return nil, fmt.Errorf("consume selection: %w", err)
	}

	// The guard on total_seats is the critical section: the decrement only
	// happens while seats remain, so the counter can never go negative.
	const takeSeat = `UPDATE classes
        SET total_seats = total_seats - 1, enrolled_count = enrolled_count + 1, updated_at = $2
        WHERE id = $1 AND status = $3 AND total_seats > 0`
	res, err := tx.ExecContext(ctx, takeSeat, selection.ClassID, time.Now().UTC(), models.ClassStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("take seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("take seat rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNoSeats
	}

	enrollment := &models.Enrollment{
		ID:              uuid.NewString(),
		ClassID:         selection.ClassID,
		StudentEmail:    selection.StudentEmail,
		ClassName:       selection.ClassName,
		InstructorEmail: selection.InstructorEmail,
		EnrolledAt:      time.Now().UTC(),
	}
	const insert = `INSERT INTO enrollments (id, class_id, student_email, class_name, instructor_email, enrolled_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, insert, enrollment.ID, enrollment.ClassID, enrollment.StudentEmail, enrollment.ClassName, enrollment.InstructorEmail, enrollment.EnrolledAt); err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit confirm: %w", err)
	}
	return enrollment, nil
}
