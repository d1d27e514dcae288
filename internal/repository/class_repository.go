package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tunecraft/tunecraft-api/internal/models"
)

const classColumns = "id, instructor_email, instructor_name, name, image_url, price, total_seats, enrolled_count, status, feedback, created_at, updated_at"

// ClassRepository manages persistence for class listings.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching filter criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	base := "FROM classes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InstructorEmail != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_email = $%d", len(args)+1))
		args = append(args, filter.InstructorEmail)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", classColumns, base, size, offset)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create persists a new class listing. Status always starts PENDING.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	class.Status = models.ClassStatusPending
	class.EnrolledCount = 0

	const query = `INSERT INTO classes (id, instructor_email, instructor_name, name, image_url, price, total_seats, enrolled_count, status, feedback, created_at, updated_at)
        VALUES (:id, :instructor_email, :instructor_name, :name, :image_url, :price, :total_seats, :enrolled_count, :status, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// UpdateStatus sets the moderation status on a class.
func (r *ClassRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	const query = `UPDATE classes SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update class status: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update; nil fields are left unchanged.
func (r *ClassRepository) UpdateFields(ctx context.Context, id string, update models.ClassUpdate) error {
	sets := []string{}
	args := []interface{}{id}

	if update.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)+1))
		args = append(args, *update.Name)
	}
	if update.ImageURL != nil {
		sets = append(sets, fmt.Sprintf("image_url = $%d", len(args)+1))
		args = append(args, *update.ImageURL)
	}
	if update.Price != nil {
		sets = append(sets, fmt.Sprintf("price = $%d", len(args)+1))
		args = append(args, *update.Price)
	}
	if update.TotalSeats != nil {
		sets = append(sets, fmt.Sprintf("total_seats = $%d", len(args)+1))
		args = append(args, *update.TotalSeats)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())

	query := fmt.Sprintf("UPDATE classes SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update class fields: %w", err)
	}
	return nil
}

// SetFeedback replaces the moderation feedback text.
func (r *ClassRepository) SetFeedback(ctx context.Context, id, feedback string) error {
	const query = `UPDATE classes SET feedback = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, feedback, time.Now().UTC()); err != nil {
		return fmt.Errorf("set class feedback: %w", err)
	}
	return nil
}

// Popular returns the top-n approved classes by enrolled count. Ties fall
// back to insertion order so rankings stay stable.
func (r *ClassRepository) Popular(ctx context.Context, n int) ([]models.Class, error) {
	if n <= 0 || n > 100 {
		n = 6
	}
	query := fmt.Sprintf("SELECT %s FROM classes WHERE status = $1 ORDER BY enrolled_count DESC, created_at ASC, id ASC LIMIT %d", classColumns, n)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, models.ClassStatusApproved); err != nil {
		return nil, fmt.Errorf("popular classes: %w", err)
	}
	return classes, nil
}
