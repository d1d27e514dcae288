package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tunecraft/tunecraft-api/internal/models"
)

const paymentColumns = "id, student_email, instructor_email, class_id, class_name, amount, currency, transaction_id, created_at"

// PaymentRepository is the append-only payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create appends a payment row.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	if payment.Currency == "" {
		payment.Currency = "usd"
	}
	const query = `INSERT INTO payments (id, student_email, instructor_email, class_id, class_name, amount, currency, transaction_id, created_at)
        VALUES (:id, :student_email, :instructor_email, :class_id, :class_name, :amount, :currency, :transaction_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID returns one payment row.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE id = $1", paymentColumns)
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByStudent returns the student's payments, newest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentEmail string) ([]models.Payment, error) {
	query := fmt.Sprintf("SELECT %s FROM payments WHERE student_email = $1 ORDER BY created_at DESC", paymentColumns)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, studentEmail); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// CountByInstructor returns how many payments reference the instructor.
func (r *PaymentRepository) CountByInstructor(ctx context.Context, instructorEmail string) (int, error) {
	const query = `SELECT COUNT(*) FROM payments WHERE instructor_email = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, instructorEmail); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return total, nil
}
