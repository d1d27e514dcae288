package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tunecraft/tunecraft-api/internal/models"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
	"github.com/tunecraft/tunecraft-api/pkg/export"
	"github.com/tunecraft/tunecraft-api/pkg/payment"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByStudent(ctx context.Context, studentEmail string) ([]models.Payment, error)
	CountByInstructor(ctx context.Context, instructorEmail string) (int, error)
}

type enrollmentChecker interface {
	ExistsEnrollment(ctx context.Context, studentEmail, classID string) (bool, error)
}

type receiptRenderer interface {
	Render(receipt export.Receipt) ([]byte, error)
}

// CreateIntentRequest asks the gateway for a new charge intent.
type CreateIntentRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency"`
}

// IntentResponse returns the client secret the browser completes the charge with.
type IntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// RecordPaymentRequest appends a confirmed charge to the ledger.
type RecordPaymentRequest struct {
	ClassID       string `json:"class_id" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id" validate:"required"`
}

// PaymentService records payments and talks to the external gateway.
type PaymentService struct {
	repo        paymentRepository
	enrollments enrollmentChecker
	catalog     catalogReader
	gateway     payment.Gateway
	receipts    receiptRenderer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo paymentRepository, enrollments enrollmentChecker, catalog catalogReader, gateway payment.Gateway, receipts receiptRenderer, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, enrollments: enrollments, catalog: catalog, gateway: gateway, receipts: receipts, validator: validate, logger: logger}
}

// CreateIntent delegates to the payment gateway. Gateway failures surface
// unmodified and are never retried here.
func (s *PaymentService) CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intent payload")
	}

	intent, err := s.gateway.CreateIntent(ctx, req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	return &IntentResponse{ClientSecret: intent.ClientSecret}, nil
}

// Record appends a payment for the calling student. A payment must reference
// an enrollment the student actually holds.
func (s *PaymentService) Record(ctx context.Context, studentEmail string, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	enrolled, err := s.enrollments.ExistsEnrollment(ctx, studentEmail, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no enrollment for this class")
	}

	class, err := s.catalog.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	record := &models.Payment{
		StudentEmail:    studentEmail,
		InstructorEmail: class.InstructorEmail,
		ClassID:         class.ID,
		ClassName:       class.Name,
		Amount:          req.Amount,
		Currency:        req.Currency,
		TransactionID:   req.TransactionID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.logger.Info("payment recorded",
		zap.String("class_id", record.ClassID),
		zap.String("student", record.StudentEmail),
		zap.Int64("amount", record.Amount),
	)
	return record, nil
}

// History returns the caller's payments, newest first.
func (s *PaymentService) History(ctx context.Context, studentEmail string) ([]models.Payment, error) {
	payments, err := s.repo.ListByStudent(ctx, studentEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, nil
}

// Receipt renders the caller's payment as a PDF.
func (s *PaymentService) Receipt(ctx context.Context, callerEmail, paymentID string) ([]byte, error) {
	record, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	if record.StudentEmail != callerEmail {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "payment belongs to another student")
	}

	pdf, err := s.receipts.Render(export.Receipt{
		PaymentID:       record.ID,
		TransactionID:   record.TransactionID,
		StudentEmail:    record.StudentEmail,
		InstructorEmail: record.InstructorEmail,
		ClassName:       record.ClassName,
		Amount:          record.Amount,
		Currency:        record.Currency,
		PaidAt:          record.CreatedAt,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return pdf, nil
}

// CountByInstructor returns how many payments reference the instructor.
// Instructors may only query themselves; admins may query anyone.
func (s *PaymentService) CountByInstructor(ctx context.Context, callerEmail string, callerRole models.UserRole, instructorEmail string) (int, error) {
	if callerRole != models.RoleAdmin && callerEmail != instructorEmail {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "cannot query another instructor's payments")
	}

	total, err := s.repo.CountByInstructor(ctx, instructorEmail)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count payments")
	}
	return total, nil
}
