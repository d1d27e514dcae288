package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tunecraft/tunecraft-api/internal/models"
	"github.com/tunecraft/tunecraft-api/internal/repository"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
)

type reservationRepository interface {
	CreateSelection(ctx context.Context, selection *models.Selection) error
	FindSelectionByID(ctx context.Context, id string) (*models.Selection, error)
	DeleteSelection(ctx context.Context, id, studentEmail string) (bool, error)
	ListSelectionsByStudent(ctx context.Context, studentEmail string) ([]models.Selection, error)
	ListEnrollmentsByStudent(ctx context.Context, studentEmail string) ([]models.Enrollment, error)
	ExistsEnrollment(ctx context.Context, studentEmail, classID string) (bool, error)
	Confirm(ctx context.Context, selectionID, studentEmail string) (*models.Enrollment, error)
}

type catalogReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type confirmObserver interface {
	ObserveConfirm(outcome string)
}

// SelectRequest places a class into the student's selection.
type SelectRequest struct {
	ClassID string `json:"class_id" validate:"required"`
}

// ReservationService drives the selection-to-enrollment state machine and
// the guarded seat accounting that goes with it.
type ReservationService struct {
	repo      reservationRepository
	catalog   catalogReader
	metrics   confirmObserver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReservationService constructs a ReservationService.
func NewReservationService(repo reservationRepository, catalog catalogReader, metrics confirmObserver, validate *validator.Validate, logger *zap.Logger) *ReservationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{repo: repo, catalog: catalog, metrics: metrics, validator: validate, logger: logger}
}

// Select records a student's intent to enroll. Only approved classes can be
// selected; capacity is untouched until confirm.
func (s *ReservationService) Select(ctx context.Context, studentEmail string, req SelectRequest) (*models.Selection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}

	class, err := s.catalog.FindByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if class.Status != models.ClassStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "class is not approved")
	}

	selection := &models.Selection{
		ClassID:         class.ID,
		StudentEmail:    studentEmail,
		ClassName:       class.Name,
		ClassImageURL:   class.ImageURL,
		InstructorEmail: class.InstructorEmail,
		Price:           class.Price,
	}
	if err := s.repo.CreateSelection(ctx, selection); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create selection")
	}
	return selection, nil
}

// Cancel removes an open selection owned by the caller. No capacity effect.
func (s *ReservationService) Cancel(ctx context.Context, selectionID, callerEmail string) error {
	selection, err := s.repo.FindSelectionByID(ctx, selectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "selection not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	if selection.StudentEmail != callerEmail {
		return appErrors.Clone(appErrors.ErrForbidden, "selection belongs to another student")
	}

	deleted, err := s.repo.DeleteSelection(ctx, selectionID, callerEmail)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete selection")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "selection not found")
	}
	return nil
}

// Confirm converts the caller's selection into an enrollment, taking a seat
// atomically. Exactly one of two races for the last seat succeeds; the other
// gets SoldOut and no record changes.
func (s *ReservationService) Confirm(ctx context.Context, selectionID, callerEmail string) (*models.Enrollment, error) {
	enrollment, err := s.repo.Confirm(ctx, selectionID, callerEmail)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSelectionNotFound):
			s.observe("not_found")
			return nil, appErrors.Clone(appErrors.ErrNotFound, "selection not found")
		case errors.Is(err, repository.ErrNoSeats):
			s.observe("sold_out")
			return nil, appErrors.Clone(appErrors.ErrSoldOut, "class is sold out")
		default:
			s.observe("error")
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm selection")
		}
	}

	s.observe("enrolled")
	s.logger.Info("seat confirmed",
		zap.String("class_id", enrollment.ClassID),
		zap.String("student", enrollment.StudentEmail),
	)
	return enrollment, nil
}

// ListSelections returns the caller's open selections.
func (s *ReservationService) ListSelections(ctx context.Context, studentEmail string) ([]models.Selection, error) {
	selections, err := s.repo.ListSelectionsByStudent(ctx, studentEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list selections")
	}
	if selections == nil {
		selections = []models.Selection{}
	}
	return selections, nil
}

// ListEnrollments returns the caller's enrollments.
func (s *ReservationService) ListEnrollments(ctx context.Context, studentEmail string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListEnrollmentsByStudent(ctx, studentEmail)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}
	return enrollments, nil
}

func (s *ReservationService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveConfirm(outcome)
	}
}
