package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tunecraft/tunecraft-api/internal/models"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error
	UpdateFields(ctx context.Context, id string, update models.ClassUpdate) error
	SetFeedback(ctx context.Context, id, feedback string) error
	Popular(ctx context.Context, n int) ([]models.Class, error)
}

// CreateClassRequest describes a new class listing.
type CreateClassRequest struct {
	Name           string `json:"name" validate:"required"`
	ImageURL       string `json:"image_url"`
	Price          int64  `json:"price" validate:"required,gt=0"`
	TotalSeats     int    `json:"total_seats" validate:"required,gte=0"`
	InstructorName string `json:"instructor_name"`
}

// FeedbackRequest carries moderation feedback text.
type FeedbackRequest struct {
	Feedback string `json:"feedback" validate:"required"`
}

// ClassService manages the class catalog and its moderation lifecycle.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns classes for the given filter with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classes, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetByID loads a single class.
func (s *ClassService) GetByID(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a new listing for the calling instructor, always PENDING.
func (s *ClassService) Create(ctx context.Context, instructorEmail string, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}

	class := &models.Class{
		InstructorEmail: instructorEmail,
		InstructorName:  req.InstructorName,
		Name:            req.Name,
		ImageURL:        req.ImageURL,
		Price:           req.Price,
		TotalSeats:      req.TotalSeats,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// SetStatus applies the terminal moderation decision. Re-applying the same
// decision is a no-op success; flipping a terminal decision is illegal.
func (s *ClassService) SetStatus(ctx context.Context, id string, status models.ClassStatus) (*models.Class, error) {
	if !status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "status must be APPROVED or DENIED")
	}

	class, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if class.Status == status {
		return class, nil
	}
	if class.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "moderation decision is final")
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	class.Status = status
	return class, nil
}

// UpdateFields applies a partial update on behalf of the owning instructor.
func (s *ClassService) UpdateFields(ctx context.Context, id, callerEmail string, update models.ClassUpdate) (*models.Class, error) {
	if err := s.validator.Struct(update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	class, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if class.InstructorEmail != callerEmail {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "class belongs to another instructor")
	}

	if err := s.repo.UpdateFields(ctx, id, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return s.GetByID(ctx, id)
}

// SetFeedback replaces moderation feedback on a class.
func (s *ClassService) SetFeedback(ctx context.Context, id string, req FeedbackRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetFeedback(ctx, id, req.Feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set feedback")
	}
	return s.GetByID(ctx, id)
}

// Popular returns the top-n classes by enrolled count.
func (s *ClassService) Popular(ctx context.Context, n int) ([]models.Class, error) {
	classes, err := s.repo.Popular(ctx, n)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load popular classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}
