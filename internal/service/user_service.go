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

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (bool, error)
	UpdateRole(ctx context.Context, email string, role models.UserRole) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type roleCache interface {
	Get(ctx context.Context, email string) (models.UserRole, error)
	Set(ctx context.Context, email string, role models.UserRole) error
	Invalidate(ctx context.Context, email string) error
}

// PromoteRequest raises a user's role.
type PromoteRequest struct {
	Role models.UserRole `json:"role" validate:"required"`
}

// UserService is the user directory: one record per email, mutable role.
type UserService struct {
	repo      userRepository
	roles     roleCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, roles roleCache, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, roles: roles, validator: validate, logger: logger}
}

// Register creates the directory record on first sign-in. Re-registering an
// existing email succeeds without mutation.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	user := &models.User{
		Email:    req.Email,
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
		Role:     models.RoleStudent,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register user")
	}
	return &models.RegisterResponse{Created: created}, nil
}

// GetByEmail loads a single directory record.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// RoleOf resolves an email to its role, consulting the cache first.
func (s *UserService) RoleOf(ctx context.Context, email string) (models.UserRole, error) {
	if s.roles != nil {
		if role, err := s.roles.Get(ctx, email); err == nil {
			return role, nil
		}
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve role")
	}

	if s.roles != nil {
		if err := s.roles.Set(ctx, email, user.Role); err != nil {
			s.logger.Warn("failed to cache role", zap.String("email", email), zap.Error(err))
		}
	}
	return user.Role, nil
}

// HasRole is the self-scoped boolean role check. A caller asking about a
// different email is forbidden; an unknown caller simply gets false.
func (s *UserService) HasRole(ctx context.Context, callerEmail, targetEmail string, role models.UserRole) (bool, error) {
	if callerEmail != targetEmail {
		return false, appErrors.Clone(appErrors.ErrForbidden, "cannot query another user's role")
	}

	resolved, err := s.RoleOf(ctx, targetEmail)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			return false, nil
		}
		return false, err
	}
	return resolved == role, nil
}

// Promote raises the target's role. Promoting an unknown email is NotFound;
// lowering a role is an illegal transition since roles never revert.
func (s *UserService) Promote(ctx context.Context, targetEmail string, req PromoteRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid promote payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	current, err := s.repo.FindByEmail(ctx, targetEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if req.Role.Rank() < current.Role.Rank() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "role cannot be lowered")
	}

	if req.Role != current.Role {
		updated, err := s.repo.UpdateRole(ctx, targetEmail, req.Role)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
		}
		if !updated {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		current.Role = req.Role

		if s.roles != nil {
			if err := s.roles.Invalidate(ctx, targetEmail); err != nil {
				s.logger.Warn("failed to invalidate role cache", zap.String("email", targetEmail), zap.Error(err))
			}
		}
	}

	return current, nil
}

// List returns directory records with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
