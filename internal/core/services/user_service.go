package services

import (
	"context"
	"errors"

	"gearguard/internal/adapters/persistence/models"
	"gearguard/internal/adapters/persistence/repositories"
	"gearguard/internal/core/domain"
	"gearguard/internal/pkg/pagination"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// User service errors
var (
	ErrInvalidRole         = errors.New("invalid role")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
)

// UserService handles user management business logic
type UserService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// ListUsers lists users page by page, optionally by role
func (s *UserService) ListUsers(ctx context.Context, role string, params *pagination.Params) (*pagination.Response, error) {
	if role != "" && !domain.Role(role).Valid() {
		return nil, ErrInvalidRole
	}

	users, total, err := s.userRepo.List(ctx, role, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]*models.UserResponse, len(users))
	for i, user := range users {
		out[i] = user.ToResponse()
	}
	return pagination.NewResponse(out, params, total), nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangeRole promotes or demotes a user. Nobody changes their own role.
func (s *UserService) ChangeRole(ctx context.Context, id, actorID uint, role domain.Role) (*models.UserResponse, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if id == actorID {
		return nil, ErrCannotChangeOwnRole
	}

	if err := s.userRepo.UpdateRole(ctx, id, string(role)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.logger.Info("User role changed",
		zap.Uint("user_id", id),
		zap.String("role", string(role)),
		zap.Uint("changed_by", actorID),
	)
	return s.GetUserByID(ctx, id)
}
