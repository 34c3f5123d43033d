package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// UserService manages the account directory.
type UserService struct {
	users      repository.UserRepository
	bounds     PageBounds
	bcryptCost int
}

// UserListFilters define listing parameters.
type UserListFilters struct {
	Role  string
	Page  int
	Limit *int
}

// UpdateUserInput carries self-service account changes.
type UpdateUserInput struct {
	Name     *string
	Password *string
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bounds PageBounds, bcryptCost int) *UserService {
	return &UserService{users: users, bounds: bounds.Normalize(), bcryptCost: bcryptCost}
}

func requireTech(actor domain.Principal) error {
	if !actor.IsTech() {
		return apperrors.NewForbidden("TECH role required")
	}
	return nil
}

// GetUser returns an account. Technicians may read any account, everyone may read their own.
func (s *UserService) GetUser(ctx context.Context, actor domain.Principal, id string) (*domain.User, error) {
	if actor.ID != id {
		if err := requireTech(actor); err != nil {
			return nil, err
		}
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err, id)
	}
	return user, nil
}

// ListUsers pages through accounts, optionally filtered by role.
func (s *UserService) ListUsers(ctx context.Context, actor domain.Principal, filters UserListFilters) ([]domain.User, error) {
	if err := requireTech(actor); err != nil {
		return nil, err
	}
	_, limit, offset := s.bounds.ClampPage(filters.Page, filters.Limit)
	repoFilter := repository.UserFilter{Limit: limit, Offset: offset}
	if raw := strings.TrimSpace(filters.Role); raw != "" {
		role := domain.Role(strings.ToUpper(raw))
		if !role.Valid() {
			return nil, apperrors.NewValidationError("invalid role filter", map[string]any{"role": raw})
		}
		repoFilter.Role = &role
	}
	users, err := s.users.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser lets an account change its own name or password.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.Principal, id string, input UpdateUserInput) (*domain.User, error) {
	if actor.ID != id {
		return nil, apperrors.NewForbidden("accounts can only update themselves")
	}

	details := map[string]any{}
	var name string
	if input.Name != nil {
		name = strings.TrimSpace(*input.Name)
		if len([]rune(name)) < 2 {
			details["name"] = "at least 2 characters"
		}
	}
	if input.Password != nil && len(*input.Password) < minPasswordLength {
		details["password"] = fmt.Sprintf("at least %d characters", minPasswordLength)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid account update", details)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserError(err, id)
	}
	if input.Name != nil {
		user.Name = name
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapUserError(err, id)
	}
	return user, nil
}

func mapUserError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("User", map[string]any{"user_id": id})
	}
	return fmt.Errorf("user store: %w", err)
}
