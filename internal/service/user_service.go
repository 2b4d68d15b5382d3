package service

import (
	"context"

	"slink-api/internal/apperr"
	"slink-api/internal/entities"
	"slink-api/internal/models"
	"slink-api/internal/repository"
)

// UserService defines the admin-facing user management operations
type UserService interface {
	List(ctx context.Context, page, limit int) (*models.UserListResponse, error)
	UpdateRole(ctx context.Context, actorID, targetID, role string) (*entities.User, error)
	Delete(ctx context.Context, actorID, targetID string) error
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// List returns a page of users with their URL counts
func (s *userService) List(ctx context.Context, page, limit int) (*models.UserListResponse, error) {
	page, limit, offset := clampPage(page, limit)

	users, total, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	resp := &models.UserListResponse{
		Users: make([]models.UserResponse, 0, len(users)),
		Pagination: models.Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}
	for _, u := range users {
		resp.Users = append(resp.Users, models.UserResponse{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			URLCount:  u.URLCount,
			CreatedAt: u.CreatedAt,
		})
	}

	return resp, nil
}

// UpdateRole changes a user's role. An admin cannot demote themselves, so
// the system always keeps at least the acting admin.
func (s *userService) UpdateRole(ctx context.Context, actorID, targetID, role string) (*entities.User, error) {
	if role != entities.RoleUser && role != entities.RoleAdmin {
		return nil, apperr.Validation("invalid role %q", role)
	}

	if actorID == targetID && role == entities.RoleUser {
		return nil, apperr.Validation("cannot demote your own role")
	}

	return s.userRepo.UpdateRole(ctx, targetID, role)
}

// Delete removes a user account along with their URLs and visits
func (s *userService) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return apperr.Validation("cannot delete your own account")
	}

	return s.userRepo.Delete(ctx, targetID)
}
