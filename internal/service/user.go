package service

import (
	"context"
	"time"

	"github.com/finvoice/finvoice/internal/api/dto"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

type UserService interface {
	GetUser(ctx context.Context, id string) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	ServiceParams
}

func NewUserService(params ServiceParams) UserService {
	return &userService{ServiceParams: params}
}

func (s *userService) GetUser(ctx context.Context, id string) (*dto.UserResponse, error) {
	u, err := s.UserRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(u), nil
}

// UpdateUser updates the authenticated user's own profile.
func (s *userService) UpdateUser(ctx context.Context, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	u, err := s.UserRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil && *req.Email != u.Email {
		if existing, err := s.UserRepo.GetByEmail(ctx, *req.Email); err == nil && existing != nil {
			return nil, ierr.NewError("email already in use").
				WithHint("An account with this email already exists").
				Mark(ierr.ErrAlreadyExists)
		} else if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		u.Email = *req.Email
	}
	u.UpdatedAt = time.Now().UTC()
	u.UpdatedBy = userID

	if err := s.UserRepo.Update(ctx, u); err != nil {
		return nil, err
	}
	return dto.NewUserResponse(u), nil
}
