package dto

import (
	"github.com/finvoice/finvoice/internal/domain/user"
	"github.com/finvoice/finvoice/internal/validator"
)

type UserResponse struct {
	*user.User
}

func NewUserResponse(u *user.User) *UserResponse {
	return &UserResponse{User: u}
}

type UpdateUserRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=255"`
	Email *string `json:"email" validate:"omitempty,email"`
}

func (r *UpdateUserRequest) Validate() error {
	return validator.ValidateRequest(r)
}
