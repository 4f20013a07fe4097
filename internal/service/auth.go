package service

import (
	"context"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/domain/user"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

// AuthService handles signup, login and current-user lookup. Passwords are
// stored as bcrypt hashes; sessions are stateless JWTs.
type AuthService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context) (*dto.UserResponse, error)
}

type authService struct {
	ServiceParams
}

func NewAuthService(params ServiceParams) AuthService {
	return &authService{ServiceParams: params}
}

func (s *authService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.UserRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, ierr.NewError("user already exists").
			WithHint("An account with this email already exists").
			WithReportableDetails(map[string]any{"email": req.Email}).
			Mark(ierr.ErrAlreadyExists)
	} else if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	hash, err := s.Auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	// Self registration; there is no authenticated actor yet.
	u.CreatedBy = u.ID
	u.UpdatedBy = u.ID

	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.Logger.Infow("user signed up", "user_id", u.ID)
	return s.tokenResponse(u)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.UserRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if ierr.IsNotFound(err) {
			// Same error as a bad password so login probes cannot
			// enumerate accounts.
			return nil, ierr.NewError("invalid email or password").
				WithHint("Invalid email or password").
				Mark(ierr.ErrPermissionDenied)
		}
		return nil, err
	}

	if err := s.Auth.ComparePassword(u.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	s.Logger.Infow("user logged in", "user_id", u.ID)
	return s.tokenResponse(u)
}

func (s *authService) Me(ctx context.Context) (*dto.UserResponse, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return nil, ierr.NewError("missing authenticated user").
			WithHint("Authentication required").
			Mark(ierr.ErrPermissionDenied)
	}

	u, err := s.UserRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(u), nil
}

func (s *authService) tokenResponse(u *user.User) (*dto.AuthResponse, error) {
	token, err := s.Auth.GenerateToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token: token,
		User:  dto.NewUserResponse(u),
	}, nil
}
