package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	"github.com/finvoice/finvoice/internal/api/dto"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/testutil"
)

type AuthServiceSuite struct {
	testutil.BaseServiceTestSuite
	service     AuthService
	userService UserService
}

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := ServiceParams{
		Logger:       s.GetLogger(),
		Config:       s.GetConfig(),
		DB:           s.GetDB(),
		Auth:         s.GetAuth(),
		Cache:        s.GetCache(),
		UserRepo:     s.GetStores().UserRepo,
		CustomerRepo: s.GetStores().CustomerRepo,
		InvoiceRepo:  s.GetStores().InvoiceRepo,
		PaymentRepo:  s.GetStores().PaymentRepo,
		HistoryRepo:  s.GetStores().HistoryRepo,
	}
	s.service = NewAuthService(params)
	s.userService = NewUserService(params)
}

func (s *AuthServiceSuite) signup() *dto.AuthResponse {
	resp, err := s.service.Signup(s.GetContext(), &dto.SignupRequest{
		Name:     "Jordan Lee",
		Email:    "jordan@example.test",
		Password: "correct horse battery",
	})
	s.NoError(err)
	return resp
}

func (s *AuthServiceSuite) TestSignup() {
	resp := s.signup()
	s.NotEmpty(resp.Token)
	s.NotEmpty(resp.User.ID)
	s.Equal("jordan@example.test", resp.User.Email)

	// the issued token resolves back to the new user
	claims, err := s.GetAuth().ValidateToken(resp.Token)
	s.NoError(err)
	s.Equal(resp.User.ID, claims.UserID)
}

func (s *AuthServiceSuite) TestSignupDuplicateEmail() {
	s.signup()

	_, err := s.service.Signup(s.GetContext(), &dto.SignupRequest{
		Name:     "Someone Else",
		Email:    "jordan@example.test",
		Password: "another password",
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *AuthServiceSuite) TestSignupWeakPasswordRejected() {
	_, err := s.service.Signup(s.GetContext(), &dto.SignupRequest{
		Name:     "Jordan Lee",
		Email:    "jordan@example.test",
		Password: "short",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *AuthServiceSuite) TestLogin() {
	created := s.signup()

	resp, err := s.service.Login(s.GetContext(), &dto.LoginRequest{
		Email:    "jordan@example.test",
		Password: "correct horse battery",
	})
	s.NoError(err)
	s.NotEmpty(resp.Token)
	s.Equal(created.User.ID, resp.User.ID)
}

func (s *AuthServiceSuite) TestLoginWrongPassword() {
	s.signup()

	_, err := s.service.Login(s.GetContext(), &dto.LoginRequest{
		Email:    "jordan@example.test",
		Password: "wrong password",
	})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *AuthServiceSuite) TestLoginUnknownEmail() {
	// unknown account and bad password are indistinguishable to the caller
	_, err := s.service.Login(s.GetContext(), &dto.LoginRequest{
		Email:    "nobody@example.test",
		Password: "whatever password",
	})
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *AuthServiceSuite) TestMe() {
	created := s.signup()

	ctx := testutil.SetupContextFor(created.User.ID)
	me, err := s.service.Me(ctx)
	s.NoError(err)
	s.Equal(created.User.ID, me.ID)
	s.Equal("Jordan Lee", me.Name)
}

func (s *AuthServiceSuite) TestUpdateUser() {
	created := s.signup()
	ctx := testutil.SetupContextFor(created.User.ID)

	updated, err := s.userService.UpdateUser(ctx, &dto.UpdateUserRequest{
		Name: lo.ToPtr("Jordan A. Lee"),
	})
	s.NoError(err)
	s.Equal("Jordan A. Lee", updated.Name)
	s.Equal("jordan@example.test", updated.Email)
}

func (s *AuthServiceSuite) TestUpdateUserEmailTaken() {
	first := s.signup()
	_, err := s.service.Signup(s.GetContext(), &dto.SignupRequest{
		Name:     "Sam Park",
		Email:    "sam@example.test",
		Password: "another password",
	})
	s.NoError(err)

	ctx := testutil.SetupContextFor(first.User.ID)
	_, err = s.userService.UpdateUser(ctx, &dto.UpdateUserRequest{
		Email: lo.ToPtr("sam@example.test"),
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}
