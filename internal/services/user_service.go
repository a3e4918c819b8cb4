package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/agita-app/agita-server/internal/helpers"
	"github.com/agita-app/agita-server/internal/models"
)

type UserService struct {
	authRepo models.AuthRepo
}

func NewUserService(authRepo models.AuthRepo) *UserService {
	return &UserService{
		authRepo: authRepo,
	}
}

func (us *UserService) SignUp(ctx context.Context, name, email, password string) (interface{}, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("invalid email format: %v", err)
	}
	if !helpers.IsPasswordStrong(password) {
		return nil, fmt.Errorf("password is not strong enough")
	}

	return us.authRepo.SignUp(ctx, email, password, strings.TrimSpace(name))
}

func (us *UserService) SignIn(ctx context.Context, email, password string) (interface{}, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("invalid email format: %v", err)
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return nil, fmt.Errorf("invalid password format: %v", err)
	}

	response, err := us.authRepo.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %v", err)
	}
	return response, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (interface{}, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	response, err := us.authRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %v", err)
	}
	return response, nil
}
