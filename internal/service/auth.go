// internal/service/auth.go
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/osfield/osfield/internal/auth"
	"github.com/osfield/osfield/internal/domain"
	"github.com/osfield/osfield/internal/model"
	"github.com/osfield/osfield/internal/repository"
)

// AuthService issues session tokens. Inactive users fail with the same error
// as a wrong password so the response does not leak account state.
type AuthService struct {
	repos    *repository.Repositories
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
	validate *validator.Validate
}

func NewAuthService(repos *repository.Repositories, hasher *auth.PasswordHasher, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		repos:    repos,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
	}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginOutput struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}

	user, err := s.repos.Users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		return nil, domain.ErrInvalidCredentials
	}

	verified, err := s.hasher.Verify(input.Password, user.PasswordHash)
	if err != nil || !verified {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID.String(), user.Email)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	return &LoginOutput{User: user, Token: token}, nil
}
