package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"artzip/internal/api"
	"artzip/internal/domain"
	"artzip/internal/pkg/validator"
	"artzip/internal/repository"
)

// Service contains all business logic for authentication
type Service struct {
	users UserRepositoryInterface
	jwt   jwtService
	log   *zap.Logger
}

func NewService(users UserRepositoryInterface, jwt jwtService, log *zap.Logger) *Service {
	return &Service{users: users, jwt: jwt, log: log}
}

func (s *Service) Signup(ctx context.Context, req api.SignupRequest) (*api.Token, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Nickname = strings.TrimSpace(req.Nickname)
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrInvalidRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Nickname:     req.Nickname,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	s.log.Info("user signed up", zap.Int64("user_id", user.ID))

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req api.LoginRequest) (*api.Token, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, ErrInvalidRequest
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *Service) issue(user *domain.User) (*api.Token, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Nickname)
	if err != nil {
		return nil, err
	}
	return &api.Token{AccessToken: token, UserID: user.ID}, nil
}
