package auth

import (
	"context"

	"artzip/internal/domain"
)

// UserRepositoryInterface is the part of the user repository auth needs.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type jwtService interface {
	GenerateToken(userID int64, nickname string) (string, error)
}
