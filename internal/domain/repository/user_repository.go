package repository

import (
	"context"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

// UserRepository define o porto de persistência de User.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByEmailAndAccount(ctx context.Context, email, accountID string) (*entity.User, error)
}
