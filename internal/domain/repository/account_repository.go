package repository

import (
	"context"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

// AccountRepository define o porto de persistência de Account.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByCNPJ(ctx context.Context, cnpj string) (*entity.Account, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Account, error)
}
