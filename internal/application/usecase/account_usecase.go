package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/caixazap/fiscal-api/internal/application/dto"
	"github.com/caixazap/fiscal-api/internal/domain"
	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/repository"
	"github.com/caixazap/fiscal-api/pkg/br"
)

// AccountUseCase casos de uso de contas (restaurantes).
type AccountUseCase struct {
	repo repository.AccountRepository
}

// NewAccountUseCase constrói o caso de uso com o porto de persistência.
func NewAccountUseCase(repo repository.AccountRepository) *AccountUseCase {
	return &AccountUseCase{repo: repo}
}

// Create cria uma conta nova. Valida o CNPJ e devolve domain.ErrDuplicate se
// já existir conta com o mesmo.
func (uc *AccountUseCase) Create(ctx context.Context, in dto.CreateAccountRequest) (*dto.AccountResponse, error) {
	if err := br.ValidateCNPJ(in.CNPJ); err != nil {
		return nil, domain.ErrInvalidInput
	}
	cnpj := br.OnlyDigits(in.CNPJ)
	existing, _ := uc.repo.GetByCNPJ(ctx, cnpj)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	account := &entity.Account{
		ID:        uuid.New().String(),
		Name:      in.Name,
		CNPJ:      cnpj,
		Address:   in.Address,
		Phone:     in.Phone,
		Email:     in.Email,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, account); err != nil {
		return nil, err
	}
	return entityToAccountResponse(account), nil
}

// GetByID busca uma conta por ID.
func (uc *AccountUseCase) GetByID(ctx context.Context, id string) (*dto.AccountResponse, error) {
	account, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}
	return entityToAccountResponse(account), nil
}

// List lista contas com paginação.
func (uc *AccountUseCase) List(ctx context.Context, limit, offset int) (*dto.AccountListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AccountResponse, 0, len(list))
	for _, a := range list {
		items = append(items, *entityToAccountResponse(a))
	}
	return &dto.AccountListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func entityToAccountResponse(a *entity.Account) *dto.AccountResponse {
	if a == nil {
		return nil
	}
	return &dto.AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		CNPJ:      a.CNPJ,
		Address:   a.Address,
		Phone:     a.Phone,
		Email:     a.Email,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
