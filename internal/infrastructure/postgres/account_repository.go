package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/repository"
)

var _ repository.AccountRepository = (*AccountRepo)(nil)

// AccountRepo implementação do porto AccountRepository sobre PostgreSQL.
type AccountRepo struct {
	q Querier
}

// NewAccountRepository constrói o adaptador de persistência de contas.
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

// Create persiste uma nova conta.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	query := `
		INSERT INTO accounts (id, name, cnpj, address, phone, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.Name, a.CNPJ, a.Address, a.Phone, a.Email, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("conta com CNPJ %s já existe: %w", a.CNPJ, err)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID busca uma conta por ID. Retorna nil, nil se não existir.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

// GetByCNPJ busca uma conta pelo CNPJ.
func (r *AccountRepo) GetByCNPJ(ctx context.Context, cnpj string) (*entity.Account, error) {
	return r.getOne(ctx, `WHERE cnpj = $1`, cnpj)
}

// List lista contas com paginação.
func (r *AccountRepo) List(ctx context.Context, limit, offset int) ([]*entity.Account, error) {
	query := `
		SELECT id, name, cnpj, address, phone, email, status, created_at, updated_at
		FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Account
	for rows.Next() {
		var a entity.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.CNPJ, &a.Address, &a.Phone, &a.Email, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

func (r *AccountRepo) getOne(ctx context.Context, where string, args ...any) (*entity.Account, error) {
	query := `
		SELECT id, name, cnpj, address, phone, email, status, created_at, updated_at
		FROM accounts ` + where
	var a entity.Account
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.Name, &a.CNPJ, &a.Address, &a.Phone, &a.Email, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}
