package repository

import (
	"context"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

// CupomRepository define o porto de persistência do cupom fiscal e seus itens.
// Cupons nunca são apagados; o status evolui em updates sobre a mesma linha.
type CupomRepository interface {
	Create(ctx context.Context, cupom *entity.Cupom) error
	CreateItem(ctx context.Context, item *entity.CupomItem) error
	// UpdateStatus grava a transição de status com protocolo, motivo, XML
	// assinado e payload do QR quando existirem.
	UpdateStatus(ctx context.Context, cupom *entity.Cupom) error
	GetByID(ctx context.Context, id string) (*entity.Cupom, error)
	GetItemsByCupomID(ctx context.Context, cupomID string) ([]*entity.CupomItem, error)
	// ListByAccount lista os cupons da conta, mais recentes primeiro.
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.Cupom, error)
}
