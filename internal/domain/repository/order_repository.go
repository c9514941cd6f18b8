package repository

import (
	"context"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

// OrderRepository lê pedidos do subsistema de comandas. Somente leitura:
// a emissão fiscal nunca modifica um pedido.
type OrderRepository interface {
	// GetByID retorna o pedido com seus itens, ou nil, nil se não existir.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
}
