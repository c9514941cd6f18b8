package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order é a entidade externa do subsistema de comandas. Entrada somente
// leitura para a emissão fiscal; este núcleo nunca a modifica.
type Order struct {
	ID        string
	AccountID string
	Total     decimal.Decimal
	Items     []OrderItem
	CreatedAt time.Time
}

// OrderItem é uma linha do pedido.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Name      string
	Unit      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// LineTotal retorna quantidade × preço unitário arredondado a 2 casas.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Round(2)
}
