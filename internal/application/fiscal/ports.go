package fiscal

import (
	"context"

	"github.com/caixazap/fiscal-api/internal/domain/repository"
)

// TxRunner executa fn dentro de uma transação, entregando um repositório de
// cupons atado a ela. Emissão usa para gravar cabeceira e itens como unidade:
// ou tudo entra, ou nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(cupomRepo repository.CupomRepository) error) error
}
