package repository

import (
	"context"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

// FiscalSettingsRepository define o porto de persistência das configurações
// fiscais. O núcleo de emissão só lê — com exceção de AllocateNextNumber, o
// único ponto que muda estado.
type FiscalSettingsRepository interface {
	// GetActiveByAccount retorna a configuração ativa da conta, ou nil, nil
	// se não houver nenhuma.
	GetActiveByAccount(ctx context.Context, accountID string) (*entity.FiscalSettings, error)
	// AllocateNextNumber avança o contador da série em uma única operação
	// atômica e retorna o número alocado. Emissões concorrentes para a mesma
	// conta+série nunca recebem o mesmo número.
	AllocateNextNumber(ctx context.Context, settingsID string, serie int) (int64, error)
}
