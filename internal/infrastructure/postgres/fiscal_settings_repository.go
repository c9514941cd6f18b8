package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/repository"
)

var _ repository.FiscalSettingsRepository = (*FiscalSettingsRepo)(nil)

// FiscalSettingsRepo implementação do porto FiscalSettingsRepository sobre
// PostgreSQL (usável com pool ou tx).
type FiscalSettingsRepo struct {
	q Querier
}

// NewFiscalSettingsRepository constrói o adaptador de configurações fiscais.
func NewFiscalSettingsRepository(q Querier) *FiscalSettingsRepo {
	return &FiscalSettingsRepo{q: q}
}

// GetActiveByAccount busca a configuração fiscal ativa da conta. Retorna
// nil, nil quando a conta não tem nenhuma.
func (r *FiscalSettingsRepo) GetActiveByAccount(ctx context.Context, accountID string) (*entity.FiscalSettings, error) {
	query := `
		SELECT id, account_id, cnpj, ie, im, legal_name, trade_name, uf, city_code, city_name,
		       street, number, district, zip_code, serie, next_number, cert_bundle, cert_pass,
		       environment, tax_regime, csc_id, csc_token, active, created_at, updated_at
		FROM fiscal_settings WHERE account_id = $1 AND active = true`
	var s entity.FiscalSettings
	err := r.q.QueryRow(ctx, query, accountID).Scan(
		&s.ID, &s.AccountID, &s.CNPJ, &s.IE, &s.IM, &s.LegalName, &s.TradeName, &s.UF, &s.CityCode, &s.CityName,
		&s.Street, &s.Number, &s.District, &s.ZipCode, &s.Serie, &s.NextNumber, &s.CertBundle, &s.CertPass,
		&s.Environment, &s.TaxRegime, &s.CSCID, &s.CSCToken, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fiscal settings: %w", err)
	}
	return &s, nil
}

// AllocateNextNumber avança o contador da série em uma única instrução
// atômica. O UPDATE toma lock de linha, então emissões concorrentes serializam
// aqui e cada uma recebe um número distinto; números alocados nunca voltam,
// mesmo que a emissão falhe depois.
func (r *FiscalSettingsRepo) AllocateNextNumber(ctx context.Context, settingsID string, serie int) (int64, error) {
	query := `
		UPDATE fiscal_settings
		SET next_number = next_number + 1, updated_at = now()
		WHERE id = $1 AND serie = $2
		RETURNING next_number - 1`
	var number int64
	err := r.q.QueryRow(ctx, query, settingsID, serie).Scan(&number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("configuração %s série %d não encontrada", settingsID, serie)
		}
		return 0, fmt.Errorf("allocate next number: %w", err)
	}
	return number, nil
}
