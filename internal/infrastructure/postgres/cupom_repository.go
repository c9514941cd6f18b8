package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/repository"
)

var _ repository.CupomRepository = (*CupomRepo)(nil)

// CupomRepo implementação do porto CupomRepository sobre PostgreSQL (usável
// com pool ou tx).
type CupomRepo struct {
	q Querier
}

// NewCupomRepository constrói o adaptador de persistência do cupom fiscal.
func NewCupomRepository(q Querier) *CupomRepo {
	return &CupomRepo{q: q}
}

// Create insere o cupom recém-emitido, ainda pending. A constraint única
// (account_id, serie, number) é a última linha de defesa contra numeração
// repetida.
func (r *CupomRepo) Create(ctx context.Context, c *entity.Cupom) error {
	query := `
		INSERT INTO cupons (id, account_id, order_id, serie, number, access_key, total, tax_estimate,
			consumer_name, consumer_tax_id, status, protocol, reason, xml_unsigned, xml_signed,
			qr_payload, emitted_at, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now(), now())`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.AccountID, c.OrderID, c.Serie, c.Number, c.AccessKey, c.Total, c.TaxEstimate,
		c.ConsumerName, c.ConsumerTaxID, c.Status, c.Protocol, c.Reason, c.XMLUnsigned, c.XMLSigned,
		c.QRPayload, c.EmittedAt, c.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cupom série %d número %d já existe: %w", c.Serie, c.Number, err)
		}
		return fmt.Errorf("insert cupom: %w", err)
	}
	return nil
}

// CreateItem insere uma linha do cupom. Itens são imutáveis após a criação.
func (r *CupomRepo) CreateItem(ctx context.Context, it *entity.CupomItem) error {
	query := `
		INSERT INTO cupom_items (id, cupom_id, product_id, description, ncm, cfop, csosn,
			cst_pis, cst_cofins, unit, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.CupomID, it.ProductID, it.Description, it.NCM, it.CFOP, it.CSOSN,
		it.CSTPIS, it.CSTCOFINS, it.Unit, it.Quantity, it.UnitPrice, it.Total,
	)
	if err != nil {
		return fmt.Errorf("insert cupom item: %w", err)
	}
	return nil
}

// UpdateStatus grava a transição de estado com tudo que a acompanha: protocolo,
// motivo, XMLs e payload do QR. A linha nunca é apagada.
func (r *CupomRepo) UpdateStatus(ctx context.Context, c *entity.Cupom) error {
	query := `
		UPDATE cupons
		SET status = $2, protocol = $3, reason = $4, xml_unsigned = $5, xml_signed = $6,
			qr_payload = $7, updated_at = now()
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		c.ID, c.Status, c.Protocol, c.Reason, c.XMLUnsigned, c.XMLSigned, c.QRPayload,
	)
	if err != nil {
		return fmt.Errorf("update cupom status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("cupom %s não encontrado para atualização", c.ID)
	}
	return nil
}

// GetByID busca um cupom por ID. Retorna nil, nil se não existir.
func (r *CupomRepo) GetByID(ctx context.Context, id string) (*entity.Cupom, error) {
	query := `
		SELECT id, account_id, order_id, serie, number, access_key, total, tax_estimate,
			consumer_name, consumer_tax_id, status, protocol, reason, xml_unsigned, xml_signed,
			qr_payload, emitted_at, notes, created_at, updated_at
		FROM cupons WHERE id = $1`
	c, err := scanCupom(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cupom: %w", err)
	}
	return c, nil
}

// GetItemsByCupomID lista os itens do cupom na ordem de inserção.
func (r *CupomRepo) GetItemsByCupomID(ctx context.Context, cupomID string) ([]*entity.CupomItem, error) {
	query := `
		SELECT id, cupom_id, product_id, description, ncm, cfop, csosn,
			cst_pis, cst_cofins, unit, quantity, unit_price, total
		FROM cupom_items WHERE cupom_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, cupomID)
	if err != nil {
		return nil, fmt.Errorf("list cupom items: %w", err)
	}
	defer rows.Close()
	var list []*entity.CupomItem
	for rows.Next() {
		var it entity.CupomItem
		if err := rows.Scan(&it.ID, &it.CupomID, &it.ProductID, &it.Description, &it.NCM, &it.CFOP,
			&it.CSOSN, &it.CSTPIS, &it.CSTCOFINS, &it.Unit, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return nil, fmt.Errorf("scan cupom item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// ListByAccount lista os cupons da conta, mais recentes primeiro, com
// paginação para a tela de histórico.
func (r *CupomRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*entity.Cupom, error) {
	query := `
		SELECT id, account_id, order_id, serie, number, access_key, total, tax_estimate,
			consumer_name, consumer_tax_id, status, protocol, reason, xml_unsigned, xml_signed,
			qr_payload, emitted_at, notes, created_at, updated_at
		FROM cupons WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cupons: %w", err)
	}
	defer rows.Close()
	var list []*entity.Cupom
	for rows.Next() {
		c, err := scanCupom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cupom: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// pgxScanner cobre pgx.Row e pgx.Rows para compartilhar o scan.
type pgxScanner interface {
	Scan(dest ...any) error
}

func scanCupom(row pgxScanner) (*entity.Cupom, error) {
	var c entity.Cupom
	var emittedAt *time.Time
	err := row.Scan(
		&c.ID, &c.AccountID, &c.OrderID, &c.Serie, &c.Number, &c.AccessKey, &c.Total, &c.TaxEstimate,
		&c.ConsumerName, &c.ConsumerTaxID, &c.Status, &c.Protocol, &c.Reason, &c.XMLUnsigned, &c.XMLSigned,
		&c.QRPayload, &emittedAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if emittedAt != nil {
		c.EmittedAt = *emittedAt
	}
	return &c, nil
}
