package postgres

import (
	"context"
	"fmt"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/repository"
)

var _ repository.TransmissionLogRepository = (*TransmissionLogRepo)(nil)

// TransmissionLogRepo trilha append-only das idas e voltas à Sefaz. Não há
// update nem delete; a tabela só cresce.
type TransmissionLogRepo struct {
	q Querier
}

// NewTransmissionLogRepository constrói o adaptador da trilha de transmissão.
func NewTransmissionLogRepository(q Querier) *TransmissionLogRepo {
	return &TransmissionLogRepo{q: q}
}

// Append grava um registro da trilha.
func (r *TransmissionLogRepo) Append(ctx context.Context, l *entity.TransmissionLog) error {
	query := `
		INSERT INTO transmission_logs (id, cupom_id, operation, request_xml, response_xml,
			status_code, reason, protocol, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.CupomID, l.Operation, l.RequestXML, l.ResponseXML,
		l.StatusCode, l.Reason, l.Protocol, l.Success, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transmission log: %w", err)
	}
	return nil
}

// ListByCupomID lista a trilha do cupom, mais antiga primeiro.
func (r *TransmissionLogRepo) ListByCupomID(ctx context.Context, cupomID string) ([]*entity.TransmissionLog, error) {
	query := `
		SELECT id, cupom_id, operation, request_xml, response_xml,
			status_code, reason, protocol, success, created_at
		FROM transmission_logs WHERE cupom_id = $1 ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, cupomID)
	if err != nil {
		return nil, fmt.Errorf("list transmission logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransmissionLog
	for rows.Next() {
		var l entity.TransmissionLog
		if err := rows.Scan(&l.ID, &l.CupomID, &l.Operation, &l.RequestXML, &l.ResponseXML,
			&l.StatusCode, &l.Reason, &l.Protocol, &l.Success, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transmission log: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
