package repository

import (
	"context"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

// TransmissionLogRepository persiste a trilha de auditoria das transmissões.
// Append-only: não há Update nem Delete.
type TransmissionLogRepository interface {
	Append(ctx context.Context, log *entity.TransmissionLog) error
	ListByCupomID(ctx context.Context, cupomID string) ([]*entity.TransmissionLog, error)
}
