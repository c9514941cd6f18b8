package dto

import "time"

// EmitCupomRequest corpo do POST /fiscal/cupons.
type EmitCupomRequest struct {
	OrderID       string `json:"order_id" validate:"required,uuid"`
	ConsumerName  string `json:"consumer_name,omitempty"`
	ConsumerTaxID string `json:"consumer_tax_id,omitempty"` // CPF ou CNPJ
	Notes         string `json:"notes,omitempty"`
}

// EmitCupomResponse resultado da emissão. Status reflete o desfecho da
// transmissão: authorized, rejected, ou pending se nada foi transmitido.
type EmitCupomResponse struct {
	Success   bool   `json:"success"`
	CupomID   string `json:"cupom_id"`
	Number    int64  `json:"number"`
	AccessKey string `json:"access_key"`
	Status    string `json:"status"`
	Protocol  string `json:"protocol,omitempty"`
	Reason    string `json:"reason,omitempty"`
	QRPayload string `json:"qr_payload,omitempty"`
}

// CupomStatusResponse resultado de query (consulta de situação).
type CupomStatusResponse struct {
	Success  bool   `json:"success"`
	Status   string `json:"status"`
	Protocol string `json:"protocol,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// CancelCupomRequest corpo do POST /fiscal/cupons/:id/cancel.
type CancelCupomRequest struct {
	Reason string `json:"reason" validate:"required,min=15"`
}

// CancelCupomResponse resultado do cancelamento.
type CancelCupomResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

// CupomDetailResponse visão completa de um cupom para a UI do lojista.
type CupomDetailResponse struct {
	ID            string           `json:"id"`
	OrderID       string           `json:"order_id"`
	Serie         int              `json:"serie"`
	Number        int64            `json:"number"`
	AccessKey     string           `json:"access_key"`
	Total         string           `json:"total"`
	Status        string           `json:"status"`
	Protocol      string           `json:"protocol,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	QRPayload     string           `json:"qr_payload,omitempty"`
	ConsumerName  string           `json:"consumer_name,omitempty"`
	ConsumerTaxID string           `json:"consumer_tax_id,omitempty"`
	EmittedAt     time.Time        `json:"emitted_at"`
	Items         []CupomItemDTO   `json:"items,omitempty"`
}

// CupomItemDTO linha do cupom na resposta de detalhe.
type CupomItemDTO struct {
	Description string `json:"description"`
	NCM         string `json:"ncm"`
	CFOP        string `json:"cfop"`
	Unit        string `json:"unit"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

// CupomSummaryDTO linha da listagem de cupons (histórico do lojista).
type CupomSummaryDTO struct {
	ID        string    `json:"id"`
	Serie     int       `json:"serie"`
	Number    int64     `json:"number"`
	AccessKey string    `json:"access_key"`
	Total     string    `json:"total"`
	Status    string    `json:"status"`
	EmittedAt time.Time `json:"emitted_at"`
}

// TransmissionLogDTO um registro da trilha de auditoria de transmissões.
type TransmissionLogDTO struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	StatusCode string    `json:"status_code"`
	Reason     string    `json:"reason,omitempty"`
	Protocol   string    `json:"protocol,omitempty"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"created_at"`
}
