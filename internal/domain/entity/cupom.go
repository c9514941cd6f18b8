package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status do ciclo de vida de um cupom fiscal (NFC-e).
// pending → authorized | rejected; authorized → canceled.
const (
	CupomStatusPending    = "pending"
	CupomStatusAuthorized = "authorized"
	CupomStatusRejected   = "rejected"
	CupomStatusCanceled   = "canceled"
)

// Cupom representa um documento fiscal NFC-e (modelo 65). Uma linha por
// tentativa de emissão que passou da validação de certificado; nunca apagada
// (trilha de auditoria exigida pela legislação fiscal).
type Cupom struct {
	ID            string
	AccountID     string
	OrderID       string
	Serie         int
	Number        int64
	AccessKey     string // chave de acesso de 44 dígitos
	Total         decimal.Decimal
	TaxEstimate   decimal.Decimal // total estimado de tributos (zerado no Simples)
	ConsumerName  string
	ConsumerTaxID string // CPF ou CNPJ do consumidor (opcional)
	Status        string
	Protocol      string // protocolo de autorização da Sefaz
	Reason        string // xMotivo da rejeição, quando houver
	XMLUnsigned   string // XML de geração, antes da assinatura
	XMLSigned     string // XML assinado/autorizado
	QRPayload     string // URL de consulta do QR Code
	EmittedAt     time.Time
	Notes         string // infCpl (texto livre)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanCancel informa se o cupom aceita cancelamento. Somente documentos
// autorizados podem ser cancelados.
func (c *Cupom) CanCancel() bool {
	return c.Status == CupomStatusAuthorized
}

// CupomItem é uma linha do cupom, criada junto com a cabeceira e imutável
// depois disso. Os códigos tributários são fixos para o regime simplificado.
type CupomItem struct {
	ID          string
	CupomID     string
	ProductID   string
	Description string
	NCM         string
	CFOP        string
	CSOSN       string // situação tributária ICMS (Simples Nacional)
	CSTPIS      string
	CSTCOFINS   string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}
