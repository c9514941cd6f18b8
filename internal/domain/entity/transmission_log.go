package entity

import "time"

// Operações registradas no log de transmissão.
const (
	TransmissionOpSubmit = "submit"
	TransmissionOpQuery  = "query"
	TransmissionOpCancel = "cancel"
)

// TransmissionLog é o registro append-only de cada ida e volta à Sefaz.
// Nunca atualizado nem apagado; histórico puro para auditoria.
type TransmissionLog struct {
	ID          string
	CupomID     string
	Operation   string // submit | query | cancel
	RequestXML  string
	ResponseXML string
	StatusCode  string // cStat retornado ("999" para falha de rede)
	Reason      string // xMotivo
	Protocol    string // nProt, quando concedido
	Success     bool
	CreatedAt   time.Time
}
