package entity

import "time"

// Ambientes Sefaz (tpAmb).
const (
	// EnvProduction emite documentos com validade jurídica (tpAmb=1).
	EnvProduction = "production"
	// EnvStaging usa o ambiente de homologação da Sefaz (tpAmb=2).
	EnvStaging = "staging"
)

// TpAmbCode converte o ambiente persistido para o código tpAmb do layout NFC-e.
func TpAmbCode(env string) string {
	if env == EnvProduction {
		return "1"
	}
	return "2"
}

// FiscalSettings guarda a identidade fiscal de uma conta (restaurante) e o
// estado de numeração da série NFC-e. Uma linha por conta; gravada pela UI de
// configuração, somente leitura para o núcleo de emissão — exceto NextNumber,
// que avança apenas pela alocação atômica do repositório.
type FiscalSettings struct {
	ID          string
	AccountID   string
	CNPJ        string    // somente dígitos ou formatado; normalizado na emissão
	IE          string    // inscrição estadual
	IM          string    // inscrição municipal (opcional)
	LegalName   string    // razão social
	TradeName   string    // nome fantasia
	UF          string    // sigla da unidade federativa (SP, RJ, ...)
	CityCode    string    // código IBGE do município
	CityName    string
	Street      string
	Number      string
	District    string
	ZipCode     string
	Serie       int
	NextNumber  int64     // próximo nNF da série; nunca reutilizado
	CertBundle  string    // PKCS#12 em base64 (cifrado em repouso pela camada de dados)
	CertPass    string
	Environment string    // EnvProduction | EnvStaging
	TaxRegime   string    // CRT: "1" = Simples Nacional
	CSCID       string    // identificador do CSC (cIdToken)
	CSCToken    string    // token do CSC para o hash do QR Code
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
