package sefaz

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caixazap/fiscal-api/internal/domain"
	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/nfce"
	"github.com/caixazap/fiscal-api/pkg/br"
)

// Versão do layout do QR Code NFC-e.
const qrVersion = "100"

// QRParams são os insumos do payload de consulta pública do cupom.
type QRParams struct {
	AccessKey     string
	UF            string
	Environment   string // entity.EnvProduction | entity.EnvStaging
	EmittedAt     time.Time
	Total         decimal.Decimal
	ConsumerTaxID string // CPF/CNPJ do consumidor, se identificado
	CSCID         string
	CSCToken      string
}

// QRCodeService monta a URL impressa no DANFE NFC-e.
type QRCodeService struct{}

// NewQRCodeService cria o serviço.
func NewQRCodeService() *QRCodeService {
	return &QRCodeService{}
}

// Build monta o payload: parâmetros em ordem fixa exigida pelo validador,
// com o hash do CSC ao final quando a conta tem CSC configurado. Entradas
// inconsistentes param a montagem em vez de gerar um QR Code inválido.
func (s *QRCodeService) Build(p QRParams) (string, error) {
	if len(p.AccessKey) != nfce.KeyLength {
		return "", fmt.Errorf("%w: chave de acesso com %d dígitos", domain.ErrQRGeneration, len(p.AccessKey))
	}
	if p.EmittedAt.IsZero() {
		return "", fmt.Errorf("%w: data de emissão zerada", domain.ErrQRGeneration)
	}
	if p.Total.Sign() <= 0 {
		return "", fmt.Errorf("%w: total %s não positivo", domain.ErrQRGeneration, p.Total.String())
	}

	parts := []string{
		"chNFe=" + p.AccessKey,
		"nVersao=" + qrVersion,
		"tpAmb=" + entity.TpAmbCode(p.Environment),
	}
	if taxID := br.OnlyDigits(p.ConsumerTaxID); taxID != "" {
		parts = append(parts, "cDest="+taxID)
	}
	parts = append(parts,
		fmt.Sprintf("dhEmi=%x", p.EmittedAt.Unix()),
		"vNF="+p.Total.Shift(2).Round(0).String(),
		"vICMS=0",
		// dígito verificador da chave: confere integridade sem reparse do XML
		"digVal="+p.AccessKey[nfce.KeyLength-1:],
	)

	query := strings.Join(parts, "&")
	if p.CSCID != "" && p.CSCToken != "" {
		mac := hmac.New(sha1.New, []byte(p.CSCToken))
		mac.Write([]byte(query))
		hash := strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
		query += "&cIdToken=" + p.CSCID + "&cHashQRCode=" + hash
	}

	return QRCodeBaseURL(p.UF, p.Environment) + "?" + query, nil
}
