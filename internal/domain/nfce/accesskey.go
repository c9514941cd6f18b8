// Package nfce: composição da chave de acesso NFC-e (44 dígitos) conforme o
// layout nacional 4.00. A chave concatena, nesta ordem: cUF(2) + AAMM(4) +
// CNPJ(14) + mod(2) + série(3) + nNF(9) + tpEmis(1) + cNF(8) + cDV(1).
package nfce

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Constantes fixas do modelo NFC-e.
const (
	// ModelNFCe é o modelo do documento (65 = NFC-e).
	ModelNFCe = "65"
	// EmissionNormal é o tpEmis de emissão normal.
	EmissionNormal = "1"
	// KeyLength é o tamanho total da chave, incluindo o dígito verificador.
	KeyLength = 44
)

// KeyParams reúne os dados da chave na ordem exigida pelo layout.
type KeyParams struct {
	UF           string    // sigla da unidade federativa (SP, RJ, ...)
	IssuedAt     time.Time // ano/mês de emissão (AAMM)
	CNPJ         string    // CNPJ do emitente (com ou sem máscara)
	Serie        int       // série do documento (0–999)
	Number       int64     // nNF (1–999.999.999)
	EmissionType string    // tpEmis; vazio assume EmissionNormal
	Nonce        string    // cNF: 8 dígitos aleatórios
}

// KeyBuilderService compõe a chave de acesso de forma determinística: os
// mesmos parâmetros produzem sempre a mesma chave.
type KeyBuilderService struct{}

// NewKeyBuilderService cria o serviço.
func NewKeyBuilderService() *KeyBuilderService {
	return &KeyBuilderService{}
}

// Build monta a chave de 44 dígitos. Valida cada campo e calcula o dígito
// verificador módulo 11 sobre os 43 primeiros dígitos.
func (s *KeyBuilderService) Build(p *KeyParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("nfce: KeyParams é obrigatório")
	}
	cuf, ok := ufCodes[strings.ToUpper(strings.TrimSpace(p.UF))]
	if !ok {
		return "", fmt.Errorf("nfce: UF desconhecida %q", p.UF)
	}
	if p.IssuedAt.IsZero() {
		return "", fmt.Errorf("nfce: data de emissão é obrigatória")
	}
	cnpj := OnlyDigits(p.CNPJ)
	if len(cnpj) != 14 {
		return "", fmt.Errorf("nfce: CNPJ deve ter 14 dígitos, recebidos %d", len(cnpj))
	}
	if p.Serie < 0 || p.Serie > 999 {
		return "", fmt.Errorf("nfce: série %d fora da faixa 0–999", p.Serie)
	}
	if p.Number < 1 || p.Number > 999_999_999 {
		return "", fmt.Errorf("nfce: número %d fora da faixa 1–999999999", p.Number)
	}
	tpEmis := p.EmissionType
	if tpEmis == "" {
		tpEmis = EmissionNormal
	}
	if len(tpEmis) != 1 || tpEmis[0] < '1' || tpEmis[0] > '9' {
		return "", fmt.Errorf("nfce: tpEmis inválido %q", p.EmissionType)
	}
	nonce := OnlyDigits(p.Nonce)
	if len(nonce) != 8 {
		return "", fmt.Errorf("nfce: cNF deve ter 8 dígitos, recebidos %d", len(nonce))
	}

	base := fmt.Sprintf("%s%s%s%s%03d%09d%s%s",
		cuf,
		p.IssuedAt.Format("0601"), // AAMM
		cnpj,
		ModelNFCe,
		p.Serie,
		p.Number,
		tpEmis,
		nonce,
	)
	dv, err := CheckDigit(base)
	if err != nil {
		return "", err
	}
	return base + string(dv), nil
}

// CheckDigit calcula o dígito verificador módulo 11 da chave de acesso.
// Pesos 2..9 aplicados da direita para a esquerda; resto 0 ou 1 resulta em 0.
func CheckDigit(key43 string) (byte, error) {
	if len(key43) != KeyLength-1 {
		return 0, fmt.Errorf("nfce: chave parcial deve ter 43 dígitos, recebidos %d", len(key43))
	}
	var sum, weight = 0, 2
	for i := len(key43) - 1; i >= 0; i-- {
		c := key43[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("nfce: caractere não numérico %q na posição %d", c, i)
		}
		sum += int(c-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	rest := sum % 11
	if rest == 0 || rest == 1 {
		return '0', nil
	}
	return byte('0' + (11 - rest)), nil
}

// RandomNonce gera o cNF: 8 dígitos decimais de origem criptográfica.
func RandomNonce() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", fmt.Errorf("nfce: gerar cNF: %w", err)
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}

// OnlyDigits descarta tudo que não for dígito 0-9.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
