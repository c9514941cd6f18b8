// Package certificate carrega e valida o certificado digital A1 (PKCS#12)
// usado na assinatura da NFC-e. A chave privada vive apenas na memória da
// requisição; nunca é persistida fora do bundle cifrado em fiscal_settings.
package certificate

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/caixazap/fiscal-api/internal/domain"
)

// Handle expõe o certificado carregado e sua chave privada.
type Handle struct {
	Cert      *x509.Certificate
	Key       crypto.PrivateKey
	Serial    string
	NotBefore time.Time
	NotAfter  time.Time
	SubjectCN string
	IssuerCN  string
}

// padrão ICP-Brasil: o sujeito de certificados e-CNPJ carrega "CNPJ:" seguido
// do documento, com ou sem máscara.
var cnpjSubjectPattern = regexp.MustCompile(`CNPJ:\s*\d[\d./-]{12,17}`)

// Load decodifica o bundle PKCS#12 em base64 com a senha informada.
// Erros de estrutura ou senha retornam domain.ErrCertificateFormat; bundle
// sem certificado ou sem chave retorna domain.ErrCertificateContent.
func Load(bundleB64, password string) (*Handle, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(bundleB64))
	if err != nil {
		return nil, fmt.Errorf("%w: base64 inválido: %v", domain.ErrCertificateFormat, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: bundle vazio", domain.ErrCertificateFormat)
	}

	key, cert, err := pkcs12.Decode(raw, password)
	if err != nil {
		// pkcs12 não expõe erros tipados; a mensagem distingue estrutura
		// incompleta (bags) de senha/ASN.1 inválidos.
		if strings.Contains(err.Error(), "safe") {
			return nil, fmt.Errorf("%w: %v", domain.ErrCertificateContent, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCertificateFormat, err)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: nenhum certificado no bundle", domain.ErrCertificateContent)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: nenhuma chave privada no bundle", domain.ErrCertificateContent)
	}

	return &Handle{
		Cert:      cert,
		Key:       key,
		Serial:    cert.SerialNumber.Text(16),
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		SubjectCN: cert.Subject.CommonName,
		IssuerCN:  cert.Issuer.CommonName,
	}, nil
}

// RSAKey devolve a chave privada como RSA, exigida pela assinatura RSA-SHA1.
func (h *Handle) RSAKey() (*rsa.PrivateKey, error) {
	k, ok := h.Key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: chave privada não é RSA (%T)", domain.ErrCertificate, h.Key)
	}
	return k, nil
}

// Validation resultado da validação do certificado. Nunca lança: acumula
// mensagens e deixa a decisão para o chamador.
type Validation struct {
	Valid  bool
	Errors []string
}

// Validate verifica a janela de vigência no instante informado e a presença
// do CNPJ no sujeito (exigência ICP-Brasil para e-CNPJ). Cada mensagem
// identifica o limite violado.
func Validate(h *Handle, now time.Time) Validation {
	var errs []string
	if now.Before(h.NotBefore) {
		errs = append(errs, fmt.Sprintf(
			"certificado ainda não vigente: válido a partir de %s", h.NotBefore.Format(time.RFC3339)))
	}
	if now.After(h.NotAfter) {
		errs = append(errs, fmt.Sprintf(
			"certificado expirado em %s", h.NotAfter.Format(time.RFC3339)))
	}
	if !cnpjSubjectPattern.MatchString(h.Cert.Subject.String()) {
		errs = append(errs, "sujeito do certificado não contém CNPJ (esperado e-CNPJ ICP-Brasil)")
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}
