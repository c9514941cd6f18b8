package certificate_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixazap/fiscal-api/internal/domain"
	"github.com/caixazap/fiscal-api/internal/infrastructure/certificate"
)

// Os fixtures em testdata/ são bundles PKCS#12 gerados com openssl
// (PBE-SHA1-3DES, compatível com o decoder legado), senha "123456":
//
//	valid.pfx.b64    — e-CNPJ de teste com "CNPJ:12.345.678/0001-95" no CN
//	nocnpj.pfx.b64   — certificado sem CNPJ no sujeito
//	certonly.pfx.b64 — bundle só com certificado, sem chave privada
const fixturePassword = "123456"

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "fixture %s deve existir", name)
	return string(raw)
}

func TestLoad_BundleValido(t *testing.T) {
	h, err := certificate.Load(loadFixture(t, "valid.pfx.b64"), fixturePassword)
	require.NoError(t, err)

	assert.Contains(t, h.SubjectCN, "CNPJ:12.345.678/0001-95")
	assert.NotEmpty(t, h.Serial)
	assert.True(t, h.NotAfter.After(h.NotBefore))

	key, err := h.RSAKey()
	require.NoError(t, err)
	assert.NotNil(t, key)
}

func TestLoad_SenhaErrada(t *testing.T) {
	_, err := certificate.Load(loadFixture(t, "valid.pfx.b64"), "senha-errada")
	assert.ErrorIs(t, err, domain.ErrCertificateFormat)
}

func TestLoad_Base64Invalido(t *testing.T) {
	_, err := certificate.Load("isto não é base64!!!", fixturePassword)
	assert.ErrorIs(t, err, domain.ErrCertificateFormat)
}

func TestLoad_BytesQueNaoSaoPKCS12(t *testing.T) {
	// base64 válido de conteúdo arbitrário
	_, err := certificate.Load("bm90IGEgcGZ4IGZpbGU=", fixturePassword)
	assert.ErrorIs(t, err, domain.ErrCertificateFormat)
}

func TestLoad_BundleSemChave(t *testing.T) {
	_, err := certificate.Load(loadFixture(t, "certonly.pfx.b64"), fixturePassword)
	assert.ErrorIs(t, err, domain.ErrCertificateContent)
}

// ── Validate ──────────────────────────────────────────────────────────────────

func TestValidate_DentroDaVigencia(t *testing.T) {
	h, err := certificate.Load(loadFixture(t, "valid.pfx.b64"), fixturePassword)
	require.NoError(t, err)

	v := certificate.Validate(h, h.NotBefore.Add(time.Hour))
	assert.True(t, v.Valid)
	assert.Empty(t, v.Errors)
}

func TestValidate_Expirado(t *testing.T) {
	h, err := certificate.Load(loadFixture(t, "valid.pfx.b64"), fixturePassword)
	require.NoError(t, err)

	v := certificate.Validate(h, h.NotAfter.Add(24*time.Hour))
	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "expirado", "a mensagem deve identificar o limite violado")
}

func TestValidate_AindaNaoVigente(t *testing.T) {
	h, err := certificate.Load(loadFixture(t, "valid.pfx.b64"), fixturePassword)
	require.NoError(t, err)

	v := certificate.Validate(h, h.NotBefore.Add(-24*time.Hour))
	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "não vigente")
}

// Sujeito sem CNPJ falha a validação mas não lança erro.
func TestValidate_SujeitoSemCNPJ(t *testing.T) {
	h, err := certificate.Load(loadFixture(t, "nocnpj.pfx.b64"), fixturePassword)
	require.NoError(t, err, "o carregamento em si deve funcionar")

	v := certificate.Validate(h, h.NotBefore.Add(time.Hour))
	assert.False(t, v.Valid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "CNPJ")
}
