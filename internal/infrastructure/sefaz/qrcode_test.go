package sefaz

import (
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixazap/fiscal-api/internal/domain"
	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

func qrTestParams() QRParams {
	return QRParams{
		AccessKey:   testAccessKey,
		UF:          "SP",
		Environment: entity.EnvStaging,
		EmittedAt:   time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC),
		Total:       decimal.NewFromFloat(50.00),
		CSCID:       "000001",
		CSCToken:    "A1B2C3D4E5F6",
	}
}

func TestQRCode_OrdemDosParametros(t *testing.T) {
	svc := NewQRCodeService()
	payload, err := svc.Build(qrTestParams())
	require.NoError(t, err)

	base := QRCodeBaseURL("SP", entity.EnvStaging)
	require.True(t, strings.HasPrefix(payload, base+"?"), payload)

	query := strings.TrimPrefix(payload, base+"?")
	keys := make([]string, 0, 8)
	for _, kv := range strings.Split(query, "&") {
		keys = append(keys, strings.SplitN(kv, "=", 2)[0])
	}
	assert.Equal(t, []string{"chNFe", "nVersao", "tpAmb", "dhEmi", "vNF", "vICMS", "digVal", "cIdToken", "cHashQRCode"}, keys)
}

func TestQRCode_ValoresDosParametros(t *testing.T) {
	svc := NewQRCodeService()
	payload, err := svc.Build(qrTestParams())
	require.NoError(t, err)

	u, err := url.Parse(payload)
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, testAccessKey, q.Get("chNFe"))
	assert.Equal(t, "100", q.Get("nVersao"))
	assert.Equal(t, "2", q.Get("tpAmb"))
	// epoch de 2025-01-15T14:30:00Z em hexadecimal
	assert.Equal(t, "6787c668", q.Get("dhEmi"))
	// total em centavos
	assert.Equal(t, "5000", q.Get("vNF"))
	assert.Equal(t, "0", q.Get("vICMS"))
	assert.Equal(t, testAccessKey[43:], q.Get("digVal"))
	assert.Equal(t, "000001", q.Get("cIdToken"))
}

func TestQRCode_HashDoCSC(t *testing.T) {
	svc := NewQRCodeService()
	payload, err := svc.Build(qrTestParams())
	require.NoError(t, err)

	u, _ := url.Parse(payload)
	hash := u.Query().Get("cHashQRCode")
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{40}$`), hash)

	// determinístico: mesmas entradas, mesmo hash
	again, err := svc.Build(qrTestParams())
	require.NoError(t, err)
	assert.Equal(t, payload, again)

	// token diferente muda o hash
	p := qrTestParams()
	p.CSCToken = "OUTRO-TOKEN"
	other, err := svc.Build(p)
	require.NoError(t, err)
	assert.NotEqual(t, payload, other)
}

func TestQRCode_SemCSCOmiteHash(t *testing.T) {
	p := qrTestParams()
	p.CSCID = ""
	p.CSCToken = ""

	payload, err := NewQRCodeService().Build(p)
	require.NoError(t, err)
	assert.NotContains(t, payload, "cIdToken")
	assert.NotContains(t, payload, "cHashQRCode")
	assert.Contains(t, payload, "digVal=")
}

func TestQRCode_ConsumidorIdentificado(t *testing.T) {
	p := qrTestParams()
	p.ConsumerTaxID = "529.982.247-25"

	payload, err := NewQRCodeService().Build(p)
	require.NoError(t, err)

	u, _ := url.Parse(payload)
	assert.Equal(t, "52998224725", u.Query().Get("cDest"))

	// cDest entra entre tpAmb e dhEmi
	assert.Less(t, strings.Index(payload, "tpAmb="), strings.Index(payload, "cDest="))
	assert.Less(t, strings.Index(payload, "cDest="), strings.Index(payload, "dhEmi="))
}

func TestQRCode_EntradasInvalidas(t *testing.T) {
	svc := NewQRCodeService()

	p := qrTestParams()
	p.AccessKey = "123"
	_, err := svc.Build(p)
	assert.ErrorIs(t, err, domain.ErrQRGeneration)

	p = qrTestParams()
	p.EmittedAt = time.Time{}
	_, err = svc.Build(p)
	assert.ErrorIs(t, err, domain.ErrQRGeneration)

	p = qrTestParams()
	p.Total = decimal.Zero
	_, err = svc.Build(p)
	assert.ErrorIs(t, err, domain.ErrQRGeneration)
}
