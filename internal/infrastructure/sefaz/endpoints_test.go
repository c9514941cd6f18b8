package sefaz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/nfce"
)

func TestEndpoint_TodasUFsComAmbosAmbientes(t *testing.T) {
	for _, uf := range nfce.UFs() {
		prod := Endpoint(uf, entity.EnvProduction)
		hml := Endpoint(uf, entity.EnvStaging)
		require.NotEmpty(t, prod, "UF %s sem endpoint de produção", uf)
		require.NotEmpty(t, hml, "UF %s sem endpoint de homologação", uf)
		assert.True(t, strings.HasPrefix(prod, "https://"), "UF %s: %s", uf, prod)
		assert.True(t, strings.HasPrefix(hml, "https://"), "UF %s: %s", uf, hml)
	}
}

func TestEndpoint_AmbientesDistintosParaSP(t *testing.T) {
	prod := Endpoint("SP", entity.EnvProduction)
	hml := Endpoint("SP", entity.EnvStaging)
	assert.NotEqual(t, prod, hml)
	assert.Contains(t, hml, "homologacao")
}

func TestEndpoint_UFDesconhecidaCaiEmSP(t *testing.T) {
	assert.Equal(t, Endpoint("SP", entity.EnvProduction), Endpoint("XX", entity.EnvProduction))
	assert.Equal(t, Endpoint("SP", entity.EnvStaging), Endpoint("", entity.EnvStaging))
}

func TestQRCodeBaseURL_TodasUFs(t *testing.T) {
	for _, uf := range nfce.UFs() {
		require.NotEmpty(t, QRCodeBaseURL(uf, entity.EnvProduction), "UF %s", uf)
		require.NotEmpty(t, QRCodeBaseURL(uf, entity.EnvStaging), "UF %s", uf)
	}
}

func TestQRCodeBaseURL_Fallback(t *testing.T) {
	assert.Equal(t, QRCodeBaseURL("SP", entity.EnvStaging), QRCodeBaseURL("ZZ", entity.EnvStaging))
}
