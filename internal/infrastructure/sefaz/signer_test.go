package sefaz

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixazap/fiscal-api/internal/domain"
	"github.com/caixazap/fiscal-api/internal/infrastructure/certificate"
)

const fixturePassword = "123456"

func loadTestHandle(t *testing.T) *certificate.Handle {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "certificate", "testdata", "valid.pfx.b64"))
	require.NoError(t, err)
	h, err := certificate.Load(strings.TrimSpace(string(raw)), fixturePassword)
	require.NoError(t, err)
	return h
}

func buildSignedCupom(t *testing.T) []byte {
	t.Helper()
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)

	signed, err := NewDigitalSignatureService().Sign(raw, loadTestHandle(t))
	require.NoError(t, err)
	return signed
}

func TestSign_InjetaSignatureNaRaiz(t *testing.T) {
	signed := buildSignedCupom(t)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed))
	root := doc.Root()

	children := root.ChildElements()
	require.Len(t, children, 2)
	assert.Equal(t, "infNFe", children[0].Tag)
	assert.Equal(t, "Signature", children[1].Tag)

	// Reference aponta para o Id do infNFe
	ref := doc.FindElement("//Reference")
	require.NotNil(t, ref)
	assert.Equal(t, "#NFe"+testAccessKey, ref.SelectAttrValue("URI", ""))

	assert.NotNil(t, doc.FindElement("//DigestValue"))
	assert.NotNil(t, doc.FindElement("//SignatureValue"))
	assert.NotNil(t, doc.FindElement("//X509Certificate"))
}

func TestSign_AlgoritmosSHA1(t *testing.T) {
	signed := buildSignedCupom(t)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed))

	sigMethod := doc.FindElement("//SignatureMethod")
	require.NotNil(t, sigMethod)
	assert.Equal(t, AlgRSASHA1, sigMethod.SelectAttrValue("Algorithm", ""))

	digestMethod := doc.FindElement("//DigestMethod")
	require.NotNil(t, digestMethod)
	assert.Equal(t, AlgSHA1, digestMethod.SelectAttrValue("Algorithm", ""))
}

func TestVerify_PassaParaDocumentoIntacto(t *testing.T) {
	signed := buildSignedCupom(t)
	assert.NoError(t, NewDigitalSignatureService().Verify(signed))
}

func TestVerify_FalhaAposAdulteracao(t *testing.T) {
	signed := buildSignedCupom(t)

	// altera o valor total depois de assinado
	tampered := bytes.Replace(signed, []byte("<vNF>50.00</vNF>"), []byte("<vNF>5.00</vNF>"), 1)
	require.NotEqual(t, signed, tampered)

	err := NewDigitalSignatureService().Verify(tampered)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSigning)
	assert.Contains(t, err.Error(), "digest")
}

func TestVerify_FalhaSemSignature(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)

	err = NewDigitalSignatureService().Verify(raw)
	assert.ErrorIs(t, err, domain.ErrSigning)
}

func TestSign_ExigeElementoComId(t *testing.T) {
	h := loadTestHandle(t)
	_, err := NewDigitalSignatureService().Sign([]byte(`<raiz><filho>x</filho></raiz>`), h)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSigning)
}

func TestSign_XMLVazio(t *testing.T) {
	h := loadTestHandle(t)
	_, err := NewDigitalSignatureService().Sign(nil, h)
	assert.ErrorIs(t, err, domain.ErrSigning)
}

func TestSign_AssinaCancelamento(t *testing.T) {
	cancXML := `<cancNFe xmlns="` + NsNFe + `" versao="4.00"><infCanc Id="ID` + testAccessKey + `"><tpAmb>2</tpAmb><xServ>CANCELAR</xServ><chNFe>` + testAccessKey + `</chNFe><nProt>135250000000001</nProt><xJust>Erro de digitacao no pedido</xJust></infCanc></cancNFe>`

	signer := NewDigitalSignatureService()
	signed, err := signer.Sign([]byte(cancXML), loadTestHandle(t))
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(signed))
	ref := doc.FindElement("//Reference")
	require.NotNil(t, ref)
	assert.Equal(t, "#ID"+testAccessKey, ref.SelectAttrValue("URI", ""))

	assert.NoError(t, signer.Verify(signed))
}
