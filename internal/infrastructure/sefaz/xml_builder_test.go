package sefaz

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

// chave válida para série 1, nNF 42, SP, jan/2025 (mesma do teste da chave de acesso).
const testAccessKey = "35250112345678000195650010000000421123456786"

func buildTestContext() *CupomBuildContext {
	return &CupomBuildContext{
		Settings: &entity.FiscalSettings{
			CNPJ:        "12.345.678/0001-95",
			IE:          "123456789012",
			LegalName:   "Restaurante X Burger Ltda",
			TradeName:   "X Burger",
			UF:          "SP",
			CityCode:    "3550308",
			CityName:    "São Paulo",
			Street:      "Rua Augusta",
			Number:      "1500",
			District:    "Consolação",
			ZipCode:     "01304-001",
			Serie:       1,
			Environment: entity.EnvStaging,
			TaxRegime:   "1",
		},
		Cupom: &entity.Cupom{
			Serie:       1,
			Number:      42,
			AccessKey:   testAccessKey,
			Total:       decimal.NewFromFloat(50.00),
			TaxEstimate: decimal.Zero,
			Status:      entity.CupomStatusPending,
		},
		Items: []*entity.CupomItem{
			{
				ProductID:   "XBURG",
				Description: "X-Burger Especial",
				NCM:         "21069090",
				CFOP:        "5102",
				CSOSN:       "102",
				CSTPIS:      "07",
				CSTCOFINS:   "07",
				Unit:        "UN",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.NewFromFloat(25.00),
				Total:       decimal.NewFromFloat(50.00),
			},
		},
		IssuedAt: time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC),
		RespTec: RespTec{
			CNPJ:    "12345678000195",
			Contact: "Suporte CaixaZap",
			Email:   "fiscal@caixazap.com.br",
			Phone:   "11999990000",
		},
	}
}

func parseNFe(t *testing.T, raw []byte) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	require.NotNil(t, doc.Root())
	return doc
}

func TestXMLBuilder_EstruturaBasica(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)

	doc := parseNFe(t, raw)
	root := doc.Root()
	assert.Equal(t, "NFe", root.Tag)
	assert.Equal(t, NsNFe, root.SelectAttrValue("xmlns", ""))

	inf := doc.FindElement("//infNFe")
	require.NotNil(t, inf)
	assert.Equal(t, "NFe"+testAccessKey, inf.SelectAttrValue("Id", ""))
	assert.Equal(t, "4.00", inf.SelectAttrValue("versao", ""))
}

func TestXMLBuilder_IdeConsistenteComChave(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)
	doc := parseNFe(t, raw)

	// cNF e cDV saem da própria chave de acesso
	assert.Equal(t, "35", doc.FindElement("//ide/cUF").Text())
	assert.Equal(t, testAccessKey[35:43], doc.FindElement("//ide/cNF").Text())
	assert.Equal(t, testAccessKey[43:], doc.FindElement("//ide/cDV").Text())
	assert.Equal(t, "65", doc.FindElement("//ide/mod").Text())
	assert.Equal(t, "1", doc.FindElement("//ide/serie").Text())
	assert.Equal(t, "42", doc.FindElement("//ide/nNF").Text())
	assert.Equal(t, "2", doc.FindElement("//ide/tpAmb").Text())
	assert.Equal(t, "4", doc.FindElement("//ide/tpImp").Text())
	assert.Equal(t, "3550308", doc.FindElement("//ide/cMunFG").Text())
}

func TestXMLBuilder_DhEmiNoFusoDeBrasilia(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)
	doc := parseNFe(t, raw)

	// 14:30 UTC = 11:30 em Brasília
	assert.Equal(t, "2025-01-15T11:30:00-03:00", doc.FindElement("//ide/dhEmi").Text())
}

func TestXMLBuilder_EmitenteNormalizado(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)
	doc := parseNFe(t, raw)

	// CNPJ e CEP só com dígitos; texto livre sem acentos
	assert.Equal(t, "12345678000195", doc.FindElement("//emit/CNPJ").Text())
	assert.Equal(t, "01304001", doc.FindElement("//emit/enderEmit/CEP").Text())
	assert.Equal(t, "Sao Paulo", doc.FindElement("//emit/enderEmit/xMun").Text())
	assert.Equal(t, "Consolacao", doc.FindElement("//emit/enderEmit/xBairro").Text())
	assert.Equal(t, "1", doc.FindElement("//emit/CRT").Text())
}

func TestXMLBuilder_ConsumidorNaoIdentificadoOmiteDest(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)
	doc := parseNFe(t, raw)
	assert.Nil(t, doc.FindElement("//dest"))
}

func TestXMLBuilder_ConsumidorComCPF(t *testing.T) {
	ctx := buildTestContext()
	ctx.Cupom.ConsumerTaxID = "529.982.247-25"
	ctx.Cupom.ConsumerName = "João da Silva"

	svc := NewXMLBuilderService()
	raw, err := svc.Build(ctx)
	require.NoError(t, err)
	doc := parseNFe(t, raw)

	require.NotNil(t, doc.FindElement("//dest"))
	assert.Equal(t, "52998224725", doc.FindElement("//dest/CPF").Text())
	assert.Equal(t, "Joao da Silva", doc.FindElement("//dest/xNome").Text())
	assert.Nil(t, doc.FindElement("//dest/CNPJ"))
}

func TestXMLBuilder_ConsumidorComCNPJ(t *testing.T) {
	ctx := buildTestContext()
	ctx.Cupom.ConsumerTaxID = "11.222.333/0001-81"

	svc := NewXMLBuilderService()
	raw, err := svc.Build(ctx)
	require.NoError(t, err)
	doc := parseNFe(t, raw)

	assert.Equal(t, "11222333000181", doc.FindElement("//dest/CNPJ").Text())
	assert.Nil(t, doc.FindElement("//dest/CPF"))
}

func TestXMLBuilder_ItemETributacaoSimples(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)
	doc := parseNFe(t, raw)

	det := doc.FindElement("//det")
	require.NotNil(t, det)
	assert.Equal(t, "1", det.SelectAttrValue("nItem", ""))
	assert.Equal(t, "XBURG", doc.FindElement("//det/prod/cProd").Text())
	assert.Equal(t, "X-Burger Especial", doc.FindElement("//det/prod/xProd").Text())
	assert.Equal(t, "2.0000", doc.FindElement("//det/prod/qCom").Text())
	assert.Equal(t, "25.0000", doc.FindElement("//det/prod/vUnCom").Text())
	assert.Equal(t, "50.00", doc.FindElement("//det/prod/vProd").Text())
	assert.Equal(t, "102", doc.FindElement("//det/imposto/ICMS/ICMSSN102/CSOSN").Text())
	assert.Equal(t, "07", doc.FindElement("//det/imposto/PIS/PISNT/CST").Text())
	assert.Equal(t, "07", doc.FindElement("//det/imposto/COFINS/COFINSNT/CST").Text())
}

func TestXMLBuilder_TotaisEPagamento(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)
	doc := parseNFe(t, raw)

	assert.Equal(t, "50.00", doc.FindElement("//total/ICMSTot/vProd").Text())
	assert.Equal(t, "50.00", doc.FindElement("//total/ICMSTot/vNF").Text())
	assert.Equal(t, "0.00", doc.FindElement("//total/ICMSTot/vICMS").Text())
	assert.Equal(t, "9", doc.FindElement("//transp/modFrete").Text())
	assert.Equal(t, "01", doc.FindElement("//pag/detPag/tPag").Text())
	assert.Equal(t, "50.00", doc.FindElement("//pag/detPag/vPag").Text())
}

func TestXMLBuilder_InfRespTec(t *testing.T) {
	svc := NewXMLBuilderService()
	raw, err := svc.Build(buildTestContext())
	require.NoError(t, err)
	doc := parseNFe(t, raw)

	assert.Equal(t, "12345678000195", doc.FindElement("//infRespTec/CNPJ").Text())
	assert.Equal(t, "Suporte CaixaZap", doc.FindElement("//infRespTec/xContato").Text())
}

func TestXMLBuilder_ObservacoesViraInfCpl(t *testing.T) {
	ctx := buildTestContext()
	ctx.Cupom.Notes = "Pedido da mesa 4, sem cebola"

	svc := NewXMLBuilderService()
	raw, err := svc.Build(ctx)
	require.NoError(t, err)
	doc := parseNFe(t, raw)
	inf := doc.FindElement("//infAdic/infCpl")
	require.NotNil(t, inf)
	assert.Equal(t, "Pedido da mesa 4, sem cebola", inf.Text())
}

func TestXMLBuilder_ValidacoesDeEntrada(t *testing.T) {
	svc := NewXMLBuilderService()

	_, err := svc.Build(nil)
	assert.Error(t, err)

	ctx := buildTestContext()
	ctx.Items = nil
	_, err = svc.Build(ctx)
	assert.Error(t, err)

	ctx = buildTestContext()
	ctx.Cupom.AccessKey = "123"
	_, err = svc.Build(ctx)
	assert.Error(t, err)

	ctx = buildTestContext()
	ctx.Settings.UF = "XX"
	_, err = svc.Build(ctx)
	assert.Error(t, err)
}
