package sefaz

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/domain/nfce"
	"github.com/caixazap/fiscal-api/pkg/br"
)

// Namespace oficial do Portal Fiscal (layout NF-e/NFC-e 4.00).
const (
	NsNFe = "http://www.portalfiscal.inf.br/nfe"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"

	layoutVersion = "4.00"
	verProc       = "caixazap-fiscal 1.0"
)

// Horário fiscal brasileiro fixo (-03:00), sem horário de verão desde 2019.
var tzBrasilia = time.FixedZone("-03:00", -3*60*60)

// RespTec identifica o responsável técnico pelo software emissor (NT 2018.005).
type RespTec struct {
	CNPJ    string
	Contact string
	Email   string
	Phone   string
}

// CupomBuildContext reúne tudo que o builder precisa para montar o XML
// de um cupom. Settings e Cupom são obrigatórios; Consumer é opcional
// (venda ao consumidor não identificado).
type CupomBuildContext struct {
	Settings *entity.FiscalSettings
	Cupom    *entity.Cupom
	Items    []*entity.CupomItem
	IssuedAt time.Time
	RespTec  RespTec
}

// XMLBuilderService monta o documento NFC-e (modelo 65, layout 4.00), sem assinatura.
type XMLBuilderService struct{}

// NewXMLBuilderService cria o serviço.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build gera o []byte do documento <NFe> a partir do contexto. A chave de
// acesso do cupom já deve estar calculada: ela vira o atributo Id de infNFe
// e os campos cNF/cDV da ide são extraídos dela.
func (s *XMLBuilderService) Build(ctx *CupomBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Settings == nil || ctx.Cupom == nil {
		return nil, fmt.Errorf("sefaz: faltam settings ou cupom no contexto")
	}
	if len(ctx.Items) == 0 {
		return nil, fmt.Errorf("sefaz: cupom %d sem itens", ctx.Cupom.Number)
	}
	if len(ctx.Cupom.AccessKey) != nfce.KeyLength {
		return nil, fmt.Errorf("sefaz: chave de acesso inválida no cupom %d", ctx.Cupom.Number)
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{
		Name: xml.Name{Local: "NFe"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: NsNFe}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	infNFe := xml.StartElement{
		Name: xml.Name{Local: "infNFe"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "Id"}, Value: "NFe" + ctx.Cupom.AccessKey},
			{Name: xml.Name{Local: "versao"}, Value: layoutVersion},
		},
	}
	if err := enc.EncodeToken(infNFe); err != nil {
		return nil, err
	}

	if err := s.writeIde(enc, ctx); err != nil {
		return nil, err
	}
	s.writeEmit(enc, ctx.Settings)
	s.writeDest(enc, ctx.Cupom)
	for i, item := range ctx.Items {
		s.writeDet(enc, i+1, item)
	}
	s.writeTotal(enc, ctx)

	writeGroup(enc, "transp", func() {
		// NFC-e é sempre sem frete (operação presencial)
		writeEl(enc, "modFrete", "9")
	})

	writeGroup(enc, "pag", func() {
		writeGroup(enc, "detPag", func() {
			writeEl(enc, "tPag", "01")
			writeEl(enc, "vPag", ctx.Cupom.Total.StringFixed(2))
		})
	})

	if notes := br.SanitizeXMLText(ctx.Cupom.Notes); notes != "" {
		writeGroup(enc, "infAdic", func() {
			writeEl(enc, "infCpl", br.Truncate(notes, 2000))
		})
	}

	s.writeInfRespTec(enc, ctx.RespTec)

	if err := enc.EncodeToken(xml.EndElement{Name: infNFe.Name}); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeIde escreve o grupo de identificação. cNF e cDV saem da própria
// chave de acesso para garantir consistência entre chave e documento.
func (s *XMLBuilderService) writeIde(enc *xml.Encoder, ctx *CupomBuildContext) error {
	cuf, ok := nfce.UFCode(ctx.Settings.UF)
	if !ok {
		return fmt.Errorf("sefaz: UF desconhecida %q", ctx.Settings.UF)
	}
	key := ctx.Cupom.AccessKey
	cNF := key[35:43]
	cDV := key[43:]

	writeGroup(enc, "ide", func() {
		writeEl(enc, "cUF", cuf)
		writeEl(enc, "cNF", cNF)
		writeEl(enc, "natOp", "VENDA AO CONSUMIDOR")
		writeEl(enc, "mod", nfce.ModelNFCe)
		writeEl(enc, "serie", strconv.Itoa(ctx.Cupom.Serie))
		writeEl(enc, "nNF", strconv.FormatInt(ctx.Cupom.Number, 10))
		writeEl(enc, "dhEmi", ctx.IssuedAt.In(tzBrasilia).Format("2006-01-02T15:04:05-07:00"))
		writeEl(enc, "tpNF", "1")
		writeEl(enc, "idDest", "1")
		writeEl(enc, "cMunFG", ctx.Settings.CityCode)
		writeEl(enc, "tpImp", "4")
		writeEl(enc, "tpEmis", nfce.EmissionNormal)
		writeEl(enc, "cDV", cDV)
		writeEl(enc, "tpAmb", entity.TpAmbCode(ctx.Settings.Environment))
		writeEl(enc, "finNFe", "1")
		writeEl(enc, "indFinal", "1")
		writeEl(enc, "indPres", "1")
		writeEl(enc, "procEmi", "0")
		writeEl(enc, "verProc", verProc)
	})
	return nil
}

func (s *XMLBuilderService) writeEmit(enc *xml.Encoder, settings *entity.FiscalSettings) {
	writeGroup(enc, "emit", func() {
		writeEl(enc, "CNPJ", br.OnlyDigits(settings.CNPJ))
		writeEl(enc, "xNome", br.SanitizeXMLText(settings.LegalName))
		if settings.TradeName != "" {
			writeEl(enc, "xFant", br.SanitizeXMLText(settings.TradeName))
		}
		writeGroup(enc, "enderEmit", func() {
			writeEl(enc, "xLgr", br.SanitizeXMLText(settings.Street))
			writeEl(enc, "nro", settings.Number)
			writeEl(enc, "xBairro", br.SanitizeXMLText(settings.District))
			writeEl(enc, "cMun", settings.CityCode)
			writeEl(enc, "xMun", br.SanitizeXMLText(settings.CityName))
			writeEl(enc, "UF", settings.UF)
			writeEl(enc, "CEP", br.OnlyDigits(settings.ZipCode))
			writeEl(enc, "cPais", "1058")
			writeEl(enc, "xPais", "BRASIL")
		})
		writeEl(enc, "IE", br.OnlyDigits(settings.IE))
		if settings.IM != "" {
			writeEl(enc, "IM", br.OnlyDigits(settings.IM))
		}
		writeEl(enc, "CRT", settings.TaxRegime)
	})
}

// writeDest só emite o grupo quando o consumidor se identificou; CPF ou
// CNPJ conforme o tamanho do documento.
func (s *XMLBuilderService) writeDest(enc *xml.Encoder, cupom *entity.Cupom) {
	taxID := br.OnlyDigits(cupom.ConsumerTaxID)
	if taxID == "" {
		return
	}
	writeGroup(enc, "dest", func() {
		if len(taxID) == 14 {
			writeEl(enc, "CNPJ", taxID)
		} else {
			writeEl(enc, "CPF", taxID)
		}
		if name := br.SanitizeXMLText(cupom.ConsumerName); name != "" {
			writeEl(enc, "xNome", br.Truncate(name, 60))
		}
	})
}

// writeDet escreve um item do cupom com a tributação do Simples Nacional:
// ICMSSN102 (CSOSN do item) e PIS/COFINS não tributados.
func (s *XMLBuilderService) writeDet(enc *xml.Encoder, nItem int, item *entity.CupomItem) {
	det := xml.StartElement{
		Name: xml.Name{Local: "det"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "nItem"}, Value: strconv.Itoa(nItem)}},
	}
	_ = enc.EncodeToken(det)

	cProd := item.ProductID
	if cProd == "" {
		cProd = strconv.Itoa(nItem)
	}
	writeGroup(enc, "prod", func() {
		writeEl(enc, "cProd", cProd)
		writeEl(enc, "cEAN", "SEM GTIN")
		writeEl(enc, "xProd", br.Truncate(br.SanitizeXMLText(item.Description), 120))
		writeEl(enc, "NCM", br.OnlyDigits(item.NCM))
		writeEl(enc, "CFOP", item.CFOP)
		writeEl(enc, "uCom", item.Unit)
		writeEl(enc, "qCom", item.Quantity.StringFixed(4))
		writeEl(enc, "vUnCom", item.UnitPrice.StringFixed(4))
		writeEl(enc, "vProd", item.Total.StringFixed(2))
		writeEl(enc, "cEANTrib", "SEM GTIN")
		writeEl(enc, "uTrib", item.Unit)
		writeEl(enc, "qTrib", item.Quantity.StringFixed(4))
		writeEl(enc, "vUnTrib", item.UnitPrice.StringFixed(4))
		writeEl(enc, "indTot", "1")
	})

	writeGroup(enc, "imposto", func() {
		writeGroup(enc, "ICMS", func() {
			writeGroup(enc, "ICMSSN102", func() {
				writeEl(enc, "orig", "0")
				writeEl(enc, "CSOSN", item.CSOSN)
			})
		})
		writeGroup(enc, "PIS", func() {
			writeGroup(enc, "PISNT", func() {
				writeEl(enc, "CST", item.CSTPIS)
			})
		})
		writeGroup(enc, "COFINS", func() {
			writeGroup(enc, "COFINSNT", func() {
				writeEl(enc, "CST", item.CSTCOFINS)
			})
		})
	})

	_ = enc.EncodeToken(xml.EndElement{Name: det.Name})
}

func (s *XMLBuilderService) writeTotal(enc *xml.Encoder, ctx *CupomBuildContext) {
	zero := decimal.Zero.StringFixed(2)
	vProd := decimal.Zero
	for _, item := range ctx.Items {
		vProd = vProd.Add(item.Total)
	}
	writeGroup(enc, "total", func() {
		writeGroup(enc, "ICMSTot", func() {
			writeEl(enc, "vBC", zero)
			writeEl(enc, "vICMS", zero)
			writeEl(enc, "vICMSDeson", zero)
			writeEl(enc, "vFCP", zero)
			writeEl(enc, "vBCST", zero)
			writeEl(enc, "vST", zero)
			writeEl(enc, "vFCPST", zero)
			writeEl(enc, "vFCPSTRet", zero)
			writeEl(enc, "vProd", vProd.StringFixed(2))
			writeEl(enc, "vFrete", zero)
			writeEl(enc, "vSeg", zero)
			writeEl(enc, "vDesc", zero)
			writeEl(enc, "vII", zero)
			writeEl(enc, "vIPI", zero)
			writeEl(enc, "vIPIDevol", zero)
			writeEl(enc, "vPIS", zero)
			writeEl(enc, "vCOFINS", zero)
			writeEl(enc, "vOutro", zero)
			writeEl(enc, "vNF", ctx.Cupom.Total.StringFixed(2))
			writeEl(enc, "vTotTrib", ctx.Cupom.TaxEstimate.StringFixed(2))
		})
	})
}

func (s *XMLBuilderService) writeInfRespTec(enc *xml.Encoder, rt RespTec) {
	if br.OnlyDigits(rt.CNPJ) == "" {
		return
	}
	writeGroup(enc, "infRespTec", func() {
		writeEl(enc, "CNPJ", br.OnlyDigits(rt.CNPJ))
		writeEl(enc, "xContato", br.SanitizeXMLText(rt.Contact))
		writeEl(enc, "email", rt.Email)
		writeEl(enc, "fone", br.OnlyDigits(rt.Phone))
	})
}

func writeEl(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

func writeGroup(enc *xml.Encoder, local string, body func()) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
	body()
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}
