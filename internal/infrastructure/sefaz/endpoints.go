// Package sefaz implementa a camada de protocolo com a Secretaria da Fazenda:
// geração do XML NFC-e, assinatura digital, envelope SOAP e QR Code.
package sefaz

import (
	"github.com/caixazap/fiscal-api/internal/domain/entity"
)

// endpointPair URLs de autorização por unidade federativa.
type endpointPair struct {
	Production string
	Staging    string
}

// Sefaz Virtual do RS atende as UFs sem infraestrutura própria de NFC-e.
const (
	svrsProduction = "https://nfce.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx"
	svrsStaging    = "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx"
)

// authEndpoints: todas as 27 UFs, produção e homologação. UFs autorizadoras
// próprias primeiro; as demais via SVRS.
var authEndpoints = map[string]endpointPair{
	"AM": {"https://nfce.sefaz.am.gov.br/nfce-services/services/NfeAutorizacao4", "https://homnfce.sefaz.am.gov.br/nfce-services/services/NfeAutorizacao4"},
	"GO": {"https://nfe.sefaz.go.gov.br/nfe/services/NFeAutorizacao4", "https://homolog.sefaz.go.gov.br/nfe/services/NFeAutorizacao4"},
	"MG": {"https://nfce.fazenda.mg.gov.br/nfce/services/NFeAutorizacao4", "https://hnfce.fazenda.mg.gov.br/nfce/services/NFeAutorizacao4"},
	"MS": {"https://nfce.sefaz.ms.gov.br/ws/NFeAutorizacao4", "https://hom.nfce.sefaz.ms.gov.br/ws/NFeAutorizacao4"},
	"MT": {"https://nfce.sefaz.mt.gov.br/nfcews/services/NfeAutorizacao4", "https://homologacao.sefaz.mt.gov.br/nfcews/services/NfeAutorizacao4"},
	"PR": {"https://nfce.sefa.pr.gov.br/nfce/NFeAutorizacao4", "https://homologacao.nfce.sefa.pr.gov.br/nfce/NFeAutorizacao4"},
	"RS": {"https://nfce.sefazrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx", "https://nfce-homologacao.sefazrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx"},
	"SP": {"https://nfce.fazenda.sp.gov.br/ws/NFeAutorizacao4.asmx", "https://homologacao.nfce.fazenda.sp.gov.br/ws/NFeAutorizacao4.asmx"},

	"AC": {svrsProduction, svrsStaging},
	"AL": {svrsProduction, svrsStaging},
	"AP": {svrsProduction, svrsStaging},
	"BA": {svrsProduction, svrsStaging},
	"CE": {svrsProduction, svrsStaging},
	"DF": {svrsProduction, svrsStaging},
	"ES": {svrsProduction, svrsStaging},
	"MA": {svrsProduction, svrsStaging},
	"PA": {svrsProduction, svrsStaging},
	"PB": {svrsProduction, svrsStaging},
	"PE": {svrsProduction, svrsStaging},
	"PI": {svrsProduction, svrsStaging},
	"RJ": {svrsProduction, svrsStaging},
	"RN": {svrsProduction, svrsStaging},
	"RO": {svrsProduction, svrsStaging},
	"RR": {svrsProduction, svrsStaging},
	"SC": {svrsProduction, svrsStaging},
	"SE": {svrsProduction, svrsStaging},
	"TO": {svrsProduction, svrsStaging},
}

// qrBaseURLs: URL base da consulta pública do QR Code por UF.
var qrBaseURLs = map[string]endpointPair{
	"AM": {"https://sistemas.sefaz.am.gov.br/nfceweb/consultarNFCe.jsp", "https://sistemas.sefaz.am.gov.br/nfceweb-hom/consultarNFCe.jsp"},
	"GO": {"https://nfe.sefaz.go.gov.br/nfeweb/sites/nfce/danfeNFCe", "https://homolog.sefaz.go.gov.br/nfeweb/sites/nfce/danfeNFCe"},
	"MG": {"https://nfce.fazenda.mg.gov.br/portalnfce/sistema/qrcode.xhtml", "https://hnfce.fazenda.mg.gov.br/portalnfce/sistema/qrcode.xhtml"},
	"MS": {"https://www.dfe.ms.gov.br/nfce/qrcode", "https://www.dfe.ms.gov.br/nfce/qrcode"},
	"MT": {"https://www.sefaz.mt.gov.br/nfce/consultanfce", "https://homologacao.sefaz.mt.gov.br/nfce/consultanfce"},
	"PR": {"https://www.fazenda.pr.gov.br/nfce/qrcode", "https://www.fazenda.pr.gov.br/nfce/qrcode"},
	"RS": {"https://www.sefaz.rs.gov.br/NFCE/NFCE-COM.aspx", "https://www.sefaz.rs.gov.br/NFCE/NFCE-COM.aspx"},
	"SP": {"https://www.nfce.fazenda.sp.gov.br/qrcode", "https://www.homologacao.nfce.fazenda.sp.gov.br/qrcode"},

	"AC": {"https://www.sefaznet.ac.gov.br/nfce/qrcode", "https://hml.sefaznet.ac.gov.br/nfce/qrcode"},
	"AL": {"https://nfce.sefaz.al.gov.br/QRCode/consultarNFCe.jsp", "https://nfce.sefaz.al.gov.br/QRCode/consultarNFCe.jsp"},
	"AP": {"https://www.sefaz.ap.gov.br/nfce/nfcep.php", "https://www.sefaz.ap.gov.br/nfcehml/nfce.php"},
	"BA": {"https://nfe.sefaz.ba.gov.br/servicos/nfce/qrcode.aspx", "https://hnfe.sefaz.ba.gov.br/servicos/nfce/qrcode.aspx"},
	"CE": {"https://nfce.sefaz.ce.gov.br/pages/ShowNFCe.html", "https://nfceh.sefaz.ce.gov.br/pages/ShowNFCe.html"},
	"DF": {"https://www.fazenda.df.gov.br/nfce/qrcode", "https://www.fazenda.df.gov.br/nfce/qrcode"},
	"ES": {"https://app.sefaz.es.gov.br/ConsultaNFCe/qrcode.aspx", "https://homologacao.sefaz.es.gov.br/ConsultaNFCe/qrcode.aspx"},
	"MA": {"https://www.nfce.sefaz.ma.gov.br/portal/consultarNFCe.jsp", "https://www.hom.nfce.sefaz.ma.gov.br/portal/consultarNFCe.jsp"},
	"PA": {"https://appnfc.sefa.pa.gov.br/portal/view/consultas/nfce/nfceForm.seam", "https://appnfc.sefa.pa.gov.br/portal-homologacao/view/consultas/nfce/nfceForm.seam"},
	"PB": {"https://www.receita.pb.gov.br/nfce", "https://www.receita.pb.gov.br/nfcehom"},
	"PE": {"https://nfce.sefaz.pe.gov.br/nfce/consulta", "https://nfcehomolog.sefaz.pe.gov.br/nfce/consulta"},
	"PI": {"https://www.sefaz.pi.gov.br/nfce/qrcode", "https://www.sefaz.pi.gov.br/nfce/qrcode"},
	"RJ": {"https://consultadfe.fazenda.rj.gov.br/consultaNFCe/QRCode", "https://consultadfe.fazenda.rj.gov.br/consultaNFCe/QRCode"},
	"RN": {"https://nfce.set.rn.gov.br/consultarNFCe.aspx", "https://hom.nfce.set.rn.gov.br/consultarNFCe.aspx"},
	"RO": {"https://www.nfce.sefin.ro.gov.br/consultanfce/consulta.jsp", "https://www.nfce.sefin.ro.gov.br/consultanfce/consulta.jsp"},
	"RR": {"https://www.sefaz.rr.gov.br/nfce/servlet/qrcode", "https://200.174.88.103:8080/nfce/servlet/qrcode"},
	"SC": {"https://sat.sef.sc.gov.br/nfce/consulta", "https://hom.sat.sef.sc.gov.br/nfce/consulta"},
	"SE": {"https://www.nfce.se.gov.br/nfce/qrcode", "https://www.hom.nfe.se.gov.br/nfce/qrcode"},
	"TO": {"https://www.sefaz.to.gov.br/nfce/qrcode", "https://homologacao.sefaz.to.gov.br/nfce/qrcode"},
}

// Endpoint devolve a URL do serviço de autorização para a UF e ambiente.
// UF desconhecida cai no endpoint de SP — comportamento documentado: o
// resultado de uma transmissão real nesse caso não tem significado.
func Endpoint(uf, env string) string {
	pair, ok := authEndpoints[uf]
	if !ok {
		pair = authEndpoints["SP"]
	}
	if env == entity.EnvProduction {
		return pair.Production
	}
	return pair.Staging
}

// QRCodeBaseURL devolve a URL base da consulta pública do QR Code, com o
// mesmo fallback para SP.
func QRCodeBaseURL(uf, env string) string {
	pair, ok := qrBaseURLs[uf]
	if !ok {
		pair = qrBaseURLs["SP"]
	}
	if env == entity.EnvProduction {
		return pair.Production
	}
	return pair.Staging
}
