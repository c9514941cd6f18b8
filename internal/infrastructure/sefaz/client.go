package sefaz

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/caixazap/fiscal-api/internal/domain"
	"github.com/caixazap/fiscal-api/internal/domain/entity"
	"github.com/caixazap/fiscal-api/internal/infrastructure/certificate"
)

// ── Constantes de protocolo ────────────────────────────────────────────────────

const (
	soapNS = "http://www.w3.org/2003/05/soap-envelope"

	wsNsAutorizacao = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeAutorizacao4"
	wsNsConsulta    = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeConsultaProtocolo4"
	wsNsEvento      = "http://www.portalfiscal.inf.br/nfe/wsdl/NFeRecepcaoEvento4"

	soapActionSubmit = "nfeRecepcaoLote"
	soapActionQuery  = "nfeConsultaNF"
	soapActionCancel = "nfeCancelamento"

	// StatusNetworkFailure é o cStat sintético para falha de transporte:
	// a Sefaz nunca respondeu, então nenhum código real existe.
	StatusNetworkFailure = "999"
)

// códigos de autorização (cStat): 100 = autorizado, 150 = autorizado fora de prazo.
var authorizedStatus = map[string]bool{"100": true, "150": true}

// códigos de cancelamento homologado.
var canceledStatus = map[string]bool{"101": true, "135": true, "151": true, "155": true}

// ── Porta (interface) ──────────────────────────────────────────────────────────

// Result é o desfecho estruturado de uma operação contra a Sefaz. Falhas de
// rede e respostas malformadas também viram Result: o chamador decide o que
// persistir, nunca recebe um panic ou um erro de transporte cru.
type Result struct {
	Success     bool
	StatusCode  string // cStat (ou 999 em falha de rede)
	Reason      string // xMotivo
	Protocol    string // nProt
	AccessKey   string // chNFe ecoada pela Sefaz
	SignedXML   []byte // documento assinado enviado (submit/cancel)
	RequestXML  string // payload da operação, para o log de transmissão
	RawResponse string // corpo bruto da resposta, para o log de transmissão
}

// Transmitter define a porta de saída para o web service da Sefaz. A
// implementação concreta usa SOAP; os testes do orquestrador injetam um mock.
type Transmitter interface {
	// Submit assina o documento NFe e o envia para autorização.
	Submit(ctx context.Context, nfeXML []byte, h *certificate.Handle, uf, env string) (*Result, error)
	// Query consulta a situação atual de uma chave de acesso.
	Query(ctx context.Context, accessKey, uf, env string) (*Result, error)
	// Cancel registra o cancelamento de um documento autorizado.
	Cancel(ctx context.Context, accessKey, protocol, justification string, h *certificate.Handle, uf, env string) (*Result, error)
}

// ── Implementação SOAP ─────────────────────────────────────────────────────────

// Client implementa Transmitter sobre o SOAP 1.2 da Sefaz.
type Client struct {
	httpClient *http.Client
	signer     *DigitalSignatureService
	endpoint   func(uf, env string) string
}

// NewClient constrói o cliente. O timeout cobre a chamada inteira; os
// autorizadores estaduais costumam responder em poucos segundos, mas
// degradam sem aviso.
func NewClient(timeout time.Duration, signer *DigitalSignatureService) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		signer:     signer,
		endpoint:   Endpoint,
	}
}

// ── Estruturas SOAP ────────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name `xml:"soap12:Envelope"`
	XmlnsS  string   `xml:"xmlns:soap12,attr"`
	Body    soapBody `xml:"soap12:Body"`
}

type soapBody struct {
	DadosMsg nfeDadosMsg `xml:"nfeDadosMsg"`
}

type nfeDadosMsg struct {
	Xmlns   string `xml:"xmlns,attr"`
	Payload string `xml:",innerxml"`
}

// ── Operações ──────────────────────────────────────────────────────────────────

// Submit assina a NFe, embala em enviNFe (lote de um documento, processamento
// síncrono) e envia ao autorizador da UF.
func (c *Client) Submit(ctx context.Context, nfeXML []byte, h *certificate.Handle, uf, env string) (*Result, error) {
	signed, err := c.signer.Sign(nfeXML, h)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`<enviNFe xmlns="` + NsNFe + `" versao="` + layoutVersion + `">`)
	sb.WriteString(`<idLote>` + strconv.FormatInt(time.Now().UnixMilli(), 10) + `</idLote>`)
	sb.WriteString(`<indSinc>1</indSinc>`)
	sb.Write(signed)
	sb.WriteString(`</enviNFe>`)
	payload := sb.String()

	result := c.call(ctx, c.endpoint(uf, env), wsNsAutorizacao, soapActionSubmit, payload, authorizedStatus)
	result.SignedXML = signed
	return result, nil
}

// Query monta o consSitNFe da chave. Consulta não é assinada.
func (c *Client) Query(ctx context.Context, accessKey, uf, env string) (*Result, error) {
	if len(accessKey) != 44 {
		return nil, fmt.Errorf("%w: chave de acesso com %d dígitos", domain.ErrInvalidInput, len(accessKey))
	}
	tpAmb := entity.TpAmbCode(env)

	var sb strings.Builder
	sb.WriteString(`<consSitNFe xmlns="` + NsNFe + `" versao="` + layoutVersion + `">`)
	sb.WriteString(`<tpAmb>` + tpAmb + `</tpAmb>`)
	sb.WriteString(`<xServ>CONSULTAR</xServ>`)
	sb.WriteString(`<chNFe>` + accessKey + `</chNFe>`)
	sb.WriteString(`</consSitNFe>`)

	return c.call(ctx, c.endpoint(uf, env), wsNsConsulta, soapActionQuery, sb.String(), authorizedStatus), nil
}

// Cancel monta e assina o pedido de cancelamento referenciando o protocolo
// de autorização. A justificativa é obrigatória (mínimo legal de 15 caracteres).
func (c *Client) Cancel(ctx context.Context, accessKey, protocol, justification string, h *certificate.Handle, uf, env string) (*Result, error) {
	if len(strings.TrimSpace(justification)) < 15 {
		return nil, fmt.Errorf("%w: justificativa de cancelamento exige ao menos 15 caracteres", domain.ErrInvalidInput)
	}
	tpAmb := entity.TpAmbCode(env)

	var sb strings.Builder
	sb.WriteString(`<cancNFe xmlns="` + NsNFe + `" versao="` + layoutVersion + `">`)
	sb.WriteString(`<infCanc Id="ID` + accessKey + `">`)
	sb.WriteString(`<tpAmb>` + tpAmb + `</tpAmb>`)
	sb.WriteString(`<xServ>CANCELAR</xServ>`)
	sb.WriteString(`<chNFe>` + accessKey + `</chNFe>`)
	sb.WriteString(`<nProt>` + protocol + `</nProt>`)
	sb.WriteString(`<xJust>` + escapeXML(justification) + `</xJust>`)
	sb.WriteString(`</infCanc>`)
	sb.WriteString(`</cancNFe>`)

	signed, err := c.signer.Sign([]byte(sb.String()), h)
	if err != nil {
		return nil, err
	}

	result := c.call(ctx, c.endpoint(uf, env), wsNsEvento, soapActionCancel, string(signed), canceledStatus)
	result.SignedXML = signed
	return result, nil
}

// ── Transporte e parse ─────────────────────────────────────────────────────────

// call embala o payload no envelope SOAP, faz o POST e interpreta a resposta.
// Qualquer falha de transporte vira Result com cStat 999; o erro HTTP nunca
// sobe cru para o orquestrador.
func (c *Client) call(ctx context.Context, url, wsNs, action, payload string, successCodes map[string]bool) *Result {
	envelope := soapEnvelope{
		XmlnsS: soapNS,
		Body: soapBody{DadosMsg: nfeDadosMsg{
			Xmlns:   wsNs,
			Payload: payload,
		}},
	}

	xmlPayload, err := xml.Marshal(envelope)
	if err != nil {
		return &Result{
			Success:    false,
			StatusCode: StatusNetworkFailure,
			Reason:     "serializar envelope SOAP: " + err.Error(),
			RequestXML: payload,
		}
	}
	body := append([]byte(xml.Header), xmlPayload...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Result{
			Success:    false,
			StatusCode: StatusNetworkFailure,
			Reason:     "criar request: " + err.Error(),
			RequestXML: payload,
		}
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Result{
			Success:    false,
			StatusCode: StatusNetworkFailure,
			Reason:     "chamada HTTP falhou: " + err.Error(),
			RequestXML: payload,
		}
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20)) // max 4 MB
	if err != nil {
		return &Result{
			Success:    false,
			StatusCode: StatusNetworkFailure,
			Reason:     "ler resposta: " + err.Error(),
			RequestXML: payload,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return &Result{
			Success:     false,
			StatusCode:  StatusNetworkFailure,
			Reason:      fmt.Sprintf("HTTP %d do autorizador", resp.StatusCode),
			RequestXML:  payload,
			RawResponse: string(rawBody),
		}
	}

	result := parseResponse(rawBody, successCodes)
	result.RequestXML = payload
	return result
}

// parseResponse extrai cStat/xMotivo/nProt/chNFe da resposta. O bloco de
// protocolo (infProt ou infEvento) tem precedência sobre o cStat do lote.
// Resposta malformada vira 999, nunca erro.
func parseResponse(rawBody []byte, successCodes map[string]bool) *Result {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil || doc.Root() == nil {
		return &Result{
			Success:     false,
			StatusCode:  StatusNetworkFailure,
			Reason:      "resposta SOAP malformada",
			RawResponse: string(rawBody),
		}
	}
	root := doc.Root()

	scope := findElementByTag(root, "infProt")
	if scope == nil {
		scope = findElementByTag(root, "infEvento")
	}
	if scope == nil {
		scope = root
	}

	cStat := childText(scope, "cStat")
	if cStat == "" {
		return &Result{
			Success:     false,
			StatusCode:  StatusNetworkFailure,
			Reason:      "resposta sem cStat",
			RawResponse: string(rawBody),
		}
	}
	return &Result{
		Success:     successCodes[cStat],
		StatusCode:  cStat,
		Reason:      childText(scope, "xMotivo"),
		Protocol:    childText(scope, "nProt"),
		AccessKey:   childText(scope, "chNFe"),
		RawResponse: string(rawBody),
	}
}

func childText(el *etree.Element, tag string) string {
	if found := findElementByTag(el, tag); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

var _ Transmitter = (*Client)(nil)
