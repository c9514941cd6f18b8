// Serviço de assinatura digital XML-DSig para NFC-e (Manual de Orientação
// ao Contribuinte, assinatura enveloped sobre infNFe). Injeta <Signature>
// como último filho do elemento raiz.

package sefaz

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/caixazap/fiscal-api/internal/domain"
	"github.com/caixazap/fiscal-api/internal/infrastructure/certificate"
)

// Algoritmos exigidos pelo validador da Sefaz (XML-DSig com SHA-1).
const (
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// DigitalSignatureService assina documentos fiscais e valida assinaturas.
type DigitalSignatureService struct{}

// NewDigitalSignatureService cria o serviço.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{}
}

// Sign assina o elemento com atributo Id (infNFe ou infCanc) e injeta o nó
// Signature como último filho da raiz. O documento de entrada não pode já
// estar assinado.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, h *certificate.Handle) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("%w: XML vazio", domain.ErrSigning)
	}
	priv, err := h.RSAKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("%w: XML malformado: %v", domain.ErrSigning, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: documento sem raiz", domain.ErrSigning)
	}

	target := findElementWithID(root)
	if target == nil {
		return nil, fmt.Errorf("%w: nenhum elemento com atributo Id para referenciar", domain.ErrSigning)
	}
	id := target.SelectAttrValue("Id", "")

	// 1) Digest C14N do elemento referenciado
	digestB64, err := elementDigest(target, root)
	if err != nil {
		return nil, err
	}

	// 2) SignedInfo canônico assinado com RSA-SHA1
	signedInfoXML := buildSignedInfo(id, digestB64)
	canonicalSignedInfo := canonicalize([]byte(signedInfoXML))
	signHash := sha1.Sum(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA1, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: assinar SignedInfo: %v", domain.ErrSigning, err)
	}

	// 3) Nó Signature completo, com o certificado no KeyInfo
	certB64 := base64.StdEncoding.EncodeToString(h.Cert.Raw)
	signatureXML := buildSignature(signedInfoXML, base64.StdEncoding.EncodeToString(signatureValue), certB64)

	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("%w: montar Signature: %v", domain.ErrSigning, err)
	}
	root.AddChild(sigDoc.Root())

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: serializar documento assinado: %v", domain.ErrSigning, err)
	}
	return out, nil
}

// Verify confere o digest do elemento referenciado e a assinatura RSA do
// SignedInfo usando o certificado embutido no KeyInfo.
func (s *DigitalSignatureService) Verify(xmlBytes []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return fmt.Errorf("%w: XML malformado: %v", domain.ErrSigning, err)
	}
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("%w: documento sem raiz", domain.ErrSigning)
	}
	sig := findElementByTag(root, "Signature")
	if sig == nil {
		return fmt.Errorf("%w: documento sem Signature", domain.ErrSigning)
	}
	signedInfo := findElementByTag(sig, "SignedInfo")
	reference := findElementByTag(sig, "Reference")
	digestEl := findElementByTag(sig, "DigestValue")
	sigValueEl := findElementByTag(sig, "SignatureValue")
	certEl := findElementByTag(sig, "X509Certificate")
	if signedInfo == nil || reference == nil || digestEl == nil || sigValueEl == nil || certEl == nil {
		return fmt.Errorf("%w: Signature incompleta", domain.ErrSigning)
	}

	// 1) Digest do elemento referenciado
	uri := strings.TrimPrefix(reference.SelectAttrValue("URI", ""), "#")
	target := findElementWithIDValue(root, uri)
	if target == nil {
		return fmt.Errorf("%w: elemento referenciado %q não encontrado", domain.ErrSigning, uri)
	}
	digestB64, err := elementDigest(target, root)
	if err != nil {
		return err
	}
	if digestB64 != strings.TrimSpace(digestEl.Text()) {
		return fmt.Errorf("%w: digest não confere, documento alterado após a assinatura", domain.ErrSigning)
	}

	// 2) Assinatura RSA do SignedInfo
	rawCert, err := base64.StdEncoding.DecodeString(compactB64(certEl.Text()))
	if err != nil {
		return fmt.Errorf("%w: X509Certificate inválido: %v", domain.ErrSigning, err)
	}
	cert, err := x509.ParseCertificate(rawCert)
	if err != nil {
		return fmt.Errorf("%w: parsear certificado do KeyInfo: %v", domain.ErrSigning, err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: certificado sem chave pública RSA", domain.ErrSigning)
	}
	sigValue, err := base64.StdEncoding.DecodeString(compactB64(sigValueEl.Text()))
	if err != nil {
		return fmt.Errorf("%w: SignatureValue inválido: %v", domain.ErrSigning, err)
	}

	siCopy := signedInfo.Copy()
	if siCopy.SelectAttr("xmlns:ds") == nil {
		siCopy.CreateAttr("xmlns:ds", NsDs)
	}
	siDoc := etree.NewDocument()
	siDoc.SetRoot(siCopy)
	siBytes, err := siDoc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("%w: serializar SignedInfo: %v", domain.ErrSigning, err)
	}
	signHash := sha1.Sum(canonicalize(siBytes))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, signHash[:], sigValue); err != nil {
		return fmt.Errorf("%w: assinatura RSA inválida: %v", domain.ErrSigning, err)
	}
	return nil
}

// elementDigest serializa o elemento referenciado como fragmento autônomo
// (propagando o xmlns herdado da raiz), canonicaliza e devolve o SHA-1 em
// base64. Sign e Verify passam pelo mesmo caminho, então o digest é estável.
func elementDigest(el, root *etree.Element) (string, error) {
	frag := el.Copy()
	if frag.SelectAttr("xmlns") == nil {
		if ns := root.SelectAttrValue("xmlns", ""); ns != "" {
			frag.CreateAttr("xmlns", ns)
		}
	}
	fragDoc := etree.NewDocument()
	fragDoc.SetRoot(frag)
	fragBytes, err := fragDoc.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("%w: serializar elemento referenciado: %v", domain.ErrSigning, err)
	}
	digest := sha1.Sum(canonicalize(fragBytes))
	return base64.StdEncoding.EncodeToString(digest[:]), nil
}

// canonicalize aplica C14N 1.0; se o canonicalizador rejeitar o fragmento,
// cai para compactação de espaços entre tags, que preserva o conteúdo.
func canonicalize(data []byte) []byte {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return interTagWS.ReplaceAll(bytes.TrimSpace(data), []byte("><"))
	}
	return out
}

var interTagWS = regexp.MustCompile(`>\s+<`)

func buildSignedInfo(id, digestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:SignedInfo xmlns:ds="` + NsDs + `">`)
	sb.WriteString(`<ds:CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<ds:SignatureMethod Algorithm="` + AlgRSASHA1 + `"/>`)
	sb.WriteString(`<ds:Reference URI="#` + id + `">`)
	sb.WriteString(`<ds:Transforms><ds:Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<ds:Transform Algorithm="` + AlgC14N + `"/></ds:Transforms>`)
	sb.WriteString(`<ds:DigestMethod Algorithm="` + AlgSHA1 + `"/>`)
	sb.WriteString(`<ds:DigestValue>` + digestB64 + `</ds:DigestValue>`)
	sb.WriteString(`</ds:Reference>`)
	sb.WriteString(`</ds:SignedInfo>`)
	return sb.String()
}

func buildSignature(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<ds:Signature xmlns:ds="` + NsDs + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<ds:SignatureValue>` + signatureValueB64 + `</ds:SignatureValue>`)
	sb.WriteString(`<ds:KeyInfo><ds:X509Data><ds:X509Certificate>` + certB64 + `</ds:X509Certificate></ds:X509Data></ds:KeyInfo>`)
	sb.WriteString(`</ds:Signature>`)
	return sb.String()
}

// findElementWithID devolve o primeiro descendente com atributo Id
// (profundidade primeiro), ignorando a subárvore Signature.
func findElementWithID(el *etree.Element) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == "Signature" {
			continue
		}
		if child.SelectAttr("Id") != nil {
			return child
		}
		if found := findElementWithID(child); found != nil {
			return found
		}
	}
	return nil
}

func findElementWithIDValue(el *etree.Element, id string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.SelectAttrValue("Id", "") == id {
			return child
		}
		if found := findElementWithIDValue(child, id); found != nil {
			return found
		}
	}
	return nil
}

// findElementByTag busca por tag local, tolerante a prefixo de namespace.
func findElementByTag(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := findElementByTag(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func compactB64(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, s)
}
