// Serviço de assinatura digital enveloped (XMLDSig) para documentos NFe.
// Assina o elemento identificado por Id (infNFe, infEvento ou infInut) e
// injeta <Signature> como irmão imediato dentro do elemento pai.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

var _ pkgnfe.Assinador = (*AssinadorDigital)(nil)

// AssinadorDigital assina documentos fiscais com o certificado A1 do emitente.
type AssinadorDigital struct {
	cert tls.Certificate
}

// NewAssinadorDigital constrói o serviço com o certificado já carregado.
func NewAssinadorDigital(cert tls.Certificate) *AssinadorDigital {
	return &AssinadorDigital{cert: cert}
}

// Assinar implementa pkg/nfe.Assinador. elementoRaiz é a tag do elemento
// assinado ("infNFe", "infEvento" ou "infInut"); a Reference usa o atributo
// Id desse elemento.
func (s *AssinadorDigital) Assinar(xmlBytes []byte, elementoRaiz string) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("assinar: XML vazio")
	}
	priv, ok := s.cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("assinar: o certificado precisa de chave privada RSA")
	}
	x509Cert := s.cert.Leaf
	if x509Cert == nil {
		parsed, err := x509.ParseCertificate(s.cert.Certificate[0])
		if err != nil {
			return nil, fmt.Errorf("assinar: parsear certificado: %w", err)
		}
		x509Cert = parsed
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("assinar: parsear XML: %w", err)
	}
	alvo := buscarElemento(doc.Root(), elementoRaiz)
	if alvo == nil {
		return nil, fmt.Errorf("assinar: elemento %q não encontrado", elementoRaiz)
	}
	id := alvo.SelectAttrValue("Id", "")
	if id == "" {
		return nil, fmt.Errorf("assinar: elemento %q sem atributo Id", elementoRaiz)
	}

	// 1) Digest do elemento referenciado (C14N + SHA-1).
	alvoDoc := etree.NewDocument()
	alvoDoc.SetRoot(alvo.Copy())
	alvoXML, err := alvoDoc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("assinar: serializar elemento: %w", err)
	}
	canonico, err := canonizar(alvoXML)
	if err != nil {
		return nil, fmt.Errorf("assinar: canonizar %s: %w", elementoRaiz, err)
	}
	digest := sha1.Sum(canonico)
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])

	// 2) SignedInfo canonizado e assinado (RSA-SHA1).
	signedInfoXML := buildSignedInfo(id, digestB64)
	canonicoSI, err := canonizar([]byte(signedInfoXML))
	if err != nil {
		return nil, fmt.Errorf("assinar: canonizar SignedInfo: %w", err)
	}
	hashSI := sha1.Sum(canonicoSI)
	assinatura, err := rsa.SignPKCS1v15(nil, priv, crypto.SHA1, hashSI[:])
	if err != nil {
		return nil, fmt.Errorf("assinar: assinar SignedInfo: %w", err)
	}

	// 3) Nó Signature completo, injetado logo depois do elemento assinado.
	sigXML := buildSignature(signedInfoXML,
		base64.StdEncoding.EncodeToString(assinatura),
		base64.StdEncoding.EncodeToString(x509Cert.Raw))
	if err := injetarAssinatura(alvo, sigXML); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("assinar: serializar documento: %w", err)
	}
	return out.Bytes(), nil
}

func canonizar(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

func buildSignedInfo(id, digestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<SignedInfo xmlns="` + NamespaceDS + `">`)
	sb.WriteString(`<CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<SignatureMethod Algorithm="` + AlgRSASHA1 + `"/>`)
	sb.WriteString(`<Reference URI="#` + id + `">`)
	sb.WriteString(`<Transforms><Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<Transform Algorithm="` + AlgC14N + `"/></Transforms>`)
	sb.WriteString(`<DigestMethod Algorithm="` + AlgSHA1 + `"/>`)
	sb.WriteString(`<DigestValue>` + digestB64 + `</DigestValue>`)
	sb.WriteString(`</Reference>`)
	sb.WriteString(`</SignedInfo>`)
	return sb.String()
}

func buildSignature(signedInfoXML, signatureB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<Signature xmlns="` + NamespaceDS + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<SignatureValue>` + signatureB64 + `</SignatureValue>`)
	sb.WriteString(`<KeyInfo><X509Data><X509Certificate>` + certB64 + `</X509Certificate></X509Data></KeyInfo>`)
	sb.WriteString(`</Signature>`)
	return sb.String()
}

// injetarAssinatura insere o nó Signature como irmão imediato do elemento
// assinado, posição que o schema da NFe exige.
func injetarAssinatura(alvo *etree.Element, sigXML string) error {
	pai := alvo.Parent()
	if pai == nil {
		return fmt.Errorf("assinar: elemento assinado sem pai")
	}
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(sigXML); err != nil {
		return fmt.Errorf("assinar: parsear Signature: %w", err)
	}
	sigRoot := sigDoc.Root()
	if sigRoot == nil {
		return fmt.Errorf("assinar: Signature sem raiz")
	}
	pai.InsertChildAt(alvo.Index()+1, sigRoot)
	return nil
}

func buscarElemento(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.Tag == tag {
		return el
	}
	for _, filho := range el.ChildElements() {
		if achado := buscarElemento(filho, tag); achado != nil {
			return achado
		}
	}
	return nil
}

// Certificado expõe o certificado carregado para o TLS mútuo do cliente SEFAZ.
func (s *AssinadorDigital) Certificado() tls.Certificate {
	return s.cert
}
