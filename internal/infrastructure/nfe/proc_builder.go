package nfe

import (
	"bytes"
	"fmt"

	"github.com/beevik/etree"
)

// MontarProcNFe monta o nfeProc de distribuição: NFe assinada + protNFe
// extraído da resposta do autorizador. É esse documento que vale juridicamente
// depois da autorização.
func MontarProcNFe(xmlAssinado, xmlResposta []byte) ([]byte, error) {
	resp := etree.NewDocument()
	if err := resp.ReadFromBytes(xmlResposta); err != nil {
		return nil, fmt.Errorf("montar nfeProc: parsear resposta: %w", err)
	}
	prot := buscarPorTag(resp.Root(), "protNFe")
	if prot == nil {
		return nil, fmt.Errorf("montar nfeProc: resposta sem protNFe")
	}
	protDoc := etree.NewDocument()
	protDoc.SetRoot(prot.Copy())
	protXML, err := protDoc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("montar nfeProc: serializar protNFe: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(`<nfeProc xmlns="` + NamespaceNFe + `" versao="` + VersaoLayout + `">`)
	buf.Write(xmlAssinado)
	buf.Write(protXML)
	buf.WriteString(`</nfeProc>`)
	return buf.Bytes(), nil
}

func buscarPorTag(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.Tag == tag {
		return el
	}
	for _, filho := range el.ChildElements() {
		if achado := buscarPorTag(filho, tag); achado != nil {
			return achado
		}
	}
	return nil
}
