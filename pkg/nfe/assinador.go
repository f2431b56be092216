package nfe

// Assinador assina um fragmento XML do documento fiscal e devolve o XML com a
// assinatura XMLDSig enveloped injetada logo após o elemento referenciado.
//
// elementoRaiz identifica o elemento assinado, que varia por tipo de documento:
// "infNFe" para a nota, "infEvento" para cancelamento/carta de correção e
// "infInut" para inutilização de numeração.
type Assinador interface {
	Assinar(xmlBytes []byte, elementoRaiz string) ([]byte, error)
}
