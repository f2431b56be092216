// Constantes da assinatura XMLDSig enveloped exigida pelo layout 4.00.

package signer

// Namespaces e algoritmos. A NFe ainda exige RSA-SHA1 no perfil de assinatura.
const (
	NamespaceDS = "http://www.w3.org/2000/09/xmldsig#"

	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)
