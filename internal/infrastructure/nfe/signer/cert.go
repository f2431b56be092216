// Carga do certificado A1 a partir de .pfx (PKCS#12) ou par PEM.

package signer

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// CarregarCertificado decide pelo sufixo do arquivo: .pfx/.p12 usa PKCS#12,
// qualquer outro caminho é tratado como PEM (certificado e chave separados, ou
// combinados quando keyPath é vazio).
func CarregarCertificado(certPath, keyPath, senha string) (tls.Certificate, error) {
	if certPath == "" {
		return tls.Certificate{}, fmt.Errorf("caminho do certificado não configurado")
	}
	lower := strings.ToLower(certPath)
	if strings.HasSuffix(lower, ".pfx") || strings.HasSuffix(lower, ".p12") {
		return carregarPFX(certPath, senha)
	}
	return carregarPEM(certPath, keyPath)
}

func carregarPFX(path, senha string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("ler pfx: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, senha)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar pfx: %w", err)
	}
	// pkcs12.Decode devolve só o certificado folha; para a SEFAZ isso basta
	// tanto na assinatura quanto no TLS mútuo.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

func carregarPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("carregar PEM: %w", err)
	}
	return cert, nil
}
