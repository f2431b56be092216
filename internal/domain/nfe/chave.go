// Package nfe: montagem da chave de acesso da NFe (44 dígitos) e do seu
// dígito verificador módulo 11, conforme o layout 4.00.
//
// Composição (sem separadores):
//
//	cUF(2) AAMM(4) CNPJ(14) mod(2) serie(3) nNF(9) tpEmis(1) cNF(8) cDV(1)
package nfe

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// ChaveParams dados para montar a chave de acesso, na ordem exigida pelo layout.
type ChaveParams struct {
	CodigoUF       string    // código IBGE da UF do emitente (2 dígitos)
	Emissao        time.Time // usada para AAMM
	CNPJ           string    // CNPJ do emitente (14 dígitos, só dígitos)
	Modelo         string    // "55"
	Serie          int       // 1..999
	Numero         int64     // 1..999999999
	TipoEmissao    string    // tpEmis (1 dígito)
	CodigoNumerico string    // cNF (8 dígitos); gerar com GerarCodigoNumerico
}

// GerarCodigoNumerico devolve o cNF: 8 dígitos de fonte criptográfica.
// O código integra a superfície de integridade do documento, então não se usa
// math/rand aqui.
func GerarCodigoNumerico() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100_000_000))
	if err != nil {
		return "", fmt.Errorf("nfe: gerar código numérico: %w", err)
	}
	return fmt.Sprintf("%08d", n.Int64()), nil
}

// MontarChave monta os 43 dígitos da chave e anexa o dígito verificador.
func MontarChave(p ChaveParams) (string, error) {
	if len(p.CodigoUF) != 2 || !soDigitos(p.CodigoUF) {
		return "", fmt.Errorf("nfe: código de UF inválido: %q", p.CodigoUF)
	}
	if len(p.CNPJ) != 14 || !soDigitos(p.CNPJ) {
		return "", fmt.Errorf("nfe: CNPJ do emitente deve ter 14 dígitos: %q", p.CNPJ)
	}
	if len(p.Modelo) != 2 || !soDigitos(p.Modelo) {
		return "", fmt.Errorf("nfe: modelo inválido: %q", p.Modelo)
	}
	if p.Serie < 1 || p.Serie > 999 {
		return "", fmt.Errorf("nfe: série fora do intervalo 1..999: %d", p.Serie)
	}
	if p.Numero < 1 || p.Numero > 999_999_999 {
		return "", fmt.Errorf("nfe: número fora do intervalo 1..999999999: %d", p.Numero)
	}
	if len(p.TipoEmissao) != 1 || !soDigitos(p.TipoEmissao) {
		return "", fmt.Errorf("nfe: tipo de emissão inválido: %q", p.TipoEmissao)
	}
	if len(p.CodigoNumerico) != 8 || !soDigitos(p.CodigoNumerico) {
		return "", fmt.Errorf("nfe: código numérico deve ter 8 dígitos: %q", p.CodigoNumerico)
	}
	if p.Emissao.IsZero() {
		return "", fmt.Errorf("nfe: data de emissão é obrigatória")
	}

	prefixo := p.CodigoUF +
		p.Emissao.Format("0601") + // AAMM
		p.CNPJ +
		p.Modelo +
		fmt.Sprintf("%03d", p.Serie) +
		fmt.Sprintf("%09d", p.Numero) +
		p.TipoEmissao +
		p.CodigoNumerico

	dv, err := DigitoVerificador(prefixo)
	if err != nil {
		return "", err
	}
	return prefixo + fmt.Sprintf("%d", dv), nil
}

// DigitoVerificador calcula o DV módulo 11 dos 43 dígitos da chave, com pesos
// ciclando 2..9 do dígito mais à direita para a esquerda. Resto 0 ou 1 → DV 0;
// caso contrário DV = 11 − resto.
func DigitoVerificador(prefixo43 string) (int, error) {
	if len(prefixo43) != 43 || !soDigitos(prefixo43) {
		return 0, fmt.Errorf("nfe: prefixo da chave deve ter 43 dígitos: %d", len(prefixo43))
	}
	soma := 0
	peso := 2
	for i := len(prefixo43) - 1; i >= 0; i-- {
		soma += int(prefixo43[i]-'0') * peso
		peso++
		if peso > 9 {
			peso = 2
		}
	}
	resto := soma % 11
	if resto == 0 || resto == 1 {
		return 0, nil
	}
	return 11 - resto, nil
}

// ValidarChave confere comprimento, dígitos e DV de uma chave de 44 posições.
func ValidarChave(chave string) error {
	if len(chave) != 44 || !soDigitos(chave) {
		return fmt.Errorf("nfe: chave de acesso deve ter 44 dígitos: %q", chave)
	}
	dv, err := DigitoVerificador(chave[:43])
	if err != nil {
		return err
	}
	if int(chave[43]-'0') != dv {
		return fmt.Errorf("nfe: dígito verificador da chave não confere (esperado %d)", dv)
	}
	return nil
}

func soDigitos(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
