// Validações estruturais dos códigos de classificação fiscal. São deliberadamente
// fail-fast: um NCM ou CFOP malformado só seria rejeitado pela SEFAZ depois de
// uma ida lenta à rede, então barramos antes de qualquer chamada.
package nfe

import (
	"errors"
	"fmt"
)

// ErrCodigoInvalido agrupa erros de classificação fiscal malformada.
var ErrCodigoInvalido = errors.New("nfe: código de classificação inválido")

// ValidarNCM exige exatamente 8 dígitos.
func ValidarNCM(ncm string) error {
	if len(ncm) != 8 || !soDigitos(ncm) {
		return fmt.Errorf("%w: NCM %q (esperado 8 dígitos)", ErrCodigoInvalido, ncm)
	}
	return nil
}

// ValidarCFOP exige 4 dígitos começando por 1, 2, 3 (entradas) ou 5, 6, 7 (saídas).
func ValidarCFOP(cfop string) error {
	if len(cfop) != 4 || !soDigitos(cfop) {
		return fmt.Errorf("%w: CFOP %q (esperado 4 dígitos)", ErrCodigoInvalido, cfop)
	}
	switch cfop[0] {
	case '1', '2', '3', '5', '6', '7':
		return nil
	}
	return fmt.Errorf("%w: CFOP %q (primeiro dígito deve ser 1, 2, 3, 5, 6 ou 7)", ErrCodigoInvalido, cfop)
}

// ValidarGTIN aceita "SEM GTIN" (produto sem código de barras) ou um GTIN de
// 8, 12, 13 ou 14 dígitos com dígito verificador GS1 válido.
func ValidarGTIN(gtin string) error {
	if gtin == "SEM GTIN" {
		return nil
	}
	switch len(gtin) {
	case 8, 12, 13, 14:
	default:
		return fmt.Errorf("%w: GTIN %q (esperado 8, 12, 13 ou 14 dígitos ou \"SEM GTIN\")", ErrCodigoInvalido, gtin)
	}
	if !soDigitos(gtin) {
		return fmt.Errorf("%w: GTIN %q contém não-dígitos", ErrCodigoInvalido, gtin)
	}
	// Dígito verificador GS1: soma com pesos 3/1 alternados a partir da direita.
	soma := 0
	peso := 3
	for i := len(gtin) - 2; i >= 0; i-- {
		soma += int(gtin[i]-'0') * peso
		if peso == 3 {
			peso = 1
		} else {
			peso = 3
		}
	}
	dv := (10 - soma%10) % 10
	if int(gtin[len(gtin)-1]-'0') != dv {
		return fmt.Errorf("%w: GTIN %q com dígito verificador incorreto", ErrCodigoInvalido, gtin)
	}
	return nil
}

// ValidarCNPJ confere comprimento e os dois dígitos verificadores do CNPJ.
func ValidarCNPJ(cnpj string) error {
	if len(cnpj) != 14 || !soDigitos(cnpj) {
		return fmt.Errorf("%w: CNPJ %q (esperado 14 dígitos)", ErrCodigoInvalido, cnpj)
	}
	if dvCNPJ(cnpj[:12]) != int(cnpj[12]-'0') || dvCNPJ(cnpj[:13]) != int(cnpj[13]-'0') {
		return fmt.Errorf("%w: CNPJ %q com dígitos verificadores incorretos", ErrCodigoInvalido, cnpj)
	}
	return nil
}

// dvCNPJ calcula um dígito verificador do CNPJ (módulo 11, pesos 2..9 da direita).
func dvCNPJ(parcial string) int {
	soma := 0
	peso := 2
	for i := len(parcial) - 1; i >= 0; i-- {
		soma += int(parcial[i]-'0') * peso
		peso++
		if peso > 9 {
			peso = 2
		}
	}
	resto := soma % 11
	if resto < 2 {
		return 0
	}
	return 11 - resto
}
