package nfe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/nfe"
)

func TestSanitizar(t *testing.T) {
	casos := []struct {
		nome     string
		entrada  string
		maxLen   int
		esperado string
	}{
		{"acentos removidos", "Operação de Venda à Vista", 60, "Operacao de Venda a Vista"},
		{"espacos colapsados", "  ACME   Comércio\t\tLtda  ", 60, "ACME Comercio Ltda"},
		{"controle vira separador", "linha1\x00linha2\r\nlinha3", 60, "linha1 linha2 linha3"},
		{"truncagem", "abcdefghij", 5, "abcde"},
		{"truncagem sem espaco final", "abcde fghij", 6, "abcde"},
		{"vazio", "", 60, ""},
		{"cedilha", "aço ção", 60, "aco cao"},
	}
	for _, c := range casos {
		t.Run(c.nome, func(t *testing.T) {
			assert.Equal(t, c.esperado, nfe.Sanitizar(c.entrada, c.maxLen))
		})
	}
}

func TestSoDigitos(t *testing.T) {
	assert.Equal(t, "12345678000195", nfe.SoDigitos("12.345.678/0001-95"))
	assert.Equal(t, "01310100", nfe.SoDigitos("01310-100"))
	assert.Equal(t, "", nfe.SoDigitos("abc"))
}
