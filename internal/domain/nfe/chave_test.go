package nfe_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/nfe"
)

// Vetores calculados manualmente com o módulo-11 de pesos 2..9 a partir do
// dígito menos significativo. Se alguém alterar a ordem dos campos, o formato
// dos preenchimentos ou o algoritmo do DV, estes testes quebram na hora.
var emissaoTeste = time.Date(2026, time.August, 14, 10, 30, 0, 0, time.UTC)

func paramsBase() nfe.ChaveParams {
	return nfe.ChaveParams{
		CodigoUF:       "35",
		Emissao:        emissaoTeste,
		CNPJ:           "12345678000195",
		Modelo:         "55",
		Serie:          1,
		Numero:         42,
		TipoEmissao:    "1",
		CodigoNumerico: "31415926",
	}
}

func TestMontarChave_VetorExato(t *testing.T) {
	chave, err := nfe.MontarChave(paramsBase())
	require.NoError(t, err)

	// 35 2608 12345678000195 55 001 000000042 1 31415926 + DV 8
	assert.Equal(t, "35260812345678000195550010000000421314159268", chave)
	assert.Len(t, chave, 44)
	assert.NoError(t, nfe.ValidarChave(chave))
}

func TestMontarChave_DigitoZero(t *testing.T) {
	p := paramsBase()
	p.CodigoNumerico = "12345678"
	chave, err := nfe.MontarChave(p)
	require.NoError(t, err)

	// Resto 0 ou 1 no módulo-11 produz DV 0, nunca 10 ou 11.
	assert.Equal(t, byte('0'), chave[43])
	assert.NoError(t, nfe.ValidarChave(chave))
}

func TestDigitoVerificador_MutacaoInvalida(t *testing.T) {
	chave, err := nfe.MontarChave(paramsBase())
	require.NoError(t, err)

	// Trocar qualquer dígito do corpo invalida a chave (ou muda o DV).
	for pos := 0; pos < 43; pos++ {
		mutada := []byte(chave)
		original := mutada[pos]
		mutada[pos] = '0' + (original-'0'+1)%10
		err := nfe.ValidarChave(string(mutada))
		// Uma única troca de dígito nunca preserva o DV no módulo-11 com
		// pesos 2..9: o delta ponderado nunca é múltiplo de 11.
		assert.Errorf(t, err, "mutação na posição %d deveria invalidar a chave", pos)
	}
}

func TestMontarChave_Validacoes(t *testing.T) {
	casos := []struct {
		nome  string
		mudar func(*nfe.ChaveParams)
	}{
		{"uf curta", func(p *nfe.ChaveParams) { p.CodigoUF = "3" }},
		{"cnpj curto", func(p *nfe.ChaveParams) { p.CNPJ = "123" }},
		{"cnpj com letras", func(p *nfe.ChaveParams) { p.CNPJ = "1234567800019A" }},
		{"serie zero", func(p *nfe.ChaveParams) { p.Serie = 0 }},
		{"serie acima de 999", func(p *nfe.ChaveParams) { p.Serie = 1000 }},
		{"numero zero", func(p *nfe.ChaveParams) { p.Numero = 0 }},
		{"numero acima do teto", func(p *nfe.ChaveParams) { p.Numero = 1_000_000_000 }},
		{"cnf curto", func(p *nfe.ChaveParams) { p.CodigoNumerico = "1234" }},
		{"tpEmis vazio", func(p *nfe.ChaveParams) { p.TipoEmissao = "" }},
	}
	for _, c := range casos {
		t.Run(c.nome, func(t *testing.T) {
			p := paramsBase()
			c.mudar(&p)
			_, err := nfe.MontarChave(p)
			assert.Error(t, err)
		})
	}
}

func TestGerarCodigoNumerico_Formato(t *testing.T) {
	visto := map[string]bool{}
	for i := 0; i < 50; i++ {
		cnf, err := nfe.GerarCodigoNumerico()
		require.NoError(t, err)
		assert.Len(t, cnf, 8)
		assert.Equal(t, "", strings.Trim(cnf, "0123456789"), "cNF deve conter apenas dígitos")
		visto[cnf] = true
	}
	// 50 sorteios de 8 dígitos colidindo todos seria sinal de fonte quebrada.
	assert.Greater(t, len(visto), 1)
}

func TestValidarChave_TamanhoErrado(t *testing.T) {
	assert.Error(t, nfe.ValidarChave(""))
	assert.Error(t, nfe.ValidarChave("123"))
	assert.Error(t, nfe.ValidarChave(strings.Repeat("1", 45)))
	assert.Error(t, nfe.ValidarChave(strings.Repeat("A", 44)))
}
