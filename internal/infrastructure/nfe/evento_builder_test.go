package nfe_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jovemegidio/zyntra-fiscal/internal/domain/entity"
	"github.com/jovemegidio/zyntra-fiscal/internal/infrastructure/nfe"
	pkgnfe "github.com/jovemegidio/zyntra-fiscal/pkg/nfe"
)

func eventoExemplo(tipo string) nfe.DadosEvento {
	return nfe.DadosEvento{
		ChaveAcesso: chaveExemplo,
		CNPJ:        "12345678000195",
		UF:          "SP",
		Ambiente:    pkgnfe.AmbienteHomologacao,
		Tipo:        tipo,
		Sequencia:   1,
		Texto:       "Erro na digitação do pedido de compra do cliente",
		Protocolo:   "135260000000001",
		Momento:     time.Date(2026, 8, 11, 9, 0, 0, 0, time.FixedZone("-03", -3*3600)),
		Lote:        7,
	}
}

func TestMontarXMLEvento_Cancelamento(t *testing.T) {
	saida, err := nfe.MontarXMLEvento(eventoExemplo(entity.EventoCancelamento))
	require.NoError(t, err)
	xml := string(saida)

	// O Id do infEvento é o alvo da assinatura: tipo + chave + sequência.
	assert.Contains(t, xml, fmt.Sprintf(`Id="ID110111%s01"`, chaveExemplo))
	assert.Contains(t, xml, "<cOrgao>35</cOrgao>")
	assert.Contains(t, xml, "<tpEvento>110111</tpEvento>")
	assert.Contains(t, xml, "<nSeqEvento>1</nSeqEvento>")
	assert.Contains(t, xml, "<descEvento>Cancelamento</descEvento>")
	assert.Contains(t, xml, "<nProt>135260000000001</nProt>")
	assert.Contains(t, xml, "<xJust>Erro na digitacao do pedido de compra do cliente</xJust>")
	assert.NotContains(t, xml, "xCorrecao")
}

func TestMontarXMLEvento_CartaCorrecao(t *testing.T) {
	d := eventoExemplo(entity.EventoCartaCorrecao)
	d.Sequencia = 3

	saida, err := nfe.MontarXMLEvento(d)
	require.NoError(t, err)
	xml := string(saida)

	assert.Contains(t, xml, fmt.Sprintf(`Id="ID110110%s03"`, chaveExemplo), "sequência em 2 dígitos")
	assert.Contains(t, xml, "<descEvento>Carta de Correcao</descEvento>")
	assert.Contains(t, xml, "<xCorrecao>")
	assert.Contains(t, xml, "<xCondUso>A Carta de Correcao e disciplinada", "texto legal obrigatório")
	assert.NotContains(t, xml, "<nProt>")
}

func TestMontarXMLEvento_Validacoes(t *testing.T) {
	d := eventoExemplo(entity.EventoCancelamento)
	d.ChaveAcesso = "123"
	_, err := nfe.MontarXMLEvento(d)
	assert.Error(t, err)

	d = eventoExemplo(entity.EventoCancelamento)
	d.UF = "XX"
	_, err = nfe.MontarXMLEvento(d)
	assert.Error(t, err)

	for _, seq := range []int{0, -1, 21} {
		d = eventoExemplo(entity.EventoCancelamento)
		d.Sequencia = seq
		_, err = nfe.MontarXMLEvento(d)
		assert.Errorf(t, err, "sequência %d fora de 1..20", seq)
	}

	d = eventoExemplo("999999")
	_, err = nfe.MontarXMLEvento(d)
	assert.Error(t, err, "tipo de evento desconhecido")
}

func TestMontarXMLInutilizacao(t *testing.T) {
	d := nfe.DadosInutilizacao{
		UF:            "SP",
		Ambiente:      pkgnfe.AmbienteProducao,
		Ano:           2026,
		CNPJ:          "12.345.678/0001-95",
		Modelo:        "55",
		Serie:         1,
		NumeroInicial: 100,
		NumeroFinal:   109,
		Justificativa: "Falha no sistema emissor durante a virada de série",
	}

	saida, err := nfe.MontarXMLInutilizacao(d)
	require.NoError(t, err)
	xml := string(saida)

	// Id = ID + cUF + ano(2) + CNPJ + mod + serie(3) + nIni(9) + nFin(9).
	assert.Contains(t, xml, `Id="ID35261234567800019555001000000100000000109"`)
	assert.Contains(t, xml, "<xServ>INUTILIZAR</xServ>")
	assert.Contains(t, xml, "<ano>26</ano>")
	assert.Contains(t, xml, "<nNFIni>100</nNFIni>")
	assert.Contains(t, xml, "<nNFFin>109</nNFFin>")
	assert.Contains(t, xml, `versao="4.00"`)
}

func TestMontarXMLInutilizacao_FaixaInvalida(t *testing.T) {
	base := nfe.DadosInutilizacao{
		UF: "SP", Ambiente: pkgnfe.AmbienteProducao, Ano: 2026,
		CNPJ: "12345678000195", Modelo: "55", Serie: 1,
		Justificativa: "Faixa reservada por engano na configuração",
	}

	d := base
	d.NumeroInicial, d.NumeroFinal = 0, 10
	_, err := nfe.MontarXMLInutilizacao(d)
	assert.Error(t, err, "número inicial precisa ser ≥ 1")

	d = base
	d.NumeroInicial, d.NumeroFinal = 10, 9
	_, err = nfe.MontarXMLInutilizacao(d)
	assert.Error(t, err, "faixa invertida")

	d = base
	d.UF = "ZZ"
	d.NumeroInicial, d.NumeroFinal = 1, 1
	_, err = nfe.MontarXMLInutilizacao(d)
	assert.Error(t, err)
}
